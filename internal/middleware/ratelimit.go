package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/izonedevs/izonehub-api/internal/requestinfo"
	"github.com/izonedevs/izonehub-api/internal/respond"
)

// RateLimiter keeps one token bucket per client IP.  Buckets idle for
// longer than the idle window are dropped on the next Allow.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	clients map[string]*client
	swept   time.Time
	now     func() time.Time
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter allows n requests per window per IP, with bursts up to n.
func NewRateLimiter(n int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(float64(n) / window.Seconds()),
		burst:   n,
		idle:    10 * window,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.swept) > rl.idle {
		for k, c := range rl.clients {
			if now.Sub(c.seen) > rl.idle {
				delete(rl.clients, k)
			}
		}
		rl.swept = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.seen = now
	return c.lim.AllowN(now, 1)
}

// Handler rejects over-limit requests with 429.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "unknown"
		if ip := clientIP(r); ip != nil {
			key = ip.String()
		}
		if !rl.Allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(int(1/float64(rl.limit))+1))
			respond.Error(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the address Enrich resolved against the trusted
// proxies and otherwise uses the socket peer.
func clientIP(r *http.Request) net.IP {
	if info := requestinfo.FromContext(r.Context()); info != nil && info.IP != nil {
		return info.IP
	}
	return requestinfo.ClientIP(r)
}
