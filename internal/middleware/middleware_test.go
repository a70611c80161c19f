package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/izonedevs/izonehub-api/internal/requestinfo"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true)(okHandler)

	cases := []struct {
		host, proto string
		want        int
	}{
		{"api.izonedevs.com", "", http.StatusPermanentRedirect},
		{"api.izonedevs.com", "https", http.StatusOK},
		{"localhost:8000", "", http.StatusOK},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "http://"+tc.host+"/health?x=1", nil)
		if tc.proto != "" {
			r.Header.Set("X-Forwarded-Proto", tc.proto)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if rr.Code != tc.want {
			t.Errorf("%s proto=%q: status %d, want %d", tc.host, tc.proto, rr.Code, tc.want)
		}
		if rr.Code == http.StatusPermanentRedirect {
			if loc := rr.Header().Get("Location"); loc != "https://api.izonedevs.com/health?x=1" {
				t.Errorf("Location = %q", loc)
			}
		}
	}

	rr := httptest.NewRecorder()
	ForceHTTPS(false)(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("disabled wrapper redirected: %d", rr.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	Security(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}
}

func TestCORSWildcard(t *testing.T) {
	h := CORS([]string{"http://localhost:3000", "https://*.vercel.app"})(okHandler)

	cases := map[string]bool{
		"http://localhost:3000":          true,
		"https://izone-pr-42.vercel.app": true,
		"https://evil.example.com":       false,
	}
	for origin, allowed := range cases {
		r := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
		r.Header.Set("Origin", origin)
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)

		got := rr.Header().Get("Access-Control-Allow-Origin") == origin
		if got != allowed {
			t.Errorf("%s: allowed = %v, want %v", origin, got, allowed)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst of 2 should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request inside the window should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients have their own bucket")
	}

	now = now.Add(31 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("one token refills roughly every 30s")
	}

	now = now.Add(time.Hour)
	rl.Allow("c")
	if _, ok := rl.clients["b"]; ok {
		t.Error("idle bucket was not swept")
	}
}

func TestRateLimiterHandler(t *testing.T) {
	h := NewRateLimiter(1, time.Minute).Handler(okHandler)
	codes := make([]int, 2)
	for i := range codes {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		codes[i] = rr.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

func TestRateLimiterIgnoresSpoofedForwardedFor(t *testing.T) {
	h := NewRateLimiter(5, time.Minute).Handler(okHandler)
	var last int
	for i := 0; i < 6; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("sixth login from one peer: status %d, want 429", last)
	}
}

func TestRateLimiterKeysOnTrustedProxyClient(t *testing.T) {
	proxies, err := requestinfo.ParseProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}
	h := requestinfo.Enrich(nil, proxies)(NewRateLimiter(1, time.Minute).Handler(okHandler))

	send := func(client string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "10.0.0.2:443"
		r.Header.Set("X-Forwarded-For", client)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr.Code
	}
	if send("203.0.113.1") != http.StatusOK || send("203.0.113.2") != http.StatusOK {
		t.Fatal("distinct clients behind a trusted proxy share a bucket")
	}
	if code := send("203.0.113.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client: status %d, want 429", code)
	}
}

func TestAccessLogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core).Sugar()

	fail := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	AccessLog(log)(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	AccessLog(log)(fail).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("levels = %v, %v", entries[0].Level, entries[1].Level)
	}
	if entries[1].ContextMap()["status"] != int64(500) {
		t.Errorf("status field = %v", entries[1].ContextMap()["status"])
	}
}
