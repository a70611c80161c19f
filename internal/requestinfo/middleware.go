// internal/requestinfo/middleware.go
//
// HTTP middleware that attaches *Info to each request.  It runs right after
// request-ID handling and resolves the client address itself, against the
// trusted proxy list, so the access log and rate limiter read the same
// address.

package requestinfo

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// Enrich parses client metadata once and stores it in the context.
func Enrich(geo *Locator, proxies Proxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := Parse(r, geo, proxies)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, &info)))
		})
	}
}

// FromContext returns the Info attached by Enrich, or nil.
func FromContext(ctx context.Context) *Info {
	info, _ := ctx.Value(ctxKey{}).(*Info)
	return info
}
