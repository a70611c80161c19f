package auth

import (
	"net/http"
	"strings"

	"github.com/izonedevs/izonehub-api/internal/respond"
)

// Authenticate attaches the bearer-token user to the request context.
// Requests without a token pass through anonymously; a malformed or expired
// token is rejected with 401.
func Authenticate(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.Parse(raw, KindAccess)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			uid, err := claims.UserID()
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), uid, claims.Role)))
		})
	}
}

// Require rejects anonymous requests.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); !ok {
			respond.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}
