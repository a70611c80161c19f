package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS permits the given origins.  An origin may contain one "*" wildcard,
// such as "https://*.vercel.app" for preview deployments.  Credentials are
// allowed, so a bare "*" must never appear in origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
