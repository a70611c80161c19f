package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/izonedevs/izonehub-api/internal/respond"
)

// mountBase adds the endpoints that exist regardless of degraded steps.
func (a *App) mountBase(r chi.Router) {
	r.Get("/", a.root)
	r.Get("/health", a.health)
	r.Get("/test", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"message": "API is working"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
}

func (a *App) root(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":     "Welcome to " + a.cfg.App.Name,
		"status":      "running",
		"environment": a.cfg.Mode.String(),
		"version":     a.cfg.App.Version,
		"routes":      a.registry.Live(),
	})
}

// health always answers 200 while the process runs.  The database field
// reports whether the pool answers a ping.
func (a *App) health(w http.ResponseWriter, r *http.Request) {
	db := "unavailable"
	if a.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.PingContext(ctx); err == nil {
			db = "connected"
		} else {
			db = "error"
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"database":    db,
		"environment": a.cfg.Mode.String(),
	})
}
