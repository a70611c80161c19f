package admin

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/izonedevs/izonehub-api/components/content"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/database"
	"github.com/izonedevs/izonehub-api/internal/resource"
	"github.com/izonedevs/izonehub-api/internal/respond"
)

// Summary is the dashboard payload.
type Summary struct {
	Counts      map[string]int64 `json:"counts"`
	NewMessages int64            `json:"new_messages"`
	RecentUsers []resource.Row   `json:"recent_users"`
}

func dashboardRoutes(d component.Deps, r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		s, err := summarize(r.Context(), d.DB)
		if err != nil {
			resource.Fail(w, r, "Dashboard", err)
			return
		}
		respond.JSON(w, http.StatusOK, s)
	})
}

// summarize counts every table concurrently.
func summarize(ctx context.Context, db *sqlx.DB) (Summary, error) {
	s := Summary{Counts: make(map[string]int64, len(database.Tables))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, table := range database.Tables {
		table := table
		g.Go(func() error {
			n, err := resource.Count(ctx, db, table)
			if err != nil {
				return err
			}
			mu.Lock()
			s.Counts[table] = n
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		return db.GetContext(ctx, &s.NewMessages,
			`SELECT COUNT(*) FROM contact_messages WHERE status = 'new'`)
	})
	g.Go(func() error {
		rows, err := resource.List(ctx, db, content.UserTable, resource.Page{Limit: 5}, nil)
		s.RecentUsers = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return s, nil
}
