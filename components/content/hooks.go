package content

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/resource"
	"github.com/izonedevs/izonehub-api/internal/routing"
)

// chain runs hooks in order and stops at the first error.
func chain(hooks ...resource.Hook) resource.Hook {
	return func(r *http.Request, row, existing resource.Row) error {
		for _, h := range hooks {
			if err := h(r, row, existing); err != nil {
				return err
			}
		}
		return nil
	}
}

// owner stamps col with the caller's id on create.
func owner(col string) resource.Hook {
	return func(r *http.Request, row, existing resource.Row) error {
		if existing == nil {
			if uid, ok := auth.UserID(r.Context()); ok {
				row[col] = uid
			}
		}
		return nil
	}
}

// slug derives a unique slug from the title whenever the title is written.
func slug(db *sqlx.DB, table string) resource.Hook {
	return func(r *http.Request, row, existing resource.Row) error {
		title, ok := row["title"].(string)
		if !ok {
			return nil
		}
		var except int64
		if existing != nil {
			except, _ = resource.Int64(existing["id"])
		}
		s, err := routing.UniqueSlug(r.Context(), db, table, title, except)
		if err != nil {
			return err
		}
		row["slug"] = s
		return nil
	}
}

// publishedAt stamps published_at the first time a post is published.
func publishedAt(now func() time.Time) resource.Hook {
	return func(r *http.Request, row, existing resource.Row) error {
		if row["status"] != "published" {
			return nil
		}
		if existing != nil && existing["published_at"] != nil {
			return nil
		}
		row["published_at"] = now().UTC().Format(time.RFC3339)
		return nil
	}
}
