// internal/routing/slug.go
//
// Slug helpers for blog posts and events.
//
// • MakeSlug(title)  ─ URL-safe ASCII slug: a-z, 0-9, and "-".
// • UniqueSlug(...)  ─ MakeSlug plus a numeric suffix ("-2", "-3", …) when
//   the slug is already taken in the given table.
//
// Rules (MakeSlug)
// ----------------
// 1. Lower-case everything.
// 2. Any run of non-[a-z0-9] characters becomes one "-".  That strips
//    spaces, punctuation, emoji, and non-ASCII.
// 3. Trim leading / trailing "-".
// 4. An empty result becomes "item".
// 5. At most MaxSlugLen bytes.

package routing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// MaxSlugLen bounds a slug before any uniqueness suffix.
const MaxSlugLen = 100

// maxSuffix caps the candidate loop in UniqueSlug.
const maxSuffix = 1000

// MakeSlug converts title → lower-kebab ASCII.
func MakeSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	dash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > MaxSlugLen {
		slug = strings.TrimRight(slug[:MaxSlugLen], "-")
	}
	if slug == "" {
		return "item"
	}
	return slug
}

// UniqueSlug returns a slug for title that no row in table uses, ignoring
// the row with id exceptID (pass 0 on insert).  table must be a trusted
// identifier; it is interpolated into the query.
func UniqueSlug(ctx context.Context, db sqlx.ExtContext, table, title string, exceptID int64) (string, error) {
	q := db.Rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE slug = ? AND id <> ?`, table))

	base := MakeSlug(title)
	slug := base
	for n := 2; n <= maxSuffix; n++ {
		var taken int
		if err := sqlx.GetContext(ctx, db, &taken, q, slug, exceptID); err != nil {
			return "", fmt.Errorf("slug lookup: %w", err)
		}
		if taken == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return "", fmt.Errorf("slug %q: no free suffix in %s", base, table)
}
