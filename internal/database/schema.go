package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schemaSQL string

// Tables lists every table CreateSchema creates, in creation order.
var Tables = []string{
	"users", "communities", "projects", "events", "event_registrations",
	"blog_posts", "products", "gallery_items", "contact_messages",
	"uploads", "partners", "team_members",
}

// CreateSchema applies the embedded SQLite schema.  Every statement is
// `IF NOT EXISTS`, so running it twice is harmless.
func CreateSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range statements(schemaSQL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// statements strips comment lines and splits on semicolons.
func statements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var out []string
	for _, s := range strings.Split(b.String(), ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// InsertID runs an INSERT and returns the new primary key.  Postgres has no
// LastInsertId, so the statement gains a RETURNING clause there.  query uses
// `?` placeholders; they are rebound for the active driver.
func InsertID(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (int64, error) {
	query = ext.Rebind(query)
	if ext.DriverName() == driverPostgres {
		var id int64
		if err := sqlx.GetContext(ctx, ext, &id, query+" RETURNING id", args...); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ForUpdate adds a row-lock clause to a SELECT on drivers that have one.
// SQLite has none; its pool is a single connection, so transactions are
// already serial.
func ForUpdate(ext sqlx.ExtContext, query string) string {
	if ext.DriverName() == driverSQLite {
		return query
	}
	return query + " FOR UPDATE"
}
