// internal/seed/seed.go
//
// Demo data for ephemeral deployments.
//
// Context
// -------
// A serverless boot starts from an empty in-memory database.  Run makes it
// usable by inserting one administrator and a handful of sample rows:
//
//   1. Look up the administrator by email inside a transaction.
//   2. Present → roll back and return Result{Skipped: true}.  Zero writes.
//   3. Absent  → insert admin, sample event, sample blog post, and
//      optionally a partner and a team member, then commit.
//
// The existence check, not a unique-constraint failure, is what makes a
// second run a no-op.  The transaction is rolled back by a deferred call on
// every path that does not commit.
//
// Run refuses to touch anything but an ephemeral database.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/config"
	"github.com/izonedevs/izonehub-api/internal/database"
	"github.com/izonedevs/izonehub-api/internal/metrics"
)

// Fixed administrator credentials for demo instances.
const (
	AdminEmail    = "admin@izonedevs.com"
	AdminPassword = "admin123"
	AdminUsername = "admin"
)

// ErrPersistentTarget guards production data from demo content.
var ErrPersistentTarget = errors.New("seed: refusing to seed a persistent database")

// Options controls what Run inserts.
type Options struct {
	Mode             config.Mode
	IncludeDirectory bool // also seed a partner and a team member
}

// Result reports what Run did.
type Result struct {
	Skipped bool           // admin already existed
	AdminID int64          // id of the admin row (existing or new)
	Created map[string]int // rows inserted per table
}

// Total is the number of rows inserted.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Created {
		n += c
	}
	return n
}

// Run seeds db.  See the package comment for the algorithm.
func Run(ctx context.Context, db *sqlx.DB, opts Options) (Result, error) {
	if opts.Mode != config.ModeEphemeral {
		return Result{}, ErrPersistentTarget
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("seed begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var existing int64
	err = tx.GetContext(ctx, &existing, tx.Rebind(`SELECT id FROM users WHERE email = ?`), AdminEmail)
	switch {
	case err == nil:
		return Result{Skipped: true, AdminID: existing}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Result{}, fmt.Errorf("seed lookup admin: %w", err)
	}

	res := Result{Created: make(map[string]int)}
	res.AdminID, err = insertAdmin(ctx, tx)
	if err != nil {
		return Result{}, err
	}
	res.Created["users"]++

	steps := []step{
		{"events", insertEvent},
		{"blog_posts", insertPost},
	}
	if opts.IncludeDirectory {
		steps = append(steps, step{"partners", insertPartner}, step{"team_members", insertTeamMember})
	}
	for _, s := range steps {
		if err := s.run(ctx, tx, res.AdminID); err != nil {
			return Result{}, fmt.Errorf("seed %s: %w", s.table, err)
		}
		res.Created[s.table]++
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("seed commit: %w", err)
	}
	committed = true

	for table, n := range res.Created {
		metrics.SeedRecords.WithLabelValues(table).Add(float64(n))
	}
	return res, nil
}

type step struct {
	table string
	run   func(context.Context, *sqlx.Tx, int64) error
}

func insertAdmin(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	hash, err := auth.HashPassword(AdminPassword)
	if err != nil {
		return 0, fmt.Errorf("seed hash admin password: %w", err)
	}
	id, err := database.InsertID(ctx, tx,
		`INSERT INTO users (email, username, full_name, hashed_password, role, is_active)
		 VALUES (?, ?, ?, ?, 'admin', 1)`,
		AdminEmail, AdminUsername, "iZone Administrator", hash)
	if err != nil {
		return 0, fmt.Errorf("seed admin: %w", err)
	}
	return id, nil
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, adminID int64) error {
	_, err := database.InsertID(ctx, tx,
		`INSERT INTO events (title, slug, description, location, start_date, end_date, capacity, status, organizer_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'upcoming', ?)`,
		"Intro to Arduino Workshop", "intro-to-arduino-workshop",
		"Hands-on introduction to microcontrollers for first-time makers.",
		"iZone Makerspace", "2025-01-15T10:00:00Z", "2025-01-15T14:00:00Z", 20, adminID)
	return err
}

func insertPost(ctx context.Context, tx *sqlx.Tx, adminID int64) error {
	_, err := database.InsertID(ctx, tx,
		`INSERT INTO blog_posts (title, slug, excerpt, content, status, author_id, published_at)
		 VALUES (?, ?, ?, ?, 'published', ?, CURRENT_TIMESTAMP)`,
		"Welcome to iZonehub", "welcome-to-izonehub",
		"What the makerspace offers and how to get involved.",
		"iZonehub is a community space for builders, tinkerers, and learners.",
		adminID)
	return err
}

func insertPartner(ctx context.Context, tx *sqlx.Tx, _ int64) error {
	_, err := database.InsertID(ctx, tx,
		`INSERT INTO partners (name, website, description) VALUES (?, ?, ?)`,
		"Maker Supply Co.", "https://example.com", "Components and tooling partner.")
	return err
}

func insertTeamMember(ctx context.Context, tx *sqlx.Tx, _ int64) error {
	_, err := database.InsertID(ctx, tx,
		`INSERT INTO team_members (name, position, bio, display_order) VALUES (?, ?, ?, ?)`,
		"Ada Maker", "Space Lead", "Runs workshops and keeps the laser cutter alive.", 1)
	return err
}
