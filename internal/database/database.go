// Package database centralises sqlx connection helpers.  One URL syntax
// covers every supported backend:
//
//	sqlite:///./izonedevs.db   – modernc.org/sqlite, file on disk.
//	sqlite:///:memory:         – modernc.org/sqlite, process-local memory.
//	mysql://user:pw@host/db    – go-sql-driver/mysql (MariaDB compatible).
//	postgres://user:pw@host/db – jackc/pgx stdlib driver.
//
// Public entry points:
//
//	Open(ctx, url)                    – conservative pool sizes.
//	OpenWithOptions(ctx, url, opts)   – fine-grained control.
//	Engine                            – process singleton around Open.
//
// Both helpers Ping before returning so callers learn about a dead backend
// during bootstrap.  Callers should Close() the returned *sqlx.DB.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultOptions suits a single API process: 15 open, 5 idle, 30-minute
// connection lifetime.
var DefaultOptions = Options{
	MaxOpenConns:    15,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	PingTimeout:     5 * time.Second,
}

func init() {
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(ctx context.Context, rawURL string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, rawURL, DefaultOptions)
}

// OpenWithOptions parses rawURL, opens the pool, and pings it.  In-memory
// SQLite pools are pinned to one connection that never expires, otherwise
// the database would vanish when the pool recycles its last connection.
func OpenWithOptions(ctx context.Context, rawURL string, opts Options) (*sqlx.DB, error) {
	tgt, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(tgt.Driver, tgt.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", tgt.Driver, err)
	}

	if tgt.Memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxIdleConns)
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx := ctx
	if opts.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", tgt.Driver, err)
	}
	return db, nil
}
