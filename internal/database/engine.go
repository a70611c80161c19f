package database

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"
)

// Engine owns the one connection pool a process uses.  Get opens the pool
// on first use and returns the same *sqlx.DB afterwards, so an in-memory
// database created at bootstrap stays visible to every request.  A failed
// open is not cached; the next Get retries.
type Engine struct {
	url  string
	opts Options

	sfg singleflight.Group
	mu  sync.RWMutex
	db  *sqlx.DB
}

// NewEngine records the URL; nothing is opened yet.
func NewEngine(rawURL string, opts Options) *Engine {
	return &Engine{url: rawURL, opts: opts}
}

// URL returns the effective URL the engine connects to.
func (e *Engine) URL() string { return e.url }

// Get returns the shared pool, opening it exactly once.
func (e *Engine) Get(ctx context.Context) (*sqlx.DB, error) {
	e.mu.RLock()
	db := e.db
	e.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	v, err, _ := e.sfg.Do("open", func() (any, error) {
		// Double-check after the singleflight barrier.
		e.mu.RLock()
		if e.db != nil {
			defer e.mu.RUnlock()
			return e.db, nil
		}
		e.mu.RUnlock()

		db, err := OpenWithOptions(ctx, e.url, e.opts)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.db = db
		e.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sqlx.DB), nil
}

// Close releases the pool if it was opened.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}
