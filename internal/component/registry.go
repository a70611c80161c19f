// internal/component/registry.go
//
// Router registry.
//
// Each feature module lives under components/<name> and implements
// Component.  The composition step builds one Registry in a fixed order and
// calls Mount once; every module is mounted under its own prefix.
//
// Mounting is independent per module.  A module whose Routes returns an
// error, or panics, is logged and skipped, and the remaining modules still
// mount.  Errors wrapping outcome.ErrUnavailable (for example ErrNoDatabase)
// mean "feature off" rather than "broken".  Modules that report
// Optional() == true are downgraded the same way on any failure.

package component

import (
	"fmt"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/config"
	"github.com/izonedevs/izonehub-api/internal/mail"
	"github.com/izonedevs/izonehub-api/internal/metrics"
	"github.com/izonedevs/izonehub-api/internal/outcome"
)

// ErrNoDatabase is returned by modules that cannot serve without a
// database when the bootstrap left DB nil.
var ErrNoDatabase = fmt.Errorf("%w: database not connected", outcome.ErrUnavailable)

// Deps are the shared collaborators handed to every module.
type Deps struct {
	DB     *sqlx.DB // nil in degraded mode
	Config *config.Config
	Tokens *auth.Tokens
	Mailer mail.Sender
	Log    *zap.SugaredLogger

	Uploads Uploads
}

// Uploads describes upload storage as composed at startup.
type Uploads struct {
	Writable  bool   // false on read-only filesystems
	URLPrefix string // public path the upload directory is served under
}

// RequireDB returns ErrNoDatabase when no database is connected.
func (d Deps) RequireDB() error {
	if d.DB == nil {
		return ErrNoDatabase
	}
	return nil
}

// Component contract.
//
// Routes builds the module's router.  It is called once, at mount time.
//
//	func (c *blog) Routes(d component.Deps) (chi.Router, error) {
//		if err := d.RequireDB(); err != nil {
//			return nil, err
//		}
//		r := chi.NewRouter()
//		r.Get("/", list)
//		return r, nil
//	}
type Component interface {
	Name() string
	Prefix() string // e.g. "/api/blog"
	Tag() string    // human-readable group name
	Routes(Deps) (chi.Router, error)
}

// Optional is implemented by modules whose failure is an expected
// degradation, such as admin sub-panels.
type Optional interface {
	Optional() bool
}

// Entry is one (prefix, tag, module) triple.
type Entry struct {
	Prefix    string    `json:"prefix"`
	Tag       string    `json:"tag"`
	Component Component `json:"-"`
}

// Registry is an ordered list of modules.  It is immutable once mounted.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	live    []Entry
	mounted bool
}

// NewRegistry keeps cs in the given order.
func NewRegistry(cs ...Component) *Registry {
	r := &Registry{entries: make([]Entry, 0, len(cs))}
	for _, c := range cs {
		r.entries = append(r.entries, Entry{Prefix: c.Prefix(), Tag: c.Tag(), Component: c})
	}
	return r
}

// Entries returns every registered triple in mount order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// Live returns the triples that mounted successfully.
func (r *Registry) Live() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.live...)
}

// Mount attaches every module to root and returns one outcome per module.
// A second call is a no-op that returns nil.
func (r *Registry) Mount(root chi.Router, deps Deps) []outcome.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mounted {
		return nil
	}
	r.mounted = true

	log := deps.Log
	if log == nil {
		log = zap.S()
	}

	out := make([]outcome.Outcome, 0, len(r.entries))
	for _, e := range r.entries {
		o := mountOne(root, e, deps)
		if o.Status == outcome.Failed && isOptional(e.Component) {
			o.Status = outcome.Unavailable
		}
		if o.Live() {
			r.live = append(r.live, e)
		}
		metrics.ComponentMounts.WithLabelValues(e.Component.Name(), o.Status.String()).Inc()
		log.Debugw("component", "name", e.Component.Name(), "prefix", e.Prefix, "status", o.Status)
		out = append(out, o)
	}
	return out
}

// mountOne isolates one module.  chi.Mount panics on a duplicate prefix,
// which is caught here as well.
func mountOne(root chi.Router, e Entry, deps Deps) (o outcome.Outcome) {
	step := "component:" + e.Component.Name()
	defer func() {
		if p := recover(); p != nil {
			o = outcome.Outcome{Step: step, Status: outcome.Failed, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	sub, err := e.Component.Routes(deps)
	if err != nil {
		return outcome.FromError(step, err)
	}
	if sub == nil {
		return outcome.FromError(step, fmt.Errorf("%s returned no router", e.Component.Name()))
	}
	root.Mount(e.Prefix, sub)
	return outcome.Ok(step)
}

func isOptional(c Component) bool {
	o, ok := c.(Optional)
	return ok && o.Optional()
}
