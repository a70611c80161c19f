// internal/resource/handler.go
//
// HTTP handlers for one Table.
//
// Routes (relative to the module prefix)
// --------------------------------------
//   GET    /        list   ?skip=0&limit=100 plus declared filters
//   GET    /{id}    get    numeric id, or slug when the table has one
//   POST   /        create guarded
//   PUT    /{id}    update guarded, partial
//   PATCH  /{id}    update guarded, partial
//   DELETE /{id}    delete guarded
//
// Writes pass through Options.Guard (default auth.Require).  When
// Options.Owner names a column, only the owning user or an admin may
// update or delete a row.

package resource

import (
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/izonedevs/izonehub-api/internal/acl"
	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/respond"
)

// ErrForbidden is returned by hooks and owner checks to produce 403.
var ErrForbidden = errors.New("resource: forbidden")

// Hook runs before a write.  existing is nil on create.  It may add Auto
// columns to row or reject the write with a ValidationError.
type Hook func(r *http.Request, row Row, existing Row) error

// Options tune a Handler.
type Options struct {
	Guard    func(http.Handler) http.Handler
	ReadOnly bool
	Before   Hook
	Owner    string
}

// Handler serves one Table.
type Handler struct {
	db    *sqlx.DB
	table Table
	opts  Options
}

// New builds a Handler.  db must be non-nil.
func New(db *sqlx.DB, t Table, opts Options) *Handler {
	if opts.Guard == nil {
		opts.Guard = auth.Require
	}
	return &Handler{db: db, table: t, opts: opts}
}

// Routes returns a router with the standard CRUD routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	h.Mount(r)
	return r
}

// Mount adds the standard CRUD routes to r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	if h.opts.ReadOnly {
		return
	}
	r.Group(func(w chi.Router) {
		w.Use(h.opts.Guard)
		w.Post("/", h.Create)
		w.Put("/{id}", h.Update)
		w.Patch("/{id}", h.Update)
		w.Delete("/{id}", h.Delete)
	})
}

// List serves GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := Page{Limit: atoi(q.Get("limit")), Offset: atoi(q.Get("skip"))}

	filters := map[string]string{}
	for _, col := range h.table.Filters {
		if v := q.Get(col); v != "" {
			filters[col] = v
		}
	}

	rows, err := List(r.Context(), h.db, h.table, page, filters)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rows)
}

// Get serves GET /{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	row, err := h.lookup(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, row)
}

// Create serves POST /.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	row, err := Decode(w, r, h.table, false)
	if err == nil && h.opts.Before != nil {
		err = h.opts.Before(r, row, nil)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	created, err := Insert(r.Context(), h.db, h.table, row)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// Update serves PUT and PATCH /{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.writable(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	patch, err := Decode(w, r, h.table, true)
	if err == nil && h.opts.Before != nil {
		err = h.opts.Before(r, patch, existing)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := Update(r.Context(), h.db, h.table, id(existing), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// Delete serves DELETE /{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, err := h.writable(r)
	if err == nil {
		err = Delete(r.Context(), h.db, h.table, id(existing))
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": h.table.Noun + " deleted successfully"})
}

// lookup resolves {id} as a numeric id, or as a slug for tables that have
// one.
func (h *Handler) lookup(r *http.Request) (Row, error) {
	raw := chi.URLParam(r, "id")
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Get(r.Context(), h.db, h.table, n)
	}
	if slices.Contains(h.table.Auto, "slug") {
		return GetBy(r.Context(), h.db, h.table, "slug", raw)
	}
	return nil, ErrNotFound
}

// writable loads the target row and enforces ownership.
func (h *Handler) writable(r *http.Request) (Row, error) {
	row, err := h.lookup(r)
	if err != nil || h.opts.Owner == "" {
		return row, err
	}

	uid, _ := auth.UserID(r.Context())
	if owner, ok := Int64(row[h.opts.Owner]); ok && owner == uid {
		return row, nil
	}
	role, err := acl.UserRole(r.Context(), h.db, uid)
	if err != nil || role != "admin" {
		return nil, ErrForbidden
	}
	return row, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	Fail(w, r, h.table.Noun, err)
}

// Fail maps err onto a JSON error response: ValidationError → 422,
// ErrNotFound → 404, ErrForbidden → 403, anything else → 500 (logged).
func Fail(w http.ResponseWriter, r *http.Request, noun string, err error) {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": ve.Fields})
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, noun+" not found")
	case errors.Is(err, ErrForbidden):
		respond.Error(w, http.StatusForbidden, "Not enough permissions")
	default:
		zap.S().Errorw("request failed", "noun", noun, "method", r.Method, "path", r.URL.Path,
			"req_id", middleware.GetReqID(r.Context()), "err", err)
		respond.Status(w, http.StatusInternalServerError)
	}
}

func id(row Row) int64 {
	n, _ := Int64(row["id"])
	return n
}

// Int64 normalizes the integer types drivers return for a column value.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
