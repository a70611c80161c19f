// Package registrations signs members up for events.
//
// Routes (under /api/event-registrations)
// ---------------------------------------
//   POST   /        {event_id}; signed-in users register themselves
//   GET    /me      caller's registrations
//   GET    /        admin; ?event_id=…&status=…
//   DELETE /{id}    owner or admin
//
// Registration is refused for unknown, cancelled, or completed events,
// for events at capacity, and for a second registration by the same user.
// The checks and the insert share one transaction that holds the event row
// locked, so concurrent sign-ups cannot overfill an event.
package registrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/components/content"
	"github.com/izonedevs/izonehub-api/internal/acl"
	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/database"
	"github.com/izonedevs/izonehub-api/internal/resource"
	"github.com/izonedevs/izonehub-api/internal/respond"
)

// refusal is a client-facing reason to decline a registration.
type refusal string

func (r refusal) Error() string { return string(r) }

const (
	errClosed     refusal = "Event is not open for registration"
	errFull       refusal = "Event is full"
	errRegistered refusal = "Already registered for this event"
)

var _ component.Component = (*Component)(nil)

type Component struct{}

func New() *Component { return &Component{} }

func (c *Component) Name() string   { return "event-registrations" }
func (c *Component) Prefix() string { return "/api/event-registrations" }
func (c *Component) Tag() string    { return "Event Registrations" }

func (c *Component) Routes(d component.Deps) (chi.Router, error) {
	if err := d.RequireDB(); err != nil {
		return nil, err
	}
	h := &handlers{db: d.DB}
	admin := resource.New(d.DB, content.RegistrationTable, resource.Options{ReadOnly: true})

	r := chi.NewRouter()
	r.Use(auth.Require)
	r.Post("/", h.register)
	r.Get("/me", h.mine)
	r.Delete("/{id}", h.cancel)
	r.With(acl.RequireRole(d.DB, "admin")).Get("/", admin.List)
	return r, nil
}

type handlers struct {
	db *sqlx.DB
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r.Context())
	row, err := resource.Decode(w, r, content.RegistrationTable, false)
	if err != nil {
		resource.Fail(w, r, content.RegistrationTable.Noun, err)
		return
	}
	eventID, _ := resource.Int64(row["event_id"])
	row["user_id"] = uid
	row["status"] = "registered"

	created, err := h.admit(r.Context(), eventID, uid, row)
	switch {
	case errors.Is(err, resource.ErrNotFound):
		resource.Fail(w, r, content.EventTable.Noun, err)
		return
	case errors.As(err, new(refusal)):
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		resource.Fail(w, r, content.RegistrationTable.Noun, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// admit checks and inserts row in one transaction.
func (h *handlers) admit(ctx context.Context, eventID, uid int64, row resource.Row) (resource.Row, error) {
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("registration begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := check(ctx, tx, eventID, uid); err != nil {
		return nil, err
	}
	created, err := resource.Insert(ctx, tx, content.RegistrationTable, row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("registration commit: %w", err)
	}
	committed = true
	return created, nil
}

// check reports why uid may not register for eventID, or nil.  The event
// row stays locked until tx ends.
func check(ctx context.Context, tx *sqlx.Tx, eventID, uid int64) error {
	var locked int64
	err := tx.GetContext(ctx, &locked,
		database.ForUpdate(tx, tx.Rebind(`SELECT id FROM events WHERE id = ?`)), eventID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock event: %w", err)
	}

	event, err := resource.Get(ctx, tx, content.EventTable, eventID)
	if err != nil {
		return err
	}
	if s, _ := event["status"].(string); s == "cancelled" || s == "completed" {
		return errClosed
	}

	var mine int
	if err := tx.GetContext(ctx, &mine, tx.Rebind(
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = ? AND user_id = ?`), eventID, uid); err != nil {
		return err
	}
	if mine > 0 {
		return errRegistered
	}

	capacity, ok := resource.Int64(event["capacity"])
	if !ok || capacity <= 0 {
		return nil
	}
	var taken int64
	if err := tx.GetContext(ctx, &taken, tx.Rebind(
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = ? AND status = 'registered'`), eventID); err != nil {
		return err
	}
	if taken >= capacity {
		return errFull
	}
	return nil
}

func (h *handlers) mine(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r.Context())
	q := r.URL.Query()
	page := resource.Page{}
	page.Limit, _ = strconv.Atoi(q.Get("limit"))
	page.Offset, _ = strconv.Atoi(q.Get("skip"))

	rows, err := resource.List(r.Context(), h.db, content.RegistrationTable, page,
		map[string]string{"user_id": strconv.FormatInt(uid, 10)})
	if err != nil {
		resource.Fail(w, r, content.RegistrationTable.Noun, err)
		return
	}
	respond.JSON(w, http.StatusOK, rows)
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	const noun = "Registration"
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		resource.Fail(w, r, noun, resource.ErrNotFound)
		return
	}
	row, err := resource.Get(r.Context(), h.db, content.RegistrationTable, id)
	if err != nil {
		resource.Fail(w, r, noun, err)
		return
	}

	uid, _ := auth.UserID(r.Context())
	if owner, _ := resource.Int64(row["user_id"]); owner != uid {
		if role, err := acl.UserRole(r.Context(), h.db, uid); err != nil || role != "admin" {
			resource.Fail(w, r, noun, resource.ErrForbidden)
			return
		}
	}
	if err := resource.Delete(r.Context(), h.db, content.RegistrationTable, id); err != nil {
		resource.Fail(w, r, noun, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Registration cancelled successfully"})
}
