// Package contact accepts messages from the public site and lets staff
// triage them.
//
// Routes (under /api/contact)
// ---------------------------
//   POST  /        anyone; rate limited per IP
//   GET   /        admin; ?status=new|read|replied
//   GET   /{id}    admin
//   PATCH /{id}    admin; {status}
//
// A stored message is forwarded to the staff inbox.  Delivery failures are
// logged and never fail the request: the row is already saved.
package contact

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/izonedevs/izonehub-api/components/content"
	"github.com/izonedevs/izonehub-api/internal/acl"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/mail"
	"github.com/izonedevs/izonehub-api/internal/middleware"
	"github.com/izonedevs/izonehub-api/internal/resource"
	"github.com/izonedevs/izonehub-api/internal/respond"
)

// Inbox receives notifications when no SMTP user is configured.
const Inbox = "hello@izonedevs.com"

var _ component.Component = (*Component)(nil)

type Component struct {
	limit *middleware.RateLimiter
}

// New returns the contact module.  Submissions are limited to three per
// IP per ten minutes.
func New() *Component {
	return &Component{limit: middleware.NewRateLimiter(3, 10*time.Minute)}
}

func (c *Component) Name() string   { return "contact" }
func (c *Component) Prefix() string { return "/api/contact" }
func (c *Component) Tag() string    { return "Contact" }

// statusTable is the admin view: only status is writable.
var statusTable = resource.Table{
	Name:    content.ContactTable.Name,
	Noun:    content.ContactTable.Noun,
	Fields:  []resource.Field{{Name: "status", Rules: "required,oneof=new read replied archived"}},
	Filters: content.ContactTable.Filters,
}

func (c *Component) Routes(d component.Deps) (chi.Router, error) {
	if err := d.RequireDB(); err != nil {
		return nil, err
	}
	h := &handlers{db: d.DB, mailer: d.Mailer, log: d.Log, to: Inbox}
	if d.Config != nil && d.Config.SMTP.User != "" {
		h.to = d.Config.SMTP.User
	}
	if h.log == nil {
		h.log = zap.S()
	}

	admin := resource.New(d.DB, statusTable, resource.Options{})
	r := chi.NewRouter()
	r.With(c.limit.Handler).Post("/", h.submit)
	r.Group(func(r chi.Router) {
		r.Use(acl.RequireRole(d.DB, "admin"))
		r.Get("/", admin.List)
		r.Get("/{id}", admin.Get)
		r.Patch("/{id}", admin.Update)
	})
	return r, nil
}

type handlers struct {
	db     *sqlx.DB
	mailer mail.Sender
	log    *zap.SugaredLogger
	to     string
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	row, err := resource.Decode(w, r, content.ContactTable, false)
	if err != nil {
		resource.Fail(w, r, content.ContactTable.Noun, err)
		return
	}
	row["status"] = "new"

	saved, err := resource.Insert(r.Context(), h.db, content.ContactTable, row)
	if err != nil {
		resource.Fail(w, r, content.ContactTable.Noun, err)
		return
	}
	h.notify(r.Context(), saved)
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Thank you for your message. We'll get back to you soon!",
		"id":      saved["id"],
	})
}

func (h *handlers) notify(ctx context.Context, row resource.Row) {
	if h.mailer == nil {
		return
	}
	subject, _ := row["subject"].(string)
	if subject == "" {
		subject = "New contact message"
	}
	msg := mail.Message{
		To:      []string{h.to},
		ReplyTo: fmt.Sprint(row["email"]),
		Subject: "[iZonehub] " + subject,
		Text:    fmt.Sprintf("From: %v <%v>\n\n%v\n", row["name"], row["email"], row["message"]),
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.log.Warnw("contact notification failed", "id", row["id"], "error", err)
	}
}
