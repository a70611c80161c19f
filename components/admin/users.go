package admin

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/components/content"
	"github.com/izonedevs/izonehub-api/internal/acl"
	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/resource"
	"github.com/izonedevs/izonehub-api/internal/respond"
)

// accountTable is the admin-writable view of users.
var accountTable = func() resource.Table {
	t := content.UserTable
	t.Fields = []resource.Field{
		{Name: "role", Rules: "omitempty,oneof=admin staff member"},
		{Name: "is_active", Kind: resource.Bool},
	}
	return t
}()

func userRoutes(d component.Deps, r chi.Router) {
	h := &users{db: d.DB, view: resource.New(d.DB, content.UserTable, resource.Options{})}
	r.Get("/", h.view.List)
	r.Get("/{id}", h.view.Get)
	r.Patch("/{id}", h.patch)
	r.Delete("/{id}", h.remove)
}

type users struct {
	db   *sqlx.DB
	view *resource.Handler
}

// target parses {id} and refuses changes to the caller's own account, so
// an admin cannot lock themselves out.
func (h *users) target(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		resource.Fail(w, r, "User", resource.ErrNotFound)
		return 0, false
	}
	if self, _ := auth.UserID(r.Context()); self == id {
		respond.Error(w, http.StatusBadRequest, "Cannot modify your own account")
		return 0, false
	}
	return id, true
}

func (h *users) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.target(w, r)
	if !ok {
		return
	}
	patch, err := resource.Decode(w, r, accountTable, true)
	if err != nil {
		resource.Fail(w, r, "User", err)
		return
	}

	if role, ok := patch["role"].(string); ok {
		err := acl.SetRole(r.Context(), h.db, id, role)
		if errors.Is(err, sql.ErrNoRows) {
			err = resource.ErrNotFound
		}
		if err != nil {
			resource.Fail(w, r, "User", err)
			return
		}
		delete(patch, "role")
	}

	row, err := resource.Update(r.Context(), h.db, accountTable, id, patch)
	if err != nil {
		resource.Fail(w, r, "User", err)
		return
	}
	respond.JSON(w, http.StatusOK, row)
}

func (h *users) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := resource.Delete(r.Context(), h.db, content.UserTable, id); err != nil {
		resource.Fail(w, r, "User", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
