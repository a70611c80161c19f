// components/auth/auth.go
//
// Account endpoints: registration, login, token refresh, and the caller's
// own profile.
//
// Routes (under /api/auth)
// ------------------------
//   POST /register      create a member account
//   POST /login         JSON {email|username, password} or form-encoded
//                       username/password; returns an access/refresh pair
//   POST /refresh       {refresh_token} → new pair
//   GET  /me            current user
//   PUT  /me            update profile fields
//   PUT  /me/password   {current_password, new_password}
//   POST /test          liveness check for the auth group
//
// Login and register share a per-IP limiter.

package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/components/content"
	"github.com/izonedevs/izonehub-api/internal/acl"
	authn "github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/middleware"
	"github.com/izonedevs/izonehub-api/internal/resource"
	"github.com/izonedevs/izonehub-api/internal/respond"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component encapsulates account functionality.
type Component struct{}

// New returns the auth module.
func New() *Component { return &Component{} }

/*────────────────── component.Component methods ───────────────────────────*/

func (c *Component) Name() string   { return "auth" }
func (c *Component) Prefix() string { return "/api/auth" }
func (c *Component) Tag() string    { return "Authentication" }

// Routes builds the router.  Without a database only /test is served.
func (c *Component) Routes(d component.Deps) (chi.Router, error) {
	r := chi.NewRouter()
	r.Post("/test", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"message": "Auth endpoint working"})
	})
	if d.DB == nil {
		return r, nil
	}

	h := &handlers{db: d.DB, tokens: d.Tokens}
	limit := middleware.NewRateLimiter(5, time.Minute)

	r.With(limit.Handler).Post("/register", h.register)
	r.With(limit.Handler).Post("/login", h.login)
	r.Post("/refresh", h.refresh)
	r.Group(func(r chi.Router) {
		r.Use(authn.Require)
		r.Get("/me", h.me)
		r.Put("/me", h.updateMe)
		r.Put("/me/password", h.changePassword)
	})
	return r, nil
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type handlers struct {
	db     *sqlx.DB
	tokens *authn.Tokens
}

type registerRequest struct {
	Email    string `json:"email"     validate:"required,email,max=255"`
	Username string `json:"username"  validate:"required,alphanum,min=3,max=50"`
	FullName string `json:"full_name" validate:"omitempty,max=100"`
	Password string `json:"password"  validate:"required,min=8,max=72"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := resource.CheckStruct(req); err != nil {
		resource.Fail(w, r, "User", err)
		return
	}

	id, err := createUser(r.Context(), h.db, req)
	switch {
	case errors.Is(err, errEmailTaken):
		respond.Error(w, http.StatusBadRequest, "Email already registered")
		return
	case errors.Is(err, errUsernameTaken):
		respond.Error(w, http.StatusBadRequest, "Username already taken")
		return
	case err != nil:
		resource.Fail(w, r, "User", err)
		return
	}

	user, err := resource.Get(r.Context(), h.db, content.UserTable, id)
	if err != nil {
		resource.Fail(w, r, "User", err)
		return
	}
	respond.JSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	login := strings.TrimSpace(req.Email)
	if login == "" {
		login = strings.TrimSpace(req.Username)
	}
	if login == "" || req.Password == "" {
		respond.Error(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	cred, err := findCredentials(r.Context(), h.db, login)
	if errors.Is(err, resource.ErrNotFound) || (err == nil && !authn.CheckPassword(cred.Hash, req.Password)) {
		respond.Error(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if err != nil {
		resource.Fail(w, r, "User", err)
		return
	}
	if !cred.Active {
		respond.Error(w, http.StatusBadRequest, "Inactive user")
		return
	}
	h.issue(w, cred.ID, cred.Role)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := respond.Decode(r, &req); err != nil || req.RefreshToken == "" {
		respond.Error(w, http.StatusBadRequest, "refresh_token is required")
		return
	}
	claims, err := h.tokens.Parse(req.RefreshToken, authn.KindRefresh)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	uid, err := claims.UserID()
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	// The role is re-read so a demotion takes effect at the next refresh.
	role, err := acl.UserRole(r.Context(), h.db, uid)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	h.issue(w, uid, role)
}

func (h *handlers) issue(w http.ResponseWriter, uid int64, role string) {
	pair, err := h.tokens.Issue(uid, role)
	if err != nil {
		respond.Status(w, http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, pair)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	uid, _ := authn.UserID(r.Context())
	user, err := resource.Get(r.Context(), h.db, content.UserTable, uid)
	if err != nil {
		resource.Fail(w, r, "User", err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *handlers) updateMe(w http.ResponseWriter, r *http.Request) {
	uid, _ := authn.UserID(r.Context())
	patch, err := resource.Decode(w, r, content.UserTable, true)
	if err != nil {
		resource.Fail(w, r, "User", err)
		return
	}
	patch["updated_at"] = time.Now().UTC().Format(time.DateTime)

	user, err := resource.Update(r.Context(), h.db, profileTable, uid, patch)
	if err != nil {
		resource.Fail(w, r, "User", err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

type passwordRequest struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password"     validate:"required,min=8,max=72"`
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	uid, _ := authn.UserID(r.Context())
	var req passwordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := resource.CheckStruct(req); err != nil {
		resource.Fail(w, r, "User", err)
		return
	}

	hash, err := passwordHash(r.Context(), h.db, uid)
	if err != nil {
		resource.Fail(w, r, "User", err)
		return
	}
	if !authn.CheckPassword(hash, req.Current) {
		respond.Error(w, http.StatusBadRequest, "Incorrect password")
		return
	}
	if err := setPassword(r.Context(), h.db, uid, req.New); err != nil {
		resource.Fail(w, r, "User", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
