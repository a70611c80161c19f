package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/config"
	"github.com/izonedevs/izonehub-api/internal/database"
	"github.com/izonedevs/izonehub-api/internal/outcome"
)

func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("X-User"); v != "" {
			id, _ := strconv.ParseInt(v, 10, 64)
			r = r.WithContext(auth.WithUser(r.Context(), id, ""))
		}
		next.ServeHTTP(w, r)
	})
}

func setup(t *testing.T) (http.Handler, *sqlx.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.MemoryDatabaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.CreateSchema(ctx, db))
	_, err = db.Exec(`INSERT INTO users (id, email, hashed_password, role) VALUES
		(1, 'a@x.io', 'x', 'admin'), (2, 'm@x.io', 'x', 'member')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO blog_posts (id, title, slug, content, author_id) VALUES (1, 'Draft', 'draft', 'body', 2)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO contact_messages (name, email, message) VALUES ('Sam', 's@x.io', 'hi')`)
	require.NoError(t, err)

	r := chi.NewRouter()
	reg := component.NewRegistry(Dashboard(), Users(), Content())
	for _, o := range reg.Mount(r.With(asUser), component.Deps{DB: db}) {
		require.Equal(t, outcome.OK, o.Status, o.Step)
	}
	return r, db
}

func call(h http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPanelsRequireAdmin(t *testing.T) {
	h, _ := setup(t)
	for _, p := range []string{"/api/admin/dashboard/", "/api/admin/users/", "/api/admin/content/blog/"} {
		assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodGet, p, "", nil).Code, p)
		assert.Equal(t, http.StatusForbidden, call(h, http.MethodGet, p, "2", nil).Code, p)
		assert.Equal(t, http.StatusOK, call(h, http.MethodGet, p, "1", nil).Code, p)
	}
}

func TestDashboard(t *testing.T) {
	h, _ := setup(t)
	rr := call(h, http.MethodGet, "/api/admin/dashboard/", "1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var s Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Len(t, s.Counts, len(database.Tables))
	assert.EqualValues(t, 2, s.Counts["users"])
	assert.EqualValues(t, 1, s.Counts["blog_posts"])
	assert.EqualValues(t, 1, s.NewMessages)
	assert.Len(t, s.RecentUsers, 2)
	assert.NotContains(t, rr.Body.String(), "hashed_password")
}

func TestUserManagement(t *testing.T) {
	h, db := setup(t)

	rr := call(h, http.MethodPatch, "/api/admin/users/2", "1", map[string]any{"role": "staff", "is_active": false})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var u struct {
		Role   string `db:"role"`
		Active bool   `db:"is_active"`
	}
	require.NoError(t, db.Get(&u, `SELECT role, is_active FROM users WHERE id = 2`))
	assert.Equal(t, "staff", u.Role)
	assert.False(t, u.Active)

	assert.Equal(t, http.StatusUnprocessableEntity,
		call(h, http.MethodPatch, "/api/admin/users/2", "1", map[string]any{"role": "overlord"}).Code)
	assert.Equal(t, http.StatusBadRequest,
		call(h, http.MethodPatch, "/api/admin/users/1", "1", map[string]any{"role": "member"}).Code)
	assert.Equal(t, http.StatusNotFound,
		call(h, http.MethodPatch, "/api/admin/users/99", "1", map[string]any{"role": "member"}).Code)

	assert.Equal(t, http.StatusOK, call(h, http.MethodDelete, "/api/admin/users/2", "1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(h, http.MethodDelete, "/api/admin/users/1", "1", nil).Code)
}

func TestContentModeration(t *testing.T) {
	h, _ := setup(t)
	rr := call(h, http.MethodDelete, "/api/admin/content/blog/1", "1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Blog post deleted successfully"}`, rr.Body.String())
	assert.Equal(t, http.StatusNotFound, call(h, http.MethodDelete, "/api/admin/content/blog/1", "1", nil).Code)
}

func TestPanelsAreOptional(t *testing.T) {
	for _, c := range []component.Component{Dashboard(), Users(), Content()} {
		opt, ok := c.(component.Optional)
		require.True(t, ok, c.Name())
		assert.True(t, opt.Optional())

		_, err := c.Routes(component.Deps{})
		assert.True(t, errors.Is(err, component.ErrNoDatabase))
	}
}
