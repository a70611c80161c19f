package content

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/config"
	"github.com/izonedevs/izonehub-api/internal/database"
	"github.com/izonedevs/izonehub-api/internal/resource"
)

type fixture struct {
	db     *sqlx.DB
	tokens *auth.Tokens
	h      http.Handler
}

func setup(t *testing.T, mods ...component.Component) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.MemoryDatabaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.CreateSchema(ctx, db))
	db.MustExec(`INSERT INTO users (id, email, username, hashed_password, role) VALUES (1, 'admin@x.io', 'admin', 'h', 'admin')`)
	db.MustExec(`INSERT INTO users (id, email, username, hashed_password, role) VALUES (2, 'ann@x.io', 'ann', 'h', 'member')`)

	tokens, err := auth.NewTokens(config.Auth{
		SecretKey: "content-test-secret-key", Algorithm: "HS256",
		AccessTokenExpireMinutes: 5, RefreshTokenExpireDays: 1,
	}, "test")
	require.NoError(t, err)

	r := chi.NewRouter()
	api := r.With(auth.Authenticate(tokens))
	reg := component.NewRegistry(mods...)
	for _, o := range reg.Mount(api, component.Deps{DB: db, Tokens: tokens}) {
		require.True(t, o.Live(), "%s: %v", o.Step, o.Err)
	}
	return &fixture{db: db, tokens: tokens, h: r}
}

func (f *fixture) do(t *testing.T, method, path string, uid int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if uid != 0 {
		pair, err := f.tokens.Issue(uid, "member")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}
	rr := httptest.NewRecorder()
	f.h.ServeHTTP(rr, req)
	return rr
}

func TestBlogStampsAuthorSlugAndPublishDate(t *testing.T) {
	f := setup(t, Blog())

	rr := f.do(t, http.MethodPost, "/api/blog/", 2, map[string]any{"title": "Laser Cutter Tips", "content": "Focus first."})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var draft resource.Row
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &draft))
	assert.Equal(t, "laser-cutter-tips", draft["slug"])
	assert.EqualValues(t, 2, draft["author_id"])
	assert.Equal(t, "draft", draft["status"])
	assert.Nil(t, draft["published_at"])

	rr = f.do(t, http.MethodPatch, "/api/blog/laser-cutter-tips", 2, map[string]any{"status": "published"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var pub resource.Row
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pub))
	assert.NotEmpty(t, pub["published_at"])
	assert.Equal(t, "laser-cutter-tips", pub["slug"], "slug unchanged when title is not written")
}

func TestStoreWritesNeedAdmin(t *testing.T) {
	f := setup(t, Store())
	product := map[string]any{"name": "Arduino Uno", "price": 24.5, "stock": 10}

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/api/store/", 0, product).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/store/", 2, product).Code)
	assert.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/store/", 1, product).Code)

	rr := f.do(t, http.MethodGet, "/api/store/", 0, nil)
	var list []resource.Row
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.EqualValues(t, 24.5, list[0]["price"])
}

func TestUsersArePublicReadOnly(t *testing.T) {
	f := setup(t, Users())

	rr := f.do(t, http.MethodGet, "/api/users/2", 0, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var u resource.Row
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
	assert.Equal(t, "ann", u["username"])
	assert.NotContains(t, u, "email")
	assert.NotContains(t, u, "hashed_password")

	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodDelete, "/api/users/2", 1, nil).Code)
}

func TestModulesNeedDatabase(t *testing.T) {
	for _, m := range []*Module{Users(), Communities(), Projects(), Events(), Blog(), Store(), Gallery(), Partners(), TeamMembers()} {
		_, err := m.Routes(component.Deps{})
		assert.ErrorIs(t, err, component.ErrNoDatabase, m.Name())
	}
}
