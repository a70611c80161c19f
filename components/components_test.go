package components

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/config"
	"github.com/izonedevs/izonehub-api/internal/database"
	"github.com/izonedevs/izonehub-api/internal/outcome"
)

func TestAllHasUniquePrefixes(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range All() {
		assert.False(t, seen[c.Prefix()], "duplicate prefix %s", c.Prefix())
		seen[c.Prefix()] = true
	}
	assert.Len(t, seen, 16)
}

func TestAllMountWithDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.MemoryDatabaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.CreateSchema(ctx, db))

	cfg := &config.Config{Mode: config.ModeEphemeral, Uploads: config.Uploads{Dir: t.TempDir(), MaxFileSize: 1 << 20}}
	r := chi.NewRouter()
	reg := component.NewRegistry(All()...)
	for _, o := range reg.Mount(r, component.Deps{DB: db, Config: cfg}) {
		assert.Equal(t, outcome.OK, o.Status, o.Step)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/events/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAllWithoutDatabaseKeepsAuthTestRoute(t *testing.T) {
	r := chi.NewRouter()
	reg := component.NewRegistry(All()...)
	for _, o := range reg.Mount(r, component.Deps{}) {
		if o.Step == "component:auth" {
			assert.Equal(t, outcome.OK, o.Status)
			continue
		}
		assert.Equal(t, outcome.Unavailable, o.Status, o.Step)
	}
	require.Len(t, reg.Live(), 1)
}
