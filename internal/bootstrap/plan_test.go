package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/izonedevs/izonehub-api/internal/config"
)

func TestPlanRows(t *testing.T) {
	p := For(config.ModePersistent)
	assert.False(t, p.CreateSchema)
	assert.False(t, p.Seed)
	assert.True(t, p.FileLogging)

	e := For(config.ModeEphemeral)
	assert.True(t, e.CreateSchema)
	assert.True(t, e.Seed)
	assert.True(t, e.StaticBestEffort)
	assert.False(t, e.WritableUploads)

	assert.Equal(t, p, For(config.Mode(99)), "unknown modes must never seed")
}

func TestOrigins(t *testing.T) {
	configured := []string{"http://localhost:3000", "https://*.vercel.app", "*", "http://localhost:3000/", " https://izonedevs.com "}

	assert.Equal(t,
		[]string{"http://localhost:3000", "https://izonedevs.com"},
		For(config.ModePersistent).Origins(configured))

	assert.Equal(t,
		[]string{"http://localhost:3000", "https://*.vercel.app", "https://izonedevs.com"},
		For(config.ModeEphemeral).Origins(configured))

	assert.Equal(t, []string{PreviewOrigin}, For(config.ModeEphemeral).Origins(nil))
}
