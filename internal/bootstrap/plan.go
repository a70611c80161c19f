// internal/bootstrap/plan.go
//
// Deployment-mode behavior table.
//
// Context
// -------
// Every environment-dependent decision made at startup is a column in this
// table; composition code reads the row for the detected mode and never
// tests the mode directly.
//
//   mode        schema  seed  static       logging  CORS origins
//   ----------  ------  ----  -----------  -------  --------------------------
//   persistent  no      no    required     file     configured, exact only
//   ephemeral   yes     yes   best-effort  stdout   configured + preview pattern
//
// "required" static means a mount failure is reported as Failed (logged at
// error); "best-effort" reports it as Unavailable.  Neither stops startup.

package bootstrap

import (
	"slices"
	"strings"

	"github.com/izonedevs/izonehub-api/internal/config"
)

// PreviewOrigin matches the hosting platform's per-branch preview domains.
const PreviewOrigin = "https://*.vercel.app"

// Behavior is one row of the table.
type Behavior struct {
	CreateSchema     bool
	Seed             bool
	SeedDirectory    bool // also seed a partner and a team member
	StaticBestEffort bool // static mount failure is expected
	FileLogging      bool
	WritableUploads  bool // the upload endpoint may write to disk
	PreviewOrigins   bool
}

var plan = map[config.Mode]Behavior{
	config.ModePersistent: {
		FileLogging:     true,
		WritableUploads: true,
	},
	config.ModeEphemeral: {
		CreateSchema:     true,
		Seed:             true,
		SeedDirectory:    true,
		StaticBestEffort: true,
		PreviewOrigins:   true,
	},
}

// For returns the behavior row for mode.  Unknown modes get the persistent
// row, which never writes demo data.
func For(mode config.Mode) Behavior {
	if b, ok := plan[mode]; ok {
		return b
	}
	return plan[config.ModePersistent]
}

// Origins derives the CORS allow-list from the configured origins.
// Persistent deployments get exact origins only; wildcard entries are
// dropped.  Ephemeral deployments keep every entry and add PreviewOrigin.
// A bare "*" is never allowed because credentials are enabled.
func (b Behavior) Origins(configured []string) []string {
	out := make([]string, 0, len(configured)+1)
	for _, o := range configured {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "" || o == "*":
			continue
		case strings.Contains(o, "*") && !b.PreviewOrigins:
			continue
		case slices.Contains(out, o):
			continue
		}
		out = append(out, o)
	}
	if b.PreviewOrigins && !slices.Contains(out, PreviewOrigin) {
		out = append(out, PreviewOrigin)
	}
	return out
}
