package bootstrap

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/izonedevs/izonehub-api/internal/outcome"
)

// StaticPrefix is where uploaded assets are served.
const StaticPrefix = "/uploads"

// UploadDir resolves the configured upload directory against the project
// root.
func (a *App) UploadDir() string { return a.cfg.UploadDir() }

// mountStatic serves UploadDir under StaticPrefix.  The directory is
// created when missing.  On a read-only filesystem that fails, which the
// ephemeral row of the plan expects.
func (a *App) mountStatic(r chi.Router) outcome.Outcome {
	const step = "static"
	dir := a.UploadDir()

	err := ensureDir(dir)
	if err == nil {
		fs := http.StripPrefix(StaticPrefix+"/", http.FileServer(noListing{http.Dir(dir)}))
		r.Handle(StaticPrefix+"/*", fs)
		return outcome.Ok(step)
	}
	if a.behavior.StaticBestEffort {
		return outcome.Unavailablef(step, "%s: %v", dir, err)
	}
	return outcome.FromError(step, err)
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// noListing hides directory indexes.
type noListing struct{ fs http.FileSystem }

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
