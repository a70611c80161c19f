// Package upload stores member-submitted images and documents on local
// disk and serves their metadata.  The files themselves are served by the
// static mount under /uploads.
//
// Routes (under /api/upload)
// --------------------------
//   POST   /        multipart field "file"; signed-in users
//   GET    /        caller's uploads (admins: ?uploaded_by=…, or all)
//   DELETE /{id}    owner or admin
//
// Deployments without a writable upload directory answer 503 on POST.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/components/content"
	"github.com/izonedevs/izonehub-api/internal/acl"
	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/resource"
	"github.com/izonedevs/izonehub-api/internal/respond"
)

// Accepted content types, by sniffed MIME type.
var allowed = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

var errTooLarge = errors.New("file too large")

var _ component.Component = (*Component)(nil)

type Component struct{}

func New() *Component { return &Component{} }

func (c *Component) Name() string   { return "upload" }
func (c *Component) Prefix() string { return "/api/upload" }
func (c *Component) Tag() string    { return "Upload" }

func (c *Component) Routes(d component.Deps) (chi.Router, error) {
	if err := d.RequireDB(); err != nil {
		return nil, err
	}
	if d.Config == nil {
		return nil, errors.New("upload: no configuration")
	}
	h := &handlers{
		db:       d.DB,
		dir:      d.Config.UploadDir(),
		maxSize:  d.Config.Uploads.MaxFileSize,
		writable: d.Uploads.Writable,
		prefix:   strings.TrimSuffix(d.Uploads.URLPrefix, "/"),
	}

	r := chi.NewRouter()
	r.Use(auth.Require)
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Delete("/{id}", h.remove)
	return r, nil
}

type handlers struct {
	db       *sqlx.DB
	dir      string
	maxSize  int64
	writable bool
	prefix   string
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	if !h.writable {
		respond.Error(w, http.StatusServiceUnavailable, "File uploads are not available in this deployment")
		return
	}
	uid, _ := auth.UserID(r.Context())

	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1<<20)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respond.Error(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()
	if hdr.Size > h.maxSize {
		respond.Error(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	mt, err := mimetype.DetectReader(file)
	if err != nil {
		resource.Fail(w, r, "Upload", err)
		return
	}
	if !allowed[mt.String()] {
		respond.Error(w, http.StatusBadRequest, "File type not allowed: "+mt.String())
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		resource.Fail(w, r, "Upload", err)
		return
	}

	name := uuid.NewString() + mt.Extension()
	size, err := h.store(name, file)
	switch {
	case errors.Is(err, errTooLarge):
		respond.Error(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	case err != nil:
		resource.Fail(w, r, "Upload", err)
		return
	}

	row, err := resource.Insert(r.Context(), h.db, content.UploadTable, resource.Row{
		"filename":      name,
		"original_name": filepath.Base(hdr.Filename),
		"content_type":  mt.String(),
		"size":          size,
		"uploaded_by":   uid,
	})
	if err != nil {
		_ = os.Remove(filepath.Join(h.dir, name))
		resource.Fail(w, r, "Upload", err)
		return
	}
	respond.JSON(w, http.StatusCreated, h.withURL(row))
}

// store writes src to dir/name and returns the byte count.  Partial files
// are removed.
func (h *handlers) store(name string, src io.Reader) (int64, error) {
	path := filepath.Join(h.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}
	n, err := io.Copy(f, io.LimitReader(src, h.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > h.maxSize {
		err = errTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return n, nil
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserID(r.Context())
	q := r.URL.Query()

	filters := map[string]string{"uploaded_by": strconv.FormatInt(uid, 10)}
	if role, err := acl.UserRole(r.Context(), h.db, uid); err == nil && role == "admin" {
		delete(filters, "uploaded_by")
		if v := q.Get("uploaded_by"); v != "" {
			filters["uploaded_by"] = v
		}
	}

	page := resource.Page{}
	page.Limit, _ = strconv.Atoi(q.Get("limit"))
	page.Offset, _ = strconv.Atoi(q.Get("skip"))
	rows, err := resource.List(r.Context(), h.db, content.UploadTable, page, filters)
	if err != nil {
		resource.Fail(w, r, "Upload", err)
		return
	}
	for i := range rows {
		rows[i] = h.withURL(rows[i])
	}
	respond.JSON(w, http.StatusOK, rows)
}

func (h *handlers) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		resource.Fail(w, r, "Upload", resource.ErrNotFound)
		return
	}
	row, err := resource.Get(r.Context(), h.db, content.UploadTable, id)
	if err != nil {
		resource.Fail(w, r, "Upload", err)
		return
	}

	uid, _ := auth.UserID(r.Context())
	if owner, _ := resource.Int64(row["uploaded_by"]); owner != uid {
		if role, err := acl.UserRole(r.Context(), h.db, uid); err != nil || role != "admin" {
			resource.Fail(w, r, "Upload", resource.ErrForbidden)
			return
		}
	}

	if err := resource.Delete(r.Context(), h.db, content.UploadTable, id); err != nil {
		resource.Fail(w, r, "Upload", err)
		return
	}
	if name, _ := row["filename"].(string); name != "" {
		if err := os.Remove(filepath.Join(h.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			resource.Fail(w, r, "Upload", err)
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Upload deleted successfully"})
}

func (h *handlers) withURL(row resource.Row) resource.Row {
	if name, ok := row["filename"].(string); ok {
		row["url"] = h.prefix + "/" + name
	}
	return row
}
