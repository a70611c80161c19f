// Package respond writes JSON responses.  Errors use the `{"detail": …}`
// envelope the front end already understands.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Warnw("encode response", "err", err)
	}
}

// Error writes {"detail": detail}.
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, map[string]string{"detail": detail})
}

// Status writes the canonical text for status as the detail.
func Status(w http.ResponseWriter, status int) {
	Error(w, status, http.StatusText(status))
}

// Decode reads a JSON body into dst.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
