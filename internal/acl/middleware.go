// internal/acl/middleware.go
//
// Chi middleware helpers that enforce RBAC.

package acl

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/respond"
)

// RequireRole ensures the current user possesses ANY of the supplied roles.
func RequireRole(db *sqlx.DB, names ...string) func(http.Handler) http.Handler {
	if len(names) == 0 {
		panic("acl.RequireRole: at least one role name must be supplied")
	}
	allowSet := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowSet[n] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := auth.UserID(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			role, err := UserRole(r.Context(), db, uid)
			switch {
			case errors.Is(err, sql.ErrNoRows), errors.Is(err, ErrInactive):
				respond.Error(w, http.StatusForbidden, "Not enough permissions")
				return
			case err != nil:
				zap.L().Error("acl user role", zap.Int64("user_id", uid), zap.Error(err))
				respond.Status(w, http.StatusInternalServerError)
				return
			}

			if _, ok := allowSet[role]; !ok {
				respond.Error(w, http.StatusForbidden, "Not enough permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
