// internal/acl/store.go
//
// Small query helpers for role-based access control.
//
// Context
// -------
// Roles live on the users row itself (`users.role`, `users.is_active`).
// The token carries a role claim too, but admin panels must not trust a
// claim that could be stale after a demotion, so the middleware asks the
// database on every protected request.
//
// Notes
// -----
// • Queries use `?` and are rebound for the active driver.
// • Oxford commas, two spaces after periods.
package acl

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrInactive is returned for users that exist but are disabled.
var ErrInactive = errors.New("acl: user inactive")

// UserRole returns the role of an active user.  Unknown users yield
// sql.ErrNoRows.
func UserRole(ctx context.Context, db *sqlx.DB, userID int64) (string, error) {
	const q = `SELECT role, is_active
                 FROM users
                WHERE id = ?`

	var row struct {
		Role   string `db:"role"`
		Active bool   `db:"is_active"`
	}
	if err := db.GetContext(ctx, &row, db.Rebind(q), userID); err != nil {
		return "", err
	}
	if !row.Active {
		return "", ErrInactive
	}
	return row.Role, nil
}

// SetRole changes a user's role.  It reports sql.ErrNoRows when no row
// matched.
func SetRole(ctx context.Context, db *sqlx.DB, userID int64, role string) error {
	const q = `UPDATE users
                  SET role = ?, updated_at = CURRENT_TIMESTAMP
                WHERE id = ?`

	res, err := db.ExecContext(ctx, db.Rebind(q), role, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
