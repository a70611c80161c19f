package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/components/content"
	authn "github.com/izonedevs/izonehub-api/internal/auth"
	"github.com/izonedevs/izonehub-api/internal/database"
	"github.com/izonedevs/izonehub-api/internal/resource"
)

var (
	errEmailTaken    = errors.New("email taken")
	errUsernameTaken = errors.New("username taken")
)

// profileTable lets updateMe also stamp updated_at.
var profileTable = func() resource.Table {
	t := content.UserTable
	t.Auto = []string{"updated_at"}
	return t
}()

type credentials struct {
	ID     int64  `db:"id"`
	Hash   string `db:"hashed_password"`
	Role   string `db:"role"`
	Active bool   `db:"is_active"`
}

// findCredentials looks a user up by email or username.
func findCredentials(ctx context.Context, db *sqlx.DB, login string) (credentials, error) {
	const q = `SELECT id, hashed_password, role, is_active
	             FROM users
	            WHERE email = ? OR username = ?`

	var c credentials
	err := db.GetContext(ctx, &c, db.Rebind(q), login, login)
	if errors.Is(err, sql.ErrNoRows) {
		return c, resource.ErrNotFound
	}
	return c, err
}

func createUser(ctx context.Context, db *sqlx.DB, req registerRequest) (int64, error) {
	var n int
	if err := db.GetContext(ctx, &n, db.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`), req.Email); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, errEmailTaken
	}
	if err := db.GetContext(ctx, &n, db.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`), req.Username); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, errUsernameTaken
	}

	hash, err := authn.HashPassword(req.Password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	var fullName any
	if req.FullName != "" {
		fullName = req.FullName
	}
	return database.InsertID(ctx, db,
		`INSERT INTO users (email, username, full_name, hashed_password, role, is_active)
		 VALUES (?, ?, ?, ?, 'member', 1)`,
		req.Email, req.Username, fullName, hash)
}

func passwordHash(ctx context.Context, db *sqlx.DB, uid int64) (string, error) {
	var hash string
	err := db.GetContext(ctx, &hash, db.Rebind(`SELECT hashed_password FROM users WHERE id = ?`), uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", resource.ErrNotFound
	}
	return hash, err
}

func setPassword(ctx context.Context, db *sqlx.DB, uid int64, plain string) error {
	hash, err := authn.HashPassword(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = db.ExecContext(ctx,
		db.Rebind(`UPDATE users SET hashed_password = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`),
		hash, uid)
	return err
}
