// internal/acl/store_test.go
//
// Unit-tests for acl helpers using sqlmock.
//
// Run: go test ./internal/acl -v

package acl

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/internal/auth"
)

const roleQuery = `SELECT role, is_active FROM users WHERE id = ?`

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func TestUserRole(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(roleQuery)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "is_active"}).AddRow("admin", true))

	got, err := UserRole(context.Background(), db, 42)
	if err != nil {
		t.Fatalf("UserRole error: %v", err)
	}
	if got != "admin" {
		t.Fatalf("role = %q, want admin", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUserRole_Inactive(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(roleQuery)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "is_active"}).AddRow("admin", false))

	if _, err := UserRole(context.Background(), db, 9); !errors.Is(err, ErrInactive) {
		t.Fatalf("err = %v, want ErrInactive", err)
	}
}

func TestSetRole_NoRows(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)).
		WithArgs("admin", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := SetRole(context.Background(), db, 5, "admin"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestRequireRole(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(roleQuery)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "is_active"}).AddRow("member", true))
	mock.ExpectQuery(regexp.QuoteMeta(roleQuery)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"role", "is_active"}).AddRow("admin", true))

	h := RequireRole(db, "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		uid  int64
		anon bool
		want int
	}{
		{anon: true, want: http.StatusUnauthorized},
		{uid: 1, want: http.StatusForbidden},
		{uid: 2, want: http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
		if !tc.anon {
			req = req.WithContext(auth.WithUser(req.Context(), tc.uid, "admin"))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Errorf("uid %d: status = %d, want %d", tc.uid, rr.Code, tc.want)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
