package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/izonedevs/izonehub-api/internal/database"
)

// ErrNotFound is returned when no row has the requested id.
var ErrNotFound = errors.New("resource: not found")

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultLimit = 100
	MaxLimit     = 100
)

func (p Page) clamp() Page {
	if p.Limit <= 0 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// List returns one page of rows.  filters holds column → value equality
// constraints; keys not in t.Filters are ignored.
func List(ctx context.Context, db *sqlx.DB, t Table, page Page, filters map[string]string) ([]Row, error) {
	page = page.clamp()

	var (
		where []string
		args  []any
	)
	for _, col := range t.Filters {
		if v, ok := filters[col]; ok {
			where = append(where, col+" = ?")
			args = append(args, v)
		}
	}

	q := "SELECT * FROM " + t.Name
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + t.order() + " LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	rows, err := db.QueryxContext(ctx, db.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Name, err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		row := Row{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		out = append(out, t.clean(row))
	}
	return out, rows.Err()
}

// Get returns the row with id, or ErrNotFound.
func Get(ctx context.Context, db sqlx.ExtContext, t Table, id int64) (Row, error) {
	return GetBy(ctx, db, t, "id", id)
}

// GetBy returns the first row whose col equals v, or ErrNotFound.  col
// must be a trusted identifier.
func GetBy(ctx context.Context, db sqlx.ExtContext, t Table, col string, v any) (Row, error) {
	q := db.Rebind("SELECT * FROM " + t.Name + " WHERE " + col + " = ?")
	row := Row{}
	err := db.QueryRowxContext(ctx, q, v).MapScan(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get %s: %w", t.Name, err)
	}
	return t.clean(row), nil
}

// Insert writes the writable keys of row and returns the stored record.
func Insert(ctx context.Context, db sqlx.ExtContext, t Table, row Row) (Row, error) {
	cols := t.columns(row)
	if len(cols) == 0 {
		return nil, fmt.Errorf("insert %s: no columns", t.Name)
	}
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = row[c]
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))

	id, err := database.InsertID(ctx, db, q, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", t.Name, err)
	}
	return Get(ctx, db, t, id)
}

// Update applies the writable keys of patch to row id and returns the
// stored record.
func Update(ctx context.Context, db *sqlx.DB, t Table, id int64, patch Row) (Row, error) {
	cols := t.columns(patch)
	if len(cols) == 0 {
		return Get(ctx, db, t, id)
	}
	set := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		set[i] = c + " = ?"
		args = append(args, patch[c])
	}
	args = append(args, id)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.Name, strings.Join(set, ", "))
	if _, err := db.ExecContext(ctx, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("update %s: %w", t.Name, err)
	}
	return Get(ctx, db, t, id)
}

// Delete removes row id, or returns ErrNotFound.
func Delete(ctx context.Context, db *sqlx.DB, t Table, id int64) error {
	res, err := db.ExecContext(ctx, db.Rebind("DELETE FROM "+t.Name+" WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of rows in table.  table must be trusted.
func Count(ctx context.Context, db *sqlx.DB, table string) (int64, error) {
	var n int64
	if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// clean drops hidden columns and turns driver byte slices into strings so
// rows encode as JSON text rather than base64.
func (t Table) clean(row Row) Row {
	for k, v := range row {
		if slices.Contains(t.Hidden, k) {
			delete(row, k)
			continue
		}
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}
