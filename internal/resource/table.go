// internal/resource/table.go
//
// Declarative description of one CRUD table.
//
// Context
// -------
// Every feature router except auth and uploads is the same five operations
// over one table: list, get, create, update, and delete.  A Table names the
// table, the columns clients may write, and the validation rule for each.
// Store functions build SQL from these trusted identifiers only; request
// keys that are not declared columns are dropped before any SQL is built.
//
// Notes
// -----
// • Rules use go-playground/validator tag syntax.  Optional fields should
//   start with "omitempty".
// • Oxford commas, two spaces after periods.

package resource

import "sort"

// Kind tells the decoder how to coerce a JSON value before validation.
type Kind int

const (
	Text Kind = iota
	Int
	Float
	Bool
)

// Field is one client-writable column.
type Field struct {
	Name  string // column name and JSON key
	Kind  Kind
	Rules string // validator tag, e.g. "required,max=200"
}

// Row is one record as returned to clients.
type Row = map[string]any

// Table describes a CRUD resource.
type Table struct {
	Name    string   // SQL table
	Noun    string   // singular, used in "Event not found"
	Fields  []Field  // client-writable columns
	Auto    []string // columns filled by hooks, never by clients
	Hidden  []string // columns never returned
	Filters []string // columns usable as ?col=value list filters
	Order   string   // ORDER BY clause; default "id DESC"
}

func (t Table) order() string {
	if t.Order == "" {
		return "id DESC"
	}
	return t.Order
}

func (t Table) field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// writable reports whether col may appear in INSERT or UPDATE.
func (t Table) writable(col string) bool {
	if _, ok := t.field(col); ok {
		return true
	}
	for _, a := range t.Auto {
		if a == col {
			return true
		}
	}
	return false
}

// columns returns the writable keys of row in a stable order.
func (t Table) columns(row Row) []string {
	cols := make([]string, 0, len(row))
	for k := range row {
		if t.writable(k) {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}
