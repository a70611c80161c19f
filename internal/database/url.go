package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

const (
	driverSQLite   = "sqlite"
	driverMySQL    = "mysql"
	driverPostgres = "pgx"
)

// ErrUnsupportedURL is returned for schemes with no registered driver.
var ErrUnsupportedURL = errors.New("database: unsupported URL scheme")

// Target is a parsed connection URL.
type Target struct {
	Driver string // database/sql driver name
	DSN    string // driver-specific data source name
	Memory bool   // non-persistent in-memory SQLite
}

var memSeq atomic.Uint64

// ParseURL maps an application URL onto a driver and DSN.  Every call with
// an in-memory URL yields a distinct database name; sharing one database is
// the Engine's job, not the parser's.
func ParseURL(raw string) (Target, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}

	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3":
		return sqliteTarget(rest), nil
	case "mysql", "mariadb":
		dsn, err := mysqlDSN(raw)
		if err != nil {
			return Target{}, err
		}
		return Target{Driver: driverMySQL, DSN: dsn}, nil
	case "postgres", "postgresql":
		return Target{Driver: driverPostgres, DSN: raw}, nil
	default:
		return Target{}, fmt.Errorf("%w: %q", ErrUnsupportedURL, scheme)
	}
}

// sqliteTarget handles the three-slash form: sqlite:///relative.db,
// sqlite:////abs/path.db, and sqlite:///:memory:.
func sqliteTarget(rest string) Target {
	path := strings.TrimPrefix(rest, "/")
	if path == ":memory:" || path == "" {
		name := fmt.Sprintf("izonehub-mem-%d", memSeq.Add(1))
		return Target{
			Driver: driverSQLite,
			DSN:    "file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(1)",
			Memory: true,
		}
	}
	return Target{
		Driver: driverSQLite,
		DSN:    "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
	}
}

// mysqlDSN converts mysql://user:pw@host:port/db?k=v into the
// go-sql-driver format, forcing parseTime.
func mysqlDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.ParseTime = true

	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k := range q {
			cfg.Params[k] = q.Get(k)
		}
	}
	return cfg.FormatDSN(), nil
}
