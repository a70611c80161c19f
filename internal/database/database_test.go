package database

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestParseURL(t *testing.T) {
	cases := []struct {
		in     string
		driver string
		memory bool
		dsnHas string
	}{
		{"sqlite:///./izonedevs.db", driverSQLite, false, "file:./izonedevs.db?"},
		{"sqlite:////var/lib/izone.db", driverSQLite, false, "file:/var/lib/izone.db?"},
		{"sqlite:///:memory:", driverSQLite, true, "mode=memory"},
		{"mysql://app:pw@db:3306/izone?charset=utf8mb4", driverMySQL, false, "app:pw@tcp(db:3306)/izone"},
		{"mysql://app:pw@db/izone", driverMySQL, false, "tcp(db:3306)"},
		{"postgres://app:pw@db:5432/izone", driverPostgres, false, "postgres://app:pw@db:5432/izone"},
	}
	for _, tc := range cases {
		got, err := ParseURL(tc.in)
		if err != nil {
			t.Fatalf("ParseURL(%q): %v", tc.in, err)
		}
		if got.Driver != tc.driver || got.Memory != tc.memory {
			t.Errorf("ParseURL(%q) = %+v", tc.in, got)
		}
		if !strings.Contains(got.DSN, tc.dsnHas) {
			t.Errorf("ParseURL(%q) DSN %q missing %q", tc.in, got.DSN, tc.dsnHas)
		}
	}
}

func TestParseURL_Unsupported(t *testing.T) {
	for _, in := range []string{"oracle://x/y", "no-scheme"} {
		if _, err := ParseURL(in); !errors.Is(err, ErrUnsupportedURL) {
			t.Errorf("ParseURL(%q) err = %v, want ErrUnsupportedURL", in, err)
		}
	}
}

func TestParseURL_MemoryNamesAreDistinct(t *testing.T) {
	a, _ := ParseURL("sqlite:///:memory:")
	b, _ := ParseURL("sqlite:///:memory:")
	if a.DSN == b.DSN {
		t.Fatalf("two parses share DSN %q", a.DSN)
	}
}

func TestEngine_SingletonKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	eng := NewEngine("sqlite:///:memory:", DefaultOptions)
	t.Cleanup(func() { _ = eng.Close() })

	db1, err := eng.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := CreateSchema(ctx, db1); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}

	db2, err := eng.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if db1 != db2 {
		t.Fatal("Engine.Get returned a different pool")
	}

	for _, table := range Tables {
		var n int
		if err := db2.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table); err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s missing after second Get", table)
		}
	}
}

func TestEngine_ConcurrentGet(t *testing.T) {
	eng := NewEngine("sqlite:///:memory:", DefaultOptions)
	t.Cleanup(func() { _ = eng.Close() })

	var wg sync.WaitGroup
	results := make(chan any, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db, err := eng.Get(context.Background())
			if err != nil {
				results <- err
				return
			}
			results <- db
		}()
	}
	wg.Wait()
	close(results)

	var first any
	for r := range results {
		if err, ok := r.(error); ok {
			t.Fatalf("Get: %v", err)
		}
		if first == nil {
			first = r
		} else if r != first {
			t.Fatal("concurrent Get returned more than one pool")
		}
	}
}

func TestEngine_FailureNotCached(t *testing.T) {
	eng := NewEngine("oracle://nowhere", DefaultOptions)
	if _, err := eng.Get(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := eng.Get(context.Background()); err == nil {
		t.Fatal("expected error on retry")
	}
}

func TestCreateSchema_FileIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "izone.db")
	db, err := Open(ctx, "sqlite:///"+path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := CreateSchema(ctx, db); err != nil {
			t.Fatalf("CreateSchema run %d: %v", i+1, err)
		}
	}

	id, err := InsertID(ctx, db, `INSERT INTO partners (name) VALUES (?)`, "Acme")
	if err != nil {
		t.Fatalf("InsertID: %v", err)
	}
	if id != 1 {
		t.Fatalf("id = %d, want 1", id)
	}
}

func TestStatements(t *testing.T) {
	got := statements("-- c\nCREATE TABLE a (x INT);\n\nCREATE TABLE b (y INT);\n")
	if len(got) != 2 || !strings.HasPrefix(got[1], "CREATE TABLE b") {
		t.Fatalf("statements = %q", got)
	}
}
