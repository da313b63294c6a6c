package store

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
)

func testOptions() Options {
	return Options{Logger: log.New(io.Discard, "", 0)}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw        string
		wantDriver Driver
		wantDSN    string
		wantErr    bool
	}{
		{"sqlite://db/movies.db", DriverSQLite, "db/movies.db", false},
		{"sqlite3:///var/lib/movies.db", DriverSQLite, "/var/lib/movies.db", false},
		{"postgres://u:p@localhost:5432/movies", DriverPostgres, "postgres://u:p@localhost:5432/movies", false},
		{"postgresql://localhost/movies", DriverPostgres, "postgresql://localhost/movies", false},
		{"sqlite://", "", "", true},
		{"mysql://localhost/movies", "", "", true},
		{"movies.db", "", "", true},
	}
	for _, tt := range tests {
		driver, dsn, err := ParseURL(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseURL(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseURL(%q) unexpected error: %v", tt.raw, err)
		}
		if driver != tt.wantDriver || dsn != tt.wantDSN {
			t.Fatalf("ParseURL(%q) = (%s, %s), want (%s, %s)", tt.raw, driver, dsn, tt.wantDriver, tt.wantDSN)
		}
	}
}

func TestOpenSQLite_CreatesDatabaseAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "movies.db")

	st, err := Open(context.Background(), "sqlite://"+path, testOptions())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("database file was not created")
	}
	if st.Driver() != DriverSQLite {
		t.Fatalf("Driver() = %s, want %s", st.Driver(), DriverSQLite)
	}
	if st.Pool() != nil {
		t.Fatal("Pool() should be nil for sqlite")
	}

	var name string
	err = st.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='movies'").Scan(&name)
	if err != nil {
		t.Fatalf("movies table not found: %v", err)
	}
	if err := st.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() failed: %v", err)
	}
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.db")

	for i := 0; i < 3; i++ {
		st, err := Open(context.Background(), "sqlite://"+path, testOptions())
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		if i > 0 {
			applied, err := st.Migrate()
			if err != nil {
				t.Fatalf("Migrate() iteration %d failed: %v", i, err)
			}
			if applied != 0 {
				t.Fatalf("Migrate() applied %d migrations on reopen, want 0", applied)
			}
		}
		st.Close()
	}
}

func TestOpenSQLite_AdoptsExistingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := Open(context.Background(), "sqlite://"+path, testOptions())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	// Simulate a table created by an older tool without migration bookkeeping.
	if _, err := legacy.DB().Exec("DROP TABLE gorp_migrations"); err != nil {
		t.Fatalf("drop bookkeeping: %v", err)
	}
	if _, err := legacy.DB().Exec("INSERT INTO movies (title, year, rating, poster) VALUES ('Heat', 1995, 8.3, '')"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	legacy.Close()

	st, err := Open(context.Background(), "sqlite://"+path, testOptions())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st.Close()

	var count int
	if err := st.DB().QueryRow("SELECT COUNT(*) FROM movies").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1 (existing rows kept)", count)
	}
}

func TestOpenSQLite_TitleKeyFoldsUnicode(t *testing.T) {
	st, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "movies.db"), testOptions())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	var key string
	if err := st.DB().QueryRow("SELECT title_key('  AMÉLIE ')").Scan(&key); err != nil {
		t.Fatalf("title_key: %v", err)
	}
	if key != "amélie" {
		t.Fatalf("title_key = %q, want %q", key, "amélie")
	}

	if _, err := st.DB().Exec("INSERT INTO movies (title, year, rating, poster) VALUES ('Amélie', 2001, 8.3, '')"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := st.DB().Exec("INSERT INTO movies (title, year, rating, poster) VALUES ('AMÉLIE', 2001, 8.3, '')"); err == nil {
		t.Fatal("expected unique index violation for a title differing only in non-ASCII case")
	}
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	if _, err := Open(context.Background(), "sqlite://"+filepath.Join(blocker, "movies.db"), testOptions()); err == nil {
		t.Fatal("expected error when the parent path is a file")
	}
}

func TestHealthCheck_Uninitialized(t *testing.T) {
	var st *Store
	if err := st.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error for nil store")
	}
}
