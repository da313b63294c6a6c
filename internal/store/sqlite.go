package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/Clark-Hu/moviedb/internal/domain"
)

// sqliteDriverName is go-sqlite3 with the title_key function registered on
// every connection. SQLite's lower() and NOCASE only fold ASCII, so uniqueness
// and lookups go through domain.NormalizeTitle instead.
const sqliteDriverName = "sqlite3_moviedb"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("title_key", domain.NormalizeTitle, true)
		},
	})
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

func openSQLite(ctx context.Context, path string, opts Options) (*Store, error) {
	logger := opts.Logger

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	connCtx := ctx
	if opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, opts.ConnTimeout)
		defer cancel()
	}

	if err := db.PingContext(connCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for _, pragma := range sqlitePragmas {
		if _, err := db.ExecContext(connCtx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	logger.Printf("store: sqlite database opened at %s", path)

	return &Store{driver: DriverSQLite, db: db, dsn: path, logger: logger, opts: opts}, nil
}
