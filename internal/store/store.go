package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Driver identifies the backend a Store is connected to.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite3"
)

// Options controls connection-pool behaviour. Pool sizing applies to
// PostgreSQL only; SQLite always runs on a single connection.
type Options struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
	Logger                 *log.Logger
}

// Store hides direct access to the underlying database handle so higher layers
// can focus on business logic. Exactly one of pool and db is set.
type Store struct {
	driver Driver
	pool   *pgxpool.Pool
	db     *sql.DB
	dsn    string
	logger *log.Logger
	opts   Options
}

// Open connects to the database named by dbURL and applies the schema.
// postgres:// and postgresql:// URLs use a pgx pool; sqlite:// and sqlite3://
// URLs open a local database file.
func Open(ctx context.Context, dbURL string, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	driver, dsn, err := ParseURL(dbURL)
	if err != nil {
		return nil, err
	}

	var st *Store
	switch driver {
	case DriverPostgres:
		st, err = openPostgres(ctx, dsn, opts)
	case DriverSQLite:
		st, err = openSQLite(ctx, dsn, opts)
	}
	if err != nil {
		return nil, err
	}

	applied, err := st.Migrate()
	if err != nil {
		st.Close()
		return nil, err
	}
	st.logger.Printf("store: schema ready (%s, %d migrations applied)", st.driver, applied)
	return st, nil
}

// ParseURL splits a database URL into its driver and the DSN handed to it.
func ParseURL(dbURL string) (Driver, string, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(dbURL), "://")
	if !ok {
		return "", "", fmt.Errorf("parse db url: missing scheme in %q", dbURL)
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return DriverPostgres, dbURL, nil
	case "sqlite", "sqlite3":
		if rest == "" {
			return "", "", fmt.Errorf("parse db url: missing sqlite path")
		}
		return DriverSQLite, rest, nil
	default:
		return "", "", fmt.Errorf("parse db url: unsupported scheme %q", scheme)
	}
}

// Close releases database resources.
func (s *Store) Close() {
	if s == nil {
		return
	}
	switch {
	case s.pool != nil:
		s.logger.Println("store: closing connection pool")
		s.pool.Close()
	case s.db != nil:
		s.logger.Println("store: closing sqlite database")
		if err := s.db.Close(); err != nil {
			s.logger.Printf("store: close sqlite: %v", err)
		}
	}
}

// HealthCheck verifies the database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || (s.pool == nil && s.db == nil) {
		return fmt.Errorf("store not initialized")
	}
	checkCtx := ctx
	if s.opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, s.opts.ConnTimeout)
		defer cancel()
	}
	if s.pool != nil {
		return s.pool.Ping(checkCtx)
	}
	return s.db.PingContext(checkCtx)
}

// Driver reports which backend the store is connected to.
func (s *Store) Driver() Driver {
	return s.driver
}

// Pool exposes the underlying pgx pool for repositories. Nil for SQLite.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// DB exposes the underlying SQLite handle for repositories. Nil for PostgreSQL.
func (s *Store) DB() *sql.DB {
	return s.db
}
