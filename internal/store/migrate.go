package store

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded migrations for the active dialect and returns
// how many were applied. Every statement is idempotent, so tables created by
// earlier tooling are adopted rather than recreated.
func (s *Store) Migrate() (int, error) {
	db, release, err := s.sqlDB()
	if err != nil {
		return 0, err
	}
	defer release()

	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       "migrations/" + string(s.driver),
	}
	applied, err := migrate.Exec(db, string(s.driver), source, migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	return applied, nil
}

// sqlDB returns a database/sql handle for the migration runner. The pgx pool
// has none, so a short-lived one is opened from the pool's connection config.
func (s *Store) sqlDB() (*sql.DB, func(), error) {
	switch {
	case s.db != nil:
		return s.db, func() {}, nil
	case s.pool != nil:
		db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
		return db, func() {
			if err := db.Close(); err != nil {
				s.logger.Printf("store: close migration handle: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("store not initialized")
	}
}
