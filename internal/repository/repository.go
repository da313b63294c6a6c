package repository

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/store"
)

// MovieStore is the persistence contract for the movies table. Every method
// runs as a single statement; titles are matched on domain.NormalizeTitle.
type MovieStore interface {
	List(ctx context.Context) ([]domain.Movie, error)
	Get(ctx context.Context, title string) (domain.Movie, error)
	Insert(ctx context.Context, movie domain.Movie) (domain.Movie, error)
	Delete(ctx context.Context, title string) error
	UpdateRating(ctx context.Context, title string, rating float64) error
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies MovieStore
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) (*Repository, error) {
	switch st.Driver() {
	case store.DriverPostgres:
		return &Repository{Movies: &PostgresMovies{pool: st.Pool()}}, nil
	case store.DriverSQLite:
		return &Repository{Movies: &SQLiteMovies{db: st.DB()}}, nil
	default:
		return nil, fmt.Errorf("repository: unsupported driver %q", st.Driver())
	}
}

const movieColumns = `id, title, year, rating, poster`
