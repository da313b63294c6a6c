package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/errs"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// PostgresMovies provides persistence helpers for movies on PostgreSQL.
type PostgresMovies struct {
	pool *pgxpool.Pool
}

// NewPostgresMovies allows constructing the repository directly from a pgx pool.
func NewPostgresMovies(pool *pgxpool.Pool) *PostgresMovies {
	return &PostgresMovies{pool: pool}
}

// List returns every movie in insertion order.
func (r *PostgresMovies) List(ctx context.Context) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY id`, movieColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return items, nil
}

// Get fetches a movie by its normalized title.
func (r *PostgresMovies) Get(ctx context.Context, title string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE title_key = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, domain.NormalizeTitle(title)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, notFound(title)
		}
		return domain.Movie{}, fmt.Errorf("get movie: %w", err)
	}
	return movie, nil
}

// Insert stores a new movie and returns the persisted row.
func (r *PostgresMovies) Insert(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	if err := movie.Validate(); err != nil {
		return domain.Movie{}, err
	}

	query := fmt.Sprintf(`
        INSERT INTO movies (title, title_key, year, rating, poster)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(movie.Title), domain.NormalizeTitle(movie.Title), movie.Year, movie.Rating, movie.Poster)
	stored, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, mapPgError(err, movie.Title)
	}
	return stored, nil
}

// Delete removes a movie by title.
func (r *PostgresMovies) Delete(ctx context.Context, title string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movies WHERE title_key = $1`, domain.NormalizeTitle(title))
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(title)
	}
	return nil
}

// UpdateRating replaces the rating of a movie.
func (r *PostgresMovies) UpdateRating(ctx context.Context, title string, rating float64) error {
	if err := domain.ValidateRating(rating); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE movies SET rating = $2 WHERE title_key = $1`, domain.NormalizeTitle(title), rating)
	if err != nil {
		return mapPgError(err, title)
	}
	if tag.RowsAffected() == 0 {
		return notFound(title)
	}
	return nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Year,
		&movie.Rating,
		&movie.Poster,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

func mapPgError(err error, title string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return alreadyExists(title, err)
		case pgCheckViolation:
			return errs.Wrap(errs.EINVALID, err, "movie %q violates a table constraint", title)
		}
	}
	return fmt.Errorf("write movie: %w", err)
}
