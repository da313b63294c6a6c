package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/errs"
)

// SQLiteMovies provides persistence helpers for movies on a local SQLite file.
type SQLiteMovies struct {
	db *sql.DB
}

// NewSQLiteMovies allows constructing the repository directly from a database handle.
func NewSQLiteMovies(db *sql.DB) *SQLiteMovies {
	return &SQLiteMovies{db: db}
}

// List returns every movie in insertion order.
func (r *SQLiteMovies) List(ctx context.Context) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY id`, movieColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		var m domain.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Year, &m.Rating, &m.Poster); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return items, nil
}

// Get fetches a movie by its normalized title.
func (r *SQLiteMovies) Get(ctx context.Context, title string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE title_key(title) = ?`, movieColumns)
	var m domain.Movie
	err := r.db.QueryRowContext(ctx, query, domain.NormalizeTitle(title)).Scan(&m.ID, &m.Title, &m.Year, &m.Rating, &m.Poster)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Movie{}, notFound(title)
		}
		return domain.Movie{}, fmt.Errorf("get movie: %w", err)
	}
	return m, nil
}

// Insert stores a new movie and returns the persisted row.
func (r *SQLiteMovies) Insert(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	if err := movie.Validate(); err != nil {
		return domain.Movie{}, err
	}
	movie.Title = strings.TrimSpace(movie.Title)

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (title, year, rating, poster) VALUES (?, ?, ?, ?)`,
		movie.Title, movie.Year, movie.Rating, movie.Poster,
	)
	if err != nil {
		return domain.Movie{}, mapSQLiteError(err, movie.Title)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Movie{}, fmt.Errorf("insert movie: %w", err)
	}
	movie.ID = id
	return movie, nil
}

// Delete removes a movie by title.
func (r *SQLiteMovies) Delete(ctx context.Context, title string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE title_key(title) = ?`, domain.NormalizeTitle(title))
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	return requireAffected(res, title)
}

// UpdateRating replaces the rating of a movie.
func (r *SQLiteMovies) UpdateRating(ctx context.Context, title string, rating float64) error {
	if err := domain.ValidateRating(rating); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET rating = ? WHERE title_key(title) = ?`, rating, domain.NormalizeTitle(title))
	if err != nil {
		return mapSQLiteError(err, title)
	}
	return requireAffected(res, title)
}

func requireAffected(res sql.Result, title string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound(title)
	}
	return nil
}

func mapSQLiteError(err error, title string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return alreadyExists(title, err)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return errs.Wrap(errs.EINVALID, err, "movie %q violates a table constraint", title)
		}
	}
	return fmt.Errorf("write movie: %w", err)
}
