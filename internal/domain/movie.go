package domain

import (
	"strings"

	"github.com/Clark-Hu/moviedb/internal/errs"
)

// Movie represents one record of the collection.
type Movie struct {
	ID     int64
	Title  string
	Year   int
	Rating float64
	Poster string
}

// NormalizeTitle returns the lower-cased key used for uniqueness and search.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Validate checks the invariants every stored record must satisfy.
func (m Movie) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return errs.Errorf(errs.EINVALID, "title must not be empty")
	}
	if m.Year <= 0 {
		return errs.Errorf(errs.EINVALID, "year must be positive, got %d", m.Year)
	}
	return ValidateRating(m.Rating)
}
