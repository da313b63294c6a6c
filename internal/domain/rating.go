package domain

import (
	"math"

	"github.com/Clark-Hu/moviedb/internal/errs"
)

// Rating bounds, inclusive.
const (
	MinRating = 0.0
	MaxRating = 10.0
)

// ValidateRating rejects NaN, infinities and values outside [MinRating, MaxRating].
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || math.IsInf(rating, 0) || rating < MinRating || rating > MaxRating {
		return errs.Errorf(errs.EINVALID, "rating must be between %.0f and %.0f", MinRating, MaxRating)
	}
	return nil
}

// Stats summarizes the ratings of the whole collection.
type Stats struct {
	Count   int
	Average float64
	Median  float64
	Best    Movie
	Worst   Movie
}
