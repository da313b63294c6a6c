package omdb

import (
	"testing"
)

func FuzzConvertToMovie(f *testing.F) {
	f.Add("The Dark Knight", "2008", "9.0", "https://example.com/tdk.jpg")
	f.Add("Lost", "2004–2010", "N/A", "N/A")
	f.Add("", "", "", "")
	f.Add("Odd", "abc", "11", "x")

	f.Fuzz(func(t *testing.T, title, year, rating, poster string) {
		movie, err := convertToMovie(apiResponse{
			Title:      title,
			Year:       year,
			IMDbRating: rating,
			Poster:     poster,
			Response:   "True",
		})
		if err != nil {
			return
		}
		if movie.Title == "" {
			t.Fatalf("converted movie has empty title")
		}
		if movie.Year <= 0 {
			t.Fatalf("converted movie has non-positive year %d", movie.Year)
		}
		if movie.Rating < 0 || movie.Rating > 10 {
			t.Fatalf("converted movie has rating %v outside [0,10]", movie.Rating)
		}
		if movie.Poster == notAvailable {
			t.Fatalf("poster placeholder leaked through")
		}
	})
}
