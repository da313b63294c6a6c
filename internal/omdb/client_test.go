package omdb

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/moviedb/internal/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(srv.URL+"/", "test-key", 2*time.Second, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	return client
}

func TestLookup_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "the dark knight", r.URL.Query().Get("t"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"Title":"The Dark Knight","Year":"2008","imdbRating":"9.0","Poster":"https://example.com/tdk.jpg","Response":"True"}`)
	})

	movie, err := client.Lookup(context.Background(), "the dark knight")
	require.NoError(t, err)
	assert.Equal(t, "The Dark Knight", movie.Title)
	assert.Equal(t, 2008, movie.Year)
	assert.Equal(t, 9.0, movie.Rating)
	assert.Equal(t, "https://example.com/tdk.jpg", movie.Poster)
}

func TestLookup_NotFound(t *testing.T) {
	for _, response := range []string{"False", "false", "FALSE"} {
		t.Run(response, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"Response":"`+response+`","Error":"Movie not found!"}`)
			})

			_, err := client.Lookup(context.Background(), "Nope")
			assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
			assert.Equal(t, `Movie "Nope" not found in OMDb API (Movie not found!).`, errs.ErrorMessage(err))
		})
	}
}

func TestLookup_NotFoundWithoutReason(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"Response":"False"}`)
	})

	_, err := client.Lookup(context.Background(), "Nope")
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
	assert.Equal(t, `Movie "Nope" not found in OMDb API.`, errs.ErrorMessage(err))
}

func TestLookup_TransportErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"Response":"False","Error":"Invalid API key!"}`)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"Title":`)
			},
		},
		{
			name: "unparsable year",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"Title":"Odd","Year":"N/A","imdbRating":"5.0","Poster":"N/A","Response":"True"}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.Lookup(context.Background(), "Anything")
			assert.Equal(t, errs.ETRANSPORT, errs.ErrorCode(err))
		})
	}
}

func TestLookup_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewHTTPClient(url, "key", time.Second, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "Heat")
	assert.Equal(t, errs.ETRANSPORT, errs.ErrorCode(err))
}

func TestConvertToMovie(t *testing.T) {
	movie, err := convertToMovie(apiResponse{Title: " Lost ", Year: "2004–2010", IMDbRating: "N/A", Poster: "N/A", Response: "True"})
	require.NoError(t, err)
	assert.Equal(t, "Lost", movie.Title)
	assert.Equal(t, 2004, movie.Year)
	assert.Equal(t, 0.0, movie.Rating)
	assert.Empty(t, movie.Poster)

	_, err = convertToMovie(apiResponse{Title: "Too Good", Year: "2001", IMDbRating: "12"})
	assert.Equal(t, errs.ETRANSPORT, errs.ErrorCode(err))
}

func TestNewHTTPClient_Validation(t *testing.T) {
	_, err := NewHTTPClient("http://www.omdbapi.com/", "", time.Second, nil)
	assert.Error(t, err)

	_, err = NewHTTPClient("not a url", "key", time.Second, nil)
	assert.Error(t, err)
}
