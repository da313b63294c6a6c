package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/errs"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type movieAddRequest struct {
	Title string `json:"title"`
}

type ratingRequest struct {
	Rating *float64 `json:"rating"`
}

type movieListResponse struct {
	Items []movieResponse `json:"items"`
}

type movieResponse struct {
	Title  string  `json:"title"`
	Year   int     `json:"year"`
	Rating float64 `json:"rating"`
	Poster string  `json:"poster,omitempty"`
}

type statsResponse struct {
	Count   int           `json:"count"`
	Average float64       `json:"average"`
	Median  float64       `json:"median"`
	Best    movieResponse `json:"best"`
	Worst   movieResponse `json:"worst"`
}

// listQuery is the parsed form of GET /movies parameters.
type listQuery struct {
	Search       string
	SortByRating bool
}

func buildListQuery(query url.Values) (listQuery, error) {
	var q listQuery
	q.Search = strings.TrimSpace(query.Get("q"))
	switch sortBy := strings.ToLower(strings.TrimSpace(query.Get("sort"))); sortBy {
	case "":
	case "rating":
		q.SortByRating = true
	default:
		return q, fmt.Errorf("unsupported sort value %q", sortBy)
	}
	if q.Search != "" && q.SortByRating {
		return q, fmt.Errorf("q and sort cannot be combined")
	}
	return q, nil
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	q, err := buildListQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var movies []domain.Movie
	switch {
	case q.Search != "":
		movies, err = s.movies.Search(r.Context(), q.Search)
	case q.SortByRating:
		movies, err = s.movies.SortedByRating(r.Context())
	default:
		movies, err = s.movies.List(r.Context())
	}
	// an empty result is still a valid listing
	if err != nil && !errs.Is(err, errs.ENOTFOUND) {
		s.respondAppError(w, r, err)
		return
	}

	items := make([]movieResponse, 0, len(movies))
	for _, m := range movies {
		items = append(items, toMovieResponse(m))
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items})
}

func (s *Server) handleAddMovie(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req movieAddRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	movie, err := s.movies.Add(r.Context(), req.Title)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	w.Header().Set("Location", "/movies/"+url.PathEscape(movie.Title))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(movie))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	title, err := decodeTitleParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if err := s.movies.Delete(r.Context(), title); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateRating(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	title, err := decodeTitleParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Rating == nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating is required")
		return
	}

	if err := s.movies.UpdateRating(r.Context(), title, *req.Rating); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"title":  title,
		"rating": *req.Rating,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.movies.Stats(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, statsResponse{
		Count:   stats.Count,
		Average: stats.Average,
		Median:  stats.Median,
		Best:    toMovieResponse(stats.Best),
		Worst:   toMovieResponse(stats.Worst),
	})
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	movie, err := s.movies.Random(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	movies, err := s.movies.List(r.Context())
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	page, err := s.pages.Render(movies)
	if err != nil {
		if errs.Is(err, errs.ENOTFOUND) {
			http.Error(w, errs.ErrorMessage(err), http.StatusNotFound)
			return
		}
		s.respondAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(s.pages.Stylesheet())
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("http: failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// respondAppError maps application error codes to HTTP statuses. Internal
// errors are logged and reported; their details never reach the client.
func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch errs.ErrorCode(err) {
	case errs.EINVALID:
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs.ErrorMessage(err))
	case errs.ENOTFOUND:
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", errs.ErrorMessage(err))
	case errs.EEXISTS:
		s.respondError(w, http.StatusConflict, "CONFLICT", errs.ErrorMessage(err))
	case errs.ETRANSPORT:
		s.logger.Printf("http: upstream failure on %s %s: %v", r.Method, r.URL.Path, err)
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", errs.ErrorMessage(err))
	default:
		s.logger.Printf("http: %s %s: %v", r.Method, r.URL.Path, err)
		s.reporter.Capture(err, map[string]string{"route": r.Method + " " + r.URL.Path})
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error.")
	}
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		Title:  movie.Title,
		Year:   movie.Year,
		Rating: movie.Rating,
		Poster: movie.Poster,
	}
}

func decodeTitleParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "title")
	if raw == "" {
		return "", fmt.Errorf("missing title parameter")
	}
	// chi routes on RawPath when it is set, so only then is the segment still escaped.
	if r.URL.RawPath == "" {
		return raw, nil
	}
	title, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid title parameter")
	}
	return title, nil
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" || s.cfg.AuthToken == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AuthToken
}
