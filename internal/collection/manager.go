// Package collection orchestrates the movie collection: validation,
// enrichment on add, and the read-side views (stats, search, sort, export).
package collection

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/errs"
)

// Repository is the storage the manager depends on.
type Repository interface {
	List(ctx context.Context) ([]domain.Movie, error)
	Insert(ctx context.Context, movie domain.Movie) (domain.Movie, error)
	Delete(ctx context.Context, title string) error
	UpdateRating(ctx context.Context, title string, rating float64) error
}

// Enricher resolves a user-entered title to canonical metadata.
type Enricher interface {
	Lookup(ctx context.Context, title string) (domain.Movie, error)
}

// Publisher writes the collection somewhere readable, such as a static page.
type Publisher interface {
	WriteFile(path string, movies []domain.Movie) error
}

// Manager implements the collection operations on top of a Repository.
type Manager struct {
	repo       Repository
	enricher   Enricher
	publisher  Publisher
	exportPath string
	intn       func(n int) int
	logger     *log.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRandom replaces the source used by Random. intn must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(m *Manager) {
		if intn != nil {
			m.intn = intn
		}
	}
}

// WithPublisher enables Export, writing to path.
func WithPublisher(p Publisher, path string) Option {
	return func(m *Manager) {
		m.publisher = p
		m.exportPath = path
	}
}

// New constructs a Manager.
func New(repo Repository, enricher Enricher, opts ...Option) *Manager {
	m := &Manager{
		repo:     repo,
		enricher: enricher,
		intn:     rand.Intn,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// List returns every movie. An empty collection is not an error.
func (m *Manager) List(ctx context.Context) ([]domain.Movie, error) {
	return m.repo.List(ctx)
}

// Add looks the title up and stores the canonical record. Duplicates are
// detected by the storage constraint, which reports EEXISTS.
func (m *Manager) Add(ctx context.Context, rawTitle string) (domain.Movie, error) {
	title, err := requireTitle(rawTitle)
	if err != nil {
		return domain.Movie{}, err
	}

	enriched, err := m.enricher.Lookup(ctx, title)
	if err != nil {
		return domain.Movie{}, err
	}

	stored, err := m.repo.Insert(ctx, enriched)
	if err != nil {
		return domain.Movie{}, err
	}
	m.logger.Printf("collection: added %q (%d)", stored.Title, stored.Year)
	return stored, nil
}

// Delete removes a movie by title.
func (m *Manager) Delete(ctx context.Context, rawTitle string) error {
	title, err := requireTitle(rawTitle)
	if err != nil {
		return err
	}
	if err := m.repo.Delete(ctx, title); err != nil {
		return err
	}
	m.logger.Printf("collection: deleted %q", title)
	return nil
}

// UpdateRating sets a new rating for a movie.
func (m *Manager) UpdateRating(ctx context.Context, rawTitle string, rating float64) error {
	title, err := requireTitle(rawTitle)
	if err != nil {
		return err
	}
	if err := domain.ValidateRating(rating); err != nil {
		return err
	}
	if err := m.repo.UpdateRating(ctx, title, rating); err != nil {
		return err
	}
	m.logger.Printf("collection: rated %q %.1f", title, rating)
	return nil
}

// ParseRating converts user input to a rating within bounds.
func ParseRating(raw string) (float64, error) {
	rating, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, errs.Errorf(errs.EINVALID, "Invalid rating %q.", strings.TrimSpace(raw))
	}
	if err := domain.ValidateRating(rating); err != nil {
		return 0, err
	}
	return rating, nil
}

// Stats computes average, median, best and worst over the whole collection.
func (m *Manager) Stats(ctx context.Context) (domain.Stats, error) {
	movies, err := m.nonEmpty(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	ratings := make([]float64, len(movies))
	best, worst := movies[0], movies[0]
	sum := 0.0
	for i, mv := range movies {
		ratings[i] = mv.Rating
		sum += mv.Rating
		if mv.Rating > best.Rating {
			best = mv
		}
		if mv.Rating < worst.Rating {
			worst = mv
		}
	}

	return domain.Stats{
		Count:   len(movies),
		Average: sum / float64(len(movies)),
		Median:  median(ratings),
		Best:    best,
		Worst:   worst,
	}, nil
}

// Random picks one movie uniformly.
func (m *Manager) Random(ctx context.Context) (domain.Movie, error) {
	movies, err := m.nonEmpty(ctx)
	if err != nil {
		return domain.Movie{}, err
	}
	return movies[m.intn(len(movies))], nil
}

// Search returns movies whose title contains term, ignoring case.
func (m *Manager) Search(ctx context.Context, term string) ([]domain.Movie, error) {
	needle := domain.NormalizeTitle(term)
	if needle == "" {
		return nil, errs.Errorf(errs.EINVALID, "Search term must not be empty.")
	}
	movies, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Movie, 0)
	for _, mv := range movies {
		if strings.Contains(strings.ToLower(mv.Title), needle) {
			matches = append(matches, mv)
		}
	}
	if len(matches) == 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, "No matching movies found.")
	}
	return matches, nil
}

// Suggest returns up to limit titles that fuzzily resemble term, closest first.
func (m *Manager) Suggest(ctx context.Context, term string, limit int) ([]string, error) {
	needle := strings.TrimSpace(term)
	if needle == "" || limit <= 0 {
		return nil, nil
	}
	movies, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(movies))
	for i, mv := range movies {
		titles[i] = mv.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(needle, titles)
	sort.Stable(ranks)

	out := make([]string, 0, limit)
	for _, r := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, r.Target)
	}
	return out, nil
}

// SortedByRating returns the collection by descending rating, keeping
// insertion order among equal ratings.
func (m *Manager) SortedByRating(ctx context.Context) ([]domain.Movie, error) {
	movies, err := m.nonEmpty(ctx)
	if err != nil {
		return nil, err
	}
	sorted := make([]domain.Movie, len(movies))
	copy(sorted, movies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})
	return sorted, nil
}

// Export publishes the collection to the configured path and returns it.
func (m *Manager) Export(ctx context.Context) (string, error) {
	return m.ExportTo(ctx, m.exportPath)
}

// ExportTo publishes the collection to path. Nothing is written when the
// collection is empty.
func (m *Manager) ExportTo(ctx context.Context, path string) (string, error) {
	if m.publisher == nil || path == "" {
		return "", fmt.Errorf("collection: export is not configured")
	}
	movies, err := m.nonEmpty(ctx)
	if err != nil {
		return "", err
	}
	if err := m.publisher.WriteFile(path, movies); err != nil {
		return "", err
	}
	m.logger.Printf("collection: exported %d movies to %s", len(movies), path)
	return path, nil
}

func (m *Manager) nonEmpty(ctx context.Context) ([]domain.Movie, error) {
	movies, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, "No movies in database.")
	}
	return movies, nil
}

func requireTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", errs.Errorf(errs.EINVALID, "An empty title is not allowed.")
	}
	return title, nil
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
