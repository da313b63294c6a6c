package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Clark-Hu/moviedb/internal/config"
	"github.com/Clark-Hu/moviedb/internal/domain"
	"github.com/Clark-Hu/moviedb/internal/report"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Collection is the set of movie operations exposed over HTTP.
type Collection interface {
	List(ctx context.Context) ([]domain.Movie, error)
	Add(ctx context.Context, title string) (domain.Movie, error)
	Delete(ctx context.Context, title string) error
	UpdateRating(ctx context.Context, title string, rating float64) error
	Stats(ctx context.Context) (domain.Stats, error)
	Random(ctx context.Context) (domain.Movie, error)
	Search(ctx context.Context, term string) ([]domain.Movie, error)
	SortedByRating(ctx context.Context) ([]domain.Movie, error)
}

// PageRenderer renders the collection as an HTML page.
type PageRenderer interface {
	Render(movies []domain.Movie) (string, error)
	Stylesheet() []byte
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	health   HealthChecker
	movies   Collection
	pages    PageRenderer
	reporter *report.Reporter
	logger   *log.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, health HealthChecker, movies Collection, pages PageRenderer, reporter *report.Reporter, logger *log.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(reporter.Middleware)
	r.Use(middleware.Recoverer)

	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:      cfg,
		health:   health,
		movies:   movies,
		pages:    pages,
		reporter: reporter,
		logger:   logger,
		router:   r,
	}
	s.registerRoutes()
	// Start and Shutdown run on different goroutines and share this value.
	s.httpSrv = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      http.HandlerFunc(s.serveHTTP),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSecs) * time.Second,
	}
	return s
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/", s.handleIndex)
	s.router.Get("/style.css", s.handleStylesheet)
	s.router.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleListMovies)
		r.Post("/", s.handleAddMovie)
		r.Get("/stats", s.handleStats)
		r.Get("/random", s.handleRandom)
		r.Route("/{title}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteMovie)
			r.Put("/rating", s.handleUpdateRating)
		})
	})
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("http: listening on %s", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	if err := s.health.HealthCheck(ctx); err != nil {
		s.logger.Printf("http: health check failed: %v", err)
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
