package cli

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/Clark-Hu/moviedb/internal/collection"
	"github.com/Clark-Hu/moviedb/internal/config"
	"github.com/Clark-Hu/moviedb/internal/omdb"
	"github.com/Clark-Hu/moviedb/internal/report"
	"github.com/Clark-Hu/moviedb/internal/repository"
	"github.com/Clark-Hu/moviedb/internal/site"
	"github.com/Clark-Hu/moviedb/internal/store"
)

// App holds the wired dependencies shared by every command.
type App struct {
	Config   config.Config
	Logger   *log.Logger
	Store    *store.Store
	Site     *site.Generator
	Manager  *collection.Manager
	Reporter *report.Reporter
}

// newLogger returns the diagnostic logger. Without --verbose it discards.
func newLogger(verbose bool, stderr io.Writer) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(stderr, "[moviedb] ", log.LstdFlags|log.Lshortfile)
}

// bootstrap loads configuration and connects every component. Configuration
// problems are command errors; failing to reach the database is a failure.
// checks run against the loaded config before anything is opened.
func bootstrap(ctx context.Context, opts *RootOptions, stderr io.Writer, checks ...func(config.Config) error) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "config error", err)
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return nil, WrapExitError(ExitCommandError, "config error", err)
		}
	}
	logger := newLogger(opts.Verbose, stderr)

	reporter, err := report.Init(cfg.SentryDSN, cfg.AppEnv)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "init error reporter", err)
	}

	gen, err := site.New(site.Options{
		TemplatePath: cfg.SiteTemplate,
		Title:        cfg.SiteTitle,
		CSSPath:      cfg.SiteCSSPath,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "init site generator", err)
	}

	omdbClient, err := omdb.NewHTTPClient(cfg.OMDbURL, cfg.OMDbAPIKey, time.Duration(cfg.OMDbTimeoutSecs)*time.Second, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "init omdb client", err)
	}

	dbCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.DBConnTimeoutSecs)*time.Second)
	defer cancel()

	st, err := store.Open(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		reporter.Capture(err, map[string]string{"op": "connect"})
		reporter.Flush()
		return nil, WrapExitError(ExitFailure, "connect database", err)
	}

	repo, err := repository.New(st)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitFailure, "init repository", err)
	}

	manager := collection.New(repo.Movies, omdbClient,
		collection.WithLogger(logger),
		collection.WithPublisher(gen, cfg.SiteOutput),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Site:     gen,
		Manager:  manager,
		Reporter: reporter,
	}, nil
}

// Close releases the database and flushes pending error reports.
func (a *App) Close() {
	a.Store.Close()
	a.Reporter.Flush()
}
