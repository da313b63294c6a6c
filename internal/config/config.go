package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	SentryDSN string `envconfig:"SENTRY_DSN"`

	DBURL             string `envconfig:"DB_URL" default:"sqlite://db/movies.db"`
	DBMaxConns        int    `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns        int    `envconfig:"DB_MIN_CONNS" default:"0"`
	DBMaxIdleSecs     int    `envconfig:"DB_MAX_CONN_IDLE_SECS" default:"300"`
	DBMaxLifeSecs     int    `envconfig:"DB_MAX_CONN_LIFETIME_SECS" default:"3600"`
	DBConnTimeoutSecs int    `envconfig:"DB_CONN_TIMEOUT_SECS" default:"10"`
	DBStatementCache  int    `envconfig:"DB_STATEMENT_CACHE_CAPACITY" default:"256"`

	OMDbURL         string `envconfig:"OMDB_URL" default:"http://www.omdbapi.com/"`
	OMDbAPIKey      string `envconfig:"OMDB_API_KEY" required:"true"`
	OMDbTimeoutSecs int    `envconfig:"OMDB_TIMEOUT_SECS" default:"5"`

	SiteOutput   string `envconfig:"SITE_OUTPUT" default:"web/index.html"`
	SiteTemplate string `envconfig:"SITE_TEMPLATE"`
	SiteTitle    string `envconfig:"SITE_TITLE" default:"Movie Collection"`
	SiteCSSPath  string `envconfig:"SITE_CSS_PATH" default:"style.css"`

	Port             string `envconfig:"PORT" default:"8080"`
	AuthToken        string `envconfig:"AUTH_TOKEN"`
	ReadTimeoutSecs  int    `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	WriteTimeoutSecs int    `envconfig:"SERVER_WRITE_TIMEOUT" default:"15"`
	IdleTimeoutSecs  int    `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`
}

// Load reads configuration from an optional .env file and the environment,
// applying defaults and validation.
func Load() (Config, error) {
	// a missing .env file is fine
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the rules every command relies on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OMDbAPIKey) == "" {
		return fmt.Errorf("OMDB_API_KEY is required")
	}
	if strings.TrimSpace(c.OMDbURL) == "" {
		return fmt.Errorf("OMDB_URL is required")
	}
	if _, err := url.Parse(c.OMDbURL); err != nil {
		return fmt.Errorf("OMDB_URL is invalid: %w", err)
	}
	if c.OMDbTimeoutSecs <= 0 {
		return fmt.Errorf("OMDB_TIMEOUT_SECS must be positive")
	}
	if err := validateDBURL(c.DBURL); err != nil {
		return err
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if strings.TrimSpace(c.SiteOutput) == "" {
		return fmt.Errorf("SITE_OUTPUT is required")
	}
	return nil
}

// ValidateServe adds the requirements of the HTTP surface.
func (c Config) ValidateServe() error {
	if c.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

func validateDBURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("DB_URL is required")
	}
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return fmt.Errorf("DB_URL must include a scheme")
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql", "sqlite", "sqlite3":
		return nil
	default:
		return fmt.Errorf("DB_URL scheme %q is not supported", scheme)
	}
}
