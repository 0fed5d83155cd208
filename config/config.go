// Package config loads roadmapd settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/meikuraledutech/roadmap/identity"
	"github.com/meikuraledutech/roadmap/judge"
	"github.com/meikuraledutech/roadmap/llm"
)

// Driver identifies the storage backend behind a database URL.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config holds server configuration.
type Config struct {
	// Listen is the address to listen on (e.g., ":8080").
	Listen string
	// DatabaseURL is a Postgres URL or a SQLite path / file: DSN.
	DatabaseURL string
	// AutoMigrate creates the schema on start.
	AutoMigrate bool
	// SeedFile replaces the built-in seed roadmap when set.
	SeedFile string
	// ProblemsFile replaces the built-in practice catalog when set.
	ProblemsFile string

	LogLevel  string
	LogFormat string

	// CORSOrigins is a comma separated allow list, "*" for any.
	CORSOrigins string

	Judge    judge.Config
	Identity identity.Config
	LLM      llm.Config
}

// FromEnv creates a Config from environment variables.
func FromEnv() *Config {
	cfg := &Config{
		Listen:       getEnv("ROADMAP_LISTEN", ":8080"),
		DatabaseURL:  getEnv("ROADMAP_DB_URL", getEnv("DATABASE_URL", "roadmap.db")),
		AutoMigrate:  getEnvBool("ROADMAP_AUTO_MIGRATE", true),
		SeedFile:     getEnv("ROADMAP_SEED_FILE", ""),
		ProblemsFile: getEnv("ROADMAP_PROBLEMS_FILE", ""),
		LogLevel:     getEnv("ROADMAP_LOG_LEVEL", "info"),
		LogFormat:    getEnv("ROADMAP_LOG_FORMAT", "text"),
		CORSOrigins:  getEnv("ROADMAP_CORS_ORIGINS", "*"),
		Judge: judge.Config{
			BaseURL: getEnv("ROADMAP_JUDGE_URL", judge.DefaultBaseURL),
			APIKey:  getEnv("ROADMAP_JUDGE_API_KEY", getEnv("RAPIDAPI_KEY", "")),
			Host:    getEnv("ROADMAP_JUDGE_HOST", judge.DefaultHost),
			Timeout: getEnvDuration("ROADMAP_JUDGE_TIMEOUT", 30*time.Second),
		},
		Identity: identity.Config{
			URL:       getEnv("ROADMAP_IDENTITY_URL", getEnv("SUPABASE_URL", "")),
			AnonKey:   getEnv("ROADMAP_IDENTITY_ANON_KEY", getEnv("SUPABASE_ANON_KEY", "")),
			JWTSecret: getEnv("ROADMAP_IDENTITY_JWT_SECRET", getEnv("SUPABASE_JWT_SECRET", "")),
			Timeout:   getEnvDuration("ROADMAP_IDENTITY_TIMEOUT", 10*time.Second),
		},
		LLM: llm.ConfigFromEnv(),
	}
	return cfg
}

// Driver reports which backend DatabaseURL selects.
func (c *Config) Driver() Driver {
	return DetectDriver(c.DatabaseURL)
}

// DetectDriver picks Postgres for postgres:// and postgresql:// URLs and
// SQLite for everything else.
func DetectDriver(dsn string) Driver {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Validate checks the settings the server cannot start without. Remote
// services left unconfigured only disable their routes.
func (c *Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.Identity.URL != "" && c.Identity.JWTSecret == "" {
		errs = append(errs, errors.New("identity jwt secret is required when an identity url is set"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
