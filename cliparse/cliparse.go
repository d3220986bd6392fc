// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	DataFile      string
	VariantsFile  string
	CacheTTL      time.Duration
	OrdinalOffset int
	AdminKeySalt  string
	LogLevel      slog.Level
}

// LoadEnvFile loads KEY=value pairs from a .env file into the environment.
// Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var cacheTTL, logLevel string

	fs := flag.NewFlagSet("quartier-diag", flag.ContinueOnError)

	// Network and data sources (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.DataFile, "f", "", "JSON dataset file (instead of a database)")
	fs.StringVar(&cfg.VariantsFile, "variants", "", "YAML question registry file")

	// Engine tuning
	fs.StringVar(&cacheTTL, "cache-ttl", "", "Result set cache TTL, e.g. 10m (0 = never expire)")
	fs.IntVar(&cfg.OrdinalOffset, "ordinal-offset", 0, "Legacy cohort ordinal offset fallback (0 = disabled)")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DataFile == "" {
		cfg.DataFile = os.Getenv("DATA_FILE")
	}
	switch {
	case cfg.DatabaseURL == "" && cfg.DataFile == "":
		return Config{}, errors.New("data source required (use -d/DATABASE_URL or -f/DATA_FILE)")
	case cfg.DatabaseURL != "" && cfg.DataFile != "":
		return Config{}, errors.New("use either a database URL or a data file, not both")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.VariantsFile == "" {
		cfg.VariantsFile = os.Getenv("VARIANTS_FILE")
	}

	if cacheTTL == "" {
		cacheTTL = os.Getenv("CACHE_TTL")
	}
	if cacheTTL != "" {
		ttl, err := time.ParseDuration(cacheTTL)
		if err != nil || ttl < 0 {
			return Config{}, fmt.Errorf("invalid cache TTL %q", cacheTTL)
		}
		cfg.CacheTTL = ttl
	}

	if cfg.OrdinalOffset == 0 {
		if s := os.Getenv("ORDINAL_OFFSET"); s != "" {
			offset, err := strconv.Atoi(s)
			if err != nil {
				return Config{}, errors.New("invalid ORDINAL_OFFSET env variable")
			}
			cfg.OrdinalOffset = offset
		}
	}

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
			return Config{}, fmt.Errorf("invalid log level %q", logLevel)
		}
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	return cfg, nil
}
