// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	_ = cliparse.LoadEnvFile(".env")
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string
  - DatabaseType: sqlite (default) or postgres
  - DataFile: JSON dataset, used instead of a database
  - VariantsFile: YAML question registry replacing the built-in one
  - CacheTTL: Result set lifetime (0 = until invalidated)
  - OrdinalOffset: Legacy cohort ordinal offset fallback (0 = disabled)
  - AdminKeySalt: Secret for the cache admin key HMAC (required)
  - LogLevel: slog level (default: info)

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	-f               JSON dataset file
	--variants       YAML question registry
	--cache-ttl      Cache TTL (Go duration)
	--ordinal-offset Legacy ordinal offset
	--log-level      Log level
	--admin-salt     Admin key salt

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	DATA_FILE      → -f
	VARIANTS_FILE  → --variants
	CACHE_TTL      → --cache-ttl
	ORDINAL_OFFSET → --ordinal-offset
	LOG_LEVEL      → --log-level
	ADMIN_KEY_SALT → --admin-salt

CLI flags take precedence over environment variables, and variables already
in the environment take precedence over a .env file.

# Validation

ParseFlags returns an error if:

  - neither or both of DATABASE_URL and DATA_FILE are set
  - DATABASE_TYPE is not sqlite or postgres
  - CACHE_TTL is not a non-negative duration
  - ADMIN_KEY_SALT is missing
*/
package cliparse
