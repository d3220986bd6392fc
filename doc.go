// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quartier Diag API server.

Quartier Diag serves the answers of a neighborhood (quartier) household
survey to a dashboard. Respondents belong to cohorts (socio-economic
units); every question is aggregated per cohort and as a weighted
neighborhood total, cached, and served per cohort selection.

# Starting the Server

The server reads a dataset from a database or a JSON file:

	DATABASE_URL=quartier.db ADMIN_KEY_SALT=... go run .

Or with flags:

	go run . -p 3318 -f dataset.json -admin-salt ...

A .env file in the working directory is loaded first; variables already
set in the environment win.

# Configuration

Required settings:

  - DATABASE_URL (-d) or DATA_FILE (-f): exactly one data source
  - ADMIN_KEY_SALT (-admin-salt): Secret for the cache admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - VARIANTS_FILE (-variants): YAML question registry replacing the built-in one
  - CACHE_TTL (-cache-ttl): Result set lifetime, e.g. 15m (default: never expire)
  - ORDINAL_OFFSET (-ordinal-offset): Legacy cohort ordinal offset fallback
  - LOG_LEVEL (-log-level): debug, info, warn, error

Logs are text on a terminal and JSON otherwise.

# Architecture

The server uses a handler-based architecture with dependency injection:

  - survey: Aggregation, weighting, graphs, caching, cohort resolution
  - handlers: HTTP request handlers (distributions, graphs, cache)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, request logging, JSON helpers
  - models: Dataset and response types
  - auth: Admin key derivation and validation
  - db: Schema creation and dataset loading
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
