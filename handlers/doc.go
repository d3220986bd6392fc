// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quartier Diag API.

# Handler Types

Each handler is a struct holding the survey engine and, where needed, the
config:

  - DistributionHandler: question listing, distributions, cohort listing
  - GraphHandler: hierarchical (Sankey) graphs
  - CacheHandler: cache status and admin invalidation

Handlers are created via constructor functions:

	distributions := handlers.NewDistributionHandler(engine)
	cache := handlers.NewCacheHandler(engine, cfg)

# Cohort Selection

Distribution and graph endpoints take the cohorts to show as ordinals in the
su query parameter, comma separated or repeated:

	GET /questions/transport_mode/distribution          → quartier
	GET /questions/transport_mode/distribution?su=0     → quartier
	GET /questions/transport_mode/distribution?su=2     → cohort with ordinal 2
	GET /questions/transport_mode/distribution?su=1,3   → per question policy

An unknown or empty cohort falls back to the quartier and the response
carries a warning. Questions flagged for demographic filtering also accept
gender and age:

	GET /questions/meat_frequency/distribution?gender=F&age=25-34

# Cache Administration

	GET  /cache                  → GetStatus (computed-at, hits, misses)
	POST /cache/invalidate       → InvalidateAll (optional {"keys": [...]})
	POST /cache/{key}/invalidate → InvalidateOne

Invalidation requires the X-Admin-Key header (or an Authorization bearer
token) derived from ADMIN_KEY_SALT.

# Errors

Engine errors map to status codes in one place (writeEngineError): unknown
question or graph keys give 404, filters on a question that does not allow
them give 400.
*/
package handlers
