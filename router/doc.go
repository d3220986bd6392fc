// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quartier Diag API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(engine, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics - Prometheus exposition (cache hits, misses, computations)

Questions (public):

	GET /questions                        - Registered questions with labels
	GET /questions/{key}/distribution     - Distribution for ?su=, ?gender=, ?age=
	GET /cohorts                          - Cohorts with weights and respondent counts

Graphs (public):

	GET /graphs       - Registered graph keys
	GET /graphs/{key} - Nodes and links for ?su=

Cache (invalidation requires X-Admin-Key):

	GET  /cache                  - Per result set status
	POST /cache/invalidate       - Reset all or {"keys": [...]}
	POST /cache/{key}/invalidate - Reset one question or graph

# Handler Initialization

The router creates handler instances with dependency injection:

	distributionHandler := handlers.NewDistributionHandler(engine)
	graphHandler := handlers.NewGraphHandler(engine)
	cacheHandler := handlers.NewCacheHandler(engine, cfg)

Every API route is wrapped in middleware.WithLogging. CORS is applied by
the caller around the whole mux.
*/
package router
