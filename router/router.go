// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quartier-diag/cliparse"
	"github.com/danielhkuo/quartier-diag/handlers"
	"github.com/danielhkuo/quartier-diag/middleware"
	"github.com/danielhkuo/quartier-diag/survey"
)

func NewRouter(engine *survey.Engine, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	distributionHandler := handlers.NewDistributionHandler(engine)
	graphHandler := handlers.NewGraphHandler(engine)
	cacheHandler := handlers.NewCacheHandler(engine, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Questions and distributions (public)
	mux.HandleFunc("GET /questions", middleware.WithLogging(distributionHandler.ListQuestions))
	mux.HandleFunc("GET /questions/{key}/distribution", middleware.WithLogging(distributionHandler.GetDistribution))
	mux.HandleFunc("GET /cohorts", middleware.WithLogging(distributionHandler.ListCohorts))

	// Graphs (public)
	mux.HandleFunc("GET /graphs", middleware.WithLogging(graphHandler.ListGraphs))
	mux.HandleFunc("GET /graphs/{key}", middleware.WithLogging(graphHandler.GetGraph))

	// Cache administration (invalidation requires X-Admin-Key)
	mux.HandleFunc("GET /cache", middleware.WithLogging(cacheHandler.GetStatus))
	mux.HandleFunc("POST /cache/invalidate", middleware.WithLogging(cacheHandler.InvalidateAll))
	mux.HandleFunc("POST /cache/{key}/invalidate", middleware.WithLogging(cacheHandler.InvalidateOne))

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quartier-diag API v1"))
	})

	return mux
}
