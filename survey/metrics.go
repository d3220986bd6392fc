// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quartier_cache_hits_total",
		Help: "Result set cache hits",
	}, []string{"result_set"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quartier_cache_misses_total",
		Help: "Result set cache misses",
	}, []string{"result_set"})

	cacheComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quartier_cache_computations_total",
		Help: "Result set computations",
	}, []string{"result_set"})

	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quartier_cache_invalidations_total",
		Help: "Explicit result set invalidations",
	}, []string{"result_set"})

	computeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quartier_compute_duration_seconds",
		Help:    "Time to compute a full result set",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"result_set"})

	selectionFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quartier_selection_fallbacks_total",
		Help: "Selections served from the quartier aggregate because of an unusable cohort",
	}, []string{"reason"})
)
