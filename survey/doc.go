// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package survey computes per-cohort and neighborhood-wide answer distributions
for the diagnostic survey.

# Engine

An Engine is built once from a loaded dataset and serves every registered
question:

	engine, err := survey.NewEngine(dataset, survey.Options{})
	resp, err := engine.Distribution("transport_mode", []int{1, 3})

Each question is described by a QuestionSpec (kind, sort, multi-select
policy, demographic filter support, TTL). DefaultSpecs holds the built-in
catalog; a YAML file can replace it (LoadSpecFile).

# Pipeline

	answers ──► RespondentFilter ──► Calculator (one cohort)
	                                     │
	                         Cache[ResultSet] (every cohort + quartier)
	                                     │
	                     Aggregator.Weighted (population weights)
	                                     │
	                          Resolver (cohort selection)

The quartier ("whole neighborhood") is never a cohort of its own: it is the
population-weighted aggregate of all cohorts and uses cohort id 0.

# Cohort Selection

Callers select cohorts by ordinal. An empty selection serves the quartier.
A single ordinal serves that cohort, or the quartier with a warning when the
ordinal is unknown or the cohort has no respondents. Several ordinals follow
the question's MultiSelectPolicy:

  - PolicyQuartierOnMultiSelect: serve the quartier
  - PolicySumSelectedSubset: sum the selected cohorts' counts, unweighted

# Graphs

BuildGraph turns flat parent/child node rows (children name their parent by
display name) into an ordered node list with index-based links.
AggregateGraphs merges per-cohort graphs: node values are population-weighted
means, link values are plain means.

# Caching

Cache memoizes a result set per question. Concurrent misses share a single
computation; Invalidate forces the next access to recompute. Caches export
Prometheus counters (quartier_cache_*).
*/
package survey
