// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"slices"
	"sort"

	"github.com/danielhkuo/quartier-diag/models"
)

// Selection is the decision taken for a list of cohort ordinals.
type Selection struct {
	// CohortIDs are the global ids to serve; empty means the quartier.
	CohortIDs []int
	Warning   string
}

// IsQuartier reports whether the quartier aggregate must be served.
func (s Selection) IsQuartier() bool {
	return len(s.CohortIDs) == 0
}

// Resolution is a distribution picked or combined for a selection.
type Resolution struct {
	Distribution models.Distribution
	CohortIDUsed int
	CohortIDs    []int
	IsAggregate  bool
	Warning      string
}

// GraphResolution is the graph counterpart of Resolution.
type GraphResolution struct {
	Graph        models.Graph
	CohortIDUsed int
	CohortIDs    []int
	IsAggregate  bool
	Warning      string
}

// Resolver maps a caller's cohort selection onto precomputed results.
type Resolver struct {
	policy  MultiSelectPolicy
	cohorts *CohortTable
}

func NewResolver(policy MultiSelectPolicy, cohorts *CohortTable) *Resolver {
	if policy == "" {
		policy = PolicyQuartierOnMultiSelect
	}
	return &Resolver{policy: policy, cohorts: cohorts}
}

func (r *Resolver) Policy() MultiSelectPolicy {
	return r.policy
}

// Plan decides what to serve for the given ordinals. has reports whether a
// precomputed result exists for a global id.
//
//   - no ordinal, or ordinal 0 (the quartier itself): quartier
//   - one ordinal: that cohort, or the quartier with a warning when the
//     ordinal is unmapped or the cohort has no result
//   - several ordinals: the quartier, or under PolicySumSelectedSubset every
//     usable selected cohort
func (r *Resolver) Plan(ordinals []int, has func(globalID int) bool) Selection {
	ordinals = dedupe(ordinals)

	switch {
	case len(ordinals) == 0 || slices.Contains(ordinals, models.QuartierID):
		return Selection{}
	case len(ordinals) == 1:
		id, warning := r.usable(ordinals[0], has)
		if warning != "" {
			return Selection{Warning: warning}
		}
		return Selection{CohortIDs: []int{id}}
	case r.policy != PolicySumSelectedSubset:
		return Selection{}
	}

	var sel Selection
	for _, ord := range ordinals {
		id, warning := r.usable(ord, has)
		if warning != "" {
			sel.Warning = warning
			continue
		}
		sel.CohortIDs = append(sel.CohortIDs, id)
	}
	return sel
}

func (r *Resolver) usable(ordinal int, has func(int) bool) (int, string) {
	id, ok := r.cohorts.ToGlobal(ordinal)
	if !ok {
		selectionFallbacks.WithLabelValues(models.WarningUnmappedCohort).Inc()
		return 0, models.WarningUnmappedCohort
	}
	if !has(id) {
		// An offset guess with no respondents behind it is still unmapped
		if !r.cohorts.Known(ordinal) {
			selectionFallbacks.WithLabelValues(models.WarningUnmappedCohort).Inc()
			return 0, models.WarningUnmappedCohort
		}
		selectionFallbacks.WithLabelValues(models.WarningEmptyCohort).Inc()
		return 0, models.WarningEmptyCohort
	}
	return id, ""
}

// Resolve serves a distribution from a result set. sum combines several
// cohorts' distributions for the subset policy.
func (r *Resolver) Resolve(set *ResultSet, ordinals []int, sum func([]models.Distribution) models.Distribution) Resolution {
	sel := r.Plan(ordinals, func(id int) bool {
		_, ok := set.PerCohort[id]
		return ok
	})

	switch len(sel.CohortIDs) {
	case 0:
		return Resolution{
			Distribution: set.Quartier,
			CohortIDUsed: models.QuartierID,
			IsAggregate:  true,
			Warning:      sel.Warning,
		}
	case 1:
		id := sel.CohortIDs[0]
		return Resolution{
			Distribution: set.PerCohort[id],
			CohortIDUsed: id,
			CohortIDs:    sel.CohortIDs,
			Warning:      sel.Warning,
		}
	}

	dists := make([]models.Distribution, len(sel.CohortIDs))
	for i, id := range sel.CohortIDs {
		dists[i] = set.PerCohort[id]
	}
	return Resolution{
		Distribution: sum(dists),
		CohortIDUsed: models.QuartierID,
		CohortIDs:    sel.CohortIDs,
		IsAggregate:  true,
		Warning:      sel.Warning,
	}
}

// ResolveGraph serves a graph from a graph result set. rebuild builds a graph
// from several cohorts' source distributions for the subset policy.
func (r *Resolver) ResolveGraph(set *GraphResultSet, ordinals []int, rebuild func([]models.Distribution) models.Graph) GraphResolution {
	sel := r.Plan(ordinals, func(id int) bool {
		_, ok := set.PerCohort[id]
		return ok
	})

	switch len(sel.CohortIDs) {
	case 0:
		return GraphResolution{
			Graph:        set.Quartier,
			CohortIDUsed: models.QuartierID,
			IsAggregate:  true,
			Warning:      sel.Warning,
		}
	case 1:
		id := sel.CohortIDs[0]
		return GraphResolution{
			Graph:        set.PerCohort[id],
			CohortIDUsed: id,
			CohortIDs:    sel.CohortIDs,
			Warning:      sel.Warning,
		}
	}

	sources := make([]models.Distribution, len(sel.CohortIDs))
	for i, id := range sel.CohortIDs {
		sources[i] = set.Sources[id]
	}
	return GraphResolution{
		Graph:        rebuild(sources),
		CohortIDUsed: models.QuartierID,
		CohortIDs:    sel.CohortIDs,
		IsAggregate:  true,
		Warning:      sel.Warning,
	}
}

func dedupe(ordinals []int) []int {
	seen := make(map[int]bool, len(ordinals))
	out := make([]int, 0, len(ordinals))
	for _, o := range ordinals {
		if seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	sort.Ints(out)
	return out
}
