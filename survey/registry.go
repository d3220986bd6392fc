// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quartier-diag/models"
)

var ErrDuplicateAggregator = errors.New("aggregator already registered")

// ResultSet holds every precomputed distribution of one question: one per
// cohort with respondents, keyed by global id, and the quartier aggregate.
type ResultSet struct {
	ID         string
	Spec       QuestionSpec
	PerCohort  map[int]models.Distribution
	Quartier   models.Distribution
	ComputedAt time.Time
}

// GraphResultSet holds the per-cohort graphs of one hierarchical graph, the
// source distributions they were built from, and the quartier graph.
type GraphResultSet struct {
	ID         string
	Spec       GraphSpec
	Sources    map[int]models.Distribution
	PerCohort  map[int]models.Graph
	Quartier   models.Graph
	ComputedAt time.Time
}

// QuestionAggregator computes one question's distribution for one cohort.
type QuestionAggregator interface {
	Spec() QuestionSpec
	Compute(cohortID int) models.Distribution
}

// FilteredAggregator is a QuestionAggregator that can narrow a cohort by
// declared demographics.
type FilteredAggregator interface {
	QuestionAggregator
	ComputeFiltered(cohortID int, demo DemographicFilter) models.Distribution
}

// AnswerAggregator is the QuestionAggregator reading the respondent table.
type AnswerAggregator struct {
	spec   QuestionSpec
	calc   *Calculator
	filter *RespondentFilter
}

func NewAnswerAggregator(spec QuestionSpec, calc *Calculator, filter *RespondentFilter) *AnswerAggregator {
	return &AnswerAggregator{spec: spec.withDefaults(), calc: calc, filter: filter}
}

func (a *AnswerAggregator) Spec() QuestionSpec {
	return a.spec
}

func (a *AnswerAggregator) Compute(cohortID int) models.Distribution {
	return a.calc.Compute(a.spec, cohortID, a.filter.AnswersFor(cohortID))
}

func (a *AnswerAggregator) ComputeFiltered(cohortID int, demo DemographicFilter) models.Distribution {
	return a.calc.Compute(a.spec, cohortID, a.filter.AnswersForFiltered(cohortID, demo))
}

// Registry keeps aggregators by spec key, in registration order.
type Registry struct {
	keys  []string
	items map[string]QuestionAggregator
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]QuestionAggregator)}
}

func (r *Registry) Register(a QuestionAggregator) error {
	key := a.Spec().Key
	if _, dup := r.items[key]; dup {
		return fmt.Errorf("%q: %w", key, ErrDuplicateAggregator)
	}
	r.items[key] = a
	r.keys = append(r.keys, key)
	return nil
}

func (r *Registry) Get(key string) (QuestionAggregator, bool) {
	a, ok := r.items[key]
	return a, ok
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// ComputeResultSet runs an aggregator for every cohort id and derives the
// quartier aggregate. Cohorts without respondents are left out of PerCohort;
// ids without a weight are served individually but never reach the quartier.
func ComputeResultSet(agg QuestionAggregator, aggregator *Aggregator, ids []int, weights map[int]float64) *ResultSet {
	spec := agg.Spec()
	per := make(map[int]models.Distribution)
	for _, id := range ids {
		d := agg.Compute(id)
		if d.Respondents > 0 {
			per[id] = d
		}
	}

	return &ResultSet{
		ID:         uuid.NewString(),
		Spec:       spec,
		PerCohort:  per,
		Quartier:   aggregator.Weighted(spec, per, weights),
		ComputedAt: time.Now(),
	}
}

// ComputeGraphResultSet builds one graph per cohort from the source
// question's distribution and merges them into the quartier graph.
func ComputeGraphResultSet(spec GraphSpec, source QuestionAggregator, nodes []models.NodeMetadata, labels LabelResolver, ids []int, weights map[int]float64) *GraphResultSet {
	set := &GraphResultSet{
		ID:        uuid.NewString(),
		Spec:      spec,
		Sources:   make(map[int]models.Distribution),
		PerCohort: make(map[int]models.Graph),
	}

	for _, id := range ids {
		d := source.Compute(id)
		if d.Respondents == 0 {
			continue
		}
		set.Sources[id] = d
		set.PerCohort[id] = BuildGraph(NodeValues(d), nodes, labels)
	}

	set.Quartier = AggregateGraphs(set.PerCohort, weights)
	set.ComputedAt = time.Now()
	return set
}

// NodeValues maps each choice key of a distribution to its percentage.
func NodeValues(d models.Distribution) map[string]float64 {
	values := make(map[string]float64, len(d.Choices))
	for _, ch := range d.Choices {
		values[ch.Key] = ch.Percentage
	}
	return values
}
