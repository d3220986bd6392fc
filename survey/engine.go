// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/quartier-diag/models"
)

var (
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrUnknownGraph      = errors.New("unknown graph")
	ErrFilterUnsupported = errors.New("question does not support demographic filters")
)

// Options configures an Engine. Nil Specs and Graphs select the built-in
// catalog.
type Options struct {
	Specs  []QuestionSpec
	Graphs []GraphSpec

	// CacheTTL applies to specs without their own TTL. Zero never expires.
	CacheTTL time.Duration

	GenderKey string
	AgeKey    string

	// OrdinalOffset enables the legacy ordinal+offset cohort fallback.
	OrdinalOffset int
}

type questionEntry struct {
	agg      QuestionAggregator
	cache    *Cache[ResultSet]
	resolver *Resolver
}

type graphEntry struct {
	spec     GraphSpec
	source   QuestionAggregator
	nodes    []models.NodeMetadata
	labels   LabelResolver
	cache    *Cache[GraphResultSet]
	resolver *Resolver
}

// Engine serves distributions and graphs for every registered question. It
// owns one cache per question and per graph.
type Engine struct {
	index      *MetadataIndex
	cohorts    *CohortTable
	filter     *RespondentFilter
	calc       *Calculator
	aggregator *Aggregator
	registry   *Registry

	// servable are the cohort ids computed per result set: the table's
	// cohorts plus those reachable only through the ordinal offset.
	servable []int
	weights  map[int]float64

	questions  map[string]*questionEntry
	graphs     map[string]*graphEntry
	graphOrder []string
}

func NewEngine(ds *models.Dataset, opts Options) (*Engine, error) {
	var cohortOpts []CohortOption
	if opts.OrdinalOffset != 0 {
		cohortOpts = append(cohortOpts, WithOrdinalOffset(opts.OrdinalOffset))
	}
	cohorts, err := NewCohortTable(ds.Cohorts, cohortOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build cohort table: %w", err)
	}

	specs, graphs := opts.Specs, opts.Graphs
	if specs == nil && graphs == nil {
		specs, graphs = DefaultSpecs(), DefaultGraphSpecs()
	}
	if err := (SpecFile{Questions: specs, Graphs: graphs}).Validate(); err != nil {
		return nil, err
	}

	index := NewMetadataIndex(ds.Questions, ds.Choices)
	e := &Engine{
		index:      index,
		cohorts:    cohorts,
		filter:     NewRespondentFilter(ds.Respondents, opts.GenderKey, opts.AgeKey),
		calc:       NewCalculator(index),
		aggregator: NewAggregator(index),
		registry:   NewRegistry(),
		questions:  make(map[string]*questionEntry),
		graphs:     make(map[string]*graphEntry),
	}

	e.servable = append(cohorts.GlobalIDs(), cohorts.OffsetCohorts(e.filter.CohortIDs())...)
	e.weights = cohorts.Weights()
	if extra := len(e.servable) - len(cohorts.Cohorts()); extra > 0 {
		slog.Info("cohorts reachable through the ordinal offset",
			"offset", opts.OrdinalOffset, "count", extra)
	}

	for _, spec := range specs {
		if !index.HasQuestion(spec.withDefaults().QuestionKey) {
			slog.Warn("question has no metadata", "key", spec.Key)
		}
		agg := NewAnswerAggregator(spec, e.calc, e.filter)
		if err := e.registry.Register(agg); err != nil {
			return nil, err
		}
		e.questions[spec.Key] = &questionEntry{
			agg:      agg,
			cache:    NewCache("question:"+spec.Key, e.resultSetFunc(agg), WithTTL(ttlFor(spec.TTL, opts.CacheTTL))),
			resolver: NewResolver(agg.Spec().Policy, cohorts),
		}
	}

	nodesByGraph := make(map[string][]models.NodeMetadata)
	for _, n := range ds.GraphNodes {
		nodesByGraph[n.GraphKey] = append(nodesByGraph[n.GraphKey], n)
	}

	for _, g := range graphs {
		g = g.withDefaults()
		entry := &graphEntry{
			spec:     g,
			source:   NewAnswerAggregator(g.sourceSpec(), e.calc, e.filter),
			nodes:    nodesByGraph[g.Key],
			labels:   e.choiceLabels(g.QuestionKey),
			resolver: NewResolver(g.Policy, cohorts),
		}
		if len(entry.nodes) == 0 {
			slog.Warn("graph has no node metadata", "key", g.Key)
		}
		entry.cache = NewCache("graph:"+g.Key, e.graphResultSetFunc(entry), WithTTL(ttlFor(g.TTL, opts.CacheTTL)))
		e.graphs[g.Key] = entry
		e.graphOrder = append(e.graphOrder, g.Key)
	}

	slog.Info("engine ready",
		"questions", len(e.questions),
		"graphs", len(e.graphs),
		"cohorts", len(cohorts.Cohorts()),
		"respondents", len(ds.Respondents),
	)

	return e, nil
}

func ttlFor(own, fallback time.Duration) time.Duration {
	if own > 0 {
		return own
	}
	return fallback
}

func (e *Engine) resultSetFunc(agg QuestionAggregator) func() *ResultSet {
	return func() *ResultSet {
		return ComputeResultSet(agg, e.aggregator, e.servable, e.weights)
	}
}

func (e *Engine) graphResultSetFunc(g *graphEntry) func() *GraphResultSet {
	return func() *GraphResultSet {
		return ComputeGraphResultSet(g.spec, g.source, g.nodes, g.labels, e.servable, e.weights)
	}
}

// choiceLabels resolves node names from the choice metadata of a question.
func (e *Engine) choiceLabels(questionKey string) LabelResolver {
	return func(id string) (string, bool) {
		if _, ok := e.index.Choice(questionKey, id); !ok {
			return "", false
		}
		return e.index.ChoiceLabel(questionKey, id), true
	}
}

// ResultSet returns the cached result set of a question, computing it if
// needed.
func (e *Engine) ResultSet(key string) (*ResultSet, error) {
	q, ok := e.questions[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrUnknownQuestion)
	}
	return q.cache.GetOrCompute(), nil
}

// GraphResultSet returns the cached result set of a graph.
func (e *Engine) GraphResultSet(key string) (*GraphResultSet, error) {
	g, ok := e.graphs[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrUnknownGraph)
	}
	return g.cache.GetOrCompute(), nil
}

// Distribution serves a question for a cohort selection (ordinals).
func (e *Engine) Distribution(key string, ordinals []int) (models.DistributionResponse, error) {
	q, ok := e.questions[key]
	if !ok {
		return models.DistributionResponse{}, fmt.Errorf("%q: %w", key, ErrUnknownQuestion)
	}

	set := q.cache.GetOrCompute()
	res := q.resolver.Resolve(set, ordinals, e.summer(q.agg.Spec()))
	return distributionResponse(res, set.ComputedAt), nil
}

// FilteredDistribution serves a question restricted to respondents matching
// a demographic filter. Filtered results are computed on demand and never
// cached.
func (e *Engine) FilteredDistribution(key string, ordinals []int, demo DemographicFilter) (models.DistributionResponse, error) {
	if demo.IsZero() {
		return e.Distribution(key, ordinals)
	}

	q, ok := e.questions[key]
	if !ok {
		return models.DistributionResponse{}, fmt.Errorf("%q: %w", key, ErrUnknownQuestion)
	}
	fa, ok := q.agg.(FilteredAggregator)
	if !ok || !q.agg.Spec().DemographicFilter {
		return models.DistributionResponse{}, fmt.Errorf("%q: %w", key, ErrFilterUnsupported)
	}

	spec := fa.Spec()
	per := make(map[int]models.Distribution)
	for _, id := range e.servable {
		d := fa.ComputeFiltered(id, demo)
		if d.Respondents > 0 {
			per[id] = d
		}
	}
	set := &ResultSet{
		Spec:       spec,
		PerCohort:  per,
		Quartier:   e.aggregator.Weighted(spec, per, e.weights),
		ComputedAt: time.Now(),
	}

	res := q.resolver.Resolve(set, ordinals, e.summer(spec))
	return distributionResponse(res, set.ComputedAt), nil
}

// Graph serves a hierarchical graph for a cohort selection.
func (e *Engine) Graph(key string, ordinals []int) (models.GraphResponse, error) {
	g, ok := e.graphs[key]
	if !ok {
		return models.GraphResponse{}, fmt.Errorf("%q: %w", key, ErrUnknownGraph)
	}

	set := g.cache.GetOrCompute()
	source := g.source.Spec()
	res := g.resolver.ResolveGraph(set, ordinals, func(dists []models.Distribution) models.Graph {
		combined := e.aggregator.Sum(source, dists)
		return BuildGraph(NodeValues(combined), g.nodes, g.labels)
	})

	return models.GraphResponse{
		GraphKey:     key,
		Nodes:        res.Graph.Nodes,
		Links:        res.Graph.Links,
		CohortIDUsed: res.CohortIDUsed,
		CohortIDs:    res.CohortIDs,
		IsAggregate:  res.IsAggregate,
		Warning:      res.Warning,
		ComputedAt:   set.ComputedAt,
	}, nil
}

func (e *Engine) summer(spec QuestionSpec) func([]models.Distribution) models.Distribution {
	return func(dists []models.Distribution) models.Distribution {
		return e.aggregator.Sum(spec, dists)
	}
}

func distributionResponse(res Resolution, computedAt time.Time) models.DistributionResponse {
	d := res.Distribution
	choices := d.Choices
	if choices == nil {
		choices = []models.ChoiceResult{}
	}
	return models.DistributionResponse{
		Question:     d.Question,
		Choices:      choices,
		Respondents:  d.Respondents,
		CohortIDUsed: res.CohortIDUsed,
		CohortIDs:    res.CohortIDs,
		IsAggregate:  res.IsAggregate,
		Warning:      res.Warning,
		ComputedAt:   computedAt,
	}
}

// Invalidate resets the cache of one question or graph.
func (e *Engine) Invalidate(key string) error {
	if q, ok := e.questions[key]; ok {
		q.cache.Invalidate()
		slog.Info("result set invalidated", "key", key)
		return nil
	}
	if g, ok := e.graphs[key]; ok {
		g.cache.Invalidate()
		slog.Info("graph result set invalidated", "key", key)
		return nil
	}
	return fmt.Errorf("%q: %w", key, ErrUnknownQuestion)
}

// InvalidateAll resets every cache and returns the keys reset.
func (e *Engine) InvalidateAll() []string {
	var keys []string
	for _, key := range e.registry.Keys() {
		e.questions[key].cache.Invalidate()
		keys = append(keys, key)
	}
	for _, key := range e.graphOrder {
		e.graphs[key].cache.Invalidate()
		keys = append(keys, key)
	}
	slog.Info("all result sets invalidated", "count", len(keys))
	return keys
}

// Questions lists the registered questions with resolved labels.
func (e *Engine) Questions() []models.QuestionSummary {
	keys := e.registry.Keys()
	out := make([]models.QuestionSummary, 0, len(keys))
	for _, key := range keys {
		spec := e.questions[key].agg.Spec()
		out = append(out, models.QuestionSummary{
			Key:               key,
			Question:          e.index.Question(spec.QuestionKey),
			Kind:              spec.Kind.String(),
			Policy:            spec.Policy.String(),
			DemographicFilter: spec.DemographicFilter,
		})
	}
	return out
}

// GraphKeys lists the registered graphs.
func (e *Engine) GraphKeys() []string {
	out := make([]string, len(e.graphOrder))
	copy(out, e.graphOrder)
	return out
}

// Cohorts lists the cohorts with their respondent counts.
func (e *Engine) Cohorts() []models.CohortSummary {
	cohorts := e.cohorts.Cohorts()
	out := make([]models.CohortSummary, len(cohorts))
	for i, c := range cohorts {
		out[i] = models.CohortSummary{
			Ordinal:     c.Ordinal,
			Name:        c.Name,
			Weight:      c.Weight,
			Respondents: e.filter.Count(c.GlobalID),
		}
	}
	return out
}

// CacheStats returns the counters of every cache, questions first.
func (e *Engine) CacheStats() []CacheStats {
	var out []CacheStats
	for _, key := range e.registry.Keys() {
		out = append(out, e.questions[key].cache.Stats())
	}
	for _, key := range e.graphOrder {
		out = append(out, e.graphs[key].cache.Stats())
	}
	return out
}
