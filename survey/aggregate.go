// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"math"
	"sort"

	"github.com/danielhkuo/quartier-diag/models"
)

// Aggregator combines per-cohort distributions. It keeps the metadata index
// so combined choices come out in canonical order whatever the inputs' sort.
type Aggregator struct {
	index *MetadataIndex
}

func NewAggregator(index *MetadataIndex) *Aggregator {
	return &Aggregator{index: index}
}

type choiceAccumulator struct {
	result     models.ChoiceResult
	count      float64
	meanSum    float64
	meanWeight float64
}

// Weighted combines per-cohort distributions (keyed by global id) into the
// quartier distribution. A cohort contributes only when its weight is
// positive and it has respondents. Weighted counts stay float64 until they
// are rounded into Count; percentages derive from the rounded counts.
func (a *Aggregator) Weighted(spec QuestionSpec, perCohort map[int]models.Distribution, weights map[int]float64) models.Distribution {
	spec = spec.withDefaults()
	acc, order := a.collect(spec, perCohort)

	respondents := 0.0
	for _, id := range sortedIDs(perCohort) {
		d := perCohort[id]
		w := weights[id]
		if !contributes(w, d.Respondents) {
			continue
		}
		respondents += float64(d.Respondents) * w / 100
		for _, ch := range d.Choices {
			c := acc[ch.Key]
			c.count += float64(ch.Count) * w / 100
			if ch.Count > 0 {
				c.meanSum += ch.Mean * w
				c.meanWeight += w
			}
		}
	}

	out := a.emit(spec, acc, order, func(c *choiceAccumulator) models.ChoiceResult {
		r := c.result
		r.Count = int(math.Round(c.count))
		if c.meanWeight > 0 {
			r.Mean = c.meanSum / c.meanWeight
		}
		return r
	})
	out.Respondents = int(math.Round(respondents))
	return out
}

// Sum adds the absolute counts of the given distributions without any
// population weighting. Continuous means are combined weighted by their
// respondent counts.
func (a *Aggregator) Sum(spec QuestionSpec, dists []models.Distribution) models.Distribution {
	spec = spec.withDefaults()
	perCohort := make(map[int]models.Distribution, len(dists))
	for i, d := range dists {
		perCohort[i] = d
	}
	acc, order := a.collect(spec, perCohort)

	respondents := 0
	for _, d := range dists {
		respondents += d.Respondents
		for _, ch := range d.Choices {
			c := acc[ch.Key]
			c.count += float64(ch.Count)
			if ch.Count > 0 {
				c.meanSum += ch.Mean * float64(ch.Count)
				c.meanWeight += float64(ch.Count)
			}
		}
	}

	out := a.emit(spec, acc, order, func(c *choiceAccumulator) models.ChoiceResult {
		r := c.result
		r.Count = int(c.count)
		if c.meanWeight > 0 {
			r.Mean = c.meanSum / c.meanWeight
		}
		return r
	})
	out.Respondents = respondents
	return out
}

// collect builds the union of choice keys: metadata order first, then keys
// only found in the inputs (the synthesized "other"), in order of appearance.
func (a *Aggregator) collect(spec QuestionSpec, perCohort map[int]models.Distribution) (map[string]*choiceAccumulator, []string) {
	acc := make(map[string]*choiceAccumulator)
	var order []string

	for _, ch := range a.index.ChoicesFor(spec.QuestionKey) {
		acc[ch.Key] = &choiceAccumulator{result: models.ChoiceResult{
			Key:    ch.Key,
			Label:  a.index.ChoiceLabel(spec.QuestionKey, ch.Key),
			Emoji:  ch.Emoji,
			Family: ch.Family,
		}}
		order = append(order, ch.Key)
	}

	for _, id := range sortedIDs(perCohort) {
		for _, ch := range perCohort[id].Choices {
			if _, ok := acc[ch.Key]; ok {
				continue
			}
			acc[ch.Key] = &choiceAccumulator{result: models.ChoiceResult{
				Key:    ch.Key,
				Label:  ch.Label,
				Emoji:  ch.Emoji,
				Family: ch.Family,
			}}
			order = append(order, ch.Key)
		}
	}

	return acc, order
}

func (a *Aggregator) emit(spec QuestionSpec, acc map[string]*choiceAccumulator, order []string, result func(*choiceAccumulator) models.ChoiceResult) models.Distribution {
	out := models.Distribution{
		QuestionKey: spec.QuestionKey,
		Question:    a.index.Question(spec.QuestionKey),
		CohortID:    models.QuartierID,
		Choices:     make([]models.ChoiceResult, 0, len(order)),
	}
	for _, key := range order {
		out.Choices = append(out.Choices, result(acc[key]))
	}
	finalize(&out, spec)
	return out
}

func contributes(weight float64, respondents int) bool {
	return weight > 0 && !math.IsNaN(weight) && !math.IsInf(weight, 0) && respondents > 0
}

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

type nodeAccumulator struct {
	node     models.GraphNode
	valueSum float64
	weight   float64
}

type linkAccumulator struct {
	sum float64
	n   int
}

// AggregateGraphs merges per-cohort graphs keyed by global id. Nodes are
// matched by ID; a node's value is the weighted mean over the contributing
// cohorts that contain it. A link's value is the plain arithmetic mean over
// the contributing cohorts where both endpoints appear.
func AggregateGraphs(perCohort map[int]models.Graph, weights map[int]float64) models.Graph {
	nodes := make(map[string]*nodeAccumulator)
	links := make(map[[2]string]*linkAccumulator)

	for _, id := range sortedIDs(perCohort) {
		g := perCohort[id]
		w := weights[id]
		if !contributes(w, len(g.Nodes)) {
			continue
		}

		for _, n := range g.Nodes {
			acc, ok := nodes[n.ID]
			if !ok {
				acc = &nodeAccumulator{node: n}
				nodes[n.ID] = acc
			}
			acc.valueSum += n.Value * w
			acc.weight += w
		}

		for _, l := range g.Links {
			if l.Source < 0 || l.Source >= len(g.Nodes) || l.Target < 0 || l.Target >= len(g.Nodes) {
				continue
			}
			key := [2]string{g.Nodes[l.Source].ID, g.Nodes[l.Target].ID}
			acc, ok := links[key]
			if !ok {
				acc = &linkAccumulator{}
				links[key] = acc
			}
			acc.sum += l.Value
			acc.n++
		}
	}

	var resolved []models.GraphNode
	for _, acc := range nodes {
		n := acc.node
		n.Value = acc.valueSum / acc.weight
		resolved = append(resolved, n)
	}

	return assemble(resolved, func(child, parent models.GraphNode) (float64, bool) {
		acc, ok := links[[2]string{child.ID, parent.ID}]
		if !ok || acc.n == 0 {
			return 0, false
		}
		return acc.sum / float64(acc.n), true
	})
}
