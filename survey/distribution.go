// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"math"
	"sort"
	"strings"

	"github.com/danielhkuo/quartier-diag/models"
)

// Calculator turns one cohort's answers into a Distribution.
type Calculator struct {
	index *MetadataIndex
}

func NewCalculator(index *MetadataIndex) *Calculator {
	return &Calculator{index: index}
}

// Compute counts (or averages) the answers of one cohort for a question.
// Choices are emitted in canonical metadata order unless the question spec asks for
// another sort.
func (c *Calculator) Compute(spec QuestionSpec, cohortID int, answers []models.RespondentAnswer) models.Distribution {
	spec = spec.withDefaults()

	dist := models.Distribution{
		QuestionKey: spec.QuestionKey,
		Question:    c.index.Question(spec.QuestionKey),
		CohortID:    cohortID,
		Respondents: len(answers),
		Choices:     c.emptyResults(spec.QuestionKey),
	}

	switch spec.Kind {
	case KindContinuous:
		c.average(dist.Choices, answers)
	case KindMultiSelect:
		dist.Choices = c.countMulti(spec, dist.Choices, answers)
	default:
		c.countSingle(dist.Choices, answers, spec.QuestionKey)
	}

	finalize(&dist, spec)
	return dist
}

func (c *Calculator) emptyResults(questionKey string) []models.ChoiceResult {
	choices := c.index.ChoicesFor(questionKey)
	results := make([]models.ChoiceResult, len(choices))
	for i, ch := range choices {
		results[i] = models.ChoiceResult{
			Key:    ch.Key,
			Label:  c.index.ChoiceLabel(questionKey, ch.Key),
			Emoji:  ch.Emoji,
			Family: ch.Family,
		}
	}
	return results
}

func (c *Calculator) countSingle(results []models.ChoiceResult, answers []models.RespondentAnswer, questionKey string) {
	pos := positions(results)
	for _, r := range answers {
		v := strings.TrimSpace(r.Answers[questionKey].First())
		if i, ok := pos[v]; ok {
			results[i].Count++
		}
	}
}

func (c *Calculator) countMulti(spec QuestionSpec, results []models.ChoiceResult, answers []models.RespondentAnswer) []models.ChoiceResult {
	pos := positions(results)
	other := 0

	for _, r := range answers {
		seen := make(map[string]bool)
		freeText := false
		for _, raw := range r.Answers[spec.QuestionKey] {
			v := strings.TrimSpace(raw)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			if i, ok := pos[v]; ok {
				results[i].Count++
			} else {
				freeText = true
			}
		}
		if freeText {
			other++
		}
	}

	if other == 0 || spec.OtherKey == "" {
		return results
	}
	if i, ok := pos[spec.OtherKey]; ok {
		results[i].Count += other
		return results
	}
	return append(results, models.ChoiceResult{
		Key:   spec.OtherKey,
		Label: spec.OtherLabel,
		Count: other,
	})
}

// average reads one numeric field per choice; only positive, finite values
// contribute.
func (c *Calculator) average(results []models.ChoiceResult, answers []models.RespondentAnswer) {
	for i := range results {
		sum, n := 0.0, 0
		for _, r := range answers {
			v, ok := r.Answers[results[i].Key].Float()
			if !ok || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			sum += v
			n++
		}
		results[i].Count = n
		if n > 0 {
			results[i].Mean = sum / float64(n)
		}
	}
}

func positions(results []models.ChoiceResult) map[string]int {
	pos := make(map[string]int, len(results))
	for i, r := range results {
		pos[r.Key] = i
	}
	return pos
}

// finalize fills Total and percentages, then applies the QuestionSpec sort order.
func finalize(dist *models.Distribution, spec QuestionSpec) {
	total := 0
	for _, ch := range dist.Choices {
		total += ch.Count
	}
	dist.Total = total

	if spec.Kind == KindContinuous {
		setPercentages(dist.Choices, func(ch models.ChoiceResult) float64 { return ch.Mean })
	} else {
		setPercentages(dist.Choices, func(ch models.ChoiceResult) float64 { return float64(ch.Count) })
	}

	if spec.Sort == SortPercentageDesc {
		sort.SliceStable(dist.Choices, func(i, j int) bool {
			return dist.Choices[i].Percentage > dist.Choices[j].Percentage
		})
	}
}

// setPercentages sets 100 * measure / Σ measure; a zero sum yields zeros.
func setPercentages(choices []models.ChoiceResult, measure func(models.ChoiceResult) float64) {
	sum := 0.0
	for _, ch := range choices {
		sum += measure(ch)
	}
	for i := range choices {
		if sum <= 0 {
			choices[i].Percentage = 0
			continue
		}
		choices[i].Percentage = 100 * measure(choices[i]) / sum
	}
}
