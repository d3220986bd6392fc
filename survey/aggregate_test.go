// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quartier-diag/models"
)

func abIndex() *MetadataIndex {
	return NewMetadataIndex(
		[]models.QuestionMetadata{{Key: "q", ShortLabel: "Question"}},
		[]models.ChoiceMetadata{
			{QuestionKey: "q", Key: "A", Label: "Choix A"},
			{QuestionKey: "q", Key: "B", Label: "Choix B"},
		},
	)
}

func abDist(cohortID, a, b int) models.Distribution {
	d := models.Distribution{
		QuestionKey: "q",
		CohortID:    cohortID,
		Respondents: a + b,
		Choices: []models.ChoiceResult{
			{Key: "A", Count: a},
			{Key: "B", Count: b},
		},
	}
	finalize(&d, QuestionSpec{Key: "q", Kind: KindCategorical})
	return d
}

func TestWeightedAggregate(t *testing.T) {
	agg := NewAggregator(abIndex())
	spec := QuestionSpec{Key: "q", Kind: KindCategorical}

	per := map[int]models.Distribution{
		101: abDist(101, 10, 0),
		102: abDist(102, 0, 20),
		103: abDist(103, 5, 5),
	}
	weights := map[int]float64{101: 12.25, 102: 79.5, 103: 8.25}

	got := agg.Weighted(spec, per, weights)

	require.Len(t, got.Choices, 2)
	assert.Equal(t, models.QuartierID, got.CohortID)
	assert.Equal(t, "Question", got.Question.ShortLabel)

	// A = 10*.1225 + 5*.0825 = 1.6375, B = 20*.795 + 5*.0825 = 16.3125
	a, b := got.Choices[0], got.Choices[1]
	assert.Equal(t, "A", a.Key)
	assert.Equal(t, "Choix A", a.Label)
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, 16, b.Count)
	assert.Equal(t, 18, got.Total)
	assert.InDelta(t, 11.1, a.Percentage, 0.05)
	assert.InDelta(t, 88.9, b.Percentage, 0.05)
	assert.InDelta(t, 100, percentSum(got.Choices), 0.5)
}

func TestWeightedAggregateExclusions(t *testing.T) {
	agg := NewAggregator(abIndex())
	spec := QuestionSpec{Key: "q", Kind: KindCategorical}

	tests := []struct {
		name    string
		per     map[int]models.Distribution
		weights map[int]float64
		wantA   int
		wantB   int
	}{
		{
			name: "zero weight cohort ignored",
			per: map[int]models.Distribution{
				1: abDist(1, 100, 0),
				2: abDist(2, 0, 100),
			},
			weights: map[int]float64{1: 0, 2: 50},
			wantA:   0,
			wantB:   50,
		},
		{
			name: "cohort without respondents ignored",
			per: map[int]models.Distribution{
				1: abDist(1, 0, 0),
				2: abDist(2, 10, 10),
			},
			weights: map[int]float64{1: 90, 2: 10},
			wantA:   1,
			wantB:   1,
		},
		{
			name: "non finite weight ignored",
			per: map[int]models.Distribution{
				1: abDist(1, 100, 0),
				2: abDist(2, 0, 100),
			},
			weights: map[int]float64{1: math.NaN(), 2: 100},
			wantA:   0,
			wantB:   100,
		},
		{
			name: "missing weight ignored",
			per: map[int]models.Distribution{
				1: abDist(1, 100, 0),
			},
			weights: map[int]float64{},
			wantA:   0,
			wantB:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agg.Weighted(spec, tt.per, tt.weights)
			require.Len(t, got.Choices, 2)
			assert.Equal(t, tt.wantA, got.Choices[0].Count)
			assert.Equal(t, tt.wantB, got.Choices[1].Count)
			for _, ch := range got.Choices {
				assert.False(t, math.IsNaN(ch.Percentage), "percentage of %s is NaN", ch.Key)
			}
		})
	}
}

func TestWeightedAggregateAllZero(t *testing.T) {
	agg := NewAggregator(abIndex())
	spec := QuestionSpec{Key: "q", Kind: KindCategorical}

	got := agg.Weighted(spec, map[int]models.Distribution{}, map[int]float64{})

	require.Len(t, got.Choices, 2)
	assert.Equal(t, 0, got.Total)
	assert.Equal(t, 0, got.Respondents)
	assert.Equal(t, 0.0, percentSum(got.Choices))
}

func TestWeightedAggregateContinuous(t *testing.T) {
	agg := NewAggregator(abIndex())
	spec := QuestionSpec{Key: "q", Kind: KindContinuous}

	per := map[int]models.Distribution{
		1: {Respondents: 4, Choices: []models.ChoiceResult{{Key: "A", Count: 4, Mean: 2}, {Key: "B", Count: 2, Mean: 10}}},
		2: {Respondents: 2, Choices: []models.ChoiceResult{{Key: "A", Count: 2, Mean: 6}, {Key: "B"}}},
	}
	weights := map[int]float64{1: 75, 2: 25}

	got := agg.Weighted(spec, per, weights)

	require.Len(t, got.Choices, 2)
	// A: (2*75 + 6*25) / 100 = 3; B only has cohort 1
	assert.InDelta(t, 3.0, got.Choices[0].Mean, 1e-9)
	assert.InDelta(t, 10.0, got.Choices[1].Mean, 1e-9)
	assert.InDelta(t, 100*3.0/13.0, got.Choices[0].Percentage, 1e-9)
}

func TestSumAggregate(t *testing.T) {
	agg := NewAggregator(abIndex())
	spec := QuestionSpec{Key: "q", Kind: KindCategorical}

	got := agg.Sum(spec, []models.Distribution{abDist(1, 3, 1), abDist(3, 1, 3)})

	require.Len(t, got.Choices, 2)
	assert.Equal(t, 4, got.Choices[0].Count)
	assert.Equal(t, 4, got.Choices[1].Count)
	assert.Equal(t, 8, got.Respondents)
	assert.InDelta(t, 50, got.Choices[0].Percentage, 1e-9)
	assert.Equal(t, models.QuartierID, got.CohortID)
}

func TestSumAggregateKeepsOther(t *testing.T) {
	agg := NewAggregator(abIndex())
	spec := QuestionSpec{Key: "q", Kind: KindMultiSelect, Sort: SortPercentageDesc}

	first := models.Distribution{Respondents: 3, Choices: []models.ChoiceResult{
		{Key: "other", Label: "Autre", Count: 3}, {Key: "A", Count: 1},
	}}
	second := models.Distribution{Respondents: 1, Choices: []models.ChoiceResult{
		{Key: "B", Count: 1},
	}}

	got := agg.Sum(spec, []models.Distribution{first, second})

	assert.Equal(t, []string{"other", "A", "B"}, choiceKeys(got.Choices))
	assert.Equal(t, "Autre", got.Choices[0].Label)
	assert.InDelta(t, 60, got.Choices[0].Percentage, 1e-9)
}
