// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quartier-diag/models"
)

func respondent(id string, su models.FlexID, answers map[string]models.Answer) models.RespondentAnswer {
	return models.RespondentAnswer{ID: id, Cohort: su, Answers: answers}
}

// testDataset has four cohorts (ordinals 1-4, global ids 101-104). Cohort
// 104 has no respondents. Cohort references are deliberately mixed.
func testDataset() *models.Dataset {
	return &models.Dataset{
		Cohorts: []models.Cohort{
			{Ordinal: 1, GlobalID: 101, Name: "Actifs pressés", Weight: 12.25},
			{Ordinal: 2, GlobalID: 102, Name: "Familles", Weight: 79.5},
			{Ordinal: 3, GlobalID: 103, Name: "Seniors", Weight: 8.25},
			{Ordinal: 4, GlobalID: 104, Name: "Étudiants", Weight: 0},
		},
		Questions: []models.QuestionMetadata{
			{Key: "transport_mode", ShortLabel: "Transport", LongLabel: "Mode de transport principal", Emoji: "🚲"},
			{Key: "meat_frequency", LongLabel: "Fréquence de consommation de viande"},
			{Key: "barriers", ShortLabel: "Freins"},
			{Key: "carbon_footprint", ShortLabel: "Empreinte carbone"},
			{Key: "consumption_habits", ShortLabel: "Habitudes"},
		},
		Choices: []models.ChoiceMetadata{
			{QuestionKey: "transport_mode", Key: "car", Label: "Voiture"},
			{QuestionKey: "transport_mode", Key: "bike", Label: "Vélo"},
			{QuestionKey: "transport_mode", Key: "bus", LongLabel: "Transports en commun"},

			{QuestionKey: "meat_frequency", Key: "daily", Label: "Tous les jours"},
			{QuestionKey: "meat_frequency", Key: "weekly", Label: "Chaque semaine"},
			{QuestionKey: "meat_frequency", Key: "never", Label: "Jamais"},

			{QuestionKey: "barriers", Key: "cost", Label: "Coût", Family: "economic"},
			{QuestionKey: "barriers", Key: "time", Label: "Temps", Family: "practical"},
			{QuestionKey: "barriers", Key: "info", Label: "Information", Family: "knowledge"},

			{QuestionKey: "carbon_footprint", Key: "transport_co2", Label: "Transport"},
			{QuestionKey: "carbon_footprint", Key: "food_co2", Label: "Alimentation"},

			{QuestionKey: "consumption_habits", Key: "local_food", Label: "Produits locaux"},
			{QuestionKey: "consumption_habits", Key: "bulk", Label: "Vrac"},
			{QuestionKey: "consumption_habits", Key: "insulation", Label: "Isolation"},
		},
		GraphNodes: []models.NodeMetadata{
			{GraphKey: "consumption", ID: "alimentation", Name: "Alimentation", ParentName: "root"},
			{GraphKey: "consumption", ID: "energie", Name: "Énergie", ParentName: "root"},
			{GraphKey: "consumption", ID: "local_food", ParentName: "Alimentation"},
			{GraphKey: "consumption", ID: "bulk", ParentName: "Alimentation"},
			{GraphKey: "consumption", ID: "insulation", ParentName: "Énergie"},
			{GraphKey: "consumption", ID: "orphan", Name: "Orphelin", ParentName: "Inconnu", Source: "local_food"},
		},
		Respondents: []models.RespondentAnswer{
			respondent("r1", "101", map[string]models.Answer{
				"transport_mode": {"car"}, "meat_frequency": {"daily"}, "gender": {"F"},
				"barriers": {"cost", "time"}, "transport_co2": {"2,5"}, "food_co2": {"2"},
				"consumption_habits": {"local_food", "bulk"},
			}),
			respondent("r2", "101", map[string]models.Answer{
				"transport_mode": {"car"}, "meat_frequency": {"weekly"}, "gender": {"M"},
				"barriers": {"cost"}, "transport_co2": {"abc"}, "food_co2": {"4"},
				"consumption_habits": {"local_food"},
			}),
			respondent("r3", "101.0", map[string]models.Answer{
				"transport_mode": {"bike"}, "meat_frequency": {"never"}, "gender": {"f"},
				"barriers": {"  ", "manque d'envie"}, "transport_co2": {"-1"}, "food_co2": {"0"},
			}),
			respondent("r4", "102", map[string]models.Answer{
				"transport_mode": {"bus"}, "meat_frequency": {"daily"}, "gender": {"F"},
				"barriers": {"info"}, "consumption_habits": {"insulation"},
			}),
			respondent("r5", "102", map[string]models.Answer{
				"transport_mode": {"bus"}, "meat_frequency": {"daily"}, "gender": {"M"},
				"barriers": {"cost", "info"}, "consumption_habits": {"local_food", "insulation"},
			}),
			respondent("r6", "102", map[string]models.Answer{
				"transport_mode": {"car"}, "meat_frequency": {"weekly"}, "gender": {"F"},
			}),
			respondent("r7", "102", map[string]models.Answer{
				"transport_mode": {"bike"}, "meat_frequency": {"never"}, "gender": {"M"},
				"barriers": {"time"}, "consumption_habits": {"bulk"},
			}),
			respondent("r8", " 103 ", map[string]models.Answer{
				"transport_mode": {"bike"}, "meat_frequency": {"weekly"}, "gender": {"F"},
				"barriers": {"cost"}, "consumption_habits": {"local_food"},
			}),
			respondent("r9", "abc", map[string]models.Answer{
				"transport_mode": {"car"},
			}),
		},
	}
}

func testSpecs() []QuestionSpec {
	return []QuestionSpec{
		{Key: "transport_mode", Kind: KindCategorical, Policy: PolicySumSelectedSubset},
		{Key: "meat_frequency", Kind: KindCategorical, DemographicFilter: true},
		{Key: "barriers", Kind: KindMultiSelect, Sort: SortPercentageDesc, Policy: PolicySumSelectedSubset},
		{Key: "carbon_footprint", Kind: KindContinuous},
	}
}

func testGraphSpecs() []GraphSpec {
	return []GraphSpec{
		{Key: "consumption", QuestionKey: "consumption_habits"},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(testDataset(), Options{Specs: testSpecs(), Graphs: testGraphSpecs()})
	require.NoError(t, err)
	return e
}

func percentSum(choices []models.ChoiceResult) float64 {
	sum := 0.0
	for _, c := range choices {
		sum += c.Percentage
	}
	return sum
}

func choiceKeys(choices []models.ChoiceResult) []string {
	keys := make([]string, len(choices))
	for i, c := range choices {
		keys[i] = c.Key
	}
	return keys
}
