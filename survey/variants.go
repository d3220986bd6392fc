// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

// DefaultSpecs is the built-in question catalog of the neighborhood survey.
func DefaultSpecs() []QuestionSpec {
	return []QuestionSpec{
		{Key: "age", Kind: KindCategorical},
		{Key: "gender", Kind: KindCategorical},
		{Key: "transport_mode", Kind: KindCategorical, Policy: PolicySumSelectedSubset},
		{Key: "meat_frequency", Kind: KindCategorical, DemographicFilter: true},
		{Key: "heat_source", Kind: KindCategorical},
		{Key: "purchasing_strategy", Kind: KindMultiSelect, OtherLabel: "Autre stratégie"},
		{
			Key:    "barriers",
			Kind:   KindMultiSelect,
			Sort:   SortPercentageDesc,
			Policy: PolicySumSelectedSubset,
		},
		{Key: "carbon_footprint", Kind: KindContinuous},
		{Key: "willingness_to_change", Kind: KindCategorical, DemographicFilter: true},
		{Key: "mobility_zone", Kind: KindCategorical, Policy: PolicySumSelectedSubset},
		{Key: "housing_type", Kind: KindCategorical},
		{Key: "diet", Kind: KindCategorical, DemographicFilter: true},
		{Key: "energy_renovation", Kind: KindCategorical},
		{Key: "local_shopping", Kind: KindMultiSelect},
		{Key: "digital_usage", Kind: KindCategorical},
	}
}

// DefaultGraphSpecs is the built-in graph catalog.
func DefaultGraphSpecs() []GraphSpec {
	return []GraphSpec{
		{Key: "consumption", QuestionKey: "consumption_habits", Kind: KindMultiSelect},
	}
}
