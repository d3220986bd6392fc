// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

var ErrDuplicateSpec = errors.New("duplicate question spec key")

// Kind selects how the calculator reads answers.
type Kind string

const (
	// KindCategorical counts respondents whose answer equals a choice key.
	KindCategorical Kind = "categorical"

	// KindMultiSelect counts every selected choice; unknown non-empty
	// answers are free text counted under the "other" choice.
	KindMultiSelect Kind = "multi_select"

	// KindContinuous averages one numeric field per choice.
	KindContinuous Kind = "continuous"
)

func (k Kind) String() string { return string(k) }

// SortOrder is the presentation order of a distribution's choices.
type SortOrder string

const (
	SortCanonical      SortOrder = "canonical"
	SortPercentageDesc SortOrder = "percentage_desc"
)

// MultiSelectPolicy decides what a selection of several cohorts returns.
type MultiSelectPolicy string

const (
	// PolicyQuartierOnMultiSelect serves the quartier aggregate whenever
	// more than one cohort is selected.
	PolicyQuartierOnMultiSelect MultiSelectPolicy = "quartier"

	// PolicySumSelectedSubset sums the selected cohorts' absolute counts,
	// without population weights.
	PolicySumSelectedSubset MultiSelectPolicy = "sum_subset"
)

func (p MultiSelectPolicy) String() string { return string(p) }

// DefaultOtherKey is the synthesized choice for free-text answers.
const DefaultOtherKey = "other"

// QuestionSpec configures one distribution variant.
type QuestionSpec struct {
	Key               string            `yaml:"key" validate:"required"`
	QuestionKey       string            `yaml:"question_key"`
	Kind              Kind              `yaml:"kind" validate:"required,oneof=categorical multi_select continuous"`
	Sort              SortOrder         `yaml:"sort" validate:"omitempty,oneof=canonical percentage_desc"`
	Policy            MultiSelectPolicy `yaml:"policy" validate:"omitempty,oneof=quartier sum_subset"`
	OtherKey          string            `yaml:"other_key"`
	OtherLabel        string            `yaml:"other_label"`
	DemographicFilter bool              `yaml:"demographic_filter"`
	TTL               time.Duration     `yaml:"ttl" validate:"min=0"`
}

func (s QuestionSpec) withDefaults() QuestionSpec {
	if s.QuestionKey == "" {
		s.QuestionKey = s.Key
	}
	if s.Sort == "" {
		s.Sort = SortCanonical
	}
	if s.Policy == "" {
		s.Policy = PolicyQuartierOnMultiSelect
	}
	if s.Kind == KindMultiSelect && s.OtherKey == "" {
		s.OtherKey = DefaultOtherKey
	}
	if s.OtherLabel == "" {
		s.OtherLabel = "Autre"
	}
	return s
}

// GraphSpec configures one hierarchical graph. Node values are read from the
// percentages of the source question's distribution.
type GraphSpec struct {
	Key         string            `yaml:"key" validate:"required"`
	QuestionKey string            `yaml:"question_key" validate:"required"`
	Kind        Kind              `yaml:"kind" validate:"omitempty,oneof=categorical multi_select continuous"`
	Policy      MultiSelectPolicy `yaml:"policy" validate:"omitempty,oneof=quartier sum_subset"`
	TTL         time.Duration     `yaml:"ttl" validate:"min=0"`
}

func (g GraphSpec) withDefaults() GraphSpec {
	if g.Kind == "" {
		g.Kind = KindMultiSelect
	}
	if g.Policy == "" {
		g.Policy = PolicyQuartierOnMultiSelect
	}
	return g
}

// sourceSpec is the distribution spec feeding a graph's node values.
func (g GraphSpec) sourceSpec() QuestionSpec {
	return QuestionSpec{
		Key:         g.Key,
		QuestionKey: g.QuestionKey,
		Kind:        g.Kind,
		Policy:      g.Policy,
	}.withDefaults()
}

// SpecFile is the YAML layout of a registry override file.
type SpecFile struct {
	Questions []QuestionSpec `yaml:"questions" validate:"dive"`
	Graphs    []GraphSpec    `yaml:"graphs" validate:"dive"`
}

// LoadSpecFile reads and validates a registry file.
func LoadSpecFile(path string) (SpecFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SpecFile{}, fmt.Errorf("failed to read spec file: %w", err)
	}
	return ParseSpecFile(data)
}

// ParseSpecFile decodes and validates registry YAML.
func ParseSpecFile(data []byte) (SpecFile, error) {
	var f SpecFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return SpecFile{}, fmt.Errorf("failed to parse spec file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return SpecFile{}, err
	}
	return f, nil
}

// Validate checks struct constraints and key uniqueness across questions
// and graphs.
func (f SpecFile) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid spec file: %w", err)
	}

	seen := make(map[string]bool)
	for _, q := range f.Questions {
		if seen[q.Key] {
			return fmt.Errorf("%q: %w", q.Key, ErrDuplicateSpec)
		}
		seen[q.Key] = true
	}
	for _, g := range f.Graphs {
		if seen[g.Key] {
			return fmt.Errorf("%q: %w", g.Key, ErrDuplicateSpec)
		}
		seen[g.Key] = true
	}
	return nil
}
