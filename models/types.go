// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// QuartierID is the cohort id reserved for the whole neighborhood.
const QuartierID = 0

// RootParent is the ParentName marking a top-level graph node.
const RootParent = "root"

// Warning values attached to responses that fell back to the quartier aggregate
const (
	WarningUnmappedCohort = "unmapped_cohort"
	WarningEmptyCohort    = "empty_cohort"
)

// Input tables

// FlexID is a cohort reference as found in the raw answers. Older exports
// store it as a JSON number, newer ones as a string; both are kept verbatim
// and normalized by the respondent filter.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	s, err := scalarText(bytes.TrimSpace(b))
	if err != nil {
		return err
	}
	*f = FlexID(s)
	return nil
}

type RespondentAnswer struct {
	ID      string            `json:"id"`
	Cohort  FlexID            `json:"su"`
	Answers map[string]Answer `json:"answers"`
}

// Answer holds one or more raw values for a question. Scalars decode to a
// single element, arrays (multi-select questions) to one element per entry.
type Answer []string

func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = nil
		return nil
	}

	if b[0] != '[' {
		s, err := scalarText(b)
		if err != nil {
			return err
		}
		*a = Answer{s}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	values := make(Answer, 0, len(raw))
	for _, r := range raw {
		s, err := scalarText(bytes.TrimSpace(r))
		if err != nil {
			return err
		}
		values = append(values, s)
	}
	*a = values
	return nil
}

// First returns the first value, or "" for an unanswered question.
func (a Answer) First() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

// Float parses the first value as a number. Decimal commas are accepted.
func (a Answer) Float() (float64, bool) {
	s := strings.TrimSpace(a.First())
	if s == "" {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// scalarText renders a JSON scalar as text: strings are unquoted, numbers and
// booleans are kept as written, null becomes "".
func scalarText(b []byte) (string, error) {
	if len(b) == 0 || string(b) == "null" {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(b), nil
}

type QuestionMetadata struct {
	Key        string `json:"key" validate:"required"`
	ShortLabel string `json:"short_label,omitempty"`
	LongLabel  string `json:"long_label,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
}

type ChoiceMetadata struct {
	QuestionKey string   `json:"question_key" validate:"required"`
	Key         string   `json:"key" validate:"required"`
	Label       string   `json:"label,omitempty"`
	LongLabel   string   `json:"long_label,omitempty"`
	Emoji       string   `json:"emoji,omitempty"`
	Family      string   `json:"family,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Cohort is one Sphère d'Usage: Ordinal is the small stable number shown in
// the UI, GlobalID the storage-level id.
type Cohort struct {
	Ordinal  int     `json:"ordinal" validate:"min=1"`
	GlobalID int     `json:"global_id" validate:"min=1"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight" validate:"min=0,max=100"`
}

// NodeMetadata is one row of the flat graph table. ParentName is either
// RootParent or the display name of another node.
type NodeMetadata struct {
	GraphKey   string `json:"graph_key" validate:"required"`
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
	ParentName string `json:"parent_name"`
	Source     string `json:"source,omitempty"`
}

// Dataset gathers every input table. It is read-only once loaded.
type Dataset struct {
	Respondents []RespondentAnswer `json:"respondents"`
	Questions   []QuestionMetadata `json:"questions" validate:"dive"`
	Choices     []ChoiceMetadata   `json:"choices" validate:"dive"`
	Cohorts     []Cohort           `json:"cohorts" validate:"required,min=1,dive"`
	GraphNodes  []NodeMetadata     `json:"graph_nodes" validate:"dive"`
}

// Computed results

type ChoiceResult struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Emoji      string  `json:"emoji,omitempty"`
	Family     string  `json:"family,omitempty"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Mean       float64 `json:"mean,omitempty"` // continuous questions only
}

type Distribution struct {
	QuestionKey string           `json:"question_key"`
	Question    QuestionMetadata `json:"question"`
	CohortID    int              `json:"cohort_id"`
	Respondents int              `json:"respondents"`
	Total       int              `json:"total"`
	Choices     []ChoiceResult   `json:"choices"`
}

// Choice returns the result for a choice key.
func (d Distribution) Choice(key string) (ChoiceResult, bool) {
	for _, c := range d.Choices {
		if c.Key == key {
			return c, true
		}
	}
	return ChoiceResult{}, false
}

type GraphNode struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Emoji  string  `json:"emoji,omitempty"`
	Value  float64 `json:"value"`
	Parent string  `json:"parent,omitempty"` // parent node ID, empty for top-level nodes
}

type GraphLink struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// Response types

type DistributionResponse struct {
	Question     QuestionMetadata `json:"question"`
	Choices      []ChoiceResult   `json:"choices"`
	Respondents  int              `json:"respondents"`
	CohortIDUsed int              `json:"cohort_id_used"`
	CohortIDs    []int            `json:"cohort_ids,omitempty"`
	IsAggregate  bool             `json:"is_aggregate"`
	Warning      string           `json:"warning,omitempty"`
	ComputedAt   time.Time        `json:"computed_at"`
}

type GraphResponse struct {
	GraphKey     string      `json:"graph_key"`
	Nodes        []GraphNode `json:"nodes"`
	Links        []GraphLink `json:"links"`
	CohortIDUsed int         `json:"cohort_id_used"`
	CohortIDs    []int       `json:"cohort_ids,omitempty"`
	IsAggregate  bool        `json:"is_aggregate"`
	Warning      string      `json:"warning,omitempty"`
	ComputedAt   time.Time   `json:"computed_at"`
}

type QuestionSummary struct {
	Key               string           `json:"key"`
	Question          QuestionMetadata `json:"question"`
	Kind              string           `json:"kind"`
	Policy            string           `json:"policy"`
	DemographicFilter bool             `json:"demographic_filter"`
}

type CohortSummary struct {
	Ordinal     int     `json:"ordinal"`
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Respondents int     `json:"respondents"`
}

type CacheStatus struct {
	Key          string     `json:"key"`
	Computed     bool       `json:"computed"`
	ComputedAt   *time.Time `json:"computed_at,omitempty"`
	Age          string     `json:"age,omitempty"`
	Hits         int64      `json:"hits"`
	Misses       int64      `json:"misses"`
	Computations int64      `json:"computations"`
}

// Request types

// InvalidateRequest lists the question or graph keys to reset. An empty list
// resets every cache.
type InvalidateRequest struct {
	Keys []string `json:"keys"`
}

type InvalidateResponse struct {
	Invalidated []string `json:"invalidated"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
