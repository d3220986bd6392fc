// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/danielhkuo/quartier-diag/models"
)

// Question keys holding the declared demographics used by sub-filters
const (
	DefaultGenderKey = "gender"
	DefaultAgeKey    = "age"
)

// DemographicFilter narrows a cohort to respondents with the given declared
// gender and/or age band. Empty fields match everyone.
type DemographicFilter struct {
	Gender  string `json:"gender,omitempty"`
	AgeBand string `json:"age,omitempty"`
}

// IsZero reports whether the filter matches everyone.
func (f DemographicFilter) IsZero() bool {
	return strings.TrimSpace(f.Gender) == "" && strings.TrimSpace(f.AgeBand) == ""
}

// RespondentFilter partitions the read-only answer table by cohort.
type RespondentFilter struct {
	byCohort  map[int][]models.RespondentAnswer
	genderKey string
	ageKey    string
	invalid   int
}

func NewRespondentFilter(respondents []models.RespondentAnswer, genderKey, ageKey string) *RespondentFilter {
	f := &RespondentFilter{
		byCohort:  make(map[int][]models.RespondentAnswer),
		genderKey: genderKey,
		ageKey:    ageKey,
	}
	if f.genderKey == "" {
		f.genderKey = DefaultGenderKey
	}
	if f.ageKey == "" {
		f.ageKey = DefaultAgeKey
	}

	for _, r := range respondents {
		id, ok := NormalizeCohortID(r.Cohort)
		if !ok {
			f.invalid++
			continue
		}
		f.byCohort[id] = append(f.byCohort[id], r)
	}

	if f.invalid > 0 {
		slog.Warn("respondents with unparsable cohort reference ignored", "count", f.invalid)
	}

	return f
}

// AnswersFor returns the respondents of a cohort, keyed by global id.
func (f *RespondentFilter) AnswersFor(cohortID int) []models.RespondentAnswer {
	return f.byCohort[cohortID]
}

// AnswersForFiltered applies a demographic sub-filter on top of AnswersFor.
func (f *RespondentFilter) AnswersForFiltered(cohortID int, demo DemographicFilter) []models.RespondentAnswer {
	all := f.byCohort[cohortID]
	if demo.IsZero() {
		return all
	}

	var out []models.RespondentAnswer
	for _, r := range all {
		if !matches(r.Answers[f.genderKey], demo.Gender) {
			continue
		}
		if !matches(r.Answers[f.ageKey], demo.AgeBand) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CohortIDs returns every cohort id that has respondents, ascending.
func (f *RespondentFilter) CohortIDs() []int {
	return sortedIDs(f.byCohort)
}

// Count returns the number of respondents in a cohort.
func (f *RespondentFilter) Count(cohortID int) int {
	return len(f.byCohort[cohortID])
}

func matches(answer models.Answer, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(answer.First()), want)
}

// NormalizeCohortID turns a raw cohort reference ("3", " 3", "3.0", 3) into
// its integer id. Ids outside the int32 range are rejected.
func NormalizeCohortID(raw models.FlexID) (int, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	if math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
