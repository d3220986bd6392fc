// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/danielhkuo/quartier-diag/models"
)

var (
	ErrReservedOrdinal  = errors.New("cohort ordinal 0 is reserved for the quartier")
	ErrDuplicateOrdinal = errors.New("duplicate cohort ordinal")
	ErrCohortAlias      = errors.New("two cohorts share a global id")
	ErrNegativeWeight   = errors.New("cohort weight must not be negative")
)

// CohortTable translates between the UI ordinal and the storage global id.
type CohortTable struct {
	ordered   []models.Cohort
	byOrdinal map[int]models.Cohort
	byGlobal  map[int]models.Cohort

	// offset, when non-zero, enables the legacy ordinal+offset guess for
	// ordinals missing from the table.
	offset int
}

type CohortOption func(*CohortTable)

// WithOrdinalOffset enables the legacy ordinal+offset translation fallback.
// The guess is only accepted when the resulting global id belongs to no other
// cohort.
func WithOrdinalOffset(offset int) CohortOption {
	return func(t *CohortTable) {
		t.offset = offset
	}
}

func NewCohortTable(cohorts []models.Cohort, opts ...CohortOption) (*CohortTable, error) {
	t := &CohortTable{
		byOrdinal: make(map[int]models.Cohort, len(cohorts)),
		byGlobal:  make(map[int]models.Cohort, len(cohorts)),
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, c := range cohorts {
		if c.Ordinal == models.QuartierID || c.GlobalID == models.QuartierID {
			return nil, fmt.Errorf("cohort %q: %w", c.Name, ErrReservedOrdinal)
		}
		if c.Weight < 0 {
			return nil, fmt.Errorf("cohort %d: %w", c.Ordinal, ErrNegativeWeight)
		}
		if _, dup := t.byOrdinal[c.Ordinal]; dup {
			return nil, fmt.Errorf("ordinal %d: %w", c.Ordinal, ErrDuplicateOrdinal)
		}
		if other, dup := t.byGlobal[c.GlobalID]; dup {
			return nil, fmt.Errorf("ordinals %d and %d -> global id %d: %w",
				other.Ordinal, c.Ordinal, c.GlobalID, ErrCohortAlias)
		}
		t.byOrdinal[c.Ordinal] = c
		t.byGlobal[c.GlobalID] = c
		t.ordered = append(t.ordered, c)
	}

	sort.Slice(t.ordered, func(i, j int) bool {
		return t.ordered[i].Ordinal < t.ordered[j].Ordinal
	})

	return t, nil
}

// ToGlobal translates an ordinal to a global id.
func (t *CohortTable) ToGlobal(ordinal int) (int, bool) {
	if c, ok := t.byOrdinal[ordinal]; ok {
		return c.GlobalID, true
	}
	if t.offset == 0 || ordinal <= 0 {
		return 0, false
	}

	guess := ordinal + t.offset
	if owner, taken := t.byGlobal[guess]; taken && owner.Ordinal != ordinal {
		slog.Warn("ordinal offset fallback would alias another cohort",
			"ordinal", ordinal, "global_id", guess, "owner_ordinal", owner.Ordinal)
		return 0, false
	}
	slog.Warn("cohort ordinal not in translation table, using offset fallback",
		"ordinal", ordinal, "global_id", guess)
	return guess, true
}

// Known reports whether an ordinal is in the translation table itself.
func (t *CohortTable) Known(ordinal int) bool {
	_, ok := t.byOrdinal[ordinal]
	return ok
}

// OffsetCohorts returns the ids among candidates that only the ordinal
// offset fallback can reach: outside the table, with an ordinal of
// id-offset that is not in the table either. Nil when no offset is set.
func (t *CohortTable) OffsetCohorts(candidates []int) []int {
	if t.offset == 0 {
		return nil
	}
	var out []int
	for _, id := range candidates {
		if _, taken := t.byGlobal[id]; taken {
			continue
		}
		ordinal := id - t.offset
		if ordinal <= 0 || t.Known(ordinal) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ToOrdinal translates a global id back to its ordinal.
func (t *CohortTable) ToOrdinal(globalID int) (int, bool) {
	c, ok := t.byGlobal[globalID]
	return c.Ordinal, ok
}

// Lookup returns the cohort for a global id.
func (t *CohortTable) Lookup(globalID int) (models.Cohort, bool) {
	c, ok := t.byGlobal[globalID]
	return c, ok
}

// Cohorts returns every cohort ordered by ordinal.
func (t *CohortTable) Cohorts() []models.Cohort {
	out := make([]models.Cohort, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Ordinals returns every ordinal in ascending order.
func (t *CohortTable) Ordinals() []int {
	out := make([]int, len(t.ordered))
	for i, c := range t.ordered {
		out[i] = c.Ordinal
	}
	return out
}

// GlobalIDs returns every global id in ordinal order.
func (t *CohortTable) GlobalIDs() []int {
	out := make([]int, len(t.ordered))
	for i, c := range t.ordered {
		out[i] = c.GlobalID
	}
	return out
}

// Weights maps global id to population weight.
func (t *CohortTable) Weights() map[int]float64 {
	w := make(map[int]float64, len(t.ordered))
	for _, c := range t.ordered {
		w[c.GlobalID] = c.Weight
	}
	return w
}
