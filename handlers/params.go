// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielhkuo/quartier-diag/middleware"
	"github.com/danielhkuo/quartier-diag/survey"
)

// ParseCohortSelection reads the cohort ordinals of a request. Both
// ?su=1,3 and ?su=1&su=3 are accepted; blank entries are skipped.
func ParseCohortSelection(query url.Values) ([]int, error) {
	var ordinals []int
	for _, raw := range query["su"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid cohort %q", part)
			}
			ordinals = append(ordinals, n)
		}
	}
	return ordinals, nil
}

// ParseDemographicFilter reads the gender and age sub-filter of a request.
func ParseDemographicFilter(query url.Values) survey.DemographicFilter {
	return survey.DemographicFilter{
		Gender:  strings.TrimSpace(query.Get("gender")),
		AgeBand: strings.TrimSpace(query.Get("age")),
	}
}

// writeEngineError maps engine errors to HTTP responses
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, survey.ErrUnknownQuestion):
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
	case errors.Is(err, survey.ErrUnknownGraph):
		middleware.ErrorResponse(w, http.StatusNotFound, "Graph not found")
	case errors.Is(err, survey.ErrFilterUnsupported):
		middleware.ErrorResponse(w, http.StatusBadRequest, "This question does not support gender or age filters")
	default:
		slog.Error("engine request failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Computation failed")
	}
}
