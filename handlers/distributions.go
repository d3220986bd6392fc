// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quartier-diag/middleware"
	"github.com/danielhkuo/quartier-diag/survey"
)

type DistributionHandler struct {
	engine *survey.Engine
}

func NewDistributionHandler(engine *survey.Engine) *DistributionHandler {
	return &DistributionHandler{engine: engine}
}

// ListQuestions handles GET /questions
func (h *DistributionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.engine.Questions())
}

// GetDistribution handles GET /questions/{key}/distribution
// Query: su (cohort ordinals, comma separated or repeated), gender, age
func (h *DistributionHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question key is required")
		return
	}

	query := r.URL.Query()
	ordinals, err := ParseCohortSelection(query)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	demo := ParseDemographicFilter(query)

	resp, err := h.engine.FilteredDistribution(key, ordinals, demo)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if resp.Warning != "" {
		slog.Debug("distribution served from quartier fallback",
			"request_id", middleware.RequestID(r.Context()),
			"question", key,
			"ordinals", ordinals,
			"warning", resp.Warning,
		)
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ListCohorts handles GET /cohorts
func (h *DistributionHandler) ListCohorts(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.engine.Cohorts())
}
