// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quartier-diag/middleware"
	"github.com/danielhkuo/quartier-diag/survey"
)

type GraphHandler struct {
	engine *survey.Engine
}

func NewGraphHandler(engine *survey.Engine) *GraphHandler {
	return &GraphHandler{engine: engine}
}

// ListGraphs handles GET /graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.engine.GraphKeys())
}

// GetGraph handles GET /graphs/{key}
// Query: su (cohort ordinals)
// Links index into the returned node list (source = child, target = parent).
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "graph key is required")
		return
	}

	ordinals, err := ParseCohortSelection(r.URL.Query())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.engine.Graph(key, ordinals)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
