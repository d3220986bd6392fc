// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quartier-diag/auth"
	"github.com/danielhkuo/quartier-diag/cliparse"
	"github.com/danielhkuo/quartier-diag/middleware"
	"github.com/danielhkuo/quartier-diag/models"
	"github.com/danielhkuo/quartier-diag/survey"
)

type CacheHandler struct {
	engine *survey.Engine
	cfg    cliparse.Config
}

func NewCacheHandler(engine *survey.Engine, cfg cliparse.Config) *CacheHandler {
	return &CacheHandler{engine: engine, cfg: cfg}
}

// GetStatus handles GET /cache
func (h *CacheHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.CacheStats()

	status := make([]models.CacheStatus, 0, len(stats))
	for _, s := range stats {
		entry := models.CacheStatus{
			Key:          s.Name,
			Computed:     s.Computed,
			Hits:         s.Hits,
			Misses:       s.Misses,
			Computations: s.Computations,
		}
		if s.Computed {
			at := s.ComputedAt
			entry.ComputedAt = &at
			entry.Age = humanize.Time(at)
		}
		status = append(status, entry)
	}

	middleware.JSONResponse(w, http.StatusOK, status)
}

// InvalidateAll handles POST /cache/invalidate
// Requires admin key. Body {"keys": [...]} is optional; no keys resets everything.
func (h *CacheHandler) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var req models.InvalidateRequest
	if r.Body != nil {
		if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	}

	if len(req.Keys) == 0 {
		keys := h.engine.InvalidateAll()
		middleware.JSONResponse(w, http.StatusOK, models.InvalidateResponse{Invalidated: keys})
		return
	}

	// Check every key before resetting any
	for _, key := range req.Keys {
		if !h.known(key) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Unknown key: "+key)
			return
		}
	}

	invalidated := make([]string, 0, len(req.Keys))
	for _, key := range req.Keys {
		if err := h.engine.Invalidate(key); err != nil {
			writeEngineError(w, err)
			return
		}
		invalidated = append(invalidated, key)
	}

	middleware.JSONResponse(w, http.StatusOK, models.InvalidateResponse{Invalidated: invalidated})
}

// InvalidateOne handles POST /cache/{key}/invalidate
// Requires admin key
func (h *CacheHandler) InvalidateOne(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	key := r.PathValue("key")
	if key == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := h.engine.Invalidate(key); err != nil {
		if errors.Is(err, survey.ErrUnknownQuestion) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Unknown key: "+key)
			return
		}
		writeEngineError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.InvalidateResponse{Invalidated: []string{key}})
}

func (h *CacheHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	key := auth.AdminKeyFromRequest(r)
	if err := auth.ValidateAdminKey(auth.CacheScope, key, h.cfg.AdminKeySalt); err != nil {
		slog.Warn("rejected cache admin request",
			"request_id", middleware.RequestID(r.Context()),
			"remote", middleware.GetClientIP(r),
			"error", err,
		)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid or missing admin key")
		return false
	}
	return true
}

func (h *CacheHandler) known(key string) bool {
	for _, q := range h.engine.Questions() {
		if q.Key == key {
			return true
		}
	}
	for _, g := range h.engine.GraphKeys() {
		if g == key {
			return true
		}
	}
	return false
}
