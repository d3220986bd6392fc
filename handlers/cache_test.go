// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/danielhkuo/quartier-diag/auth"
	"github.com/danielhkuo/quartier-diag/models"
	"github.com/danielhkuo/quartier-diag/testutil"
)

func TestGetCacheStatus(t *testing.T) {
	engine := testutil.NewTestEngine(t)
	cfg := testutil.GetTestConfig()
	handler := NewCacheHandler(engine, cfg)

	// Warm one question
	if _, err := engine.Distribution("transport_mode", nil); err != nil {
		t.Fatalf("Distribution() error = %v", err)
	}

	w := httptest.NewRecorder()
	handler.GetStatus(w, httptest.NewRequest("GET", "/cache", nil))

	testutil.AssertStatus(t, w, http.StatusOK)

	var status []models.CacheStatus
	testutil.AssertJSON(t, w, &status)

	if len(status) != 5 {
		t.Fatalf("Expected 5 caches, got %d", len(status))
	}

	byKey := make(map[string]models.CacheStatus)
	for _, s := range status {
		byKey[s.Key] = s
	}

	warm := byKey["question:transport_mode"]
	if !warm.Computed || warm.ComputedAt == nil {
		t.Error("Expected transport_mode to be computed")
	}
	if warm.Age == "" {
		t.Error("Expected a humanized age for a computed cache")
	}
	if warm.Computations != 1 || warm.Misses != 1 {
		t.Errorf("Expected 1 computation and 1 miss, got %d and %d", warm.Computations, warm.Misses)
	}

	cold := byKey["graph:consumption"]
	if cold.Computed || cold.ComputedAt != nil || cold.Age != "" {
		t.Errorf("Expected consumption graph to be cold, got %+v", cold)
	}
}

func TestInvalidateAll(t *testing.T) {
	engine := testutil.NewTestEngine(t)
	cfg := testutil.GetTestConfig()
	handler := NewCacheHandler(engine, cfg)
	adminKey := testutil.AdminKey(cfg)

	tests := []struct {
		name           string
		body           interface{}
		headers        map[string]string
		expectedStatus int
		expectedKeys   []string
	}{
		{
			name:           "reset everything",
			headers:        map[string]string{auth.HeaderAdminKey: adminKey},
			expectedStatus: http.StatusOK,
			expectedKeys:   []string{"transport_mode", "meat_frequency", "barriers", "carbon_footprint", "consumption"},
		},
		{
			name:           "empty key list resets everything",
			body:           models.InvalidateRequest{},
			headers:        map[string]string{auth.HeaderAdminKey: adminKey},
			expectedStatus: http.StatusOK,
			expectedKeys:   []string{"transport_mode", "meat_frequency", "barriers", "carbon_footprint", "consumption"},
		},
		{
			name:           "selected keys with bearer token",
			body:           models.InvalidateRequest{Keys: []string{"barriers", "consumption"}},
			headers:        map[string]string{"Authorization": "Bearer " + adminKey},
			expectedStatus: http.StatusOK,
			expectedKeys:   []string{"barriers", "consumption"},
		},
		{
			name:           "unknown key",
			body:           models.InvalidateRequest{Keys: []string{"barriers", "nope"}},
			headers:        map[string]string{auth.HeaderAdminKey: adminKey},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing admin key",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong admin key",
			headers:        map[string]string{auth.HeaderAdminKey: "not-the-key"},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/cache/invalidate", tt.body, tt.headers)
			w := httptest.NewRecorder()

			handler.InvalidateAll(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusOK {
				var resp models.InvalidateResponse
				testutil.AssertJSON(t, w, &resp)
				if !reflect.DeepEqual(resp.Invalidated, tt.expectedKeys) {
					t.Errorf("Expected invalidated %v, got %v", tt.expectedKeys, resp.Invalidated)
				}
			}
		})
	}
}

func TestInvalidateAllBadBody(t *testing.T) {
	engine := testutil.NewTestEngine(t)
	cfg := testutil.GetTestConfig()
	handler := NewCacheHandler(engine, cfg)

	req := httptest.NewRequest("POST", "/cache/invalidate", strings.NewReader(`{"keys": [`))
	req.Header.Set(auth.HeaderAdminKey, testutil.AdminKey(cfg))
	w := httptest.NewRecorder()

	handler.InvalidateAll(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestInvalidateOne(t *testing.T) {
	engine := testutil.NewTestEngine(t)
	cfg := testutil.GetTestConfig()
	handler := NewCacheHandler(engine, cfg)
	adminKey := testutil.AdminKey(cfg)

	before, err := engine.ResultSet("transport_mode")
	if err != nil {
		t.Fatalf("ResultSet() error = %v", err)
	}

	req := testutil.MakeRequest("POST", "/cache/transport_mode/invalidate", nil,
		map[string]string{auth.HeaderAdminKey: adminKey})
	req.SetPathValue("key", "transport_mode")
	w := httptest.NewRecorder()

	handler.InvalidateOne(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	after, err := engine.ResultSet("transport_mode")
	if err != nil {
		t.Fatalf("ResultSet() error = %v", err)
	}
	if before.ID == after.ID {
		t.Error("Expected a fresh result set after invalidation")
	}

	t.Run("unknown key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/cache/nope/invalidate", nil,
			map[string]string{auth.HeaderAdminKey: adminKey})
		req.SetPathValue("key", "nope")
		w := httptest.NewRecorder()

		handler.InvalidateOne(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("unauthorized", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/cache/transport_mode/invalidate", nil, nil)
		req.SetPathValue("key", "transport_mode")
		w := httptest.NewRecorder()

		handler.InvalidateOne(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}
