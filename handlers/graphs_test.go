// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quartier-diag/models"
	"github.com/danielhkuo/quartier-diag/testutil"
)

func graphRequest(key, query string) *http.Request {
	path := "/graphs/" + key
	if query != "" {
		path += "?" + query
	}
	req := httptest.NewRequest("GET", path, nil)
	req.SetPathValue("key", key)
	return req
}

func TestGetGraph(t *testing.T) {
	engine := testutil.NewTestEngine(t)
	handler := NewGraphHandler(engine)

	t.Run("single cohort", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetGraph(w, graphRequest("consumption", "su=1"))

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.GraphResponse
		testutil.AssertJSON(t, w, &resp)

		if resp.CohortIDUsed != 101 {
			t.Errorf("Expected cohort 101, got %d", resp.CohortIDUsed)
		}
		if len(resp.Nodes) != 3 {
			t.Fatalf("Expected 3 nodes, got %d", len(resp.Nodes))
		}
		if resp.Nodes[0].Name != "Alimentation" {
			t.Errorf("Expected parent node first, got '%s'", resp.Nodes[0].Name)
		}
		for _, l := range resp.Links {
			if l.Target != 0 {
				t.Errorf("Expected every link to target the parent, got %d", l.Target)
			}
			if l.Source <= 0 || l.Source >= len(resp.Nodes) {
				t.Errorf("Link source %d out of range", l.Source)
			}
		}
	})

	t.Run("quartier", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetGraph(w, graphRequest("consumption", ""))

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.GraphResponse
		testutil.AssertJSON(t, w, &resp)

		if !resp.IsAggregate {
			t.Error("Expected quartier aggregate")
		}
		for _, n := range resp.Nodes {
			if n.ID == "orphan" {
				t.Error("Node with unknown parent should be dropped")
			}
		}
	})

	t.Run("unknown graph", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetGraph(w, graphRequest("nope", ""))
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("invalid cohort", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetGraph(w, graphRequest("consumption", "su=1,x"))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestListGraphs(t *testing.T) {
	engine := testutil.NewTestEngine(t)
	handler := NewGraphHandler(engine)

	w := httptest.NewRecorder()
	handler.ListGraphs(w, httptest.NewRequest("GET", "/graphs", nil))

	testutil.AssertStatus(t, w, http.StatusOK)

	var keys []string
	testutil.AssertJSON(t, w, &keys)
	if len(keys) != 1 || keys[0] != "consumption" {
		t.Errorf("Expected [consumption], got %v", keys)
	}
}
