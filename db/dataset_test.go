// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/quartier-diag/db"
	"github.com/danielhkuo/quartier-diag/models"
	"github.com/danielhkuo/quartier-diag/testutil"
)

func TestCreateSchemaIdempotent(t *testing.T) {
	conn := testutil.SetupTestDB(t)

	// Second call must not fail
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("CreateSchema() second call error = %v", err)
	}
}

func TestOpenUnsupportedType(t *testing.T) {
	if _, err := db.Open("mysql", "x"); err == nil {
		t.Error("Expected error for unsupported database type")
	}
}

func TestInsertAndLoadDataset(t *testing.T) {
	conn := testutil.SeedTestDB(t)

	got, err := db.LoadDataset(context.Background(), conn)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}

	want := testutil.FixtureDataset()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadDataset() mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertDatasetRejectsInvalid(t *testing.T) {
	conn := testutil.SetupTestDB(t)

	tests := []struct {
		name   string
		mutate func(ds *models.Dataset)
	}{
		{"no cohorts", func(ds *models.Dataset) { ds.Cohorts = nil }},
		{"weight above 100", func(ds *models.Dataset) { ds.Cohorts[0].Weight = 120 }},
		{"choice without key", func(ds *models.Dataset) { ds.Choices[0].Key = "" }},
		{"node without graph", func(ds *models.Dataset) { ds.GraphNodes[0].GraphKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := testutil.FixtureDataset()
			tt.mutate(ds)
			if err := db.InsertDataset(context.Background(), conn, ds); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	// Nothing was written
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM cohort`).Scan(&count); err != nil {
		t.Fatalf("count cohorts: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no cohorts after rejected inserts, got %d", count)
	}
}

func TestInsertDatasetRollsBack(t *testing.T) {
	conn := testutil.SetupTestDB(t)

	ds := testutil.FixtureDataset()
	// Duplicate respondent id violates the primary key after cohorts are written
	ds.Respondents = append(ds.Respondents, ds.Respondents[0])

	if err := db.InsertDataset(context.Background(), conn, ds); err == nil {
		t.Fatal("Expected error for duplicate respondent")
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM cohort`).Scan(&count); err != nil {
		t.Fatalf("count cohorts: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected rollback to leave no cohorts, got %d", count)
	}
}

const datasetJSON = `{
  "cohorts": [
    {"ordinal": 1, "global_id": 101, "name": "Actifs", "weight": 40},
    {"ordinal": 2, "global_id": 102, "name": "Familles", "weight": 60}
  ],
  "questions": [{"key": "transport_mode", "short_label": "Transport"}],
  "choices": [
    {"question_key": "transport_mode", "key": "car", "label": "Voiture"},
    {"question_key": "transport_mode", "key": "bike", "label": "Vélo"}
  ],
  "respondents": [
    {"id": "a", "su": 101, "answers": {"transport_mode": "car", "co2": 3.5}},
    {"id": "b", "su": "102", "answers": {"transport_mode": ["bike"], "skipped": null}}
  ]
}`

func TestLoadDatasetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	if err := os.WriteFile(path, []byte(datasetJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	ds, err := db.LoadDatasetFile(path)
	if err != nil {
		t.Fatalf("LoadDatasetFile() error = %v", err)
	}

	if len(ds.Cohorts) != 2 || len(ds.Respondents) != 2 {
		t.Fatalf("Unexpected table sizes: %d cohorts, %d respondents", len(ds.Cohorts), len(ds.Respondents))
	}

	a := ds.Respondents[0]
	if a.Cohort != "101" {
		t.Errorf("Numeric su should decode as text, got %q", a.Cohort)
	}
	if got := a.Answers["transport_mode"].First(); got != "car" {
		t.Errorf("Expected scalar answer 'car', got %q", got)
	}
	if v, ok := a.Answers["co2"].Float(); !ok || v != 3.5 {
		t.Errorf("Expected numeric answer 3.5, got %v (%v)", v, ok)
	}

	b := ds.Respondents[1]
	if got := b.Answers["transport_mode"]; len(got) != 1 || got[0] != "bike" {
		t.Errorf("Expected array answer [bike], got %v", got)
	}
	if got := b.Answers["skipped"]; got != nil {
		t.Errorf("Expected null answer to decode as nil, got %v", got)
	}
}

func TestLoadDatasetFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := db.LoadDatasetFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"cohorts": [`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadDatasetFile(bad); err == nil {
		t.Error("Expected error for malformed JSON")
	}

	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"cohorts": []}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadDatasetFile(invalid); err == nil {
		t.Error("Expected validation error for a dataset without cohorts")
	}
}
