// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/quartier-diag/auth"
	"github.com/danielhkuo/quartier-diag/cliparse"
	"github.com/danielhkuo/quartier-diag/db"
	"github.com/danielhkuo/quartier-diag/models"
	"github.com/danielhkuo/quartier-diag/survey"
)

// TestDBURL is the connection string for the in-memory test database
const TestDBURL = ":memory:"

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SeedTestDB creates a test database holding FixtureDataset
func SeedTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn := SetupTestDB(t)
	if err := db.InsertDataset(context.Background(), conn, FixtureDataset()); err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  TestDBURL,
		DatabaseType: "sqlite",
		AdminKeySalt: "test-admin-salt",
	}
}

// AdminKey returns the cache admin key for a configuration
func AdminKey(cfg cliparse.Config) string {
	return auth.GenerateAdminKey(auth.CacheScope, cfg.AdminKeySalt)
}

// FixtureDataset is a small neighborhood: four cohorts (ordinals 1-4,
// global ids 101-104, weights 12.25/79.5/8.25/0), eight respondents spread
// over the first three, one respondent with an unparsable cohort. Tables are
// in the order LoadDataset returns them.
//
// Expected quartier counts for transport_mode: car 1, bike 1, bus 2.
func FixtureDataset() *models.Dataset {
	return &models.Dataset{
		Cohorts: []models.Cohort{
			{Ordinal: 1, GlobalID: 101, Name: "Actifs pressés", Weight: 12.25},
			{Ordinal: 2, GlobalID: 102, Name: "Familles", Weight: 79.5},
			{Ordinal: 3, GlobalID: 103, Name: "Seniors", Weight: 8.25},
			{Ordinal: 4, GlobalID: 104, Name: "Étudiants", Weight: 0},
		},
		Questions: []models.QuestionMetadata{
			{Key: "barriers", ShortLabel: "Freins", Emoji: "🚧"},
			{Key: "carbon_footprint", ShortLabel: "Empreinte carbone"},
			{Key: "consumption_habits", ShortLabel: "Habitudes"},
			{Key: "meat_frequency", LongLabel: "Fréquence de consommation de viande"},
			{Key: "transport_mode", ShortLabel: "Transport", LongLabel: "Mode de transport principal"},
		},
		Choices: []models.ChoiceMetadata{
			{QuestionKey: "barriers", Key: "cost", Label: "Coût", Family: "economic", Tags: []string{"money", "price"}},
			{QuestionKey: "barriers", Key: "time", Label: "Temps", Family: "practical"},
			{QuestionKey: "barriers", Key: "info", Label: "Information", Family: "knowledge"},

			{QuestionKey: "carbon_footprint", Key: "transport_co2", Label: "Transport"},
			{QuestionKey: "carbon_footprint", Key: "food_co2", Label: "Alimentation"},

			{QuestionKey: "consumption_habits", Key: "local_food", Label: "Produits locaux"},
			{QuestionKey: "consumption_habits", Key: "bulk", Label: "Vrac"},
			{QuestionKey: "consumption_habits", Key: "insulation", Label: "Isolation"},

			{QuestionKey: "meat_frequency", Key: "daily", Label: "Tous les jours"},
			{QuestionKey: "meat_frequency", Key: "weekly", Label: "Chaque semaine"},
			{QuestionKey: "meat_frequency", Key: "never", Label: "Jamais"},

			{QuestionKey: "transport_mode", Key: "car", Label: "Voiture", Emoji: "🚗"},
			{QuestionKey: "transport_mode", Key: "bike", Label: "Vélo", Emoji: "🚲"},
			{QuestionKey: "transport_mode", Key: "bus", LongLabel: "Transports en commun"},
		},
		GraphNodes: []models.NodeMetadata{
			{GraphKey: "consumption", ID: "alimentation", Name: "Alimentation", ParentName: "root"},
			{GraphKey: "consumption", ID: "bulk", ParentName: "Alimentation"},
			{GraphKey: "consumption", ID: "energie", Name: "Énergie", ParentName: "root"},
			{GraphKey: "consumption", ID: "insulation", ParentName: "Énergie"},
			{GraphKey: "consumption", ID: "local_food", ParentName: "Alimentation"},
			{GraphKey: "consumption", ID: "orphan", Name: "Orphelin", ParentName: "Inconnu", Source: "local_food"},
		},
		Respondents: []models.RespondentAnswer{
			{ID: "r1", Cohort: "101", Answers: map[string]models.Answer{
				"transport_mode": {"car"}, "meat_frequency": {"daily"}, "gender": {"F"}, "age": {"25-34"},
				"barriers": {"cost", "time"}, "transport_co2": {"2,5"}, "food_co2": {"2"},
				"consumption_habits": {"local_food", "bulk"},
			}},
			{ID: "r2", Cohort: "101", Answers: map[string]models.Answer{
				"transport_mode": {"car"}, "meat_frequency": {"weekly"}, "gender": {"M"}, "age": {"35-49"},
				"barriers": {"cost"}, "food_co2": {"4"},
				"consumption_habits": {"local_food"},
			}},
			{ID: "r3", Cohort: "101.0", Answers: map[string]models.Answer{
				"transport_mode": {"bike"}, "meat_frequency": {"never"}, "gender": {"F"}, "age": {"25-34"},
				"barriers": {"manque d'envie"},
			}},
			{ID: "r4", Cohort: "102", Answers: map[string]models.Answer{
				"transport_mode": {"bus"}, "meat_frequency": {"daily"}, "gender": {"F"}, "age": {"50-64"},
				"barriers": {"info"}, "consumption_habits": {"insulation"},
			}},
			{ID: "r5", Cohort: "102", Answers: map[string]models.Answer{
				"transport_mode": {"bus"}, "meat_frequency": {"daily"}, "gender": {"M"}, "age": {"35-49"},
				"barriers": {"cost", "info"}, "consumption_habits": {"local_food", "insulation"},
			}},
			{ID: "r6", Cohort: "102", Answers: map[string]models.Answer{
				"transport_mode": {"car"}, "meat_frequency": {"weekly"}, "gender": {"F"}, "age": {"35-49"},
			}},
			{ID: "r7", Cohort: "102", Answers: map[string]models.Answer{
				"transport_mode": {"bike"}, "meat_frequency": {"never"}, "gender": {"M"}, "age": {"18-24"},
				"barriers": {"time"}, "consumption_habits": {"bulk"},
			}},
			{ID: "r8", Cohort: " 103 ", Answers: map[string]models.Answer{
				"transport_mode": {"bike"}, "meat_frequency": {"weekly"}, "gender": {"F"}, "age": {"65+"},
				"barriers": {"cost"}, "consumption_habits": {"local_food"},
			}},
			{ID: "r9", Cohort: "abc", Answers: map[string]models.Answer{
				"transport_mode": {"car"},
			}},
		},
	}
}

// FixtureOptions registers the questions and graph FixtureDataset has
// metadata for.
func FixtureOptions() survey.Options {
	return survey.Options{
		Specs: []survey.QuestionSpec{
			{Key: "transport_mode", Kind: survey.KindCategorical, Policy: survey.PolicySumSelectedSubset},
			{Key: "meat_frequency", Kind: survey.KindCategorical, DemographicFilter: true},
			{Key: "barriers", Kind: survey.KindMultiSelect, Sort: survey.SortPercentageDesc, Policy: survey.PolicySumSelectedSubset},
			{Key: "carbon_footprint", Kind: survey.KindContinuous},
		},
		Graphs: []survey.GraphSpec{
			{Key: "consumption", QuestionKey: "consumption_habits"},
		},
	}
}

// NewTestEngine builds an engine over FixtureDataset
func NewTestEngine(t *testing.T) *survey.Engine {
	t.Helper()

	engine, err := survey.NewEngine(FixtureDataset(), FixtureOptions())
	if err != nil {
		t.Fatalf("Failed to build engine: %v", err)
	}
	return engine
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
