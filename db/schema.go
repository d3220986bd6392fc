// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to a sqlite or postgres database and verifies the connection.
func Open(databaseType, url string) (*sql.DB, error) {
	var driver string
	switch databaseType {
	case "sqlite":
		driver = "sqlite"
	case "postgres":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q", databaseType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if databaseType == "sqlite" {
		// A single connection keeps in-memory databases shared
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The DDL sticks to types and defaults shared by sqlite and postgres.
const schema = `
-- Cohorts (Sphères d'Usage)
CREATE TABLE IF NOT EXISTS cohort (
    ordinal INTEGER PRIMARY KEY CHECK (ordinal > 0),
    global_id INTEGER NOT NULL UNIQUE CHECK (global_id > 0),
    name TEXT NOT NULL DEFAULT '',
    weight REAL NOT NULL DEFAULT 0 CHECK (weight >= 0 AND weight <= 100)
);

-- Question metadata
CREATE TABLE IF NOT EXISTS question_meta (
    key TEXT PRIMARY KEY,
    short_label TEXT NOT NULL DEFAULT '',
    long_label TEXT NOT NULL DEFAULT '',
    emoji TEXT NOT NULL DEFAULT ''
);

-- Choice metadata, position keeps the canonical order
CREATE TABLE IF NOT EXISTS choice_meta (
    question_key TEXT NOT NULL,
    key TEXT NOT NULL,
    position INTEGER NOT NULL,
    label TEXT NOT NULL DEFAULT '',
    long_label TEXT NOT NULL DEFAULT '',
    emoji TEXT NOT NULL DEFAULT '',
    family TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (question_key, key)
);

CREATE INDEX IF NOT EXISTS idx_choice_meta_position ON choice_meta(question_key, position);

-- Respondents, answers are a JSON object keyed by question
CREATE TABLE IF NOT EXISTS respondent (
    id TEXT PRIMARY KEY,
    su TEXT NOT NULL DEFAULT '',
    answers TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_respondent_su ON respondent(su);

-- Hierarchical graph nodes
CREATE TABLE IF NOT EXISTS graph_node (
    graph_key TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    emoji TEXT NOT NULL DEFAULT '',
    parent_name TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (graph_key, id)
);
`
