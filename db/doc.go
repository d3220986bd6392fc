// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation and survey dataset loading.

# Connecting

Open connects with the sqlite (modernc.org/sqlite) or postgres (lib/pq)
driver and pings the database. SQLite connections are limited to one so
in-memory databases keep a single schema:

	conn, err := db.Open("sqlite", "quartier.db")

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - cohort: Ordinal, global id, name and weight (percent of households)
  - question_meta: Labels and emoji per question key
  - choice_meta: Labels, family and tags per question choice, in display order
  - respondent: Raw cohort value and answers as JSON
  - graph_node: Hierarchy nodes per graph, with parent names

# Loading

LoadDataset reads every table into a models.Dataset in a stable order
(cohorts by ordinal, choices by position, respondents by id).
LoadDatasetFile reads the same shape from a JSON file. Both validate the
result.

InsertDataset writes a dataset in one transaction; it is used to seed
databases and in tests.
*/
package db
