// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/quartier-diag/models"
)

var validate = validator.New()

// ValidateDataset checks the struct constraints of every table row.
func ValidateDataset(ds *models.Dataset) error {
	if err := validate.Struct(ds); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}
	return nil
}

// LoadDatasetFile reads a JSON dataset export.
func LoadDatasetFile(path string) (*models.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var ds models.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if err := ValidateDataset(&ds); err != nil {
		return nil, err
	}

	slog.Info("dataset loaded from file",
		"path", path,
		"size", humanize.Bytes(uint64(len(data))),
		"respondents", humanize.Comma(int64(len(ds.Respondents))),
		"cohorts", len(ds.Cohorts),
	)
	return &ds, nil
}

// LoadDataset reads every input table. Choices come back in canonical order.
func LoadDataset(ctx context.Context, db *sql.DB) (*models.Dataset, error) {
	var ds models.Dataset
	var err error

	if ds.Cohorts, err = loadCohorts(ctx, db); err != nil {
		return nil, err
	}
	if ds.Questions, err = loadQuestions(ctx, db); err != nil {
		return nil, err
	}
	if ds.Choices, err = loadChoices(ctx, db); err != nil {
		return nil, err
	}
	if ds.Respondents, err = loadRespondents(ctx, db); err != nil {
		return nil, err
	}
	if ds.GraphNodes, err = loadGraphNodes(ctx, db); err != nil {
		return nil, err
	}

	if err := ValidateDataset(&ds); err != nil {
		return nil, err
	}

	slog.Info("dataset loaded from database",
		"respondents", humanize.Comma(int64(len(ds.Respondents))),
		"cohorts", len(ds.Cohorts),
		"questions", len(ds.Questions),
		"graph_nodes", len(ds.GraphNodes),
	)
	return &ds, nil
}

func loadCohorts(ctx context.Context, db *sql.DB) ([]models.Cohort, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT ordinal, global_id, name, weight
		FROM cohort
		ORDER BY ordinal
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cohorts: %w", err)
	}
	defer rows.Close()

	var out []models.Cohort
	for rows.Next() {
		var c models.Cohort
		if err := rows.Scan(&c.Ordinal, &c.GlobalID, &c.Name, &c.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan cohort: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadQuestions(ctx context.Context, db *sql.DB) ([]models.QuestionMetadata, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT key, short_label, long_label, emoji
		FROM question_meta
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query question metadata: %w", err)
	}
	defer rows.Close()

	var out []models.QuestionMetadata
	for rows.Next() {
		var q models.QuestionMetadata
		if err := rows.Scan(&q.Key, &q.ShortLabel, &q.LongLabel, &q.Emoji); err != nil {
			return nil, fmt.Errorf("failed to scan question metadata: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func loadChoices(ctx context.Context, db *sql.DB) ([]models.ChoiceMetadata, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT question_key, key, label, long_label, emoji, family, tags
		FROM choice_meta
		ORDER BY question_key, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query choice metadata: %w", err)
	}
	defer rows.Close()

	var out []models.ChoiceMetadata
	for rows.Next() {
		var c models.ChoiceMetadata
		var tags string
		if err := rows.Scan(&c.QuestionKey, &c.Key, &c.Label, &c.LongLabel, &c.Emoji, &c.Family, &tags); err != nil {
			return nil, fmt.Errorf("failed to scan choice metadata: %w", err)
		}
		c.Tags = splitTags(tags)
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadRespondents(ctx context.Context, db *sql.DB) ([]models.RespondentAnswer, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, su, answers
		FROM respondent
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query respondents: %w", err)
	}
	defer rows.Close()

	var out []models.RespondentAnswer
	for rows.Next() {
		var r models.RespondentAnswer
		var su, answers string
		if err := rows.Scan(&r.ID, &su, &answers); err != nil {
			return nil, fmt.Errorf("failed to scan respondent: %w", err)
		}
		r.Cohort = models.FlexID(su)
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, fmt.Errorf("respondent %s: failed to parse answers: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func loadGraphNodes(ctx context.Context, db *sql.DB) ([]models.NodeMetadata, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT graph_key, id, name, emoji, parent_name, source
		FROM graph_node
		ORDER BY graph_key, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query graph nodes: %w", err)
	}
	defer rows.Close()

	var out []models.NodeMetadata
	for rows.Next() {
		var n models.NodeMetadata
		if err := rows.Scan(&n.GraphKey, &n.ID, &n.Name, &n.Emoji, &n.ParentName, &n.Source); err != nil {
			return nil, fmt.Errorf("failed to scan graph node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// InsertDataset writes a dataset in one transaction. Choice positions follow
// the order of ds.Choices within each question.
func InsertDataset(ctx context.Context, db *sql.DB, ds *models.Dataset) error {
	if err := ValidateDataset(ds); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range ds.Cohorts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cohort (ordinal, global_id, name, weight)
			VALUES ($1, $2, $3, $4)
		`, c.Ordinal, c.GlobalID, c.Name, c.Weight)
		if err != nil {
			return fmt.Errorf("failed to insert cohort %d: %w", c.Ordinal, err)
		}
	}

	for _, q := range ds.Questions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO question_meta (key, short_label, long_label, emoji)
			VALUES ($1, $2, $3, $4)
		`, q.Key, q.ShortLabel, q.LongLabel, q.Emoji)
		if err != nil {
			return fmt.Errorf("failed to insert question %s: %w", q.Key, err)
		}
	}

	positions := make(map[string]int)
	for _, c := range ds.Choices {
		pos := positions[c.QuestionKey]
		positions[c.QuestionKey] = pos + 1
		_, err := tx.ExecContext(ctx, `
			INSERT INTO choice_meta (question_key, key, position, label, long_label, emoji, family, tags)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, c.QuestionKey, c.Key, pos, c.Label, c.LongLabel, c.Emoji, c.Family, strings.Join(c.Tags, ","))
		if err != nil {
			return fmt.Errorf("failed to insert choice %s/%s: %w", c.QuestionKey, c.Key, err)
		}
	}

	for _, r := range ds.Respondents {
		answers, err := json.Marshal(r.Answers)
		if err != nil {
			return fmt.Errorf("respondent %s: failed to encode answers: %w", r.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO respondent (id, su, answers)
			VALUES ($1, $2, $3)
		`, r.ID, string(r.Cohort), string(answers))
		if err != nil {
			return fmt.Errorf("failed to insert respondent %s: %w", r.ID, err)
		}
	}

	for _, n := range ds.GraphNodes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO graph_node (graph_key, id, name, emoji, parent_name, source)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, n.GraphKey, n.ID, n.Name, n.Emoji, n.ParentName, n.Source)
		if err != nil {
			return fmt.Errorf("failed to insert graph node %s/%s: %w", n.GraphKey, n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}

	slog.Info("dataset stored",
		"respondents", humanize.Comma(int64(len(ds.Respondents))),
		"choices", len(ds.Choices),
	)
	return nil
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
