// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"strings"

	"github.com/danielhkuo/quartier-diag/models"
)

// MetadataIndex joins the question and choice tables on the question key.
// Lookups never fail: unknown keys resolve to labels built from the raw key.
type MetadataIndex struct {
	questions map[string]models.QuestionMetadata
	choices   map[string][]models.ChoiceMetadata
}

func NewMetadataIndex(questions []models.QuestionMetadata, choices []models.ChoiceMetadata) *MetadataIndex {
	idx := &MetadataIndex{
		questions: make(map[string]models.QuestionMetadata, len(questions)),
		choices:   make(map[string][]models.ChoiceMetadata),
	}

	// First row wins for duplicate question keys
	for _, q := range questions {
		key := strings.TrimSpace(q.Key)
		if key == "" {
			continue
		}
		if _, ok := idx.questions[key]; !ok {
			q.Key = key
			idx.questions[key] = q
		}
	}

	seen := make(map[string]bool)
	for _, c := range choices {
		qk := strings.TrimSpace(c.QuestionKey)
		ck := strings.TrimSpace(c.Key)
		if qk == "" || ck == "" || seen[qk+"\x00"+ck] {
			continue
		}
		seen[qk+"\x00"+ck] = true
		c.QuestionKey, c.Key = qk, ck
		idx.choices[qk] = append(idx.choices[qk], c)
	}

	return idx
}

// ChoicesFor returns the choices of a question in table order.
// The returned slice is a copy.
func (m *MetadataIndex) ChoicesFor(questionKey string) []models.ChoiceMetadata {
	src := m.choices[questionKey]
	out := make([]models.ChoiceMetadata, len(src))
	copy(out, src)
	return out
}

// Choice looks up a single choice.
func (m *MetadataIndex) Choice(questionKey, choiceKey string) (models.ChoiceMetadata, bool) {
	for _, c := range m.choices[questionKey] {
		if c.Key == choiceKey {
			return c, true
		}
	}
	return models.ChoiceMetadata{}, false
}

// Question returns the question metadata with both labels filled in.
// ShortLabel falls back to LongLabel then to the raw key; LongLabel falls
// back to ShortLabel then to the raw key.
func (m *MetadataIndex) Question(questionKey string) models.QuestionMetadata {
	q, ok := m.questions[questionKey]
	if !ok {
		q = models.QuestionMetadata{Key: questionKey}
	}
	short := firstNonEmpty(q.ShortLabel, q.LongLabel, questionKey)
	long := firstNonEmpty(q.LongLabel, q.ShortLabel, questionKey)
	q.ShortLabel, q.LongLabel = short, long
	return q
}

// ChoiceLabel resolves a choice label: label, long label, then raw key.
func (m *MetadataIndex) ChoiceLabel(questionKey, choiceKey string) string {
	c, ok := m.Choice(questionKey, choiceKey)
	if !ok {
		return choiceKey
	}
	return firstNonEmpty(c.Label, c.LongLabel, choiceKey)
}

// HasQuestion reports whether any metadata exists for the key.
func (m *MetadataIndex) HasQuestion(questionKey string) bool {
	_, ok := m.questions[questionKey]
	return ok || len(m.choices[questionKey]) > 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
