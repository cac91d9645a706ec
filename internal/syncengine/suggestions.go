// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package syncengine

import (
	"context"
	"fmt"

	"github.com/tomtom215/cartographus/internal/metrics"
)

// SuggestionDoc is one row of the suggestions index: a monotonically
// assigned termId and a kind discriminator (spec §4.6 "Suggestions
// seeding").
type SuggestionDoc struct {
	TermID int64  `json:"termId"`
	Kind   string `json:"kind"` // "speaker", "topic", "title"
	Text   string `json:"text"`
}

// defaultSuggestionsPerKind is the top-N computed per kind when the
// caller does not specify one.
const defaultSuggestionsPerKind = 50

// SeedSuggestions computes top-N by frequency for speakers, topics, and
// recent video titles and upserts them into the suggestions index (spec
// §4.6 "Suggestions seeding. On demand...").
func (e *Engine) SeedSuggestions(ctx context.Context, topN int) (int, error) {
	if topN <= 0 {
		topN = defaultSuggestionsPerKind
	}

	speakers, err := e.db.TopSpeakers(ctx, topN)
	if err != nil {
		return 0, fmt.Errorf("top speakers: %w", err)
	}
	topics, err := e.db.TopTopics(ctx, topN)
	if err != nil {
		return 0, fmt.Errorf("top topics: %w", err)
	}
	titles, err := e.db.RecentVideoTitles(ctx, topN)
	if err != nil {
		return 0, fmt.Errorf("recent video titles: %w", err)
	}

	var termID int64
	docs := make([]SuggestionDoc, 0, len(speakers)+len(topics)+len(titles))
	for _, s := range speakers {
		termID++
		docs = append(docs, SuggestionDoc{TermID: termID, Kind: "speaker", Text: s})
	}
	for _, t := range topics {
		termID++
		docs = append(docs, SuggestionDoc{TermID: termID, Kind: "topic", Text: t})
	}
	for _, title := range titles {
		termID++
		docs = append(docs, SuggestionDoc{TermID: termID, Kind: "title", Text: title})
	}

	if len(docs) == 0 {
		return 0, nil
	}

	task, err := e.engine.BulkUpsertDocuments(ctx, "suggestions", docs)
	if err != nil {
		metrics.SyncBatchesTotal.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("upsert suggestions: %w", err)
	}
	if task != nil {
		if _, err := e.engine.WaitForTask(ctx, task.UID, taskWaitTimeout); err != nil {
			return 0, fmt.Errorf("wait for suggestions upsert: %w", err)
		}
	}
	metrics.SyncBatchesTotal.WithLabelValues("success").Inc()
	return len(docs), nil
}
