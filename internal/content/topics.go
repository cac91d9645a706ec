// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/models"
)

// topicCategories assigns a coarse category to a topic name on first
// creation (spec §4.1: "Category is assigned from a rule table"). This
// mirrors the fixed place/format derivation tables the HTML parser uses
// for filenames, applied here to topic labels instead.
var topicCategories = map[string]string{
	"economy":       "domestic",
	"immigration":   "domestic",
	"healthcare":    "domestic",
	"education":     "domestic",
	"environment":   "domestic",
	"foreign policy": "international",
	"defense":        "international",
	"trade":          "international",
	"election":      "politics",
	"campaign":      "politics",
}

// ClassifyTopicCategory returns the category for a topic name, falling
// back to "general" when no rule matches.
func ClassifyTopicCategory(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if cat, ok := topicCategories[key]; ok {
		return cat
	}
	return "general"
}

// GetOrCreateTopic returns the existing Topic named name, creating one
// (with a category from ClassifyTopicCategory) if none exists.
func (db *DB) GetOrCreateTopic(ctx context.Context, name, code string) (*models.Topic, error) {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("get_or_create_topic").Observe(time.Since(start).Seconds())
	}()

	category := ClassifyTopicCategory(name)

	row := db.conn.QueryRowContext(ctx, `INSERT INTO topics (name, code, category)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			code = CASE WHEN EXCLUDED.code != '' THEN EXCLUDED.code ELSE topics.code END,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, name, code, category, description, total_segments, avg_score, created_at, updated_at`,
		name, code, category)

	t := &models.Topic{}
	if err := row.Scan(&t.ID, &t.Name, &t.Code, &t.Category, &t.Description,
		&t.TotalSegments, &t.AvgScore, &t.CreatedAt, &t.UpdatedAt); err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("get_or_create_topic").Inc()
		return nil, fmt.Errorf("get or create topic %q: %w", name, err)
	}
	return t, nil
}

// LinkSegmentTopic records a weighted edge between a segment and a
// topic, replacing any prior score for the same pair.
func (db *DB) LinkSegmentTopic(ctx context.Context, st *models.SegmentTopic) error {
	_, err := db.conn.ExecContext(ctx, `INSERT INTO segment_topics (segment_id, topic_id, score, magnitude, confidence)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (segment_id, topic_id) DO UPDATE SET
			score = EXCLUDED.score, magnitude = EXCLUDED.magnitude, confidence = EXCLUDED.confidence`,
		st.SegmentID, st.TopicID, st.Score, st.Magnitude, st.Confidence)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("link_segment_topic").Inc()
		return fmt.Errorf("link segment %d to topic %d: %w", st.SegmentID, st.TopicID, err)
	}
	return nil
}

// RecomputeTopicStats recalculates total_segments and avg_score for a
// single topic from its current segment_topics edges.
func (db *DB) RecomputeTopicStats(ctx context.Context, topicID int64) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE topics SET
		total_segments = COALESCE((SELECT COUNT(*) FROM segment_topics WHERE topic_id = ?), 0),
		avg_score = (SELECT AVG(score) FROM segment_topics WHERE topic_id = ?),
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, topicID, topicID, topicID)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("recompute_topic_stats").Inc()
		return fmt.Errorf("recompute topic stats for %d: %w", topicID, err)
	}
	return nil
}
