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

// NormalizeSpeakerName produces the deduplication key for a speaker
// name (spec §3, §8: "normalized_name ... equals lowercase(name).replace(' ','_')").
func NormalizeSpeakerName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// GetOrCreateSpeaker returns the existing Speaker matching name's
// normalized form, creating one (with party/title if supplied) if none
// exists. Concurrent callers racing on the same normalized name are
// resolved by the UNIQUE constraint's ON CONFLICT clause.
func (db *DB) GetOrCreateSpeaker(ctx context.Context, name, party, title string) (*models.Speaker, error) {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("get_or_create_speaker").Observe(time.Since(start).Seconds())
	}()

	normalized := NormalizeSpeakerName(name)
	if normalized == "" {
		return nil, fmt.Errorf("get or create speaker: empty name")
	}

	row := db.conn.QueryRowContext(ctx, `INSERT INTO speakers (name, normalized_name, party, title)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (normalized_name) DO UPDATE SET
			party = CASE WHEN EXCLUDED.party != '' THEN EXCLUDED.party ELSE speakers.party END,
			title = CASE WHEN EXCLUDED.title != '' THEN EXCLUDED.title ELSE speakers.title END,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, name, normalized_name, party, title, bio, total_segments, total_words, avg_sentiment, created_at, updated_at`,
		name, normalized, party, title)

	s := &models.Speaker{}
	if err := row.Scan(&s.ID, &s.Name, &s.NormalizedName, &s.Party, &s.Title, &s.Bio,
		&s.TotalSegments, &s.TotalWords, &s.AvgSentiment, &s.CreatedAt, &s.UpdatedAt); err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("get_or_create_speaker").Inc()
		return nil, fmt.Errorf("get or create speaker %q: %w", name, err)
	}
	return s, nil
}

// RecomputeSpeakerStats recalculates total_segments, total_words, and
// avg_sentiment for a single speaker from its current segment set.
// The Ingest Orchestrator does not call this; it runs
// RecomputeAllSpeakerStats once per job.
func (db *DB) RecomputeSpeakerStats(ctx context.Context, speakerID int64) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE speakers SET
		total_segments = COALESCE((SELECT COUNT(*) FROM transcript_segments WHERE speaker_id = ?), 0),
		total_words = COALESCE((SELECT SUM(word_count) FROM transcript_segments WHERE speaker_id = ?), 0),
		avg_sentiment = (SELECT AVG(sentiment_vader_score) FROM transcript_segments WHERE speaker_id = ? AND sentiment_vader_score IS NOT NULL),
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, speakerID, speakerID, speakerID, speakerID)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("recompute_speaker_stats").Inc()
		return fmt.Errorf("recompute speaker stats for %d: %w", speakerID, err)
	}
	return nil
}
