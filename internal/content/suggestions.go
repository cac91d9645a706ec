// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package content

import (
	"context"
	"fmt"

	"github.com/tomtom215/cartographus/internal/metrics"
)

// TopSpeakers returns the n speaker names with the most segments,
// descending, for the Sync Engine's suggestions seeding (spec §4.6
// "compute top-N by frequency for speakers").
func (db *DB) TopSpeakers(ctx context.Context, n int) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name FROM speakers
		ORDER BY total_segments DESC, name ASC LIMIT ?`, n)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("top_speakers").Inc()
		return nil, fmt.Errorf("top speakers: %w", err)
	}
	return scanStrings(rows)
}

// TopTopics returns the n topic names with the most segment edges,
// descending (spec §4.6 "... for topics").
func (db *DB) TopTopics(ctx context.Context, n int) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name FROM topics
		ORDER BY total_segments DESC, name ASC LIMIT ?`, n)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("top_topics").Inc()
		return nil, fmt.Errorf("top topics: %w", err)
	}
	return scanStrings(rows)
}

// RecentVideoTitles returns the n most recently-dated video titles (spec
// §4.6 "... and recent video titles").
func (db *DB) RecentVideoTitles(ctx context.Context, n int) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT title FROM videos
		WHERE title != '' ORDER BY date DESC NULLS LAST, id DESC LIMIT ?`, n)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("recent_video_titles").Inc()
		return nil, fmt.Errorf("recent video titles: %w", err)
	}
	return scanStrings(rows)
}

func scanStrings(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
	Close() error
}) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan string row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
