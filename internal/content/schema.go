// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
schema.go - Content Store Schema Management

Tables:
  - videos: one row per ingested source file, keyed by filename
  - speakers: canonicalized persons, deduplicated by normalized_name
  - topics: classification labels, unique by name
  - transcript_segments: one row per atomic utterance
  - segment_topics: weighted edges between segments and topics

Sync watermarks are not a Content Store table: the Sync Engine (C6)
persists them as a small JSON file (internal/syncengine.WatermarkStore),
since that state is process-local recovery bookkeeping for the engine
client, not queryable content.

All columns are defined in the initial CREATE TABLE statement; there is
a single source of truth for the schema and no migration runner, matching
the pre-release schema strategy this store was grounded on.
*/
package content

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("exec %s: %w", query, err)
		}
	}
	for _, query := range indexCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("exec %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS videos_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS videos (
			id BIGINT PRIMARY KEY DEFAULT nextval('videos_id_seq'),
			filename TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			date TIMESTAMP,

			duration_seconds INTEGER,
			source TEXT,
			channel TEXT,
			description TEXT,
			url TEXT,

			format TEXT,
			candidate TEXT,
			place TEXT,
			record_type TEXT,

			dataset TEXT NOT NULL,
			source_type TEXT NOT NULL,

			video_thumbnail_url TEXT,
			video_url TEXT,
			vimeo_video_id TEXT,
			vimeo_embed_url TEXT,

			total_words INTEGER DEFAULT 0,
			total_characters INTEGER DEFAULT 0,
			total_segments INTEGER DEFAULT 0,

			video_file_path TEXT,
			video_file_size BIGINT,
			video_resolution TEXT,
			video_fps DOUBLE,
			video_bitrate BIGINT,
			transcoding_status TEXT NOT NULL DEFAULT 'pending',

			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE SEQUENCE IF NOT EXISTS speakers_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS speakers (
			id BIGINT PRIMARY KEY DEFAULT nextval('speakers_id_seq'),
			name TEXT NOT NULL,
			normalized_name TEXT NOT NULL UNIQUE,

			party TEXT,
			title TEXT,
			bio TEXT,

			total_segments INTEGER DEFAULT 0,
			total_words INTEGER DEFAULT 0,
			avg_sentiment DOUBLE,

			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE SEQUENCE IF NOT EXISTS topics_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS topics (
			id BIGINT PRIMARY KEY DEFAULT nextval('topics_id_seq'),
			name TEXT NOT NULL UNIQUE,

			code TEXT,
			category TEXT,
			description TEXT,

			total_segments INTEGER DEFAULT 0,
			avg_score DOUBLE,

			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE SEQUENCE IF NOT EXISTS transcript_segments_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS transcript_segments (
			id BIGINT PRIMARY KEY DEFAULT nextval('transcript_segments_id_seq'),
			segment_id TEXT NOT NULL UNIQUE,

			video_id BIGINT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
			speaker_id BIGINT REFERENCES speakers(id),

			speaker_name TEXT NOT NULL,
			speaker_party TEXT,
			segment_type TEXT NOT NULL DEFAULT 'spoken',

			transcript_text TEXT NOT NULL,
			video_seconds INTEGER,
			timestamp_start TEXT,
			timestamp_end TEXT,
			duration_seconds INTEGER,

			word_count INTEGER DEFAULT 0,
			char_count INTEGER DEFAULT 0,

			sentiment_loughran_score DOUBLE,
			sentiment_loughran_label TEXT,
			sentiment_harvard_score DOUBLE,
			sentiment_harvard_label TEXT,
			sentiment_vader_score DOUBLE,
			sentiment_vader_label TEXT,

			moderation_harassment DOUBLE,
			moderation_hate DOUBLE,
			moderation_self_harm DOUBLE,
			moderation_sexual DOUBLE,
			moderation_violence DOUBLE,
			moderation_overall_score DOUBLE,
			moderation_harassment_flag BOOLEAN DEFAULT false,
			moderation_hate_flag BOOLEAN DEFAULT false,
			moderation_violence_flag BOOLEAN DEFAULT false,
			moderation_sexual_flag BOOLEAN DEFAULT false,
			moderation_selfharm_flag BOOLEAN DEFAULT false,

			flesch_kincaid_grade DOUBLE,
			gunning_fog_index DOUBLE,
			coleman_liau_index DOUBLE,
			automated_readability_index DOUBLE,
			smog_index DOUBLE,
			flesch_reading_ease DOUBLE,

			stresslens_score DOUBLE,
			stresslens_rank INTEGER,

			embedding_generated_at TIMESTAMP,

			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE SEQUENCE IF NOT EXISTS segment_topics_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS segment_topics (
			id BIGINT PRIMARY KEY DEFAULT nextval('segment_topics_id_seq'),
			segment_id BIGINT NOT NULL REFERENCES transcript_segments(id) ON DELETE CASCADE,
			topic_id BIGINT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
			score DOUBLE NOT NULL,
			magnitude DOUBLE,
			confidence DOUBLE,
			UNIQUE(segment_id, topic_id)
		)`,
	}
}

func indexCreationQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_videos_dataset ON videos(dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_source_type ON videos(source_type)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_date ON videos(date)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_updated_at ON videos(updated_at)`,

		`CREATE INDEX IF NOT EXISTS idx_speakers_party ON speakers(party)`,

		`CREATE INDEX IF NOT EXISTS idx_topics_category ON topics(category)`,

		`CREATE INDEX IF NOT EXISTS idx_segments_video_id ON transcript_segments(video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_speaker_id ON transcript_segments(speaker_id)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_updated_at ON transcript_segments(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_stresslens_rank ON transcript_segments(stresslens_rank)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_moderation_flags ON transcript_segments(
			moderation_harassment_flag, moderation_hate_flag, moderation_violence_flag,
			moderation_sexual_flag, moderation_selfharm_flag
		)`,

		`CREATE INDEX IF NOT EXISTS idx_segment_topics_topic_id ON segment_topics(topic_id)`,
	}
}
