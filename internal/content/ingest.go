// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package content

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/models"
)

// SpeakerCache and TopicCache let a caller (the Ingest Orchestrator)
// reuse already-resolved rows across many files in the same job.
// SpeakerCache is keyed by normalized speaker name; TopicCache is keyed
// by the topic name as parsed.
type SpeakerCache map[string]*models.Speaker
type TopicCache map[string]*models.Topic

// IngestResult summarizes one file's transactional write.
type IngestResult struct {
	Video          *models.Video
	SegmentsWritten int
}

// IngestVideo upserts one video and transactionally replaces its
// segment set, resolving each segment's speaker and topic through the
// supplied per-job caches (spec §4.4 step (c)). Either the whole file
// commits or none of it does.
func (db *DB) IngestVideo(
	ctx context.Context,
	meta *models.VideoMetadata,
	parsed []models.ParsedSegment,
	speakers SpeakerCache,
	topics TopicCache,
) (*IngestResult, error) {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("ingest_video").Observe(time.Since(start).Seconds())
	}()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	video := &models.Video{
		Filename:          meta.Filename,
		Title:             meta.Title,
		Date:              meta.Date,
		DurationSeconds:   meta.DurationSeconds,
		Source:            meta.Source,
		Channel:           meta.Channel,
		Description:       meta.Description,
		URL:               meta.URL,
		Format:            meta.Format,
		Candidate:         meta.Candidate,
		Place:             meta.Place,
		RecordType:        meta.RecordType,
		Dataset:           meta.Dataset,
		SourceType:        meta.SourceType,
		VideoThumbnailURL: meta.VideoThumbnailURL,
		VideoURL:          meta.VideoURL,
		VimeoVideoID:      meta.VimeoVideoID,
		VimeoEmbedURL:     meta.VimeoEmbedURL,
	}
	if err := upsertVideoTx(ctx, tx, video); err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("ingest_video").Inc()
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcript_segments WHERE video_id = ?`, video.ID); err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("ingest_video").Inc()
		return nil, fmt.Errorf("clear segments for video %d: %w", video.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSegmentQuery)
	if err != nil {
		return nil, fmt.Errorf("prepare segment insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, p := range parsed {
		seg := buildSegment(video.ID, p)

		if p.SpeakerName != "" {
			sp, err := resolveSpeakerCached(ctx, tx, speakers, p.SpeakerName, p.SpeakerParty)
			if err != nil {
				metrics.ContentStoreErrorsTotal.WithLabelValues("ingest_video").Inc()
				return nil, err
			}
			seg.SpeakerID = &sp.ID
		}

		seg.ApplyModerationFlags()
		if err := execSegmentInsert(ctx, stmt, seg); err != nil {
			metrics.ContentStoreErrorsTotal.WithLabelValues("ingest_video").Inc()
			return nil, fmt.Errorf("insert segment %s: %w", seg.SegmentID, err)
		}
		written++

		if p.PrimaryTopic != "" {
			topic, err := resolveTopicCached(ctx, tx, topics, p.PrimaryTopic)
			if err != nil {
				metrics.ContentStoreErrorsTotal.WithLabelValues("ingest_video").Inc()
				return nil, err
			}
			segID, err := lookupSegmentRowID(ctx, tx, seg.SegmentID)
			if err != nil {
				return nil, err
			}
			if err := linkSegmentTopicTx(ctx, tx, segID, topic.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := updateVideoTotalsTx(ctx, tx, video.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ingest tx: %w", err)
	}
	return &IngestResult{Video: video, SegmentsWritten: written}, nil
}

func buildSegment(videoID int64, p models.ParsedSegment) *models.TranscriptSegment {
	return &models.TranscriptSegment{
		SegmentID:       p.SegmentID,
		VideoID:         videoID,
		SpeakerName:     p.SpeakerName,
		SpeakerParty:    p.SpeakerParty,
		SegmentType:     p.SegmentType,
		TranscriptText:  p.TranscriptText,
		VideoSeconds:    p.VideoSeconds,
		TimestampStart:  p.TimestampStart,
		TimestampEnd:    p.TimestampEnd,
		DurationSeconds: p.DurationSeconds,
		WordCount:       p.WordCount,
		CharCount:       p.CharCount,

		SentimentLoughranScore: p.SentimentLoughranScore,
		SentimentLoughranLabel: p.SentimentLoughranLabel,
		SentimentHarvardScore:  p.SentimentHarvardScore,
		SentimentHarvardLabel:  p.SentimentHarvardLabel,
		SentimentVaderScore:    p.SentimentVaderScore,
		SentimentVaderLabel:    p.SentimentVaderLabel,

		Moderation:  p.Moderation,
		Readability: p.Readability,

		StresslensScore: p.StresslensScore,
		StresslensRank:  p.StresslensRank,
	}
}

func upsertVideoTx(ctx context.Context, tx *sql.Tx, v *models.Video) error {
	query := `INSERT INTO videos (
		filename, title, date, duration_seconds, source, channel, description, url,
		format, candidate, place, record_type, dataset, source_type,
		video_thumbnail_url, video_url, vimeo_video_id, vimeo_embed_url, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (filename) DO UPDATE SET
		title = EXCLUDED.title, date = EXCLUDED.date, duration_seconds = EXCLUDED.duration_seconds,
		source = EXCLUDED.source, channel = EXCLUDED.channel, description = EXCLUDED.description, url = EXCLUDED.url,
		format = EXCLUDED.format, candidate = EXCLUDED.candidate, place = EXCLUDED.place, record_type = EXCLUDED.record_type,
		dataset = EXCLUDED.dataset, source_type = EXCLUDED.source_type,
		video_thumbnail_url = EXCLUDED.video_thumbnail_url, video_url = EXCLUDED.video_url,
		vimeo_video_id = EXCLUDED.vimeo_video_id, vimeo_embed_url = EXCLUDED.vimeo_embed_url,
		updated_at = CURRENT_TIMESTAMP
	RETURNING id, created_at, updated_at`

	row := tx.QueryRowContext(ctx, query,
		v.Filename, v.Title, v.Date, v.DurationSeconds, v.Source, v.Channel, v.Description, v.URL,
		v.Format, v.Candidate, v.Place, v.RecordType, string(v.Dataset), string(v.SourceType),
		v.VideoThumbnailURL, v.VideoURL, v.VimeoVideoID, v.VimeoEmbedURL,
	)
	if err := row.Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return fmt.Errorf("upsert video %s: %w", v.Filename, err)
	}
	return nil
}

func updateVideoTotalsTx(ctx context.Context, tx *sql.Tx, videoID int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE videos SET
		total_words = COALESCE((SELECT SUM(word_count) FROM transcript_segments WHERE video_id = ?), 0),
		total_characters = COALESCE((SELECT SUM(char_count) FROM transcript_segments WHERE video_id = ?), 0),
		total_segments = COALESCE((SELECT COUNT(*) FROM transcript_segments WHERE video_id = ?), 0),
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, videoID, videoID, videoID, videoID)
	if err != nil {
		return fmt.Errorf("update video totals for %d: %w", videoID, err)
	}
	return nil
}

func lookupSegmentRowID(ctx context.Context, tx *sql.Tx, segmentID string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM transcript_segments WHERE segment_id = ?`, segmentID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("look up segment row for %s: %w", segmentID, err)
	}
	return id, nil
}

func linkSegmentTopicTx(ctx context.Context, tx *sql.Tx, segmentRowID, topicID int64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO segment_topics (segment_id, topic_id, score)
		VALUES (?, ?, 1.0)
		ON CONFLICT (segment_id, topic_id) DO UPDATE SET score = EXCLUDED.score`,
		segmentRowID, topicID)
	if err != nil {
		return fmt.Errorf("link segment %d to topic %d: %w", segmentRowID, topicID, err)
	}
	return nil
}

// resolveSpeakerCached returns the cached Speaker for name if the job
// has already resolved it; otherwise it resolves (creating if needed)
// within tx, retrying via savepoint on a unique-key collision from a
// concurrent job (spec §4.4: "on a unique-key collision ... roll back
// to savepoint and re-read the existing row").
func resolveSpeakerCached(ctx context.Context, tx *sql.Tx, cache SpeakerCache, name, party string) (*models.Speaker, error) {
	normalized := NormalizeSpeakerName(name)
	if cache != nil {
		if s, ok := cache[normalized]; ok {
			return s, nil
		}
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT speaker_create"); err != nil {
		return nil, fmt.Errorf("savepoint before speaker create: %w", err)
	}

	row := tx.QueryRowContext(ctx, `INSERT INTO speakers (name, normalized_name, party)
		VALUES (?, ?, ?)
		ON CONFLICT (normalized_name) DO UPDATE SET
			party = CASE WHEN EXCLUDED.party != '' THEN EXCLUDED.party ELSE speakers.party END,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, name, normalized_name, party, title, bio, total_segments, total_words, avg_sentiment, created_at, updated_at`,
		name, normalized, party)

	s := &models.Speaker{}
	scanErr := row.Scan(&s.ID, &s.Name, &s.NormalizedName, &s.Party, &s.Title, &s.Bio,
		&s.TotalSegments, &s.TotalWords, &s.AvgSentiment, &s.CreatedAt, &s.UpdatedAt)
	if scanErr != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT speaker_create"); rbErr != nil {
			return nil, fmt.Errorf("rollback savepoint after speaker insert failure: %w (original: %v)", rbErr, scanErr)
		}
		row2 := tx.QueryRowContext(ctx, `SELECT id, name, normalized_name, party, title, bio, total_segments, total_words, avg_sentiment, created_at, updated_at
			FROM speakers WHERE normalized_name = ?`, normalized)
		if err := row2.Scan(&s.ID, &s.Name, &s.NormalizedName, &s.Party, &s.Title, &s.Bio,
			&s.TotalSegments, &s.TotalWords, &s.AvgSentiment, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("resolve speaker %q after collision: %w", name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT speaker_create"); err != nil {
		return nil, fmt.Errorf("release savepoint after speaker create: %w", err)
	}

	if cache != nil {
		cache[normalized] = s
	}
	return s, nil
}

// resolveTopicCached mirrors resolveSpeakerCached for topics.
func resolveTopicCached(ctx context.Context, tx *sql.Tx, cache TopicCache, name string) (*models.Topic, error) {
	if cache != nil {
		if t, ok := cache[name]; ok {
			return t, nil
		}
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT topic_create"); err != nil {
		return nil, fmt.Errorf("savepoint before topic create: %w", err)
	}

	category := ClassifyTopicCategory(name)
	row := tx.QueryRowContext(ctx, `INSERT INTO topics (name, category)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
		RETURNING id, name, code, category, description, total_segments, avg_score, created_at, updated_at`,
		name, category)

	t := &models.Topic{}
	scanErr := row.Scan(&t.ID, &t.Name, &t.Code, &t.Category, &t.Description,
		&t.TotalSegments, &t.AvgScore, &t.CreatedAt, &t.UpdatedAt)
	if scanErr != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT topic_create"); rbErr != nil {
			return nil, fmt.Errorf("rollback savepoint after topic insert failure: %w (original: %v)", rbErr, scanErr)
		}
		row2 := tx.QueryRowContext(ctx, `SELECT id, name, code, category, description, total_segments, avg_score, created_at, updated_at
			FROM topics WHERE name = ?`, name)
		if err := row2.Scan(&t.ID, &t.Name, &t.Code, &t.Category, &t.Description,
			&t.TotalSegments, &t.AvgScore, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("resolve topic %q after collision: %w", name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT topic_create"); err != nil {
		return nil, fmt.Errorf("release savepoint after topic create: %w", err)
	}

	if cache != nil {
		cache[name] = t
	}
	return t, nil
}
