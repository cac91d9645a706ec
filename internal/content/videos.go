// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/models"
)

// ErrVideoNotFound is returned by lookups that find no matching row.
var ErrVideoNotFound = errors.New("content: video not found")

// UpsertVideo inserts a Video or, if its filename already exists, updates
// it in place (spec §4.1: "a Video is created on first successful parse
// and updated only on explicit reimport"). The returned Video has its ID
// and timestamps populated.
func (db *DB) UpsertVideo(ctx context.Context, v *models.Video) (*models.Video, error) {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("upsert_video").Observe(time.Since(start).Seconds())
	}()

	query := `INSERT INTO videos (
		filename, title, date, duration_seconds, source, channel, description, url,
		format, candidate, place, record_type, dataset, source_type,
		video_thumbnail_url, video_url, vimeo_video_id, vimeo_embed_url, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (filename) DO UPDATE SET
		title = EXCLUDED.title,
		date = EXCLUDED.date,
		duration_seconds = EXCLUDED.duration_seconds,
		source = EXCLUDED.source,
		channel = EXCLUDED.channel,
		description = EXCLUDED.description,
		url = EXCLUDED.url,
		format = EXCLUDED.format,
		candidate = EXCLUDED.candidate,
		place = EXCLUDED.place,
		record_type = EXCLUDED.record_type,
		dataset = EXCLUDED.dataset,
		source_type = EXCLUDED.source_type,
		video_thumbnail_url = EXCLUDED.video_thumbnail_url,
		video_url = EXCLUDED.video_url,
		vimeo_video_id = EXCLUDED.vimeo_video_id,
		vimeo_embed_url = EXCLUDED.vimeo_embed_url,
		updated_at = CURRENT_TIMESTAMP
	RETURNING id, created_at, updated_at`

	row := db.conn.QueryRowContext(ctx, query,
		v.Filename, v.Title, v.Date, v.DurationSeconds, v.Source, v.Channel, v.Description, v.URL,
		v.Format, v.Candidate, v.Place, v.RecordType, string(v.Dataset), string(v.SourceType),
		v.VideoThumbnailURL, v.VideoURL, v.VimeoVideoID, v.VimeoEmbedURL,
	)
	if err := row.Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("upsert_video").Inc()
		return nil, fmt.Errorf("upsert video %s: %w", v.Filename, err)
	}
	return v, nil
}

// GetVideoByFilename returns the Video with the given filename, or
// ErrVideoNotFound.
func (db *DB) GetVideoByFilename(ctx context.Context, filename string) (*models.Video, error) {
	return db.scanVideoRow(ctx, "WHERE filename = ?", filename)
}

// GetVideoByID returns the Video with the given ID, or ErrVideoNotFound.
func (db *DB) GetVideoByID(ctx context.Context, id int64) (*models.Video, error) {
	return db.scanVideoRow(ctx, "WHERE id = ?", id)
}

func (db *DB) scanVideoRow(ctx context.Context, where string, arg interface{}) (*models.Video, error) {
	query := `SELECT id, filename, title, date, duration_seconds, source, channel, description, url,
		format, candidate, place, record_type, dataset, source_type,
		video_thumbnail_url, video_url, vimeo_video_id, vimeo_embed_url,
		total_words, total_characters, total_segments,
		video_file_path, video_file_size, video_resolution, video_fps, video_bitrate, transcoding_status,
		created_at, updated_at
	FROM videos ` + where

	row := db.conn.QueryRowContext(ctx, query, arg)
	v := &models.Video{}
	var dataset, sourceType, transcodingStatus string
	err := row.Scan(
		&v.ID, &v.Filename, &v.Title, &v.Date, &v.DurationSeconds, &v.Source, &v.Channel, &v.Description, &v.URL,
		&v.Format, &v.Candidate, &v.Place, &v.RecordType, &dataset, &sourceType,
		&v.VideoThumbnailURL, &v.VideoURL, &v.VimeoVideoID, &v.VimeoEmbedURL,
		&v.TotalWords, &v.TotalCharacters, &v.TotalSegments,
		&v.VideoFilePath, &v.VideoFileSize, &v.VideoResolution, &v.VideoFPS, &v.VideoBitrate, &transcodingStatus,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("get_video").Inc()
		return nil, fmt.Errorf("get video: %w", err)
	}
	v.Dataset = models.Dataset(dataset)
	v.SourceType = models.SourceType(sourceType)
	v.TranscodingStatus = models.TranscodingStatus(transcodingStatus)
	return v, nil
}

// UpdateVideoTotals recomputes a video's word/char/segment counters from
// its current segment set. Called after ReplaceSegments.
func (db *DB) UpdateVideoTotals(ctx context.Context, videoID int64) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE videos SET
		total_words = COALESCE((SELECT SUM(word_count) FROM transcript_segments WHERE video_id = ?), 0),
		total_characters = COALESCE((SELECT SUM(char_count) FROM transcript_segments WHERE video_id = ?), 0),
		total_segments = COALESCE((SELECT COUNT(*) FROM transcript_segments WHERE video_id = ?), 0),
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, videoID, videoID, videoID, videoID)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("update_video_totals").Inc()
		return fmt.Errorf("update video totals for %d: %w", videoID, err)
	}
	return nil
}

// DeleteVideo removes a Video and, via ON DELETE CASCADE, its segments
// and segment/topic edges (spec §4.1 "delete_video").
func (db *DB) DeleteVideo(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("delete_video").Inc()
		return fmt.Errorf("delete video %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// DeleteDataset removes every Video belonging to dataset, optionally
// restricted to one source_type (spec §4.1 "delete_dataset(tag,
// source_type?)"), via cascade to segments and segment-topics.
func (db *DB) DeleteDataset(ctx context.Context, dataset models.Dataset, sourceType models.SourceType) (int64, error) {
	query := `DELETE FROM videos WHERE dataset = ?`
	args := []interface{}{string(dataset)}
	if sourceType != "" {
		query += ` AND source_type = ?`
		args = append(args, string(sourceType))
	}
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("delete_dataset").Inc()
		return 0, fmt.Errorf("delete dataset %s: %w", dataset, err)
	}
	return res.RowsAffected()
}

// FetchSegmentsSince returns up to limit segments updated strictly after
// watermark, ordered by updated_at then id, starting at offset rows into
// that ordering (spec §4.1 "fetch_segments_since(watermark, batch_size,
// offset)"). This is the Sync Engine's (C6) incremental read path: since
// upserting a segment into the search engine does not change its
// updated_at, the caller must page through a single watermark window
// with offset rather than re-deriving the cursor from the rows
// themselves.
func (db *DB) FetchSegmentsSince(ctx context.Context, watermark time.Time, limit, offset int) ([]*models.TranscriptSegment, error) {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("fetch_segments_since").Observe(time.Since(start).Seconds())
	}()

	rows, err := db.conn.QueryContext(ctx, `SELECT
		id, segment_id, video_id, speaker_id, speaker_name, speaker_party, segment_type,
		transcript_text, video_seconds, timestamp_start, timestamp_end, duration_seconds,
		word_count, char_count,
		sentiment_loughran_score, sentiment_loughran_label,
		sentiment_harvard_score, sentiment_harvard_label,
		sentiment_vader_score, sentiment_vader_label,
		moderation_harassment, moderation_hate, moderation_self_harm, moderation_sexual, moderation_violence,
		moderation_overall_score,
		moderation_harassment_flag, moderation_hate_flag, moderation_violence_flag,
		moderation_sexual_flag, moderation_selfharm_flag,
		flesch_kincaid_grade, gunning_fog_index, coleman_liau_index,
		automated_readability_index, smog_index, flesch_reading_ease,
		stresslens_score, stresslens_rank,
		created_at, updated_at
	FROM transcript_segments
	WHERE updated_at > ?
	ORDER BY updated_at, id
	LIMIT ? OFFSET ?`, watermark, limit, offset)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("fetch_segments_since").Inc()
		return nil, fmt.Errorf("fetch segments since %s: %w", watermark, err)
	}
	defer rows.Close()

	var out []*models.TranscriptSegment
	for rows.Next() {
		s := &models.TranscriptSegment{}
		var segmentType string
		if err := rows.Scan(
			&s.ID, &s.SegmentID, &s.VideoID, &s.SpeakerID, &s.SpeakerName, &s.SpeakerParty, &segmentType,
			&s.TranscriptText, &s.VideoSeconds, &s.TimestampStart, &s.TimestampEnd, &s.DurationSeconds,
			&s.WordCount, &s.CharCount,
			&s.SentimentLoughranScore, &s.SentimentLoughranLabel,
			&s.SentimentHarvardScore, &s.SentimentHarvardLabel,
			&s.SentimentVaderScore, &s.SentimentVaderLabel,
			&s.Harassment, &s.Hate, &s.SelfHarm, &s.Sexual, &s.Violence,
			&s.OverallScore,
			&s.HarassmentFlag, &s.HateFlag, &s.ViolenceFlag, &s.SexualFlag, &s.SelfHarmFlag,
			&s.FleschKincaidGrade, &s.GunningFogIndex, &s.ColemanLiauIndex,
			&s.AutomatedReadabilityIndex, &s.SMOGIndex, &s.FleschReadingEase,
			&s.StresslensScore, &s.StresslensRank,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		s.SegmentType = models.SegmentType(segmentType)
		out = append(out, s)
	}
	return out, rows.Err()
}
