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

// ReplaceSegments atomically replaces every segment belonging to videoID
// with segs, inside a single transaction (spec Open Question (c)), so a
// force-reimport never leaves partial old and new segment sets mixed.
// Either every segment is written or none are.
func (db *DB) ReplaceSegments(ctx context.Context, videoID int64, segs []*models.TranscriptSegment) error {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("replace_segments").Observe(time.Since(start).Seconds())
	}()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace_segments tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcript_segments WHERE video_id = ?`, videoID); err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("replace_segments").Inc()
		return fmt.Errorf("clear segments for video %d: %w", videoID, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSegmentQuery)
	if err != nil {
		return fmt.Errorf("prepare segment insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range segs {
		s.VideoID = videoID
		s.ApplyModerationFlags()
		if err := execSegmentInsert(ctx, stmt, s); err != nil {
			metrics.ContentStoreErrorsTotal.WithLabelValues("replace_segments").Inc()
			return fmt.Errorf("insert segment %s: %w", s.SegmentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace_segments tx: %w", err)
	}
	return nil
}

const insertSegmentQuery = `INSERT INTO transcript_segments (
	segment_id, video_id, speaker_id, speaker_name, speaker_party, segment_type,
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
	stresslens_score, stresslens_rank, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (segment_id) DO UPDATE SET
	video_id = EXCLUDED.video_id, speaker_id = EXCLUDED.speaker_id,
	speaker_name = EXCLUDED.speaker_name, speaker_party = EXCLUDED.speaker_party, segment_type = EXCLUDED.segment_type,
	transcript_text = EXCLUDED.transcript_text, video_seconds = EXCLUDED.video_seconds,
	timestamp_start = EXCLUDED.timestamp_start, timestamp_end = EXCLUDED.timestamp_end, duration_seconds = EXCLUDED.duration_seconds,
	word_count = EXCLUDED.word_count, char_count = EXCLUDED.char_count,
	sentiment_loughran_score = EXCLUDED.sentiment_loughran_score, sentiment_loughran_label = EXCLUDED.sentiment_loughran_label,
	sentiment_harvard_score = EXCLUDED.sentiment_harvard_score, sentiment_harvard_label = EXCLUDED.sentiment_harvard_label,
	sentiment_vader_score = EXCLUDED.sentiment_vader_score, sentiment_vader_label = EXCLUDED.sentiment_vader_label,
	moderation_harassment = EXCLUDED.moderation_harassment, moderation_hate = EXCLUDED.moderation_hate,
	moderation_self_harm = EXCLUDED.moderation_self_harm, moderation_sexual = EXCLUDED.moderation_sexual,
	moderation_violence = EXCLUDED.moderation_violence, moderation_overall_score = EXCLUDED.moderation_overall_score,
	moderation_harassment_flag = EXCLUDED.moderation_harassment_flag, moderation_hate_flag = EXCLUDED.moderation_hate_flag,
	moderation_violence_flag = EXCLUDED.moderation_violence_flag, moderation_sexual_flag = EXCLUDED.moderation_sexual_flag,
	moderation_selfharm_flag = EXCLUDED.moderation_selfharm_flag,
	flesch_kincaid_grade = EXCLUDED.flesch_kincaid_grade, gunning_fog_index = EXCLUDED.gunning_fog_index,
	coleman_liau_index = EXCLUDED.coleman_liau_index, automated_readability_index = EXCLUDED.automated_readability_index,
	smog_index = EXCLUDED.smog_index, flesch_reading_ease = EXCLUDED.flesch_reading_ease,
	stresslens_score = EXCLUDED.stresslens_score, stresslens_rank = EXCLUDED.stresslens_rank,
	updated_at = CURRENT_TIMESTAMP`

func execSegmentInsert(ctx context.Context, stmt *sql.Stmt, s *models.TranscriptSegment) error {
	_, err := stmt.ExecContext(ctx,
		s.SegmentID, s.VideoID, s.SpeakerID, s.SpeakerName, s.SpeakerParty, string(s.SegmentType),
		s.TranscriptText, s.VideoSeconds, s.TimestampStart, s.TimestampEnd, s.DurationSeconds,
		s.WordCount, s.CharCount,
		s.SentimentLoughranScore, s.SentimentLoughranLabel,
		s.SentimentHarvardScore, s.SentimentHarvardLabel,
		s.SentimentVaderScore, s.SentimentVaderLabel,
		s.Harassment, s.Hate, s.SelfHarm, s.Sexual, s.Violence,
		s.OverallScore,
		s.HarassmentFlag, s.HateFlag, s.ViolenceFlag, s.SexualFlag, s.SelfHarmFlag,
		s.FleschKincaidGrade, s.GunningFogIndex, s.ColemanLiauIndex,
		s.AutomatedReadabilityIndex, s.SMOGIndex, s.FleschReadingEase,
		s.StresslensScore, s.StresslensRank,
	)
	return err
}

// segmentColumnsSQL is the column list shared by every query that scans
// a full transcript_segments row, qualified with the "ts" alias so it
// composes into a joined query (spec §4.7 SQL fallback path).
const segmentColumnsSQL = `ts.id, ts.segment_id, ts.video_id, ts.speaker_id, ts.speaker_name, ts.speaker_party, ts.segment_type,
	ts.transcript_text, ts.video_seconds, ts.timestamp_start, ts.timestamp_end, ts.duration_seconds,
	ts.word_count, ts.char_count,
	ts.sentiment_loughran_score, ts.sentiment_loughran_label,
	ts.sentiment_harvard_score, ts.sentiment_harvard_label,
	ts.sentiment_vader_score, ts.sentiment_vader_label,
	ts.moderation_harassment, ts.moderation_hate, ts.moderation_self_harm, ts.moderation_sexual, ts.moderation_violence,
	ts.moderation_overall_score,
	ts.moderation_harassment_flag, ts.moderation_hate_flag, ts.moderation_violence_flag,
	ts.moderation_sexual_flag, ts.moderation_selfharm_flag,
	ts.flesch_kincaid_grade, ts.gunning_fog_index, ts.coleman_liau_index,
	ts.automated_readability_index, ts.smog_index, ts.flesch_reading_ease,
	ts.stresslens_score, ts.stresslens_rank,
	ts.created_at, ts.updated_at`

// scanSegmentColumns scans one row shaped like segmentColumnsSQL.
func scanSegmentColumns(rows *sql.Rows) (*models.TranscriptSegment, error) {
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
	return s, nil
}

// ErrSegmentNotFound is returned when a segment_id lookup finds no row.
var ErrSegmentNotFound = fmt.Errorf("content: segment not found")

// GetSegmentByID returns a single segment by its external segment_id.
func (db *DB) GetSegmentByID(ctx context.Context, segmentID string) (*models.TranscriptSegment, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT
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
	FROM transcript_segments WHERE segment_id = ?`, segmentID)

	s := &models.TranscriptSegment{}
	var segmentType string
	err := row.Scan(
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
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSegmentNotFound
	}
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("get_segment_by_id").Inc()
		return nil, fmt.Errorf("get segment %s: %w", segmentID, err)
	}
	s.SegmentType = models.SegmentType(segmentType)
	return s, nil
}
