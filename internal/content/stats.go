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

// RecomputeAllSpeakerStats recomputes total_segments, total_words, and
// avg_sentiment for every speaker in one statement (spec §4.1
// "recompute_speaker_stats()"). The Ingest Orchestrator calls this once
// per job, not per file (spec §4.4 "Post-ingest").
func (db *DB) RecomputeAllSpeakerStats(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("recompute_all_speaker_stats").Observe(time.Since(start).Seconds())
	}()

	_, err := db.conn.ExecContext(ctx, `UPDATE speakers SET
		total_segments = COALESCE(agg.segments, 0),
		total_words = COALESCE(agg.words, 0),
		avg_sentiment = agg.avg_sentiment,
		updated_at = CURRENT_TIMESTAMP
	FROM (
		SELECT s.id AS speaker_id,
			COUNT(ts.id) AS segments,
			SUM(ts.word_count) AS words,
			AVG(ts.sentiment_vader_score) AS avg_sentiment
		FROM speakers s
		LEFT JOIN transcript_segments ts ON ts.speaker_id = s.id
		GROUP BY s.id
	) AS agg
	WHERE speakers.id = agg.speaker_id`)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("recompute_all_speaker_stats").Inc()
		return fmt.Errorf("recompute all speaker stats: %w", err)
	}
	return nil
}

// RecomputeAllTopicStats recomputes total_segments and avg_score for
// every topic in one statement (spec §4.1 "recompute_topic_stats()").
func (db *DB) RecomputeAllTopicStats(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("recompute_all_topic_stats").Observe(time.Since(start).Seconds())
	}()

	_, err := db.conn.ExecContext(ctx, `UPDATE topics SET
		total_segments = COALESCE(agg.segments, 0),
		avg_score = agg.avg_score,
		updated_at = CURRENT_TIMESTAMP
	FROM (
		SELECT t.id AS topic_id, COUNT(st.id) AS segments, AVG(st.score) AS avg_score
		FROM topics t
		LEFT JOIN segment_topics st ON st.topic_id = t.id
		GROUP BY t.id
	) AS agg
	WHERE topics.id = agg.topic_id`)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("recompute_all_topic_stats").Inc()
		return fmt.Errorf("recompute all topic stats: %w", err)
	}
	return nil
}

// SegmentTopicScore pairs a topic name with its edge weight, used by the
// Index Transformer (C5) to build a segment's descending-score topic list.
type SegmentTopicScore struct {
	Name  string
	Score float64
}

// TopicsForSegment returns every topic linked to segmentRowID, ordered by
// descending score (spec §4.5: "topic[] (names in descending score)").
func (db *DB) TopicsForSegment(ctx context.Context, segmentRowID int64) ([]SegmentTopicScore, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT t.name, st.score
		FROM segment_topics st
		JOIN topics t ON t.id = st.topic_id
		WHERE st.segment_id = ?
		ORDER BY st.score DESC, t.name ASC`, segmentRowID)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("topics_for_segment").Inc()
		return nil, fmt.Errorf("topics for segment %d: %w", segmentRowID, err)
	}
	defer rows.Close()

	var out []SegmentTopicScore
	for rows.Next() {
		var s SegmentTopicScore
		if err := rows.Scan(&s.Name, &s.Score); err != nil {
			return nil, fmt.Errorf("scan segment topic: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SegmentWithVideo bundles a segment row with the video it belongs to, the
// shape the Index Transformer (C5) and the SQL fallback query path (C7)
// both consume.
type SegmentWithVideo struct {
	Segment *models.TranscriptSegment
	Video   *models.Video
	Topics  []SegmentTopicScore
}

// FetchSegmentsSinceWithVideo is FetchSegmentsSince joined with each
// segment's owning video and topic edges, ready for projection by C5.
func (db *DB) FetchSegmentsSinceWithVideo(ctx context.Context, watermark time.Time, limit, offset int) ([]SegmentWithVideo, error) {
	segs, err := db.FetchSegmentsSince(ctx, watermark, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]SegmentWithVideo, 0, len(segs))
	videoCache := make(map[int64]*models.Video, len(segs))
	for _, s := range segs {
		video, ok := videoCache[s.VideoID]
		if !ok {
			video, err = db.GetVideoByID(ctx, s.VideoID)
			if err != nil {
				return nil, fmt.Errorf("load video %d for segment %s: %w", s.VideoID, s.SegmentID, err)
			}
			videoCache[s.VideoID] = video
		}
		topics, err := db.TopicsForSegment(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, SegmentWithVideo{Segment: s, Video: video, Topics: topics})
	}
	return out, nil
}

// ModerationSummary aggregates a video's segment-level moderation scores
// into the "events" rollup (spec §6 "moderation summary").
type ModerationSummary struct {
	AvgOverall   *float64
	MaxOverall   *float64
	FlaggedCount int
}

// StresslensSummary aggregates a video's segment-level stresslens scores
// into the "events" rollup (spec §6 "stresslens aggregates").
type StresslensSummary struct {
	AvgScore *float64
	MaxScore *float64
}

// VideoRollup is the per-video aggregate the Index Transformer (C5)
// projects into the "events" index (spec §6 "for events, a denormalized
// per-video rollup (top topics, moderation summary, stresslens
// aggregates, document metrics)").
type VideoRollup struct {
	Video        *models.Video
	SegmentCount int
	WordCount    int
	TopTopics    []SegmentTopicScore
	Moderation   ModerationSummary
	Stresslens   StresslensSummary
}

const topTopicsPerVideo = 5

// FetchVideoRollupsSince returns up to limit videos whose segments were
// updated strictly after watermark, ordered by each video's most recent
// segment update then video id, starting at offset rows into that
// ordering (same offset-paged shape as FetchSegmentsSince, for the same
// reason: projecting a video into the engine does not change its
// segments' updated_at).
func (db *DB) FetchVideoRollupsSince(ctx context.Context, watermark time.Time, limit, offset int) ([]VideoRollup, error) {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("fetch_video_rollups_since").Observe(time.Since(start).Seconds())
	}()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT v.id, MAX(ts.updated_at) AS last_updated
		FROM transcript_segments ts
		JOIN videos v ON v.id = ts.video_id
		WHERE ts.updated_at > ?
		GROUP BY v.id
		ORDER BY last_updated, v.id
		LIMIT ? OFFSET ?`, watermark, limit, offset)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("fetch_video_rollups_since").Inc()
		return nil, fmt.Errorf("fetch video rollups since %s: %w", watermark, err)
	}
	var videoIDs []int64
	for rows.Next() {
		var id int64
		var lastUpdated time.Time
		if err := rows.Scan(&id, &lastUpdated); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan video rollup id: %w", err)
		}
		videoIDs = append(videoIDs, id)
	}
	rowsErr := rows.Err()
	rows.Close()
	if rowsErr != nil {
		return nil, rowsErr
	}

	out := make([]VideoRollup, 0, len(videoIDs))
	for _, id := range videoIDs {
		video, err := db.GetVideoByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load video %d for rollup: %w", id, err)
		}
		roll, err := db.rollupForVideo(ctx, video)
		if err != nil {
			return nil, err
		}
		out = append(out, roll)
	}
	return out, nil
}

// rollupForVideo computes one video's moderation/stresslens/topic/
// document-metric aggregates over every one of its segments.
func (db *DB) rollupForVideo(ctx context.Context, video *models.Video) (VideoRollup, error) {
	var segCount, wordCount, flagged int
	var avgOverall, maxOverall, avgStress, maxStress sql.NullFloat64

	row := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(word_count), 0),
			AVG(moderation_overall_score),
			MAX(moderation_overall_score),
			SUM(CASE WHEN moderation_harassment_flag OR moderation_hate_flag
				OR moderation_violence_flag OR moderation_sexual_flag
				OR moderation_selfharm_flag THEN 1 ELSE 0 END),
			AVG(stresslens_score),
			MAX(stresslens_score)
		FROM transcript_segments
		WHERE video_id = ?`, video.ID)
	if err := row.Scan(&segCount, &wordCount, &avgOverall, &maxOverall, &flagged, &avgStress, &maxStress); err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("rollup_for_video").Inc()
		return VideoRollup{}, fmt.Errorf("rollup aggregates for video %d: %w", video.ID, err)
	}

	topics, err := db.topTopicsForVideo(ctx, video.ID, topTopicsPerVideo)
	if err != nil {
		return VideoRollup{}, err
	}

	return VideoRollup{
		Video:        video,
		SegmentCount: segCount,
		WordCount:    wordCount,
		TopTopics:    topics,
		Moderation: ModerationSummary{
			AvgOverall:   nullFloatPtr(avgOverall),
			MaxOverall:   nullFloatPtr(maxOverall),
			FlaggedCount: flagged,
		},
		Stresslens: StresslensSummary{
			AvgScore: nullFloatPtr(avgStress),
			MaxScore: nullFloatPtr(maxStress),
		},
	}, nil
}

// topTopicsForVideo returns a video's topics ordered by descending
// average edge score across its segments, capped at limit.
func (db *DB) topTopicsForVideo(ctx context.Context, videoID int64, limit int) ([]SegmentTopicScore, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.name, AVG(st.score) AS avg_score
		FROM segment_topics st
		JOIN transcript_segments ts ON ts.id = st.segment_id
		JOIN topics t ON t.id = st.topic_id
		WHERE ts.video_id = ?
		GROUP BY t.name
		ORDER BY avg_score DESC, t.name ASC
		LIMIT ?`, videoID, limit)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("top_topics_for_video").Inc()
		return nil, fmt.Errorf("top topics for video %d: %w", videoID, err)
	}
	defer rows.Close()

	var out []SegmentTopicScore
	for rows.Next() {
		var s SegmentTopicScore
		if err := rows.Scan(&s.Name, &s.Score); err != nil {
			return nil, fmt.Errorf("scan video topic: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
