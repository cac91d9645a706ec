// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package content

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/models"
)

// TextMatchMode selects how SearchSegments matches the free-text query
// against transcript_text when the search engine is unreachable: exact
// is string equality; ilike and fulltext are both a case-insensitive
// substring match; fuzzy uses the RapidFuzz jaccard score when that
// extension is loaded and the substring match otherwise.
type TextMatchMode string

const (
	MatchExact    TextMatchMode = "exact"
	MatchILike    TextMatchMode = "ilike"
	MatchFulltext TextMatchMode = "fulltext"
	MatchFuzzy    TextMatchMode = "fuzzy"
)

// SearchSegments runs the relational fallback query: a caller-supplied
// WHERE clause (built by internal/content/query.WhereBuilder) joined
// against transcript_segments and videos, plus an optional free-text
// match, ordered by relevance/recency and paginated.
func (db *DB) SearchSegments(ctx context.Context, whereSQL string, whereArgs []interface{}, text string, mode TextMatchMode, limit, offset int) ([]SegmentWithVideo, int, error) {
	start := time.Now()
	defer func() {
		metrics.ContentStoreQueryDuration.WithLabelValues("search_segments").Observe(time.Since(start).Seconds())
	}()

	args := append([]interface{}{}, whereArgs...)
	var orderArgs []interface{}
	textClause, order := "", "ts.updated_at DESC"
	if text != "" {
		switch mode {
		case MatchExact:
			textClause = "ts.transcript_text = ?"
			args = append(args, text)
		case MatchFulltext:
			textClause = "ts.transcript_text ILIKE ?"
			args = append(args, "%"+text+"%")
		case MatchFuzzy:
			if db.rapidfuzzAvailable {
				textClause = "jaccard(ts.transcript_text, ?) > 0.1"
				args = append(args, text)
				order = "jaccard(ts.transcript_text, ?) DESC, ts.updated_at DESC"
				orderArgs = append(orderArgs, text)
			} else {
				textClause = "ts.transcript_text ILIKE ?"
				args = append(args, "%"+text+"%")
			}
		default: // MatchILike and unset
			textClause = "ts.transcript_text ILIKE ?"
			args = append(args, "%"+text+"%")
		}
	}

	where := whereSQL
	if where == "" {
		where = "1=1"
	}
	if textClause != "" {
		where = where + " AND " + textClause
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM transcript_segments ts JOIN videos v ON v.id = ts.video_id WHERE %s`, where)
	var total int
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("search_segments").Inc()
		return nil, 0, fmt.Errorf("count search segments: %w", err)
	}

	if limit <= 0 {
		limit = 20
	}
	pageArgs := append(append([]interface{}{}, args...), orderArgs...)
	pageArgs = append(pageArgs, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM transcript_segments ts JOIN videos v ON v.id = ts.video_id
		WHERE %s ORDER BY %s LIMIT ? OFFSET ?`, segmentColumnsSQL, where, order)

	rows, err := db.conn.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		metrics.ContentStoreErrorsTotal.WithLabelValues("search_segments").Inc()
		return nil, 0, fmt.Errorf("search segments: %w", err)
	}
	defer rows.Close()

	var segs []*models.TranscriptSegment
	for rows.Next() {
		s, err := scanSegmentColumns(rows)
		if err != nil {
			return nil, 0, err
		}
		segs = append(segs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate search segments: %w", err)
	}

	out := make([]SegmentWithVideo, 0, len(segs))
	videoCache := make(map[int64]*models.Video, len(segs))
	for _, s := range segs {
		video, ok := videoCache[s.VideoID]
		if !ok {
			video, err = db.GetVideoByID(ctx, s.VideoID)
			if err != nil {
				return nil, 0, fmt.Errorf("load video %d for segment %s: %w", s.VideoID, s.SegmentID, err)
			}
			videoCache[s.VideoID] = video
		}
		topics, err := db.TopicsForSegment(ctx, s.ID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, SegmentWithVideo{Segment: s, Video: video, Topics: topics})
	}
	return out, total, nil
}
