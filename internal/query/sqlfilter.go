// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package query

import (
	"fmt"

	contentquery "github.com/tomtom215/cartographus/internal/content/query"
)

// toSQLWhere renders spec as a parameterized SQL WHERE fragment for the
// relational fallback path. Every clause is added through the teacher's
// WhereBuilder.AddClause, read from the same FilterSpec fields that
// ToFilterString renders, so the engine filter string and the SQL
// fallback share one filter vocabulary.
func (spec FilterSpec) toSQLWhere() (string, []interface{}) {
	wb := contentquery.NewWhereBuilder()

	if spec.DateFrom != "" {
		wb.AddClause("date >= ?", spec.DateFrom)
	}
	if spec.DateTo != "" {
		wb.AddClause("date <= ?", spec.DateTo)
	}
	if spec.Format != "" {
		wb.AddClause("format = ?", spec.Format)
	}
	if spec.Source != "" {
		wb.AddClause("source = ?", spec.Source)
	}
	if spec.Candidate != "" {
		wb.AddClause("candidate = ?", spec.Candidate)
	}
	if spec.RecordType != "" {
		wb.AddClause("record_type = ?", spec.RecordType)
	}
	for _, clause := range placeSQLClauses(spec.Place) {
		wb.AddClause(clause.sql, clause.arg)
	}
	if spec.Topic != "" {
		// WhereBuilder.AddTopics assumes a flattened topic_name column
		// that transcript_segments/videos joins don't have (spec §4.1's
		// topic edges live in segment_topics); an EXISTS subquery against
		// segment_topics/topics reaches the same rows correctly.
		minScore := 0.0
		if spec.MinTopicScore != nil {
			minScore = *spec.MinTopicScore
		}
		wb.AddClause(`EXISTS (SELECT 1 FROM segment_topics st JOIN topics t ON t.id = st.topic_id
			WHERE st.segment_id = ts.id AND t.name = ? AND st.score >= ?)`, spec.Topic, minScore)
	} else if spec.MinTopicScore != nil {
		wb.AddClause(`EXISTS (SELECT 1 FROM segment_topics st WHERE st.segment_id = ts.id AND st.score >= ?)`, *spec.MinTopicScore)
	}

	for cat, flagged := range spec.ModerationFlags {
		if flagged {
			if col, ok := moderationFlagColumn[cat]; ok {
				wb.AddClause(fmt.Sprintf("ts.%s = ?", col), true)
			}
		}
	}
	for cat, min := range spec.ModerationMinScores {
		if col, ok := moderationScoreColumn[cat]; ok {
			wb.AddClause(fmt.Sprintf("ts.%s >= ?", col), min)
		}
	}

	if spec.MinStresslens != nil {
		wb.AddClause("ts.stresslens_score >= ?", *spec.MinStresslens)
	}
	if spec.MaxStresslens != nil {
		wb.AddClause("ts.stresslens_score <= ?", *spec.MaxStresslens)
	}
	if spec.StresslensRank != nil {
		wb.AddClause("ts.stresslens_rank = ?", *spec.StresslensRank)
	}

	// ts.duration_seconds is qualified: both transcript_segments and
	// videos carry a duration_seconds column, and this filter means the
	// segment's speaking time, not the source video's total length.
	if spec.MinSpeakingTimeS != nil {
		wb.AddClause("ts.duration_seconds >= ?", *spec.MinSpeakingTimeS)
	}
	if spec.MaxSpeakingTimeS != nil {
		wb.AddClause("ts.duration_seconds <= ?", *spec.MaxSpeakingTimeS)
	}
	if spec.MinWordCount != nil {
		wb.AddClause("ts.word_count >= ?", *spec.MinWordCount)
	}
	if spec.MaxWordCount != nil {
		wb.AddClause("ts.word_count <= ?", *spec.MaxWordCount)
	}
	// sentence_count has no stored column (spec §4.1's segment table has
	// no per-sentence breakdown); no SQL-side equivalent exists.

	if spec.MinLoughranScore != nil {
		wb.AddClause("ts.sentiment_loughran_score >= ?", *spec.MinLoughranScore)
	}
	if spec.MaxLoughranScore != nil {
		wb.AddClause("ts.sentiment_loughran_score <= ?", *spec.MaxLoughranScore)
	}
	if spec.MinHarvardScore != nil {
		wb.AddClause("ts.sentiment_harvard_score >= ?", *spec.MinHarvardScore)
	}
	if spec.MaxHarvardScore != nil {
		wb.AddClause("ts.sentiment_harvard_score <= ?", *spec.MaxHarvardScore)
	}
	if spec.MinVaderScore != nil {
		wb.AddClause("ts.sentiment_vader_score >= ?", *spec.MinVaderScore)
	}
	if spec.MaxVaderScore != nil {
		wb.AddClause("ts.sentiment_vader_score <= ?", *spec.MaxVaderScore)
	}

	return wb.Build()
}

var moderationFlagColumn = map[string]string{
	"harassment": "moderation_harassment_flag",
	"hate":       "moderation_hate_flag",
	"violence":   "moderation_violence_flag",
	"sexual":     "moderation_sexual_flag",
	"selfharm":   "moderation_selfharm_flag",
}

var moderationScoreColumn = map[string]string{
	"harassment": "moderation_harassment",
	"hate":       "moderation_hate",
	"violence":   "moderation_violence",
	"sexual":     "moderation_sexual",
	"selfharm":   "moderation_self_harm",
}

type sqlClause struct {
	sql string
	arg interface{}
}

func placeSQLClauses(place string) []sqlClause {
	if place == "" {
		return nil
	}
	// The relational schema stores one free-form "place" column per video
	// (spec §4.1), not the split city/state/country the engine filter
	// string addresses; the fallback path matches the whole raw value.
	return []sqlClause{{sql: "place = ?", arg: place}}
}
