// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package query is the Query Translator (C7): a pure FilterSpec ->
// engine filter string translation, mode dispatch (lexical/semantic/
// hybrid), result normalization, similarity search, and a SQL fallback
// path against the Content Store when the engine is unreachable (spec
// §4.7). Generalized from the teacher's internal/database/query
// WhereBuilder, which this package's SQL fallback reuses directly.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// moderationCategories is the spec's fixed five (spec §4.7 "has_<cat>"/
// "min_<cat>_score", §3's flag set).
var moderationCategories = []string{"harassment", "hate", "violence", "sexual", "selfharm"}

// FilterSpec is an explicit value type replacing a dynamic filter-kwargs
// surface (spec §9 "Dynamic filter kwargs ... become an explicit
// FilterSpec value with optional fields"). Every field is optional;
// absent fields contribute no clause.
type FilterSpec struct {
	DateFrom string // ISO date, e.g. "2025-08-13"
	DateTo   string

	Format     string
	Source     string
	Candidate  string
	RecordType string

	// Place is the raw CSV the caller sent; ToFilterString splits it into
	// place.city/place.state/place.country equality clauses (spec §4.7).
	Place string

	Topic         string
	MinTopicScore *float64

	// ModerationFlags holds, for each of the five fixed categories, an
	// optional "has_<cat>" boolean filter.
	ModerationFlags map[string]bool
	// ModerationMinScores holds, for each category, an optional
	// "min_<cat>_score" threshold.
	ModerationMinScores map[string]float64

	MinStresslens  *float64
	MaxStresslens  *float64
	StresslensRank *int

	// Document metrics (spec §4.7 "range on document.{speaking_time_s,
	// sentence_count, word_count, duration_s}").
	MinSpeakingTimeS *float64
	MaxSpeakingTimeS *float64
	MinSentenceCount *int
	MaxSentenceCount *int
	MinWordCount     *int
	MaxWordCount     *int
	MinDurationS     *float64
	MaxDurationS     *float64

	// Sentiment thresholds (spec §4.7 "range on document.sentiment.{lmd,
	// harvard,vader}").
	MinLoughranScore *float64
	MaxLoughranScore *float64
	MinHarvardScore  *float64
	MaxHarvardScore  *float64
	MinVaderScore    *float64
	MaxVaderScore    *float64
}

// ToFilterString renders spec in the engine's conjunctive filter-string
// grammar (spec §4.7's parameter→clause table). All clauses are joined
// with " AND "; absent fields contribute no clause. Pure function, no
// I/O — unit-testable in isolation (spec §9).
func (spec FilterSpec) ToFilterString() string {
	var clauses []string

	if spec.DateFrom != "" {
		clauses = append(clauses, fmt.Sprintf(`date >= %q`, spec.DateFrom))
	}
	if spec.DateTo != "" {
		clauses = append(clauses, fmt.Sprintf(`date <= %q`, spec.DateTo))
	}

	clauses = append(clauses, equalityClause("format", spec.Format)...)
	clauses = append(clauses, equalityClause("source", spec.Source)...)
	clauses = append(clauses, equalityClause("candidate", spec.Candidate)...)
	clauses = append(clauses, equalityClause("record_type", spec.RecordType)...)

	clauses = append(clauses, placeClauses(spec.Place)...)

	if spec.Topic != "" {
		clauses = append(clauses, fmt.Sprintf(`topics.topic = %q`, spec.Topic))
	}
	if spec.MinTopicScore != nil {
		clauses = append(clauses, fmt.Sprintf(`topics.score >= %s`, formatFloat(*spec.MinTopicScore)))
	}

	for _, cat := range moderationCategories {
		if flagged, ok := spec.ModerationFlags[cat]; ok && flagged {
			clauses = append(clauses, fmt.Sprintf(`moderation.%s.flag = true`, cat))
		}
		if min, ok := spec.ModerationMinScores[cat]; ok {
			clauses = append(clauses, fmt.Sprintf(`moderation.%s.score >= %s`, cat, formatFloat(min)))
		}
	}

	if spec.MinStresslens != nil {
		clauses = append(clauses, fmt.Sprintf(`stresslens.score >= %s`, formatFloat(*spec.MinStresslens)))
	}
	if spec.MaxStresslens != nil {
		clauses = append(clauses, fmt.Sprintf(`stresslens.score <= %s`, formatFloat(*spec.MaxStresslens)))
	}
	if spec.StresslensRank != nil {
		clauses = append(clauses, fmt.Sprintf(`stresslens.rank = %d`, *spec.StresslensRank))
	}

	clauses = append(clauses, rangeClauses("document.speaking_time_s", spec.MinSpeakingTimeS, spec.MaxSpeakingTimeS)...)
	clauses = append(clauses, rangeClausesInt("document.sentence_count", spec.MinSentenceCount, spec.MaxSentenceCount)...)
	clauses = append(clauses, rangeClausesInt("document.word_count", spec.MinWordCount, spec.MaxWordCount)...)
	clauses = append(clauses, rangeClauses("document.duration_s", spec.MinDurationS, spec.MaxDurationS)...)

	clauses = append(clauses, rangeClauses("document.sentiment.lmd", spec.MinLoughranScore, spec.MaxLoughranScore)...)
	clauses = append(clauses, rangeClauses("document.sentiment.harvard", spec.MinHarvardScore, spec.MaxHarvardScore)...)
	clauses = append(clauses, rangeClauses("document.sentiment.vader", spec.MinVaderScore, spec.MaxVaderScore)...)

	return strings.Join(clauses, " AND ")
}

func equalityClause(field, value string) []string {
	if value == "" {
		return nil
	}
	return []string{fmt.Sprintf(`%s = %q`, field, value)}
}

// placeClauses splits a CSV place string into city/state/country
// equality clauses, one per present part (spec §4.7 "place (CSV) split
// into place.city, place.state, place.country, each present part
// equality"). Parts are positional: city, state, country.
func placeClauses(place string) []string {
	if place == "" {
		return nil
	}
	parts := strings.Split(place, ",")
	fields := []string{"place.city", "place.state", "place.country"}
	var out []string
	for i, part := range parts {
		if i >= len(fields) {
			break
		}
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, fmt.Sprintf(`%s = %q`, fields[i], trimmed))
	}
	return out
}

func rangeClauses(field string, min, max *float64) []string {
	var out []string
	if min != nil {
		out = append(out, fmt.Sprintf(`%s >= %s`, field, formatFloat(*min)))
	}
	if max != nil {
		out = append(out, fmt.Sprintf(`%s <= %s`, field, formatFloat(*max)))
	}
	return out
}

func rangeClausesInt(field string, min, max *int) []string {
	var out []string
	if min != nil {
		out = append(out, fmt.Sprintf(`%s >= %d`, field, *min))
	}
	if max != nil {
		out = append(out, fmt.Sprintf(`%s <= %d`, field, *max))
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
