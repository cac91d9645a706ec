// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package query provides SQL WHERE-clause construction utilities for the
// content store, generalized from a playback-event query builder to the
// transcript segment/video filter domain (spec §4.7 FilterSpec).
package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddDateRange(startDate, endDate)
//	wb.AddSpeakers([]string{"speaker1", "speaker2"})
//	whereClause, args := wb.Build()
//	// date >= ? AND date <= ? AND speaker_name IN (?, ?)
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw WHERE clause with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddDateRange adds start and/or end date filters over the video date column.
func (wb *WhereBuilder) AddDateRange(startDate, endDate *time.Time) *WhereBuilder {
	if startDate != nil {
		wb.clauses = append(wb.clauses, "date >= ?")
		wb.args = append(wb.args, *startDate)
	}
	if endDate != nil {
		wb.clauses = append(wb.clauses, "date <= ?")
		wb.args = append(wb.args, *endDate)
	}
	return wb
}

// AddSpeakers adds a speaker filter using IN clause over speaker_name.
func (wb *WhereBuilder) AddSpeakers(speakers []string) *WhereBuilder {
	return wb.addInClause("speaker_name", speakers)
}

// AddParties adds a party filter using IN clause over speaker_party.
func (wb *WhereBuilder) AddParties(parties []string) *WhereBuilder {
	return wb.addInClause("speaker_party", parties)
}

// AddDatasets adds a dataset filter using IN clause over videos.dataset.
func (wb *WhereBuilder) AddDatasets(datasets []string) *WhereBuilder {
	return wb.addInClause("dataset", datasets)
}

// AddTopics adds a topic filter using IN clause over a topic_name column.
func (wb *WhereBuilder) AddTopics(topics []string) *WhereBuilder {
	return wb.addInClause("topic_name", topics)
}

// AddModerationFlag adds an equality filter on one of the five fixed
// moderation flag columns.
func (wb *WhereBuilder) AddModerationFlag(column string, flagged bool) *WhereBuilder {
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s = ?", column))
	wb.args = append(wb.args, flagged)
	return wb
}

// AddStresslensRank restricts to one or more of the fixed 1-4 rank buckets.
func (wb *WhereBuilder) AddStresslensRank(ranks []int) *WhereBuilder {
	if len(ranks) == 0 {
		return wb
	}
	placeholders := make([]string, len(ranks))
	for i, r := range ranks {
		placeholders[i] = "?"
		wb.args = append(wb.args, r)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("stresslens_rank IN (%s)", strings.Join(placeholders, ", ")))
	return wb
}

func (wb *WhereBuilder) addInClause(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with a "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
