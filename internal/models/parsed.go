// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package models

import "time"

// VideoMetadata is the video-level data a parser recovers from a single
// source file, before any database identifiers are assigned.
type VideoMetadata struct {
	Filename string
	Title    string
	Date     *time.Time

	DurationSeconds *int
	Source          string
	Channel         string
	Description     string
	URL             string

	Format     string
	Candidate  string
	Place      string
	RecordType string

	Dataset    Dataset
	SourceType SourceType

	VideoThumbnailURL string
	VideoURL          string
	VimeoVideoID      string
	VimeoEmbedURL     string
}

// ParsedSegment is one segment as recovered by a parser, before speaker
// and topic rows have been resolved against the Content Store.
type ParsedSegment struct {
	SegmentID string

	SpeakerName  string
	SpeakerParty string
	SegmentType  SegmentType

	TranscriptText  string
	VideoSeconds    *int
	TimestampStart  string
	TimestampEnd    string
	DurationSeconds *int

	WordCount int
	CharCount int

	SentimentLoughranScore *float64
	SentimentLoughranLabel string
	SentimentHarvardScore  *float64
	SentimentHarvardLabel  string
	SentimentVaderScore    *float64
	SentimentVaderLabel    string

	Moderation
	Readability

	StresslensScore *float64
	StresslensRank  *int

	// PrimaryTopic is the single topic label the HTML parser extracts
	// per segment (spec §4.2). The VLOS parser never sets it.
	PrimaryTopic string
}

// ParseWarning records a structured, non-fatal problem the parser
// encountered while extracting one segment (spec §4.2: "unparseable
// segments are skipped with a structured warning record").
type ParseWarning struct {
	SegmentID string
	Reason    string
}

// SessionMetadata carries VLOS-specific session-level extras (spec §4.3)
// that have no Video column equivalent but inform segment derivation.
type SessionMetadata struct {
	ChairName    string
	StartTime    string
	EndTime      string
	SummaryIntro string
	Attendees    Attendees
}

// Attendees distinguishes members of parliament from ministers, per the
// VLOS "Aanwezig zijn ..." grammar (spec §4.3).
type Attendees struct {
	Members  []string
	Ministers []string
}

// ParsedVideo is the uniform output of both the HTML Parser (C2) and the
// VLOS Parser (C3): one video's metadata plus its segments.
type ParsedVideo struct {
	Metadata VideoMetadata
	Segments []ParsedSegment
	Warnings []ParseWarning

	// Session is populated only by the VLOS parser.
	Session *SessionMetadata
}
