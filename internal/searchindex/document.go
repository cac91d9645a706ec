// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package searchindex is the Index Transformer (C5): a pure mapping from
// a segment row, joined with its video and topic edges, to the flat
// search document the engine indexes (spec §4.5). Grounded on the
// teacher's internal/models flat-struct-with-json-tags style.
package searchindex

import (
	"fmt"

	"github.com/tomtom215/cartographus/internal/content"
	"github.com/tomtom215/cartographus/internal/models"
)

// Document is the search engine's document shape for one transcript
// segment (spec §4.5).
type Document struct {
	ID          string   `json:"id"`
	VideoID     int64    `json:"videoId"`
	Text        string   `json:"text"`
	Speaker     string   `json:"speaker"`
	Topic       []string `json:"topic"`
	Language    string   `json:"language"`
	Date        string   `json:"date,omitempty"`
	VideoSeconds *int    `json:"video_seconds,omitempty"`
	SegmentURL  string   `json:"segment_url"`
	VideoTitle  string   `json:"video_title"`
	Source      string   `json:"source,omitempty"`
	Candidate   string   `json:"candidate,omitempty"`
	RecordType  string   `json:"record_type,omitempty"`
	Format      string   `json:"format,omitempty"`

	Sentiment   SentimentDoc   `json:"sentiment"`
	Moderation  ModerationDoc  `json:"moderation"`
	Readability ReadabilityDoc `json:"readability"`
}

// SentimentDoc nests the three sentiment algorithms' scores.
type SentimentDoc struct {
	Vader    models.Sentiment `json:"vader"`
	Loughran models.Sentiment `json:"loughran"`
	Harvard  models.Sentiment `json:"harvard"`
}

// ModerationCategory is one flagged category's score and flag.
type ModerationCategory struct {
	Score *float64 `json:"score,omitempty"`
	Flag  bool     `json:"flag"`
}

// ModerationDoc nests the five fixed moderation categories plus the
// overall risk score (spec §4.5 "moderation.overall").
type ModerationDoc struct {
	Harassment ModerationCategory `json:"harassment"`
	Hate       ModerationCategory `json:"hate"`
	SelfHarm   ModerationCategory `json:"self_harm"`
	Sexual     ModerationCategory `json:"sexual"`
	Violence   ModerationCategory `json:"violence"`
	Overall    *float64           `json:"overall,omitempty"`
}

// ReadabilityDoc nests the six fixed readability metrics.
type ReadabilityDoc struct {
	FleschKincaid *float64 `json:"flesch_kincaid,omitempty"`
	GunningFog    *float64 `json:"gunning_fog,omitempty"`
	ColemanLiau   *float64 `json:"coleman_liau,omitempty"`
	FleschReadingEase *float64 `json:"flesch_reading_ease,omitempty"`
	SMOG          *float64 `json:"smog,omitempty"`
	ARI           *float64 `json:"ari,omitempty"`
}

// Transform maps one joined segment/video/topics row to a Document
// (spec §4.5). It is a pure function: no I/O, no clock reads beyond
// formatting an already-populated date.
func Transform(row content.SegmentWithVideo) Document {
	s, v := row.Segment, row.Video

	topicNames := make([]string, 0, len(row.Topics))
	for _, t := range row.Topics {
		topicNames = append(topicNames, t.Name)
	}

	var dateStr string
	if v.Date != nil {
		dateStr = v.Date.Format("2006-01-02")
	}

	return Document{
		ID:           s.SegmentID,
		VideoID:      v.ID,
		Text:         s.TranscriptText,
		Speaker:      s.SpeakerName,
		Topic:        topicNames,
		Language:     DetectLanguage(s.TranscriptText),
		Date:         dateStr,
		VideoSeconds: s.VideoSeconds,
		SegmentURL:   segmentURL(v.ID, s.VideoSeconds, s.SegmentID),
		VideoTitle:   v.Title,
		Source:       v.Source,
		Candidate:    v.Candidate,
		RecordType:   v.RecordType,
		Format:       v.Format,

		Sentiment: SentimentDoc{
			Vader:    models.Sentiment{Score: s.SentimentVaderScore, Label: s.SentimentVaderLabel},
			Loughran: models.Sentiment{Score: s.SentimentLoughranScore, Label: s.SentimentLoughranLabel},
			Harvard:  models.Sentiment{Score: s.SentimentHarvardScore, Label: s.SentimentHarvardLabel},
		},
		Moderation: ModerationDoc{
			Harassment: ModerationCategory{Score: s.Harassment, Flag: s.HarassmentFlag},
			Hate:       ModerationCategory{Score: s.Hate, Flag: s.HateFlag},
			SelfHarm:   ModerationCategory{Score: s.SelfHarm, Flag: s.SelfHarmFlag},
			Sexual:     ModerationCategory{Score: s.Sexual, Flag: s.SexualFlag},
			Violence:   ModerationCategory{Score: s.Violence, Flag: s.ViolenceFlag},
			Overall:    s.OverallScore,
		},
		Readability: ReadabilityDoc{
			FleschKincaid:     s.FleschKincaidGrade,
			GunningFog:        s.GunningFogIndex,
			ColemanLiau:       s.ColemanLiauIndex,
			FleschReadingEase: s.FleschReadingEase,
			SMOG:              s.SMOGIndex,
			ARI:               s.AutomatedReadabilityIndex,
		},
	}
}

// EventDocument is the "events" index's per-video rollup (spec §6 "for
// events, a denormalized per-video rollup (top topics, moderation
// summary, stresslens aggregates, document metrics)").
type EventDocument struct {
	ID         string   `json:"id"`
	VideoID    int64    `json:"videoId"`
	VideoTitle string   `json:"video_title"`
	Date       string   `json:"date,omitempty"`
	Source     string   `json:"source,omitempty"`
	Candidate  string   `json:"candidate,omitempty"`
	RecordType string   `json:"record_type,omitempty"`
	Format     string   `json:"format,omitempty"`
	Topic      []string `json:"topic"`

	Moderation EventModerationDoc `json:"moderation"`
	Stresslens EventStresslensDoc `json:"stresslens"`

	SegmentCount int `json:"segment_count"`
	WordCount    int `json:"word_count"`
}

// EventModerationDoc nests a video's aggregated moderation posture.
type EventModerationDoc struct {
	AvgOverall   *float64 `json:"avg_overall,omitempty"`
	MaxOverall   *float64 `json:"max_overall,omitempty"`
	FlaggedCount int      `json:"flagged_count"`
}

// EventStresslensDoc nests a video's aggregated stresslens scores.
type EventStresslensDoc struct {
	AvgScore *float64 `json:"avg_score,omitempty"`
	MaxScore *float64 `json:"max_score,omitempty"`
}

// TransformEvent maps one video rollup to an EventDocument (spec §6). As
// with Transform, this is a pure function: the aggregation itself
// happens in content.DB.FetchVideoRollupsSince.
func TransformEvent(r content.VideoRollup) EventDocument {
	v := r.Video

	topicNames := make([]string, 0, len(r.TopTopics))
	for _, t := range r.TopTopics {
		topicNames = append(topicNames, t.Name)
	}

	var dateStr string
	if v.Date != nil {
		dateStr = v.Date.Format("2006-01-02")
	}

	return EventDocument{
		ID:         fmt.Sprintf("video-%d", v.ID),
		VideoID:    v.ID,
		VideoTitle: v.Title,
		Date:       dateStr,
		Source:     v.Source,
		Candidate:  v.Candidate,
		RecordType: v.RecordType,
		Format:     v.Format,
		Topic:      topicNames,
		Moderation: EventModerationDoc{
			AvgOverall:   r.Moderation.AvgOverall,
			MaxOverall:   r.Moderation.MaxOverall,
			FlaggedCount: r.Moderation.FlaggedCount,
		},
		Stresslens: EventStresslensDoc{
			AvgScore: r.Stresslens.AvgScore,
			MaxScore: r.Stresslens.MaxScore,
		},
		SegmentCount: r.SegmentCount,
		WordCount:    r.WordCount,
	}
}

// segmentURL builds the deep-link the spec requires: "/videos/{video_id}?t={seconds}&segment_id={segment_id}".
func segmentURL(videoID int64, seconds *int, segmentID string) string {
	t := 0
	if seconds != nil {
		t = *seconds
	}
	return fmt.Sprintf("/videos/%d?t=%d&segment_id=%s", videoID, t, segmentID)
}
