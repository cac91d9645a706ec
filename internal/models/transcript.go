// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package models provides the relational content model for ingested
// political video transcripts: videos, speakers, topics, transcript
// segments, and the weighted edges between segments and topics.
package models

import "time"

// TranscodingStatus is the lifecycle state of an on-disk video file
// associated with a Video row.
type TranscodingStatus string

const (
	TranscodingPending    TranscodingStatus = "pending"
	TranscodingProcessing TranscodingStatus = "processing"
	TranscodingCompleted  TranscodingStatus = "completed"
	TranscodingFailed     TranscodingStatus = "failed"
)

// Dataset tags the top-level source family a Video belongs to.
type Dataset string

const (
	DatasetTrump        Dataset = "trump"
	DatasetTweedeKamer   Dataset = "tweede_kamer"
	DatasetVideoLibrary  Dataset = "video_library"
)

// SourceType identifies which parser produced a Video's segments.
type SourceType string

const (
	SourceTypeHTML      SourceType = "html"
	SourceTypeXML       SourceType = "xml"
	SourceTypeVideoFile SourceType = "video_file"
)

// SegmentType distinguishes spoken utterances from procedural announcements.
type SegmentType string

const (
	SegmentSpoken       SegmentType = "spoken"
	SegmentAnnouncement SegmentType = "announcement"
)

// Video is one row per ingested source file. Filename is the immutable
// natural key; a Video is created on first successful parse and updated
// only on explicit reimport.
type Video struct {
	ID       int64      `json:"id" db:"id"`
	Filename string     `json:"filename" db:"filename"`
	Title    string     `json:"title" db:"title"`
	Date     *time.Time `json:"date,omitempty" db:"date"`

	DurationSeconds *int   `json:"duration_seconds,omitempty" db:"duration_seconds"`
	Source          string `json:"source,omitempty" db:"source"`
	Channel         string `json:"channel,omitempty" db:"channel"`
	Description     string `json:"description,omitempty" db:"description"`
	URL             string `json:"url,omitempty" db:"url"`

	Format     string `json:"format,omitempty" db:"format"`
	Candidate  string `json:"candidate,omitempty" db:"candidate"`
	Place      string `json:"place,omitempty" db:"place"`
	RecordType string `json:"record_type,omitempty" db:"record_type"`

	Dataset    Dataset    `json:"dataset" db:"dataset"`
	SourceType SourceType `json:"source_type" db:"source_type"`

	VideoThumbnailURL string `json:"video_thumbnail_url,omitempty" db:"video_thumbnail_url"`
	VideoURL          string `json:"video_url,omitempty" db:"video_url"`
	VimeoVideoID      string `json:"vimeo_video_id,omitempty" db:"vimeo_video_id"`
	VimeoEmbedURL     string `json:"vimeo_embed_url,omitempty" db:"vimeo_embed_url"`

	TotalWords      int `json:"total_words" db:"total_words"`
	TotalCharacters int `json:"total_characters" db:"total_characters"`
	TotalSegments   int `json:"total_segments" db:"total_segments"`

	// Video-file lifecycle, populated by the (external) transcoding collaborator.
	VideoFilePath     string            `json:"video_file_path,omitempty" db:"video_file_path"`
	VideoFileSize     *int64            `json:"video_file_size,omitempty" db:"video_file_size"`
	VideoResolution   string            `json:"video_resolution,omitempty" db:"video_resolution"`
	VideoFPS          *float64          `json:"video_fps,omitempty" db:"video_fps"`
	VideoBitrate      *int64            `json:"video_bitrate,omitempty" db:"video_bitrate"`
	TranscodingStatus TranscodingStatus `json:"transcoding_status" db:"transcoding_status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Speaker is a canonicalized person, deduplicated by NormalizedName.
type Speaker struct {
	ID             int64  `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	NormalizedName string `json:"normalized_name" db:"normalized_name"`

	Party string `json:"party,omitempty" db:"party"`
	Title string `json:"title,omitempty" db:"title"`
	Bio   string `json:"bio,omitempty" db:"bio"`

	TotalSegments int      `json:"total_segments" db:"total_segments"`
	TotalWords    int      `json:"total_words" db:"total_words"`
	AvgSentiment  *float64 `json:"avg_sentiment,omitempty" db:"avg_sentiment"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Topic is a classification label, unique by Name. Category is assigned
// from a rule table (see internal/content.ClassifyTopicCategory) on
// first creation.
type Topic struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	Code        string `json:"code,omitempty" db:"code"`
	Category    string `json:"category,omitempty" db:"category"`
	Description string `json:"description,omitempty" db:"description"`

	TotalSegments int      `json:"total_segments" db:"total_segments"`
	AvgScore      *float64 `json:"avg_score,omitempty" db:"avg_score"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Sentiment bundles one algorithm's score and label.
type Sentiment struct {
	Score *float64 `json:"score,omitempty"`
	Label string   `json:"label,omitempty"`
}

// Moderation bundles the five fixed category scores and their pure-function flags.
type Moderation struct {
	Harassment     *float64 `json:"harassment,omitempty" db:"moderation_harassment"`
	Hate           *float64 `json:"hate,omitempty" db:"moderation_hate"`
	SelfHarm       *float64 `json:"self_harm,omitempty" db:"moderation_self_harm"`
	Sexual         *float64 `json:"sexual,omitempty" db:"moderation_sexual"`
	Violence       *float64 `json:"violence,omitempty" db:"moderation_violence"`
	OverallScore   *float64 `json:"overall_score,omitempty" db:"moderation_overall_score"`
	HarassmentFlag bool     `json:"harassment_flag" db:"moderation_harassment_flag"`
	HateFlag       bool     `json:"hate_flag" db:"moderation_hate_flag"`
	ViolenceFlag   bool     `json:"violence_flag" db:"moderation_violence_flag"`
	SexualFlag     bool     `json:"sexual_flag" db:"moderation_sexual_flag"`
	SelfHarmFlag   bool     `json:"selfharm_flag" db:"moderation_selfharm_flag"`
}

// ModerationFlagThreshold is the fixed threshold (spec §3, §4.2) at or
// above which a moderation score becomes a flag.
const ModerationFlagThreshold = 0.3

// Readability bundles the six fixed readability metrics.
type Readability struct {
	FleschKincaidGrade        *float64 `json:"flesch_kincaid_grade,omitempty" db:"flesch_kincaid_grade"`
	GunningFogIndex           *float64 `json:"gunning_fog_index,omitempty" db:"gunning_fog_index"`
	ColemanLiauIndex          *float64 `json:"coleman_liau_index,omitempty" db:"coleman_liau_index"`
	AutomatedReadabilityIndex *float64 `json:"automated_readability_index,omitempty" db:"automated_readability_index"`
	SMOGIndex                 *float64 `json:"smog_index,omitempty" db:"smog_index"`
	FleschReadingEase         *float64 `json:"flesch_reading_ease,omitempty" db:"flesch_reading_ease"`
}

// TranscriptSegment is one atomic utterance, owned by exactly one Video.
type TranscriptSegment struct {
	ID        int64  `json:"id" db:"id"`
	SegmentID string `json:"segment_id" db:"segment_id"`

	VideoID   int64  `json:"video_id" db:"video_id"`
	SpeakerID *int64 `json:"speaker_id,omitempty" db:"speaker_id"`

	SpeakerName  string      `json:"speaker_name" db:"speaker_name"`
	SpeakerParty string      `json:"speaker_party,omitempty" db:"speaker_party"`
	SegmentType  SegmentType `json:"segment_type" db:"segment_type"`

	TranscriptText string `json:"transcript_text" db:"transcript_text"`
	VideoSeconds   *int   `json:"video_seconds,omitempty" db:"video_seconds"`
	TimestampStart string `json:"timestamp_start,omitempty" db:"timestamp_start"`
	TimestampEnd   string `json:"timestamp_end,omitempty" db:"timestamp_end"`
	DurationSeconds *int  `json:"duration_seconds,omitempty" db:"duration_seconds"`

	WordCount int `json:"word_count" db:"word_count"`
	CharCount int `json:"char_count" db:"char_count"`

	SentimentLoughranScore *float64 `json:"sentiment_loughran_score,omitempty" db:"sentiment_loughran_score"`
	SentimentLoughranLabel string   `json:"sentiment_loughran_label,omitempty" db:"sentiment_loughran_label"`
	SentimentHarvardScore  *float64 `json:"sentiment_harvard_score,omitempty" db:"sentiment_harvard_score"`
	SentimentHarvardLabel  string   `json:"sentiment_harvard_label,omitempty" db:"sentiment_harvard_label"`
	SentimentVaderScore    *float64 `json:"sentiment_vader_score,omitempty" db:"sentiment_vader_score"`
	SentimentVaderLabel    string   `json:"sentiment_vader_label,omitempty" db:"sentiment_vader_label"`

	Moderation
	Readability

	StresslensScore *float64 `json:"stresslens_score,omitempty" db:"stresslens_score"`
	StresslensRank  *int     `json:"stresslens_rank,omitempty" db:"stresslens_rank"`

	Embedding            []float32  `json:"embedding,omitempty" db:"-"`
	EmbeddingGeneratedAt *time.Time `json:"embedding_generated_at,omitempty" db:"embedding_generated_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ApplyModerationFlags recomputes the five moderation flags as a pure
// function of the moderation scores (spec §3, §8: "moderation flags are
// a pure function of scores"). A nil score yields a false flag.
func (s *TranscriptSegment) ApplyModerationFlags() {
	s.HarassmentFlag = scoreFlag(s.Harassment)
	s.HateFlag = scoreFlag(s.Hate)
	s.ViolenceFlag = scoreFlag(s.Violence)
	s.SexualFlag = scoreFlag(s.Sexual)
	s.SelfHarmFlag = scoreFlag(s.SelfHarm)

	scores := make([]float64, 0, 5)
	for _, v := range []*float64{s.Harassment, s.Hate, s.Violence, s.Sexual, s.SelfHarm} {
		if v != nil {
			scores = append(scores, *v)
		}
	}
	if len(scores) > 0 {
		max := scores[0]
		for _, v := range scores[1:] {
			if v > max {
				max = v
			}
		}
		s.OverallScore = &max
	}
}

// ApplyModerationFlagsFromParsed applies the same pure-function rule as
// ApplyModerationFlags, for a segment still in parser-output form.
func (s *ParsedSegment) ApplyModerationFlagsFromParsed() {
	s.HarassmentFlag = scoreFlag(s.Harassment)
	s.HateFlag = scoreFlag(s.Hate)
	s.ViolenceFlag = scoreFlag(s.Violence)
	s.SexualFlag = scoreFlag(s.Sexual)
	s.SelfHarmFlag = scoreFlag(s.SelfHarm)

	scores := make([]float64, 0, 5)
	for _, v := range []*float64{s.Harassment, s.Hate, s.Violence, s.Sexual, s.SelfHarm} {
		if v != nil {
			scores = append(scores, *v)
		}
	}
	if len(scores) > 0 {
		max := scores[0]
		for _, v := range scores[1:] {
			if v > max {
				max = v
			}
		}
		s.OverallScore = &max
	}
}

func scoreFlag(v *float64) bool {
	return v != nil && *v >= ModerationFlagThreshold
}

// StresslensRankFor buckets a stresslens score into the fixed rank scale
// used by both parsers: >=0.7 -> 1, >=0.4 -> 2, >=0.2 -> 3, else 4.
func StresslensRankFor(score float64) int {
	switch {
	case score >= 0.7:
		return 1
	case score >= 0.4:
		return 2
	case score >= 0.2:
		return 3
	default:
		return 4
	}
}

// SegmentTopic is a weighted edge between a TranscriptSegment and a Topic.
type SegmentTopic struct {
	ID        int64    `json:"id" db:"id"`
	SegmentID int64    `json:"segment_id" db:"segment_id"`
	TopicID   int64    `json:"topic_id" db:"topic_id"`
	Score     float64  `json:"score" db:"score"`
	Magnitude *float64 `json:"magnitude,omitempty" db:"magnitude"`
	Confidence *float64 `json:"confidence,omitempty" db:"confidence"`
}
