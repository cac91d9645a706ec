// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus/internal/parse/html

package html

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/tomtom215/cartographus/internal/models"
)

func extractSegments(doc *html.Node) ([]models.ParsedSegment, []models.ParseWarning) {
	divs := findAllByClass(doc, "div", "mb-4 border-b mx-6 my-4")

	var segments []models.ParsedSegment
	var warnings []models.ParseWarning
	for i, div := range divs {
		seg, ok := parseSegment(div)
		if !ok {
			warnings = append(warnings, models.ParseWarning{
				SegmentID: strconv.Itoa(i),
				Reason:    "no transcript text found in segment block",
			})
			continue
		}
		segments = append(segments, seg)
	}
	return segments, warnings
}

func parseSegment(div *html.Node) (models.ParsedSegment, bool) {
	seg := models.ParsedSegment{SegmentType: models.SegmentSpoken}

	if id, ok := findAttr(div, "id"); ok {
		parts := strings.Split(id, "-")
		seg.SegmentID = parts[len(parts)-1]
	}

	if playButton := findFirstByClass(div, "a", "transcript-play-video"); playButton != nil {
		if secs, ok := findAttr(playButton, "data-seconds"); ok {
			if n, err := strconv.Atoi(secs); err == nil {
				seg.VideoSeconds = &n
			}
		}
	}

	extractSpeakerInfo(div, &seg)

	textDiv := findFirstByClass(div, "div", "flex-auto text-md text-gray-600 leading-loose")
	if textDiv == nil {
		return seg, false
	}
	seg.TranscriptText = textContent(textDiv)
	if seg.TranscriptText == "" {
		return seg, false
	}

	extractAnalytics(div, &seg)

	seg.WordCount = len(strings.Fields(seg.TranscriptText))
	seg.CharCount = utf8.RuneCountInString(seg.TranscriptText)

	return seg, true
}

func extractSpeakerInfo(div *html.Node, seg *models.ParsedSegment) {
	if h2 := findFirstByClass(div, "h2", "text-md inline"); h2 != nil {
		seg.SpeakerName = textContent(h2)
	}
	if span := findFirstByClass(div, "span", "text-xs text-gray-600 inline ml-2"); span != nil {
		text := textContent(span)
		if m := timestampPattern.FindStringSubmatch(text); m != nil {
			seg.TimestampStart = m[1]
			seg.TimestampEnd = m[2]
			if n, err := strconv.Atoi(m[3]); err == nil {
				seg.DurationSeconds = &n
			}
		}
	}
}

func extractAnalytics(div *html.Node, seg *models.ParsedSegment) {
	detailsDiv := findFirstByAttr(div, "div", "x-show", "openDetails")
	if detailsDiv != nil {
		extractSentiment(detailsDiv, seg)
		extractModeration(detailsDiv, seg)
		extractTopic(detailsDiv, seg)
		extractReadability(detailsDiv, seg)
	}
	extractStresslens(div, seg)
}

func extractSentiment(detailsDiv *html.Node, seg *models.ParsedSegment) {
	for _, div := range findAllByClass(detailsDiv, "div", "mb-4 flex gap-2") {
		text := textContent(div)
		parts := strings.Fields(text)
		if len(parts) < 3 {
			continue
		}
		score, label := parts[len(parts)-2], parts[len(parts)-1]
		scoreVal, err := strconv.ParseFloat(score, 64)
		if err != nil {
			continue
		}
		switch {
		case strings.Contains(text, "Loughran McDonald"):
			seg.SentimentLoughranScore = &scoreVal
			seg.SentimentLoughranLabel = label
		case strings.Contains(text, "Harvard"):
			seg.SentimentHarvardScore = &scoreVal
			seg.SentimentHarvardLabel = label
		case strings.Contains(text, "VADER"):
			seg.SentimentVaderScore = &scoreVal
			seg.SentimentVaderLabel = label
		}
	}
}

func extractModeration(detailsDiv *html.Node, seg *models.ParsedSegment) {
	for _, div := range findAllByClass(detailsDiv, "div", "mb-4") {
		text := textContent(div)
		for _, f := range moderationPatterns {
			m := f.pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			switch f.key {
			case "harassment":
				seg.Harassment = &v
			case "hate":
				seg.Hate = &v
			case "self_harm":
				seg.SelfHarm = &v
			case "sexual":
				seg.Sexual = &v
			case "violence":
				seg.Violence = &v
			}
			break
		}
	}
	seg.ApplyModerationFlagsFromParsed()
}

func extractTopic(detailsDiv *html.Node, seg *models.ParsedSegment) {
	for _, div := range findAllByClass(detailsDiv, "div", "flex gap-2 py-2 border-b") {
		text := textContent(div)
		if idx := strings.Index(text, "Topic:"); idx >= 0 {
			seg.PrimaryTopic = strings.TrimSpace(text[idx+len("Topic:"):])
			break
		}
	}
}

func extractReadability(detailsDiv *html.Node, seg *models.ParsedSegment) {
	for _, div := range findAllByClass(detailsDiv, "div", "mb-4 flex gap-2") {
		text := textContent(div)
		for _, f := range readabilityPatterns {
			m := f.pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			switch f.key {
			case "flesch_kincaid_grade":
				seg.FleschKincaidGrade = &v
			case "gunning_fog_index":
				seg.GunningFogIndex = &v
			case "coleman_liau_index":
				seg.ColemanLiauIndex = &v
			case "automated_readability_index":
				seg.AutomatedReadabilityIndex = &v
			case "smog_index":
				seg.SMOGIndex = &v
			case "flesch_reading_ease":
				seg.FleschReadingEase = &v
			}
			break
		}
	}
}

func extractStresslens(div *html.Node, seg *models.ParsedSegment) {
	for _, stressDiv := range findAllByClass(div, "div", "hidden sm:block") {
		text := textContent(stressDiv)
		if strings.Contains(text, "No StressLens") {
			continue
		}
		if applyStressMatch(text, seg) {
			return
		}
	}

	// Fallback: any div whose text, including all descendant text,
	// mentions "stress" (case-insensitive).
	var candidates []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.ElementNode && cur.Data == "div" {
			if stressIndicatorPattern.MatchString(textContent(cur)) {
				candidates = append(candidates, cur)
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(div)

	for _, cand := range candidates {
		text := textContent(cand)
		if strings.Contains(text, "No StressLens") {
			continue
		}
		nums := numberPattern.FindAllString(text, -1)
		if len(nums) == 0 {
			continue
		}
		score, err := strconv.ParseFloat(nums[0], 64)
		if err != nil || score < 0 || score > 1 {
			continue
		}
		seg.StresslensScore = &score
		rank := models.StresslensRankFor(score)
		seg.StresslensRank = &rank
		return
	}
}

func applyStressMatch(text string, seg *models.ParsedSegment) bool {
	for _, sp := range stressPatterns {
		m := sp.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		seg.StresslensScore = &score

		var rank int
		switch {
		case sp.level == "high" || score >= 0.7:
			rank = 1
		case sp.level == "medium" || score >= 0.4:
			rank = 2
		case sp.level == "low" || score >= 0.2:
			rank = 3
		default:
			rank = 4
		}
		seg.StresslensRank = &rank
		return true
	}
	return false
}
