// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus/internal/parse/vlos

// Package vlos parses Tweede Kamer VLOS proceedings XML into a uniform
// ParsedVideo (spec §4.3). Every element it looks for is optional;
// a document missing one degrades gracefully rather than failing.
package vlos

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/models"
)

// utterance is an intermediate, pre-merge representation of one
// woordvoerder before consecutive-speaker merging and deduplication.
type utterance struct {
	speakerName  string
	speakerParty string
	text         string
	tsStart      string
	tsEnd        string
	videoSeconds *int
}

// Parse reads r (the full contents of one VLOS XML file named filename)
// and returns its session metadata and segments.
func Parse(r io.Reader, filename string) (*models.ParsedVideo, error) {
	start := time.Now()
	defer func() {
		metrics.ParseDuration.WithLabelValues("vlos").Observe(time.Since(start).Seconds())
	}()

	var doc vlosDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		metrics.ParseFailuresTotal.WithLabelValues("vlos").Inc()
		return nil, fmt.Errorf("parse vlos xml %q: %w", filename, err)
	}

	session := &models.SessionMetadata{}
	if doc.Vergadering.Voorzitter != nil {
		session.ChairName = strings.TrimSpace(doc.Vergadering.Voorzitter.Verslagnaam)
	}

	var utterances []utterance
	var warnings []models.ParseWarning

	for _, act := range doc.Vergadering.Activiteiten {
		tsStart := act.Hoofd.MarkeerBegin
		tsEnd := act.Hoofd.MarkeerEind

		for _, item := range act.Hoofd.Deel.Items {
			switch {
			case item.Woordvoerder != nil:
				u, ok := buildUtterance(item.Woordvoerder, session.ChairName, tsStart, tsEnd)
				if !ok {
					continue
				}
				utterances = append(utterances, u)
			case item.Tekst != nil:
				applyAdminFragment(item.Tekst.joinedText(), session)
			}
		}
	}

	merged := mergeConsecutive(utterances)
	deduped := dedup(merged)

	segments := make([]models.ParsedSegment, 0, len(deduped))
	for i, u := range deduped {
		if len(u.text) < 2 {
			warnings = append(warnings, models.ParseWarning{
				SegmentID: strconv.Itoa(i),
				Reason:    "utterance text shorter than two characters",
			})
			continue
		}
		segments = append(segments, models.ParsedSegment{
			SegmentID:      fmt.Sprintf("%s-%d", filename, i+1),
			SpeakerName:    u.speakerName,
			SpeakerParty:   u.speakerParty,
			SegmentType:    models.SegmentSpoken,
			TranscriptText: u.text,
			VideoSeconds:   u.videoSeconds,
			TimestampStart: u.tsStart,
			TimestampEnd:   u.tsEnd,
			WordCount:      len(strings.Fields(u.text)),
			CharCount:      len([]rune(u.text)),
		})
	}
	for _, w := range warnings {
		metrics.ParseWarningsTotal.WithLabelValues("vlos", w.Reason).Inc()
	}

	meta := models.VideoMetadata{
		Filename:   filepath.Base(filename),
		Source:     "Tweede Kamer",
		Channel:    "VLOS XML",
		Format:     "Parliamentary Session",
		Place:      "Den Haag, NL",
		RecordType: "Parliamentary Proceedings",
		Dataset:    models.DatasetTweedeKamer,
		SourceType: models.SourceTypeXML,
	}

	return &models.ParsedVideo{
		Metadata: meta,
		Segments: segments,
		Warnings: warnings,
		Session:  session,
	}, nil
}

// buildUtterance resolves one woordvoerder into an utterance, applying
// the chair-attribution rewrite and dropping procedural narration.
func buildUtterance(wv *woordvoerder, chairName, tsStart, tsEnd string) (utterance, bool) {
	raw := wv.Tekst.joinedText()
	name, party, isChair := resolveSpeaker(wv.Spreker, raw)
	if isChair {
		name = chairName
		if name == "" {
			name = "Onbekend"
		}
	}
	if isAdministrativeSpeaker(name) {
		return utterance{}, false
	}

	text := stripLabel(raw)

	return utterance{
		speakerName:  name,
		speakerParty: party,
		text:         text,
		tsStart:      tsStart,
		tsEnd:        tsEnd,
		videoSeconds: secondsOfDay(tsStart),
	}, true
}

// resolveSpeaker applies spec §4.3's priority: an explicit <spreker>
// element's verslagnaam wins outright (with any party recovered from
// the label text); otherwise the salutation ladder is applied to the
// label itself, with "De voorzitter" deferred to chair attribution.
func resolveSpeaker(sp *spreker, rawText string) (name, party string, isChairPlaceholder bool) {
	if sp != nil && strings.TrimSpace(sp.Verslagnaam) != "" {
		name = strings.TrimSpace(sp.Verslagnaam)
		party = extractPartyFromLabel(rawText)
		if strings.EqualFold(name, "de voorzitter") {
			return "", "", true
		}
		return name, party, false
	}

	salutation, ladderName, ladderParty, ok := parseLadder(rawText)
	if !ok {
		return "Onbekend", "", false
	}
	if strings.EqualFold(salutation, "de voorzitter") {
		return "", "", true
	}
	if ladderName == "" {
		return "Onbekend", "", false
	}
	return ladderName, ladderParty, false
}

// applyAdminFragment recognizes the four plain-text administrative
// fragments spec §4.3 names and folds them into session metadata
// instead of emitting a segment for them.
func applyAdminFragment(text string, session *models.SessionMetadata) {
	switch {
	case aanvangPattern.MatchString(text):
		m := aanvangPattern.FindStringSubmatch(text)
		session.StartTime = m[1]
	case sluitingPattern.MatchString(text):
		m := sluitingPattern.FindStringSubmatch(text)
		session.EndTime = m[1]
	case strings.HasPrefix(text, "Verslag van"):
		if session.SummaryIntro == "" {
			session.SummaryIntro = text
		}
	case strings.HasPrefix(text, "Aanwezig zijn"):
		members, ministers := parseAttendees(text)
		session.Attendees.Members = append(session.Attendees.Members, members...)
		session.Attendees.Ministers = append(session.Attendees.Ministers, ministers...)
	}
}

// secondsOfDay extracts HH:MM:SS from an ISO datetime and converts it
// to seconds-of-day, tolerating a missing or malformed timestamp.
func secondsOfDay(iso string) *int {
	idx := strings.Index(iso, "T")
	if idx < 0 || idx+9 > len(iso) {
		return nil
	}
	var h, m, s int
	if _, err := fmt.Sscanf(iso[idx+1:idx+9], "%d:%d:%d", &h, &m, &s); err != nil {
		return nil
	}
	secs := h*3600 + m*60 + s
	return &secs
}

// mergeConsecutive folds adjacent utterances from the same speaker
// with contiguous time ranges into one (spec §4.3).
func mergeConsecutive(in []utterance) []utterance {
	if len(in) == 0 {
		return in
	}
	out := make([]utterance, 0, len(in))
	cur := in[0]
	for _, next := range in[1:] {
		if next.speakerName == cur.speakerName && next.tsStart == cur.tsEnd {
			cur.text = strings.TrimSpace(cur.text + " " + next.text)
			cur.tsEnd = next.tsEnd
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// dedup drops utterances that repeat an earlier (speaker, time range,
// text) triple verbatim.
func dedup(in []utterance) []utterance {
	seen := make(map[string]bool, len(in))
	out := make([]utterance, 0, len(in))
	for _, u := range in {
		key := u.speakerName + "|" + u.tsStart + "|" + u.tsEnd + "|" + u.text
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, u)
	}
	return out
}

// IsXMLFile reports whether name has the extension this parser handles.
func IsXMLFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xml")
}
