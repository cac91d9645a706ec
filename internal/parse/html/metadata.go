// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus/internal/parse/html

package html

import (
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/tomtom215/cartographus/internal/models"
)

func extractVideoMetadata(doc *html.Node, filename string) models.VideoMetadata {
	meta := models.VideoMetadata{Filename: filename}

	meta.Title = extractTitle(doc)
	meta.Date = extractDate(filename, meta.Title, doc)

	lowerFilename := strings.ToLower(filename)
	meta.Source = matchSource(lowerFilename)
	meta.Format = matchFormat(lowerFilename)
	meta.Candidate = matchCandidate(lowerFilename)
	meta.Place = matchPlace(lowerFilename)
	meta.RecordType = recordTypeFor(meta.Format)

	if v, ok := findMetaContent(doc, "name", "description"); ok {
		meta.Description = v
	}
	if v, ok := findMetaContent(doc, "property", "og:url"); ok {
		meta.URL = v
	}

	if thumb, ok := findMetaContent(doc, "name", "twitter:image"); ok && strings.Contains(thumb, "media-cdn.factba.se") {
		meta.VideoThumbnailURL = thumb
		if m := videoIDPattern.FindStringSubmatch(thumb); m != nil {
			meta.VideoURL = "https://factba.se/video/" + m[1]
		}
	}

	if iframe := findFirstByAttr(doc, "iframe", "id", "vimeoPlayer"); iframe != nil {
		if src, ok := findAttr(iframe, "src"); ok {
			if m := vimeoIDPattern.FindStringSubmatch(src); m != nil {
				meta.VimeoVideoID = m[1]
				meta.VimeoEmbedURL = src
			}
		}
	}

	return meta
}

func extractTitle(doc *html.Node) string {
	var raw string
	if v, ok := findMetaContent(doc, "property", "og:title"); ok {
		raw = v
	} else if n := findFirstByAttr(doc, "title", "", ""); n != nil {
		raw = textContent(n)
	} else {
		var titleNode *html.Node
		var walk func(*html.Node)
		walk = func(cur *html.Node) {
			if titleNode != nil {
				return
			}
			if cur.Type == html.ElementNode && cur.Data == "title" {
				titleNode = cur
				return
			}
			for c := cur.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
		if titleNode != nil {
			raw = textContent(titleNode)
		}
	}
	return strings.ReplaceAll(raw, "Roll Call Factba.se - ", "")
}

func extractDate(filename, title string, doc *html.Node) *time.Time {
	if d := dateFromFilename(filename); d != nil {
		return d
	}
	if m := dateInTitlePattern.FindStringSubmatch(title); m != nil {
		if t, err := time.Parse("January 2, 2006", m[1]); err == nil {
			return &t
		}
	}
	if v, ok := findMetaContent(doc, "property", "article:modified_time"); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			d := t.UTC()
			return &d
		}
	}
	return nil
}

func dateFromFilename(filename string) *time.Time {
	lower := strings.ToLower(filename)
	for i, pattern := range datePatterns {
		m := pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		raw := m[1]
		var t time.Time
		var err error
		switch i {
		case 0: // month-day-year, e.g. "august-13-2025"
			t, err = time.Parse("January-2-2006", capitalizeMonth(raw))
		case 1: // mm-dd-yyyy
			t, err = time.Parse("1-2-2006", raw)
		case 2: // yyyy-mm-dd
			t, err = time.Parse("2006-1-2", raw)
		}
		if err == nil {
			return &t
		}
	}
	return nil
}

func capitalizeMonth(s string) string {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 || len(parts[0]) == 0 {
		return s
	}
	return strings.ToUpper(parts[0][:1]) + parts[0][1:] + "-" + parts[1]
}

func matchSource(lowerFilename string) string {
	if strings.Contains(lowerFilename, "white-house") || strings.Contains(lowerFilename, "press-briefing") {
		return "White House"
	}
	for _, p := range sourcePatterns {
		if strings.Contains(lowerFilename, p.substr) {
			return p.name
		}
	}
	return ""
}

func matchFormat(lowerFilename string) string {
	for _, p := range formatPatterns {
		if strings.Contains(lowerFilename, p.substr) {
			return p.name
		}
	}
	return ""
}

func matchCandidate(lowerFilename string) string {
	for _, p := range candidatePatterns {
		if strings.Contains(lowerFilename, p.substr) {
			return p.name
		}
	}
	return ""
}

func matchPlace(lowerFilename string) string {
	for _, p := range placePatterns {
		if p.pattern.MatchString(lowerFilename) {
			return p.name
		}
	}
	return ""
}
