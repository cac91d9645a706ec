// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus/internal/parse/html

// Package html parses Factba.se-style transcript HTML files into a
// uniform ParsedVideo (spec §4.2). Extraction is pure and regex/DOM
// driven: it never returns an error for malformed inner markup,
// recording a ParseWarning per unparseable segment instead.
package html

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/models"
)

// Parse reads r (the full contents of one transcript HTML file named
// filename) and returns its metadata and segments. The only error this
// returns comes from malformed top-level HTML that golang.org/x/net/html
// cannot tokenize at all; within a well-formed document, every
// extraction failure degrades to a warning instead of an error.
func Parse(r io.Reader, filename string) (*models.ParsedVideo, error) {
	start := time.Now()
	defer func() {
		metrics.ParseDuration.WithLabelValues("html").Observe(time.Since(start).Seconds())
	}()

	doc, err := html.Parse(r)
	if err != nil {
		metrics.ParseFailuresTotal.WithLabelValues("html").Inc()
		return nil, fmt.Errorf("parse html %q: %w", filename, err)
	}

	meta := extractVideoMetadata(doc, filepath.Base(filename))
	meta.Dataset = models.DatasetTrump
	meta.SourceType = models.SourceTypeHTML

	segments, warnings := extractSegments(doc)
	for _, w := range warnings {
		metrics.ParseWarningsTotal.WithLabelValues("html", w.Reason).Inc()
	}

	return &models.ParsedVideo{
		Metadata: meta,
		Segments: segments,
		Warnings: warnings,
	}, nil
}

// IsHTMLFile reports whether name has the extension this parser handles.
func IsHTMLFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".html") || strings.EqualFold(filepath.Ext(name), ".htm")
}
