// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package syncengine is the Sync Engine (C6): init (declare indexes and
// settings) and incremental (watermark-driven upsert) modes that project
// the Content Store into the search engine. Grounded on the teacher's
// internal/sync package (CircuitBreakerClient, watermark-loop shape of
// tautulli_sync.go), generalized from one playback-history source to
// two projected indexes (segments, events).
package syncengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Watermark is the spec-mandated on-disk sync state: "{events:
// iso_ts|null, segments: iso_ts|null}" (spec §6 "Persisted sync state"),
// written atomically (write-then-rename) and kept as a plain JSON file
// rather than a Content Store table — the Content Store is reserved for
// domain data, and the watermark is sync-process-local state (spec §3,
// §6).
type Watermark struct {
	Segments *time.Time `json:"segments"`
	Events   *time.Time `json:"events"`
}

// Get returns the watermark for one index ("segments" or "events"), or
// the zero time if none has been recorded.
func (w Watermark) Get(index string) time.Time {
	var t *time.Time
	switch index {
	case "segments":
		t = w.Segments
	case "events":
		t = w.Events
	}
	if t == nil {
		return time.Time{}
	}
	return *t
}

// With returns a copy of w with index's watermark set to t.
func (w Watermark) With(index string, t time.Time) Watermark {
	out := w
	switch index {
	case "segments":
		out.Segments = &t
	case "events":
		out.Events = &t
	}
	return out
}

// WatermarkStore persists a Watermark to a JSON file with write-then-
// rename atomicity (spec §6 "written atomically").
type WatermarkStore struct {
	path string
}

// NewWatermarkStore wraps the on-disk watermark file at path.
func NewWatermarkStore(path string) *WatermarkStore {
	return &WatermarkStore{path: path}
}

// Load reads the current watermark, returning a zero-value Watermark
// (both fields nil) if the file does not yet exist.
func (s *WatermarkStore) Load(_ context.Context) (Watermark, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Watermark{}, nil
	}
	if err != nil {
		return Watermark{}, fmt.Errorf("read watermark file: %w", err)
	}
	var w Watermark
	if err := json.Unmarshal(data, &w); err != nil {
		return Watermark{}, fmt.Errorf("decode watermark file: %w", err)
	}
	return w, nil
}

// Save writes w atomically: marshal to a sibling temp file, then rename
// over the target path, so a crash mid-write never corrupts the file a
// concurrent reader sees.
func (s *WatermarkStore) Save(_ context.Context, w Watermark) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal watermark: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watermark dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".watermark-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create watermark temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write watermark temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close watermark temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename watermark file into place: %w", err)
	}
	return nil
}
