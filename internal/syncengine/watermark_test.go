// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package syncengine

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestWatermarkStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync_watermark.json")
	store := NewWatermarkStore(path)
	ctx := context.Background()

	wm, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load (missing file): %v", err)
	}
	if wm.Segments != nil || wm.Events != nil {
		t.Fatalf("expected zero-value watermark, got %+v", wm)
	}

	now := time.Now().UTC().Truncate(time.Second)
	wm = wm.With("segments", now)
	if err := store.Save(ctx, wm); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Get("segments").Equal(now) {
		t.Fatalf("expected segments watermark %v, got %v", now, loaded.Get("segments"))
	}
	if !loaded.Get("events").IsZero() {
		t.Fatalf("expected events watermark unset, got %v", loaded.Get("events"))
	}
}

func TestWatermarkWithPreservesOtherIndex(t *testing.T) {
	var wm Watermark
	t1 := time.Now().UTC().Truncate(time.Second)
	wm = wm.With("segments", t1)
	t2 := t1.Add(time.Hour)
	wm = wm.With("events", t2)

	if !wm.Get("segments").Equal(t1) {
		t.Fatalf("segments watermark clobbered: %v", wm.Get("segments"))
	}
	if !wm.Get("events").Equal(t2) {
		t.Fatalf("events watermark wrong: %v", wm.Get("events"))
	}
}
