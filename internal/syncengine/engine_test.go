// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package syncengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/cartographus/internal/content"
	"github.com/tomtom215/cartographus/internal/ingest"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/searchengine"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

const testHTMLDoc = `<!DOCTYPE html>
<html><head><title>Remarks by the President</title></head>
<body>
<div class="field-item"><p><strong>THE PRESIDENT:</strong> Thank you all very much.</p></body></html>`

func newTestDBWithOneSegment(t *testing.T) *content.DB {
	t.Helper()
	return newTestDBWithNSegments(t, 1)
}

// newTestDBWithNSegments ingests n single-segment videos, so the store
// ends up with n distinct (video, segment) pairs — one row each for the
// "segments" and "events" projections per video.
func newTestDBWithNSegments(t *testing.T, n int) *content.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := content.Open(filepath.Join(dir, "test.duckdb"))
	if err != nil {
		t.Fatalf("open content store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	root := t.TempDir()
	for i := 0; i < n; i++ {
		doc := fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>Remarks by the President %d</title></head>
<body>
<div class="mb-4 border-b mx-6 my-4" id="segment-%d"><h2 class="text-md inline">THE PRESIDENT</h2><div class="flex-auto text-md text-gray-600 leading-loose">Remarks number %d.</div></div></body></html>`, i, i, i)
		name := filepath.Join(root, fmt.Sprintf("remarks%d.html", i))
		if err := os.WriteFile(name, []byte(doc), 0o644); err != nil {
			t.Fatalf("write fixture %d: %v", i, err)
		}
	}
	orch := ingest.New(db, nil)
	if _, err := orch.Run(context.Background(), root, ingest.Options{}); err != nil {
		t.Fatalf("seed ingest: %v", err)
	}
	return db
}

type fakeEngineClient struct {
	nextTaskUID int64
	upsertCalls int
	failN       int // fail the first failN upsert calls
}

func (f *fakeEngineClient) CreateIndex(_ context.Context, _, _ string) (*searchengine.Task, error) {
	f.nextTaskUID++
	return &searchengine.Task{UID: f.nextTaskUID, Status: "succeeded"}, nil
}

func (f *fakeEngineClient) UpdateSettings(_ context.Context, _ string, _ searchengine.IndexSettings) (*searchengine.Task, error) {
	f.nextTaskUID++
	return &searchengine.Task{UID: f.nextTaskUID, Status: "succeeded"}, nil
}

func (f *fakeEngineClient) BulkUpsertDocuments(_ context.Context, _ string, _ interface{}) (*searchengine.Task, error) {
	f.upsertCalls++
	if f.upsertCalls <= f.failN {
		return nil, &searchengine.Error{Kind: searchengine.KindUnavailable, Message: "engine down"}
	}
	f.nextTaskUID++
	return &searchengine.Task{UID: f.nextTaskUID, Status: "succeeded"}, nil
}

func (f *fakeEngineClient) WaitForTask(_ context.Context, _ int64, _ time.Duration) (*searchengine.Task, error) {
	return &searchengine.Task{Status: "succeeded"}, nil
}

func TestIncrementalAdvancesWatermarkOnSuccess(t *testing.T) {
	db := newTestDBWithOneSegment(t)
	wm := NewWatermarkStore(filepath.Join(t.TempDir(), "watermark.json"))
	fake := &fakeEngineClient{}
	eng := New(db, fake, wm, nil)

	// One segment projects into one "segments" doc and, as the only
	// segment in its video, one "events" rollup doc too.
	result, err := eng.Incremental(context.Background(), 10)
	if err != nil {
		t.Fatalf("Incremental: %v", err)
	}
	if result.DocsSent != 2 || result.BatchesSent != 2 {
		t.Fatalf("expected one segments batch and one events batch, got %+v", result)
	}

	result2, err := eng.Incremental(context.Background(), 10)
	if err != nil {
		t.Fatalf("second Incremental: %v", err)
	}
	if result2.DocsSent != 0 {
		t.Fatalf("expected no docs sent on second immediate run, got %+v", result2)
	}
}

func TestIncrementalPagesAcrossMultipleBatches(t *testing.T) {
	const segmentCount = 3
	db := newTestDBWithNSegments(t, segmentCount)
	wm := NewWatermarkStore(filepath.Join(t.TempDir(), "watermark.json"))
	fake := &fakeEngineClient{}
	eng := New(db, fake, wm, nil)

	// batchSize smaller than the row count forces multiple pages per
	// index; a cursor that never advances would re-fetch the same page
	// forever, which this test bounds by never terminating.
	result, err := eng.Incremental(context.Background(), 1)
	if err != nil {
		t.Fatalf("Incremental: %v", err)
	}
	if result.DocsSent != 2*segmentCount {
		t.Fatalf("expected %d total docs across segments and events, got %+v", 2*segmentCount, result)
	}
	if result.BatchesSent != 2*segmentCount {
		t.Fatalf("expected %d single-row batches across segments and events, got %+v", 2*segmentCount, result)
	}

	// A second run against the now-advanced watermarks must not resend
	// anything, confirming the cursor reset between indices.
	result2, err := eng.Incremental(context.Background(), 1)
	if err != nil {
		t.Fatalf("second Incremental: %v", err)
	}
	if result2.DocsSent != 0 || result2.BatchesSent != 0 {
		t.Fatalf("expected no further docs sent, got %+v", result2)
	}
}

func TestIncrementalAbortsAfterThreeFailures(t *testing.T) {
	db := newTestDBWithOneSegment(t)
	wmPath := filepath.Join(t.TempDir(), "watermark.json")
	wm := NewWatermarkStore(wmPath)
	fake := &fakeEngineClient{failN: 10}
	eng := New(db, fake, wm, nil)

	_, err := eng.Incremental(context.Background(), 10)
	if err == nil {
		t.Fatal("expected abort error after repeated failures")
	}
	if fake.upsertCalls != maxConsecutiveFailures {
		t.Fatalf("expected %d upsert attempts, got %d", maxConsecutiveFailures, fake.upsertCalls)
	}

	loaded, loadErr := wm.Load(context.Background())
	if loadErr != nil {
		t.Fatalf("load watermark: %v", loadErr)
	}
	if loaded.Segments != nil {
		t.Fatalf("expected watermark unchanged on failure, got %v", loaded.Segments)
	}
}

func TestAsBadRequestTranslatesEngineError(t *testing.T) {
	err := &searchengine.Error{Kind: searchengine.KindBadRequest, Message: "index_already_exists"}
	if !errors.Is(asBadRequest(err), errIndexExists) {
		t.Fatal("expected bad-request engine error to translate to errIndexExists")
	}
}
