// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/cartographus/internal/content"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/progressbus"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

const testHTMLDoc = `<!DOCTYPE html>
<html><head><title>Remarks by the President</title></head>
<body>
<div class="field-item"><p><strong>THE PRESIDENT:</strong> Thank you all very much.</p></body></html>`

func newTestDB(t *testing.T) *content.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := content.Open(filepath.Join(dir, "test.duckdb"))
	if err != nil {
		t.Fatalf("open content store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOrchestratorRunImportsAndSkips(t *testing.T) {
	db := newTestDB(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "remarks.html"), []byte(testHTMLDoc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	orch := New(db, nil)
	sum, err := orch.Run(context.Background(), root, Options{MaxConcurrency: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Total != 1 || sum.Processed != 1 || sum.Failed != 0 {
		t.Fatalf("unexpected summary on first run: %+v", sum)
	}
	if sum.Status != progressbus.StatusCompleted {
		t.Fatalf("expected completed status, got %q", sum.Status)
	}

	sum2, err := orch.Run(context.Background(), root, Options{MaxConcurrency: 2})
	if err != nil {
		t.Fatalf("Run (second pass): %v", err)
	}
	if sum2.Skipped != 1 || sum2.Processed != 0 {
		t.Fatalf("expected second pass to skip existing file, got %+v", sum2)
	}
}

func TestOrchestratorRunForceReimport(t *testing.T) {
	db := newTestDB(t)
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "remarks.html"), []byte(testHTMLDoc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	orch := New(db, nil)
	if _, err := orch.Run(context.Background(), root, Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	sum, err := orch.Run(context.Background(), root, Options{ForceReimport: true})
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	if sum.Processed != 1 || sum.Skipped != 0 {
		t.Fatalf("expected forced reimport to reprocess the file, got %+v", sum)
	}
}

func TestOrchestratorRejectsConcurrentRun(t *testing.T) {
	db := newTestDB(t)
	orch := New(db, nil)
	orch.running = true

	_, err := orch.Run(context.Background(), t.TempDir(), Options{})
	if err == nil {
		t.Fatal("expected error when a job is already running")
	}
}
