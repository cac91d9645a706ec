// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/progressbus"
)

func setTestEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("TRANSCRIPT_INDEX_DATABASE_URL", filepath.Join(dir, "content.duckdb"))
	t.Setenv("TRANSCRIPT_INDEX_MEILI_HOST", "http://127.0.0.1:7700")
	t.Setenv("TRANSCRIPT_INDEX_MEILI_MASTER_KEY", "test-key")
	t.Setenv("TRANSCRIPT_INDEX_PROGRESS_STORE_DIR", filepath.Join(dir, "progress"))
	t.Setenv("TRANSCRIPT_INDEX_WATERMARK_PATH", filepath.Join(dir, "watermark.json"))
	t.Setenv("TRANSCRIPT_INDEX_LOG_FORMAT", "console")
}

func TestBootstrapOpensAndCloses(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	ctx, a, err := Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if logging.CorrelationIDFromContext(ctx) == "" {
		t.Fatal("Bootstrap did not stamp the returned context with a correlation ID")
	}
	if a.DB == nil || a.Bus == nil || a.Config == nil {
		t.Fatal("Bootstrap returned an incomplete App")
	}
	if a.Config.MeiliHost != "http://127.0.0.1:7700" {
		t.Fatalf("unexpected MeiliHost: %q", a.Config.MeiliHost)
	}

	if got := a.ProgressStore(); got == nil {
		t.Fatal("ProgressStore returned nil")
	}

	a.Close()
}

func TestBootstrapRecoversPersistedSnapshot(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	_, a, err := Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	job := a.Bus.StartJob("ingest", 10, a.ProgressStore().SaveFunc(context.Background()))
	job.Update("video1.html", true, false, "")
	a.Close()

	_, b, err := Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	defer b.Close()

	snap := b.Bus.Snapshot()
	if snap.Status != progressbus.StatusCancelled {
		t.Fatalf("expected a job left running by the prior process to be recovered as cancelled, got %q", snap.Status)
	}
}

func TestBootstrapRejectsMissingConfig(t *testing.T) {
	t.Setenv("TRANSCRIPT_INDEX_DATABASE_URL", "")
	t.Setenv("TRANSCRIPT_INDEX_MEILI_HOST", "")
	t.Setenv("TRANSCRIPT_INDEX_MEILI_MASTER_KEY", "")

	if _, _, err := Bootstrap(context.Background()); err == nil {
		t.Fatal("expected an error when required configuration is missing")
	}
}
