// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

func fakeEngine(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	writeTask := func(w http.ResponseWriter, uid int) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"taskUid": uid, "status": "enqueued"})
	}
	mux.HandleFunc("/indexes/segments/documents", func(w http.ResponseWriter, r *http.Request) { writeTask(w, 1) })
	mux.HandleFunc("/indexes/suggestions/documents", func(w http.ResponseWriter, r *http.Request) { writeTask(w, 2) })
	mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "succeeded"})
	})
	return httptest.NewServer(mux)
}

func setTestEnv(t *testing.T, dir, engineURL string) {
	t.Helper()
	t.Setenv("TRANSCRIPT_INDEX_DATABASE_URL", filepath.Join(dir, "content.duckdb"))
	t.Setenv("TRANSCRIPT_INDEX_MEILI_HOST", engineURL)
	t.Setenv("TRANSCRIPT_INDEX_MEILI_MASTER_KEY", "test-key")
	t.Setenv("TRANSCRIPT_INDEX_PROGRESS_STORE_DIR", filepath.Join(dir, "progress"))
	t.Setenv("TRANSCRIPT_INDEX_WATERMARK_PATH", filepath.Join(dir, "watermark.json"))
	t.Setenv("TRANSCRIPT_INDEX_LOG_FORMAT", "console")
}

func TestRunRebuildsSegmentsOnly(t *testing.T) {
	srv := fakeEngine(t)
	defer srv.Close()
	setTestEnv(t, t.TempDir(), srv.URL)

	if code := run([]string{"--engine=segments"}); code != exitOK {
		t.Fatalf("run(--engine=segments) = %d, want %d", code, exitOK)
	}
}

func TestRunRebuildsSuggestionsOnly(t *testing.T) {
	srv := fakeEngine(t)
	defer srv.Close()
	setTestEnv(t, t.TempDir(), srv.URL)

	if code := run([]string{"--engine=suggestions"}); code != exitOK {
		t.Fatalf("run(--engine=suggestions) = %d, want %d", code, exitOK)
	}
}

func TestRunRebuildsAll(t *testing.T) {
	srv := fakeEngine(t)
	defer srv.Close()
	setTestEnv(t, t.TempDir(), srv.URL)

	if code := run([]string{"--engine=all"}); code != exitOK {
		t.Fatalf("run(--engine=all) = %d, want %d", code, exitOK)
	}
}

func TestRunRejectsUnknownEngine(t *testing.T) {
	setTestEnv(t, t.TempDir(), "http://127.0.0.1:0")
	if code := run([]string{"--engine=events"}); code != exitConfigError {
		t.Fatalf("run(--engine=events) = %d, want %d", code, exitConfigError)
	}
}
