// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/cartographus/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

const testHTMLDoc = `<!DOCTYPE html>
<html><head><title>Remarks by the President</title></head>
<body>
<div class="field-item"><p><strong>THE PRESIDENT:</strong> Thank you all very much.</p></body></html>`

func setTestEnv(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("TRANSCRIPT_INDEX_DATABASE_URL", filepath.Join(dir, "content.duckdb"))
	t.Setenv("TRANSCRIPT_INDEX_MEILI_HOST", "http://127.0.0.1:0")
	t.Setenv("TRANSCRIPT_INDEX_MEILI_MASTER_KEY", "test-key")
	t.Setenv("TRANSCRIPT_INDEX_PROGRESS_STORE_DIR", filepath.Join(dir, "progress"))
	t.Setenv("TRANSCRIPT_INDEX_WATERMARK_PATH", filepath.Join(dir, "watermark.json"))
	t.Setenv("TRANSCRIPT_INDEX_LOG_FORMAT", "console")
}

func TestRunImportsHTMLDirectory(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "remarks.html"), []byte(testHTMLDoc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if code := run([]string{"html", src}); code != exitOK {
		t.Fatalf("run(html, %s) = %d, want %d", src, code, exitOK)
	}
}

func TestRunRejectsUnknownKind(t *testing.T) {
	setTestEnv(t, t.TempDir())
	if code := run([]string{"pdf", t.TempDir()}); code != exitConfigError {
		t.Fatalf("run(pdf, ...) = %d, want %d", code, exitConfigError)
	}
}

func TestRunRejectsMissingArgs(t *testing.T) {
	setTestEnv(t, t.TempDir())
	if code := run([]string{"html"}); code != exitConfigError {
		t.Fatalf("run(html) = %d, want %d", code, exitConfigError)
	}
}

func TestRunMissingConfigIsConfigError(t *testing.T) {
	t.Setenv("TRANSCRIPT_INDEX_DATABASE_URL", "")
	t.Setenv("TRANSCRIPT_INDEX_MEILI_HOST", "")
	t.Setenv("TRANSCRIPT_INDEX_MEILI_MASTER_KEY", "")

	if code := run([]string{"html", t.TempDir()}); code != exitConfigError {
		t.Fatalf("run(html, ...) = %d, want %d", code, exitConfigError)
	}
}
