// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Command ingest runs a bulk ingest job against the Content Store (spec
// §6 "ingest (html|xml) <dir> [--force] [--concurrency=N]"). It is a
// thin composition root over the Ingest Orchestrator (C4); all
// discovery, parsing, deduplication, and progress reporting live there.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tomtom215/cartographus/internal/app"
	"github.com/tomtom215/cartographus/internal/ingest"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/models"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// Exit codes (spec §6): 0 success, 1 recoverable failure, 2 configuration
// error.
const (
	exitOK          = 0
	exitRecoverable = 1
	exitConfigError = 2
)

func run(args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ingest (html|xml) <dir> [--force] [--concurrency=N] [--dataset=trump|tweede_kamer|video_library]")
		return exitConfigError
	}

	kind := args[0]
	if kind != "html" && kind != "xml" {
		fmt.Fprintf(os.Stderr, "ingest: unknown source kind %q (want html or xml)\n", kind)
		return exitConfigError
	}
	dir := args[1]

	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	force := fs.Bool("force", false, "reimport files that already exist by filename")
	concurrency := fs.Int("concurrency", 4, "bounded worker pool size (1-10)")
	dataset := fs.String("dataset", "", "dataset tag override: trump, tweede_kamer, or video_library")
	if err := fs.Parse(args[2:]); err != nil {
		return exitConfigError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx, a, err := app.Bootstrap(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ingest:", err)
		return exitConfigError
	}
	defer a.Close()

	opts := ingest.Options{
		ForceReimport:  *force,
		MaxConcurrency: *concurrency,
		DatasetTag:     models.Dataset(*dataset),
	}

	orchestrator := ingest.New(a.DB, a.Bus)

	logging.CtxInfo(ctx).Str("kind", kind).Str("dir", dir).Bool("force", opts.ForceReimport).
		Int("concurrency", opts.MaxConcurrency).Msg("ingest: starting run")

	summary, err := orchestrator.Run(ctx, dir, opts)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("ingest: run failed")
		return exitRecoverable
	}

	logging.CtxInfo(ctx).
		Int("total", summary.Total).
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Str("status", string(summary.Status)).
		Msg("ingest: run finished")

	for _, fe := range summary.Errors {
		logging.CtxWarn(ctx).Str("file", fe.Filename).Err(fe.Err).Msg("ingest: file error")
	}

	if summary.Failed > 0 && summary.Processed == 0 && summary.Skipped == 0 {
		return exitRecoverable
	}
	return exitOK
}
