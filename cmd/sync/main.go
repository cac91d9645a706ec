// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Command sync drives the Sync Engine (C6): --init declares the search
// engine's indexes and settings, --incremental runs one watermark-driven
// batch cycle (spec §6 "sync --init" / "sync --incremental
// [--batch-size=N]").
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tomtom215/cartographus/internal/app"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/searchengine"
	"github.com/tomtom215/cartographus/internal/syncengine"
)

const (
	exitOK          = 0
	exitRecoverable = 1
	exitConfigError = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	initMode := fs.Bool("init", false, "create/adjust search engine indexes and settings")
	incremental := fs.Bool("incremental", false, "run one watermark-driven sync cycle")
	batchSize := fs.Int("batch-size", 0, "rows fetched per batch (0 = config default)")
	seedSuggestions := fs.Bool("seed-suggestions", false, "also seed the suggestions index after a successful run")
	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}
	if *initMode == *incremental {
		fmt.Fprintln(os.Stderr, "usage: sync --init | sync --incremental [--batch-size=N] [--seed-suggestions]")
		return exitConfigError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx, a, err := app.Bootstrap(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sync:", err)
		return exitConfigError
	}
	defer a.Close()

	client := searchengine.NewClient(searchengine.Config{
		Host:      a.Config.MeiliHost,
		MasterKey: a.Config.MeiliMasterKey,
		Timeout:   a.Config.MeiliTimeout,
	})
	engineClient := searchengine.NewBreakerClient(client)

	watermarks := syncengine.NewWatermarkStore(a.Config.WatermarkPath)
	engine := syncengine.New(a.DB, engineClient, watermarks, a.Bus)

	if *initMode {
		logging.CtxInfo(ctx).Str("host", a.Config.MeiliHost).Msg("sync: declaring indexes and settings")
		if err := engine.Init(ctx); err != nil {
			logging.CtxErr(ctx, err).Msg("sync: init failed")
			return classify(err)
		}
		logging.CtxInfo(ctx).Msg("sync: init complete")
		return exitOK
	}

	size := *batchSize
	if size <= 0 {
		size = a.Config.SyncBatchSize
	}

	logging.CtxInfo(ctx).Int("batch_size", size).Msg("sync: starting incremental cycle")
	result, err := engine.Incremental(ctx, size)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("sync: incremental cycle failed")
		return classify(err)
	}
	logging.CtxInfo(ctx).
		Int("batches_sent", result.BatchesSent).
		Int("docs_sent", result.DocsSent).
		Msg("sync: incremental cycle complete")

	if *seedSuggestions {
		n, err := engine.SeedSuggestions(ctx, 0)
		if err != nil {
			logging.CtxErr(ctx, err).Msg("sync: suggestions seeding failed")
			return classify(err)
		}
		logging.CtxInfo(ctx).Int("count", n).Msg("sync: suggestions seeded")
	}

	return exitOK
}

// classify maps an engine error to spec §6's exit codes: configuration
// errors (bad request, i.e. the caller's own filter/document shape is
// wrong) are not recoverable by retrying; everything else (timeouts,
// unavailability) is.
func classify(err error) int {
	var engineErr *searchengine.Error
	if errors.As(err, &engineErr) && engineErr.Kind == searchengine.KindBadRequest {
		return exitConfigError
	}
	return exitRecoverable
}
