// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Command reindex forces a full re-projection into the search engine
// (spec §6 "reindex --engine=all|<name> [--batch-size=N]"): it resets
// the relevant watermark(s) to the zero time and runs the Sync Engine's
// incremental cycle, which then sees every row as "updated since" and
// re-upserts it. Duplicates collapse on the engine's primary key (spec
// §5 "at-least-once delivery ... duplicates collapse on primary key").
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

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
	fs := flag.NewFlagSet("reindex", flag.ContinueOnError)
	engineFlag := fs.String("engine", "all", "which projected index to rebuild: all, segments, or suggestions")
	batchSize := fs.Int("batch-size", 0, "rows fetched per batch (0 = config default)")
	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}

	switch *engineFlag {
	case "all", "segments", "suggestions":
	default:
		fmt.Fprintf(os.Stderr, "reindex: unknown --engine %q (want all, segments, or suggestions)\n", *engineFlag)
		return exitConfigError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx, a, err := app.Bootstrap(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reindex:", err)
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

	size := *batchSize
	if size <= 0 {
		size = a.Config.SyncBatchSize
	}

	if *engineFlag == "all" || *engineFlag == "segments" {
		if err := resetWatermark(ctx, watermarks, "segments"); err != nil {
			logging.CtxErr(ctx, err).Msg("reindex: failed to reset segments watermark")
			return exitRecoverable
		}
		logging.CtxInfo(ctx).Int("batch_size", size).Msg("reindex: rebuilding segments index from scratch")
		result, err := engine.Incremental(ctx, size)
		if err != nil {
			logging.CtxErr(ctx, err).Msg("reindex: segments rebuild failed")
			return exitRecoverable
		}
		logging.CtxInfo(ctx).
			Int("batches_sent", result.BatchesSent).
			Int("docs_sent", result.DocsSent).
			Msg("reindex: segments index rebuilt")
	}

	if *engineFlag == "all" || *engineFlag == "suggestions" {
		n, err := engine.SeedSuggestions(ctx, 0)
		if err != nil {
			logging.CtxErr(ctx, err).Msg("reindex: suggestions rebuild failed")
			return exitRecoverable
		}
		logging.CtxInfo(ctx).Int("count", n).Msg("reindex: suggestions index rebuilt")
	}

	return exitOK
}

// resetWatermark clears index's recorded watermark so the next
// Incremental cycle treats every row as eligible.
func resetWatermark(ctx context.Context, store *syncengine.WatermarkStore, index string) error {
	wm, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}
	wm = wm.With(index, time.Time{})
	return store.Save(ctx, wm)
}
