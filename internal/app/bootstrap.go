// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package app holds the composition-root bootstrap shared by every
// command in the surface spec §6 names (sync, ingest, reindex): load
// config, init logging, open the Content Store and the Progress Bus's
// recovery store. Grounded on cmd/server/main.go's own
// config.Load -> logging.Init -> database.New sequence, generalized
// from one long-running server to several short-lived CLI commands
// that all need the same three steps.
package app

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/content"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/progressbus"
)

// EnvPrefix is the environment variable prefix every command loads
// configuration under (spec §6 "Configuration (environment)").
const EnvPrefix = "TRANSCRIPT_INDEX_"

// App bundles the process-wide dependencies a command needs. Callers
// must invoke Close when done.
type App struct {
	Config *config.Config
	DB     *content.DB
	Bus    *progressbus.Bus

	ctx       context.Context
	badgerDB  *badger.DB
	busCancel context.CancelFunc
}

// Bootstrap loads configuration, initializes logging, opens the Content
// Store, and starts a Progress Bus with BadgerDB-backed recovery,
// cancelling any job a prior crash left running (spec §4.8 "the startup
// path ... cancels any job left in running state").
//
// It returns a derived context carrying a fresh correlation ID
// (internal/logging's context.go helpers), which every caller should
// thread through the rest of the run so every log line for this process
// invocation can be correlated (SPEC_FULL.md "correlation/request-ID
// helpers threaded from HTTP/CLI entry points through the orchestrator
// and sync engine").
func Bootstrap(ctx context.Context) (context.Context, *App, error) {
	cfg, err := config.Load(EnvPrefix)
	if err != nil {
		return ctx, nil, fmt.Errorf("config error: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Timestamp: true,
	})

	ctx = logging.ContextWithNewCorrelationID(ctx)
	logging.CtxInfo(ctx).Msg("app: bootstrap starting")

	db, err := content.Open(cfg.DatabaseURL)
	if err != nil {
		return ctx, nil, fmt.Errorf("open content store: %w", err)
	}

	opts := badger.DefaultOptions(cfg.ProgressStoreDir)
	opts.Logger = nil
	badgerDB, err := badger.Open(opts)
	if err != nil {
		closeQuietly(ctx, db)
		return ctx, nil, fmt.Errorf("open progress store: %w", err)
	}
	store := progressbus.NewStore(badgerDB)

	bus := progressbus.NewBus()
	last, err := store.Load(ctx)
	if err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("app: failed to load persisted progress snapshot")
	}
	bus.RecoverOnStartup(last)

	busCtx, cancel := context.WithCancel(ctx)
	go bus.Run(busCtx)

	return ctx, &App{
		Config:    cfg,
		DB:        db,
		Bus:       bus,
		ctx:       ctx,
		badgerDB:  badgerDB,
		busCancel: cancel,
	}, nil
}

// ProgressStore opens a handle for persisting snapshots during this
// command's run (spec §4.4 "persisted opportunistically").
func (a *App) ProgressStore() *progressbus.Store {
	return progressbus.NewStore(a.badgerDB)
}

// Close releases every resource Bootstrap opened.
func (a *App) Close() {
	a.busCancel()
	closeQuietly(a.ctx, a.DB)
	if err := a.badgerDB.Close(); err != nil {
		logging.CtxErr(a.ctx, err).Msg("app: error closing progress store")
	}
}

func closeQuietly(ctx context.Context, db *content.DB) {
	if err := db.Close(); err != nil {
		logging.CtxErr(ctx, err).Msg("app: error closing content store")
	}
}
