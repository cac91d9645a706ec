// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package content is the relational Content Store (spec §4.1): the
// embedded DuckDB database holding videos, speakers, topics, transcript
// segments, and segment/topic edges. It also offers an in-process named
// lock (WithAdvisoryLock).
package content

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/cartographus/internal/logging"
)

// DB wraps the DuckDB connection backing the Content Store.
type DB struct {
	conn *sql.DB

	rapidfuzzAvailable bool

	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex

	// advisoryLocks emulates the Postgres advisory-lock based single-writer
	// coordination the original design assumed (spec §9 Open Question:
	// "how does a DuckDB-backed store serialize concurrent sync writers
	// without a server-side advisory lock RPC"). DuckDB has no such RPC,
	// so locks are held in-process; cross-process coordination is left to
	// the single-writer deployment model the Sync Engine and Ingest
	// Orchestrator already assume (only one of each runs against a given
	// database file at a time).
	advisoryLocks   map[string]*sync.Mutex
	advisoryLocksMu sync.Mutex
}

// Open creates or opens the DuckDB file at path and ensures schema,
// indexes, and the rapidfuzz extension (best-effort) are in place.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, runtime.NumCPU())

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{
		conn:          conn,
		stmtCache:     make(map[string]*sql.Stmt),
		advisoryLocks: make(map[string]*sync.Mutex),
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	if err := db.loadRapidFuzz(); err != nil {
		logging.Warn().Err(err).Msg("rapidfuzz extension unavailable, fuzzy search will use LIKE fallback")
	}

	if err := db.createSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

func (db *DB) loadRapidFuzz() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "INSTALL rapidfuzz FROM community; LOAD rapidfuzz;"); err != nil {
		db.rapidfuzzAvailable = false
		return err
	}
	db.rapidfuzzAvailable = true
	return nil
}

// IsRapidFuzzAvailable reports whether the rapidfuzz community extension
// loaded successfully; callers fall back to a LIKE-based search otherwise.
func (db *DB) IsRapidFuzzAvailable() bool {
	return db.rapidfuzzAvailable
}

// Conn returns the underlying *sql.DB for packages that need direct access.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close flushes the WAL and closes the connection.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		closeQuietly(stmt)
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("checkpoint before close failed")
	}
	return db.conn.Close()
}

// Checkpoint forces DuckDB to flush its WAL into the main database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "CHECKPOINT")
	return err
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithAdvisoryLock runs fn while holding the named in-process lock,
// serializing callers that request the same name (e.g. "sync:tweede_kamer").
func (db *DB) WithAdvisoryLock(name string, fn func() error) error {
	db.advisoryLocksMu.Lock()
	mu, ok := db.advisoryLocks[name]
	if !ok {
		mu = &sync.Mutex{}
		db.advisoryLocks[name] = mu
	}
	db.advisoryLocksMu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	return fn()
}

func closeQuietly(c interface{ Close() error }) {
	if c != nil {
		_ = c.Close()
	}
}
