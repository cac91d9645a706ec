// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package metrics exposes Prometheus instrumentation for the transcript
// ingestion and sync pipeline: parser throughput, content-store writes,
// sync-engine circuit breaker state, and query latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Parser metrics (C2/C3).
	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parse_duration_seconds",
			Help:    "Duration of a single file parse",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"parser"}, // "html", "vlos"
	)

	ParseWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parse_warnings_total",
			Help: "Total number of segment-level parse warnings",
		},
		[]string{"parser", "reason"},
	)

	ParseFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parse_failures_total",
			Help: "Total number of files that failed to parse entirely",
		},
		[]string{"parser"},
	)

	// Content store metrics (C1).
	ContentStoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_store_query_duration_seconds",
			Help:    "Duration of DuckDB content store queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ContentStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_store_errors_total",
			Help: "Total number of content store query errors",
		},
		[]string{"operation"},
	)

	// Ingest orchestrator metrics (C4).
	IngestSegmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_segments_total",
			Help: "Total number of files handled by the ingest orchestrator, by outcome",
		},
		[]string{"dataset", "outcome"}, // outcome: "imported", "skipped", "error"
	)

	IngestJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_job_duration_seconds",
			Help:    "Duration of a complete ingest job",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600},
		},
		[]string{"dataset"},
	)

	IngestActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_active_workers",
			Help: "Current number of concurrent ingest workers",
		},
	)

	// Sync engine metrics (C6).
	SyncBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_batches_total",
			Help: "Total number of batches pushed to the search engine",
		},
		[]string{"outcome"},
	)

	SyncWatermarkLagSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_watermark_lag_seconds",
			Help: "Seconds between now and the last successful sync watermark",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Query translator metrics (C7).
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "query_duration_seconds",
			Help:    "Duration of a translated search query",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"}, // "lexical", "semantic", "hybrid"
	)

	QueryFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_fallbacks_total",
			Help: "Total number of queries that fell back to the relational store",
		},
		[]string{"reason"},
	)

	// Progress bus metrics (C8).
	ProgressBusClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "progress_bus_clients",
			Help: "Current number of connected progress bus clients",
		},
	)

	ProgressBusBroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_bus_broadcasts_total",
			Help: "Total number of snapshots broadcast to progress bus clients",
		},
	)
)
