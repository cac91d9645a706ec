// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package ingest is the Ingest Orchestrator (C4): it walks a directory of
// HTML/VLOS-XML transcript files, dispatches each to the matching parser,
// and writes the result through the Content Store, reporting progress as
// it goes (spec §4.4). Grounded on the teacher's internal/import.Importer
// (bounded concurrency, resumable stats, cooperative cancellation).
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/cartographus/internal/content"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/models"
	"github.com/tomtom215/cartographus/internal/parse/html"
	"github.com/tomtom215/cartographus/internal/parse/vlos"
	"github.com/tomtom215/cartographus/internal/progressbus"
)

// Options configures one ingest job (spec §4.4 "{force_reimport,
// max_concurrency, dataset_tag}").
type Options struct {
	// ForceReimport reimports files that already exist by filename.
	ForceReimport bool
	// MaxConcurrency bounds the worker pool; clamped to [1, 10], default 4.
	MaxConcurrency int
	// DatasetTag, when non-empty, overrides every parsed file's Dataset.
	DatasetTag models.Dataset
}

func (o Options) concurrency() int64 {
	n := o.MaxConcurrency
	if n <= 0 {
		n = 4
	}
	if n > 10 {
		n = 10
	}
	return int64(n)
}

// FileError records one file's terminal failure.
type FileError struct {
	Filename string
	Err      error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

// Summary is the orchestrator's final result (spec §4.4 "{total,
// processed, failed, errors[]}").
type Summary struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
	Errors    []FileError
	Status    progressbus.Status
}

// Orchestrator runs ingest jobs against a Content Store, publishing
// progress through a Bus.
type Orchestrator struct {
	db  *content.DB
	bus *progressbus.Bus

	mu        sync.Mutex
	running   bool
	cancelled atomic.Bool
}

// New creates an Orchestrator. bus may be nil, in which case progress is
// tracked internally but never published.
func New(db *content.DB, bus *progressbus.Bus) *Orchestrator {
	return &Orchestrator{db: db, bus: bus}
}

// Cancel requests cooperative cancellation of the running job. In-flight
// files are allowed to finish (spec §4.4 "Cancellation").
func (o *Orchestrator) Cancel() {
	o.cancelled.Store(true)
}

// Run discovers every *.html/*.xml file under root and ingests it,
// returning a Summary once every file has been attempted or the job is
// cancelled.
func (o *Orchestrator) Run(ctx context.Context, root string, opts Options) (*Summary, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, errors.New("ingest: a job is already running")
	}
	o.running = true
	o.cancelled.Store(false)
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	files, err := discoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("discover ingest files: %w", err)
	}

	operation := "ingest"
	switch {
	case len(files) > 0 && strings.EqualFold(filepath.Ext(files[0]), ".xml"):
		operation = "ingest_xml"
	case len(files) > 0:
		operation = "ingest_html"
	}

	var job *progressbus.Job
	if o.bus != nil {
		job = o.bus.StartJob(operation, len(files), nil)
	}

	start := time.Now()
	sum := &Summary{Total: len(files)}
	sem := semaphore.NewWeighted(opts.concurrency())
	var mu sync.Mutex
	var wg sync.WaitGroup

	speakers := make(content.SpeakerCache)
	topics := make(content.TopicCache)
	var cacheMu sync.Mutex

	datasetLabel := string(opts.DatasetTag)
	if datasetLabel == "" {
		datasetLabel = "unspecified"
	}

	for _, path := range files {
		if o.cancelled.Load() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		metrics.IngestActiveWorkers.Inc()

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)
			defer metrics.IngestActiveWorkers.Dec()

			outcome, fileErr := o.ingestOne(ctx, path, opts, &cacheMu, speakers, topics)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSkipped:
				sum.Skipped++
				metrics.IngestSegmentsTotal.WithLabelValues(datasetLabel, "skipped").Inc()
			case outcomeFailed:
				sum.Failed++
				sum.Errors = append(sum.Errors, FileError{Filename: filepath.Base(path), Err: fileErr})
				metrics.IngestSegmentsTotal.WithLabelValues(datasetLabel, "error").Inc()
				logging.CtxErr(ctx, fileErr).Str("file", path).Msg("ingest: file failed")
			default:
				sum.Processed++
				metrics.IngestSegmentsTotal.WithLabelValues(datasetLabel, "imported").Inc()
			}

			if job != nil {
				job.Update(filepath.Base(path), outcome == outcomeImported, outcome == outcomeSkipped, errString(fileErr))
			}
		}(path)
	}
	wg.Wait()

	status := progressbus.StatusCompleted
	switch {
	case o.cancelled.Load():
		status = progressbus.StatusCancelled
	case sum.Failed > 0 && sum.Processed == 0 && sum.Skipped == 0:
		status = progressbus.StatusFailed
	}
	sum.Status = status

	if job != nil {
		job.Finish(status)
	}
	metrics.IngestJobDuration.WithLabelValues(datasetLabel).Observe(time.Since(start).Seconds())

	if status != progressbus.StatusCancelled && sum.Processed > 0 {
		if err := o.db.RecomputeAllSpeakerStats(ctx); err != nil {
			logging.CtxErr(ctx, err).Msg("ingest: recompute speaker stats failed")
		}
		if err := o.db.RecomputeAllTopicStats(ctx); err != nil {
			logging.CtxErr(ctx, err).Msg("ingest: recompute topic stats failed")
		}
	}

	return sum, nil
}

type fileOutcome int

const (
	outcomeImported fileOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func (o *Orchestrator) ingestOne(ctx context.Context, path string, opts Options, cacheMu *sync.Mutex, speakers content.SpeakerCache, topics content.TopicCache) (fileOutcome, error) {
	filename := filepath.Base(path)

	if !opts.ForceReimport {
		_, err := o.db.GetVideoByFilename(ctx, filename)
		if err == nil {
			return outcomeSkipped, nil
		}
		if !errors.Is(err, content.ErrVideoNotFound) {
			return outcomeFailed, fmt.Errorf("lookup %s: %w", filename, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return outcomeFailed, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	var parsed *models.ParsedVideo
	switch {
	case html.IsHTMLFile(filename):
		parsed, err = html.Parse(f, filename)
	case vlos.IsXMLFile(filename):
		parsed, err = vlos.Parse(f, filename)
	default:
		return outcomeFailed, fmt.Errorf("%s: unrecognized file type", filename)
	}
	if err != nil {
		return outcomeFailed, fmt.Errorf("parse %s: %w", filename, err)
	}

	if opts.DatasetTag != "" {
		parsed.Metadata.Dataset = opts.DatasetTag
	}

	cacheMu.Lock()
	_, err = o.db.IngestVideo(ctx, &parsed.Metadata, parsed.Segments, speakers, topics)
	cacheMu.Unlock()
	if err != nil {
		return outcomeFailed, fmt.Errorf("ingest %s: %w", filename, err)
	}
	return outcomeImported, nil
}

// discoverFiles walks root for *.html and *.xml files, sorted for
// deterministic job ordering.
func discoverFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if html.IsHTMLFile(d.Name()) || vlos.IsXMLFile(d.Name()) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
