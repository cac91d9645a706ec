// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package syncengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/cartographus/internal/content"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/progressbus"
	"github.com/tomtom215/cartographus/internal/searchengine"
	"github.com/tomtom215/cartographus/internal/searchindex"
)

// EngineClient is the subset of searchengine.BreakerClient the Sync
// Engine depends on, kept as an interface so a second engine backend is
// a second implementation, not a rewrite (SPEC_FULL.md's "Supplemented
// Features" note on elasticsearch_service.py vs meili_sync.py).
type EngineClient interface {
	CreateIndex(ctx context.Context, uid, primaryKey string) (*searchengine.Task, error)
	UpdateSettings(ctx context.Context, indexUID string, settings searchengine.IndexSettings) (*searchengine.Task, error)
	BulkUpsertDocuments(ctx context.Context, indexUID string, documents interface{}) (*searchengine.Task, error)
	WaitForTask(ctx context.Context, uid int64, timeout time.Duration) (*searchengine.Task, error)
}

// indexNames are the indexes Init declares (spec §4.6 "segments,
// suggestions, optionally events").
var indexNames = []string{"segments", "suggestions", "events"}

const (
	defaultBatchSize  = 500
	maxConsecutiveFailures = 3
	taskWaitTimeout   = 300 * time.Second
)

// Engine runs the Sync Engine's init and incremental modes.
type Engine struct {
	db         *content.DB
	engine     EngineClient
	watermarks *WatermarkStore
	bus        *progressbus.Bus
}

// New creates an Engine.
func New(db *content.DB, engine EngineClient, watermarks *WatermarkStore, bus *progressbus.Bus) *Engine {
	return &Engine{db: db, engine: engine, watermarks: watermarks, bus: bus}
}

// Init declares every required index with its settings, idempotently
// (spec §4.6 "Init").
func (e *Engine) Init(ctx context.Context) error {
	for _, uid := range indexNames {
		primaryKey := "id"
		if uid == "suggestions" {
			primaryKey = "termId"
		}
		task, err := e.engine.CreateIndex(ctx, uid, primaryKey)
		if err != nil && !errors.Is(asBadRequest(err), errIndexExists) {
			return fmt.Errorf("create index %s: %w", uid, err)
		}
		if task != nil {
			if _, err := e.engine.WaitForTask(ctx, task.UID, taskWaitTimeout); err != nil {
				return fmt.Errorf("wait for create index %s: %w", uid, err)
			}
		}

		settingsTask, err := e.engine.UpdateSettings(ctx, uid, settingsFor(uid))
		if err != nil {
			return fmt.Errorf("update settings for %s: %w", uid, err)
		}
		if settingsTask != nil {
			if _, err := e.engine.WaitForTask(ctx, settingsTask.UID, taskWaitTimeout); err != nil {
				return fmt.Errorf("wait for settings %s: %w", uid, err)
			}
		}
	}
	logging.CtxInfo(ctx).Strs("indexes", indexNames).Msg("sync engine: init complete")
	return nil
}

var errIndexExists = errors.New("index_already_exists")

func asBadRequest(err error) error {
	var engineErr *searchengine.Error
	if errors.As(err, &engineErr) && engineErr.Kind == searchengine.KindBadRequest {
		return errIndexExists
	}
	return err
}

// settingsFor returns the declared attribute lists for one index (spec
// §4.6 "searchable, filterable, sortable, and displayed attribute
// lists; typo tolerance; pagination caps; synonyms and stopwords").
func settingsFor(indexUID string) searchengine.IndexSettings {
	switch indexUID {
	case "suggestions":
		return searchengine.IndexSettings{
			SearchableAttributes: []string{"text"},
			FilterableAttributes: []string{"kind"},
			SortableAttributes:   []string{"termId"},
			DisplayedAttributes:  []string{"termId", "kind", "text"},
			TypoTolerance:        &searchengine.TypoTolerance{Enabled: true},
			Pagination:           &searchengine.PaginationSettings{MaxTotalHits: 1000},
		}
	case "events":
		return searchengine.IndexSettings{
			SearchableAttributes: []string{"video_title", "topic"},
			FilterableAttributes: []string{
				"date", "format", "source", "candidate", "record_type", "topic",
				"moderation.flagged_count",
			},
			SortableAttributes: []string{
				"date", "segment_count", "word_count",
				"moderation.avg_overall", "moderation.max_overall",
				"stresslens.avg_score", "stresslens.max_score",
			},
			TypoTolerance: &searchengine.TypoTolerance{Enabled: true},
			Pagination:    &searchengine.PaginationSettings{MaxTotalHits: 10000},
			StopWords:     []string{},
			Synonyms:      map[string][]string{},
		}
	default: // segments
		return searchengine.IndexSettings{
			SearchableAttributes: []string{"text", "speaker", "video_title", "topic"},
			FilterableAttributes: []string{
				"date", "format", "source", "candidate", "record_type",
				"place.city", "place.state", "place.country",
				"topic", "topics.topic", "topics.score",
				"moderation.harassment.flag", "moderation.harassment.score",
				"moderation.hate.flag", "moderation.hate.score",
				"moderation.violence.flag", "moderation.violence.score",
				"moderation.sexual.flag", "moderation.sexual.score",
				"moderation.selfharm.flag", "moderation.selfharm.score",
				"stresslens.score", "stresslens.rank",
			},
			SortableAttributes: []string{
				"date", "video_seconds",
				"sentiment.vader.score", "sentiment.loughran.score", "sentiment.harvard.score",
			},
			TypoTolerance: &searchengine.TypoTolerance{Enabled: true},
			Pagination:    &searchengine.PaginationSettings{MaxTotalHits: 10000},
			StopWords:     []string{},
			Synonyms:      map[string][]string{},
		}
	}
}

// Result summarizes one incremental run.
type Result struct {
	BatchesSent int
	DocsSent    int
	Failed      bool
}

// fetchBatch loads and projects one offset-paged batch for one index.
// The returned slice's elements are already-transformed documents ready
// to hand to BulkUpsertDocuments.
type fetchBatch func(ctx context.Context, since time.Time, limit, offset int) ([]interface{}, error)

// Incremental runs one watermark-driven cycle over every index (spec
// §4.6 "Incremental"). Each index's watermark advances and is persisted
// independently, only after that index's own batches all succeeded
// (spec §5 "the Sync Engine's watermark advances only after all batches
// in a run succeeded"); a failing index aborts the whole run and leaves
// every watermark from that point on unchanged (spec §7
// "EngineUnavailable ... C6 aborts after 3 consecutive failed batches,
// leaves watermark unchanged").
func (e *Engine) Incremental(ctx context.Context, batchSize int) (*Result, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	wm, err := e.watermarks.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watermark: %w", err)
	}

	var job *progressbus.Job
	if e.bus != nil {
		job = e.bus.StartJob("sync_incremental", 0, nil)
	}

	result := &Result{}

	for _, idx := range []struct {
		name  string
		fetch fetchBatch
	}{
		{"segments", e.fetchSegmentsBatch},
		{"events", e.fetchEventsBatch},
	} {
		batches, docs, err := e.syncIndex(ctx, job, idx.name, wm.Get(idx.name), batchSize, idx.fetch)
		result.BatchesSent += batches
		result.DocsSent += docs
		if err != nil {
			result.Failed = true
			if job != nil {
				job.Finish(progressbus.StatusFailed)
			}
			return result, err
		}

		wm = wm.With(idx.name, time.Now())
		if err := e.watermarks.Save(ctx, wm); err != nil {
			return result, fmt.Errorf("persist %s watermark: %w", idx.name, err)
		}
	}

	metrics.SyncWatermarkLagSeconds.Set(0)
	if job != nil {
		job.Finish(progressbus.StatusCompleted)
	}
	return result, nil
}

// syncIndex pages through one index's watermark window with offset,
// bulk-upserting each batch, until a batch returns fewer than batchSize
// rows. A batch's failure is retried at the same offset (the window
// itself never changes during the run) up to maxConsecutiveFailures
// before the run aborts.
func (e *Engine) syncIndex(ctx context.Context, job *progressbus.Job, index string, since time.Time, batchSize int, fetch fetchBatch) (batchesSent, docsSent int, err error) {
	consecutiveFailures := 0
	offset := 0

	for {
		docs, err := fetch(ctx, since, batchSize, offset)
		if err != nil {
			return batchesSent, docsSent, fmt.Errorf("fetch %s since watermark: %w", index, err)
		}
		if len(docs) == 0 {
			break
		}

		task, uerr := e.engine.BulkUpsertDocuments(ctx, index, docs)
		if uerr == nil && task != nil {
			_, uerr = e.engine.WaitForTask(ctx, task.UID, taskWaitTimeout)
		}
		if uerr != nil {
			consecutiveFailures++
			metrics.SyncBatchesTotal.WithLabelValues("failed").Inc()
			logging.CtxErr(ctx, uerr).Str("index", index).Int("consecutive_failures", consecutiveFailures).Msg("sync engine: batch failed")
			if job != nil {
				job.Update(index, false, false, uerr.Error())
			}
			if consecutiveFailures >= maxConsecutiveFailures {
				return batchesSent, docsSent, fmt.Errorf("aborting %s sync after %d consecutive failed batches: %w", index, consecutiveFailures, uerr)
			}
			continue
		}

		consecutiveFailures = 0
		batchesSent++
		docsSent += len(docs)
		offset += len(docs)
		metrics.SyncBatchesTotal.WithLabelValues("success").Inc()
		if job != nil {
			job.Update(index, true, false, "")
		}

		if len(docs) < batchSize {
			break
		}
	}
	return batchesSent, docsSent, nil
}

func (e *Engine) fetchSegmentsBatch(ctx context.Context, since time.Time, limit, offset int) ([]interface{}, error) {
	rows, err := e.db.FetchSegmentsSinceWithVideo(ctx, since, limit, offset)
	if err != nil {
		return nil, err
	}
	docs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, searchindex.Transform(row))
	}
	return docs, nil
}

func (e *Engine) fetchEventsBatch(ctx context.Context, since time.Time, limit, offset int) ([]interface{}, error) {
	rollups, err := e.db.FetchVideoRollupsSince(ctx, since, limit, offset)
	if err != nil {
		return nil, err
	}
	docs := make([]interface{}, 0, len(rollups))
	for _, r := range rollups {
		docs = append(docs, searchindex.TransformEvent(r))
	}
	return docs, nil
}
