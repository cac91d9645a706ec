// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package query

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/cartographus/internal/content"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/searchengine"
)

// segmentsIndex is the fixed index uid the Sync Engine (C6) upserts
// transcript documents into.
const segmentsIndex = "segments"

// defaultHybridRatio is the semantic weight used for ModeHybrid when the
// caller doesn't configure one (spec §4.7 "hybrid (configured default
// 0.5-0.6)").
const defaultHybridRatio = 0.55

// defaultSimilarTextChars caps the source text used to seed a fallback
// similarity search (spec §4.7 "hybrid search seeded with <=500 chars of
// source text").
const defaultSimilarTextChars = 500

// EngineClient is the subset of the search engine client the translator
// needs, letting tests substitute a fake without standing up HTTP.
type EngineClient interface {
	Search(ctx context.Context, indexUID string, req searchengine.SearchRequest) (*searchengine.SearchResponse, error)
	SimilarDocuments(ctx context.Context, indexUID, documentID string, limit int) (*searchengine.SearchResponse, error)
}

// Translator is the Query Translator (C7): it renders a FilterSpec into
// the engine's filter grammar, dispatches by mode, normalizes results,
// and falls back to the relational store when the engine is unreachable
// (spec §4.7).
type Translator struct {
	db     *content.DB
	engine EngineClient
	hybridRatio float64
}

// New builds a Translator. engine may be nil to force every query
// through the SQL fallback path (e.g. a deployment that never stood up a
// search engine).
func New(db *content.DB, engine EngineClient) *Translator {
	return &Translator{db: db, engine: engine, hybridRatio: defaultHybridRatio}
}

// Request is one search call (spec §4.7's parameter surface: free text,
// a FilterSpec, a mode, and pagination).
type Request struct {
	Text     string
	Filter   FilterSpec
	Mode     Mode
	Page     int
	PageSize int
}

// Query renders req, tries the engine, and falls back to the relational
// store on engine failure (spec §4.7 "Fallback: SQL query...when the
// engine is unreachable or errors").
func (t *Translator) Query(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	mode := req.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	defer func() {
		metrics.QueryDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	}()

	if t.engine != nil {
		result, err := t.queryEngine(ctx, req, mode)
		if err == nil {
			return result, nil
		}
		logging.Warn().Err(err).Msg("search engine query failed, falling back to relational store")
		metrics.QueryFallbacksTotal.WithLabelValues(fallbackReason(err)).Inc()
	}

	return t.querySQL(ctx, req, mode)
}

func (t *Translator) queryEngine(ctx context.Context, req Request, mode Mode) (*Result, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	hitsPerPage := req.PageSize
	if hitsPerPage <= 0 {
		hitsPerPage = 20
	}

	searchReq := searchengine.SearchRequest{
		Query:               req.Text,
		Filter:              req.Filter.ToFilterString(),
		Page:                page,
		HitsPerPage:         hitsPerPage,
		HybridSemanticRatio: semanticRatio(mode, t.hybridRatio),
	}
	if searchReq.HybridSemanticRatio != nil {
		searchReq.HybridEmbedder = "default"
	}

	resp, err := t.engine.Search(ctx, segmentsIndex, searchReq)
	if err != nil {
		return nil, err
	}

	docs, err := documentsFromEngineHits(resp.Hits)
	if err != nil {
		return nil, err
	}
	return &Result{
		Hits:       docs,
		Page:       resp.Page,
		TotalHits:  resp.TotalHits,
		TotalPages: resp.TotalPages,
		Mode:       mode,
		Source:     "engine",
	}, nil
}

func (t *Translator) querySQL(ctx context.Context, req Request, mode Mode) (*Result, error) {
	whereSQL, whereArgs := req.Filter.toSQLWhere()

	matchMode := content.MatchILike
	if t.db.IsRapidFuzzAvailable() {
		matchMode = content.MatchFuzzy
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	rows, total, err := t.db.SearchSegments(ctx, whereSQL, whereArgs, req.Text, matchMode, pageSize, offset)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return &Result{
		Hits:       documentsFromRows(rows),
		Page:       page,
		TotalHits:  total,
		TotalPages: totalPages,
		Mode:       mode,
		Source:     "sql_fallback",
	}, nil
}

// SimilarSegments finds segments like segmentID: the engine's native
// similar-documents endpoint first, falling back to a hybrid search
// seeded with the segment's own text when that endpoint is unavailable
// (spec §4.7 "similar_segments").
func (t *Translator) SimilarSegments(ctx context.Context, segmentID string, limit int) (*Result, error) {
	if limit <= 0 {
		limit = 10
	}

	if t.engine != nil {
		resp, err := t.engine.SimilarDocuments(ctx, segmentsIndex, segmentID, limit)
		if err == nil {
			docs, err := documentsFromEngineHits(resp.Hits)
			if err == nil {
				return &Result{Hits: docs, Page: 1, TotalHits: len(docs), TotalPages: 1, Mode: ModeSemantic, Source: "engine"}, nil
			}
		} else {
			logging.Warn().Err(err).Str("segment_id", segmentID).Msg("similar-documents lookup failed, falling back to seeded hybrid search")
			metrics.QueryFallbacksTotal.WithLabelValues(fallbackReason(err)).Inc()
		}
	}

	seg, err := t.db.GetSegmentByID(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	seedText := seg.TranscriptText
	if len(seedText) > defaultSimilarTextChars {
		seedText = seedText[:defaultSimilarTextChars]
	}

	if t.engine != nil {
		ratio := 1.0
		resp, err := t.engine.Search(ctx, segmentsIndex, searchengine.SearchRequest{
			Query:               seedText,
			Filter:              excludeSelfFilter(segmentID),
			HitsPerPage:         limit,
			HybridSemanticRatio: &ratio,
			HybridEmbedder:      "default",
		})
		if err == nil {
			docs, derr := documentsFromEngineHits(resp.Hits)
			if derr == nil {
				return &Result{Hits: docs, Page: 1, TotalHits: len(docs), TotalPages: 1, Mode: ModeSemantic, Source: "engine"}, nil
			}
		}
	}

	rows, _, err := t.db.SearchSegments(ctx, "ts.id != ?", []interface{}{seg.ID}, seedText, content.MatchFuzzy, limit, 0)
	if err != nil {
		return nil, err
	}
	return &Result{Hits: documentsFromRows(rows), Page: 1, TotalHits: len(rows), TotalPages: 1, Mode: ModeSemantic, Source: "sql_fallback"}, nil
}

func excludeSelfFilter(segmentID string) string {
	return `id != "` + segmentID + `"`
}

// fallbackReason classifies an engine error for the query_fallbacks_total
// metric's "reason" label.
func fallbackReason(err error) string {
	var engineErr *searchengine.Error
	if errors.As(err, &engineErr) {
		return string(engineErr.Kind)
	}
	return "unknown"
}
