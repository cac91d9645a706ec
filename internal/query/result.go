// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package query

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/content"
	"github.com/tomtom215/cartographus/internal/searchindex"
)

// Result is the normalized response shape returned by both the engine
// path and the SQL fallback path, so callers never see which one
// answered a given query (spec §4.7 "identical result shape to the
// engine path").
type Result struct {
	Hits       []searchindex.Document `json:"hits"`
	Page       int                    `json:"page"`
	TotalHits  int                    `json:"totalHits"`
	TotalPages int                    `json:"totalPages"`
	Mode       Mode                   `json:"mode"`
	Source     string                 `json:"source"` // "engine" or "sql_fallback"
}

// documentsFromEngineHits decodes the engine's raw map[string]interface{}
// hits back into the same searchindex.Document shape the Index
// Transformer produced, then fills in any field the engine dropped
// (null absent fields, computed overall moderation score).
func documentsFromEngineHits(hits []map[string]interface{}) ([]searchindex.Document, error) {
	docs := make([]searchindex.Document, 0, len(hits))
	for _, hit := range hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			return nil, err
		}
		var doc searchindex.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		normalize(&doc)
		docs = append(docs, doc)
	}
	return docs, nil
}

// normalize fills in the moderation overall score when the engine
// response omitted it: the max of the five fixed category scores (spec
// §4.5 "moderation.overall (max of the five fixed categories when
// absent)").
func normalize(doc *searchindex.Document) {
	if doc.Moderation.Overall != nil {
		return
	}
	cats := []searchindex.ModerationCategory{
		doc.Moderation.Harassment, doc.Moderation.Hate, doc.Moderation.SelfHarm,
		doc.Moderation.Sexual, doc.Moderation.Violence,
	}
	var max *float64
	for _, c := range cats {
		if c.Score == nil {
			continue
		}
		if max == nil || *c.Score > *max {
			v := *c.Score
			max = &v
		}
	}
	doc.Moderation.Overall = max
}

// documentsFromRows runs the SQL fallback rows through the same
// Transform the Index Transformer uses, so both paths share one
// projection (spec §4.7 "identical result shape").
func documentsFromRows(rows []content.SegmentWithVideo) []searchindex.Document {
	docs := make([]searchindex.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, searchindex.Transform(row))
	}
	return docs
}
