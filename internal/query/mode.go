// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package query

// Mode selects how a query blends lexical and semantic matching (spec
// §4.7 "Mode dispatch: lexical (no semantic component), semantic
// (hybrid ratio 1), hybrid (configured default 0.5-0.6)").
type Mode string

const (
	ModeLexical  Mode = "lexical"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid"
)

// semanticRatio returns the hybridSemanticRatio to send for mode, or nil
// when the request carries no semantic component at all.
func semanticRatio(mode Mode, defaultHybridRatio float64) *float64 {
	switch mode {
	case ModeLexical:
		return nil
	case ModeSemantic:
		ratio := 1.0
		return &ratio
	case ModeHybrid:
		ratio := defaultHybridRatio
		return &ratio
	default:
		return nil
	}
}
