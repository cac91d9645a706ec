// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus/internal/parse/vlos

package vlos

import "encoding/xml"

// vlosDocument mirrors the small subset of the Tweede Kamer VLOS schema
// (namespace http://www.tweedekamer.nl/ggm/vergaderverslag/v1.0) this
// parser needs. encoding/xml matches struct tags without a declared
// namespace against any namespace, so the namespace itself is never
// asserted here — every element named in spec §4.3 is optional, and a
// document missing one simply yields a nil pointer or empty slice.
type vlosDocument struct {
	XMLName     xml.Name    `xml:"vlosCoreDocument"`
	Vergadering vergadering `xml:"vergadering"`
}

type vergadering struct {
	Voorzitter  *voorzitter  `xml:"voorzitter"`
	Activiteiten []activiteit `xml:"activiteit"`
}

type voorzitter struct {
	Aanhef      string `xml:"aanhef"`
	Verslagnaam string `xml:"verslagnaam"`
}

type activiteit struct {
	Hoofd activiteitHoofd `xml:"activiteithoofd"`
}

type activiteitHoofd struct {
	MarkeerBegin string         `xml:"markeertijdbegin"`
	MarkeerEind  string         `xml:"markeertijdeind"`
	Deel         activiteitDeel `xml:"activiteitdeel"`
}

type activiteitDeel struct {
	Items []activiteitItem `xml:"activiteititem"`
}

type activiteitItem struct {
	Woordvoerder *woordvoerder `xml:"woordvoerder"`
	Tekst        *tekst        `xml:"tekst"`
}

type woordvoerder struct {
	Spreker *spreker `xml:"spreker"`
	Tekst   tekst    `xml:"tekst"`
}

type spreker struct {
	Aanhef      string `xml:"aanhef"`
	Verslagnaam string `xml:"verslagnaam"`
}

type tekst struct {
	Alineas []alinea `xml:"alinea"`
}

type alinea struct {
	Items []string `xml:"alineaitem"`
}

func (t tekst) joinedText() string {
	var parts []string
	for _, a := range t.Alineas {
		parts = append(parts, a.Items...)
	}
	return joinNonEmpty(parts)
}

func joinNonEmpty(parts []string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	result := ""
	for i, p := range out {
		if i > 0 {
			result += " "
		}
		result += p
	}
	return result
}
