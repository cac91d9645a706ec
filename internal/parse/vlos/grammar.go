// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus/internal/parse/vlos

package vlos

import (
	"regexp"
	"strings"
)

// labelStripPattern strips a leading speaker label ("De heer X (PARTY):",
// "Mevrouw X:", "De voorzitter:", "Minister van ... X:") from utterance
// text. It only ever matches at the start of the string, so an
// unrelated "Voorzitter." occurring mid-speech is left untouched
// (spec §4.3's "trailing Voorzitter. exception").
var labelStripPattern = regexp.MustCompile(
	`(?i)^\s*(?:De\s+(?:heer|mevrouw|voorzitter)|Mevrouw|Minister(?:\s+van\s+\S+)?|Staatssecretaris(?:\s+van\s+\S+)?)(?:\s+[^:]+)?\s*:\s*`,
)

// ladderPattern resolves a leading label into salutation, name, and
// party, applying the priority order spec §4.3 describes: member
// salutations first, then ministerial titles, then the chair.
var ladderPattern = regexp.MustCompile(
	`(?i)^\s*(De\s+heer|Mevrouw|Minister(?:\s+van\s+\S+)?|Staatssecretaris(?:\s+van\s+\S+)?|De\s+voorzitter)(?:\s+([^(:]+?))?(?:\s*\(([^)]+)\))?\s*:`,
)

// partyInLabelPattern recovers a party code in parentheses from a
// leading label, regardless of which salutation introduced it.
var partyInLabelPattern = regexp.MustCompile(`(?i)^\s*[^:(]*\(([^)]+)\)\s*:`)

var aanvangPattern = regexp.MustCompile(`(?i)Aanvang\s+([\d.]+)\s*uur`)
var sluitingPattern = regexp.MustCompile(`(?i)Sluiting\s+([\d.]+)\s*uur`)

// stripLabel removes a leading speaker label from raw utterance text.
func stripLabel(text string) string {
	return strings.TrimSpace(labelStripPattern.ReplaceAllString(text, ""))
}

// parseLadder applies the salutation priority ladder to a raw label,
// returning the matched salutation kind, the captured name (may be
// empty for a bare "De voorzitter:"), and any party found in
// parentheses.
func parseLadder(text string) (salutation, name, party string, ok bool) {
	m := ladderPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), normalizeParty(m[3]), true
}

// extractPartyFromLabel recovers a party code from a label even when
// the caller already has a speaker name from elsewhere in the document
// (e.g. the <spreker> element) and only needs the parenthetical.
func extractPartyFromLabel(text string) string {
	m := partyInLabelPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return normalizeParty(m[1])
}

// normalizeParty collapses dots and case the way spec §4.3 requires:
// "P.v.d.A." -> "PVDA", "ChristenUnie" -> "CHRISTENUNIE",
// "GroenLinks" -> "GROENLINKS"; hyphen/slash coalitions pass through
// uppercased verbatim since they contain no dots to collapse.
func normalizeParty(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(trimmed, ".", ""))
}

// isAdministrativeSpeaker reports whether name denotes the procedural
// session-administration narrator rather than an actual participant
// (spec's original implementation filters this out; see DESIGN.md).
func isAdministrativeSpeaker(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "Sessie-administratie")
}

// parseAttendees splits an "Aanwezig zijn ..." sentence into members
// and ministers, per spec §4.3's small grammar.
func parseAttendees(text string) (members, ministers []string) {
	rest := text
	for _, prefix := range []string{"Aanwezig zijn ", "aanwezig zijn "} {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), ".")

	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		low := strings.ToLower(part)
		switch {
		case strings.HasPrefix(low, "minister van "):
			ministers = append(ministers, strings.TrimSpace(part[len("minister van "):]))
		case strings.HasPrefix(low, "minister "):
			ministers = append(ministers, strings.TrimSpace(part[len("minister "):]))
		case strings.HasPrefix(low, "staatssecretaris van "):
			ministers = append(ministers, strings.TrimSpace(part[len("staatssecretaris van "):]))
		case strings.HasPrefix(low, "de heer "):
			members = append(members, strings.TrimSpace(part[len("de heer "):]))
		case strings.HasPrefix(low, "mevrouw "):
			members = append(members, strings.TrimSpace(part[len("mevrouw "):]))
		default:
			members = append(members, part)
		}
	}
	return members, ministers
}
