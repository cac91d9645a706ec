// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package searchindex

import (
	"math/rand"
	"strings"
	"unicode"
)

// detectSeed fixes the tie-breaking RNG so DetectLanguage is reproducible
// across runs, grounded on the teacher's seeded-rand.Rand idiom in
// internal/recommend/engine.go (there used for deterministic shuffling,
// here for deterministic tie-breaks between equally-scored languages).
const detectSeed = 20260101

// DetectLanguage's closed set of return codes (spec §4.5): en, nl, de,
// fr, es, it, pt, pl, ru, zh, ja, ko, ar.

// scriptRange trigrams are not needed for non-Latin scripts: a single
// Unicode range scan identifies them unambiguously.
func detectByScript(text string) (string, bool) {
	var han, hiragana, hangul, cyrillic, arabic, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			hiragana++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.IsLetter(r):
			latin++
		}
	}
	switch {
	case hangul > 0 && hangul >= latin:
		return "ko", true
	case hiragana > 0 && hiragana >= latin:
		return "ja", true
	case han > 0 && han >= latin:
		return "zh", true
	case cyrillic > 0 && cyrillic >= latin:
		return "ru", true
	case arabic > 0 && arabic >= latin:
		return "ar", true
	}
	return "", false
}

// stopwords is the fallback frequency table across the five Latin-script
// languages the spec names explicitly (spec §4.5 "a stopword-frequency
// heuristic across en/nl/de/fr/es"). Italian and Portuguese share the
// Latin-script fallback path through their own stopword sets so the
// closed set's remaining codes are still reachable.
var stopwords = map[string][]string{
	"en": {"the", "and", "of", "to", "in", "is", "that", "for", "on", "with", "as", "was", "are", "this"},
	"nl": {"de", "het", "een", "van", "en", "is", "dat", "voor", "op", "met", "zijn", "niet", "aan"},
	"de": {"der", "die", "das", "und", "ist", "von", "zu", "den", "mit", "sich", "auf", "ein", "nicht"},
	"fr": {"le", "la", "les", "de", "et", "est", "des", "pour", "dans", "que", "un", "une", "sur"},
	"es": {"el", "la", "los", "de", "y", "es", "para", "en", "que", "un", "una", "con", "por"},
	"it": {"il", "la", "di", "e", "che", "per", "un", "una", "con", "non", "sono", "del"},
	"pt": {"o", "a", "os", "de", "e", "que", "para", "em", "um", "uma", "com", "não"},
	"pl": {"i", "w", "na", "z", "do", "jest", "to", "nie", "się", "że", "dla"},
}

// DetectLanguage classifies text into the closed set {en,nl,de,fr,es,it,
// pt,pl,ru,zh,ja,ko,ar}. Short texts default to "en" (spec §4.5). Primary
// detection is script-based for non-Latin alphabets; the remaining
// Latin-script languages fall back to stopword-frequency scoring.
func DetectLanguage(text string) string {
	if len(strings.TrimSpace(text)) < 10 {
		return "en"
	}
	if lang, ok := detectByScript(text); ok {
		return lang
	}
	return detectByStopwords(text)
}

func detectByStopwords(text string) string {
	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	if len(words) == 0 {
		return "en"
	}

	counts := make(map[string]int, len(stopwords))
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}
	for lang, list := range stopwords {
		for _, sw := range list {
			if present[sw] {
				counts[lang]++
			}
		}
	}

	best := ""
	bestScore := -1
	var ties []string
	for _, lang := range []string{"en", "nl", "de", "fr", "es", "it", "pt", "pl"} {
		c := counts[lang]
		if c > bestScore {
			bestScore = c
			best = lang
			ties = []string{lang}
		} else if c == bestScore {
			ties = append(ties, lang)
		}
	}
	if bestScore <= 0 {
		return "en"
	}
	if len(ties) > 1 {
		rng := rand.New(rand.NewSource(detectSeed)) //nolint:gosec // deterministic tie-break only, not security-sensitive
		best = ties[rng.Intn(len(ties))]
	}
	return best
}
