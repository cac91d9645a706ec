// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus/internal/parse/html

package html

import "regexp"

// Pre-compiled filename date patterns, tried in priority order (spec
// §4.2: "%B-%d-%Y, %m-%d-%Y, %Y-%m-%d").
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([a-z]+-\d{1,2}-\d{4})`),
	regexp.MustCompile(`(\d{1,2}-\d{1,2}-\d{4})`),
	regexp.MustCompile(`(\d{4}-\d{1,2}-\d{1,2})`),
}

var dateInTitlePattern = regexp.MustCompile(`([A-Z][a-z]+\s+\d{1,2},\s+\d{4})`)
var videoIDPattern = regexp.MustCompile(`/video/(\d+)/\d+-\d+\.jpg`)
var vimeoIDPattern = regexp.MustCompile(`player\.vimeo\.com/video/(\d+)`)
var timestampPattern = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2})-(\d{2}:\d{2}:\d{2})\s*\((\d+)\s*sec\)`)

type moderationField struct {
	key     string
	pattern *regexp.Regexp
}

// moderationPatterns mirrors the Python parser's field order so ties in
// the "first div to match wins" scan resolve identically.
var moderationPatterns = []moderationField{
	{"harassment", regexp.MustCompile(`Harassment\s+([\d.]+)`)},
	{"hate", regexp.MustCompile(`Hate\s+([\d.]+)`)},
	{"self_harm", regexp.MustCompile(`Self-?harm\s+([\d.]+)`)},
	{"sexual", regexp.MustCompile(`Sexual\s+([\d.]+)`)},
	{"violence", regexp.MustCompile(`Violence\s+([\d.]+)`)},
}

type readabilityField struct {
	key     string
	pattern *regexp.Regexp
}

var readabilityPatterns = []readabilityField{
	{"flesch_kincaid_grade", regexp.MustCompile(`Flesch-Kincaid Grade\s+([\d.]+)`)},
	{"gunning_fog_index", regexp.MustCompile(`Gunning Fog\s+([\d.]+)`)},
	{"coleman_liau_index", regexp.MustCompile(`Coleman-Liau\s+([\d.]+)`)},
	{"automated_readability_index", regexp.MustCompile(`Automated Readability\s+([\d.]+)`)},
	{"smog_index", regexp.MustCompile(`SMOG\s+([\d.]+)`)},
	{"flesch_reading_ease", regexp.MustCompile(`Flesch Reading Ease\s+([\d.]+)`)},
}

type stressPattern struct {
	pattern *regexp.Regexp
	level   string
}

// stressPatterns recognizes both the "Stress Score" and "StressLens"
// forms (spec §9 Open Question (a)).
var stressPatterns = []stressPattern{
	{regexp.MustCompile(`(?i)High Stress\s+([\d.]+)`), "high"},
	{regexp.MustCompile(`(?i)Medium Stress\s+([\d.]+)`), "medium"},
	{regexp.MustCompile(`(?i)Low Stress\s+([\d.]+)`), "low"},
	{regexp.MustCompile(`(?i)Stress Score\s+([\d.]+)`), "neutral"},
	{regexp.MustCompile(`(?i)StressLens\s+([\d.]+)`), "neutral"},
	{regexp.MustCompile(`(?i)Stress\s+([\d.]+)`), "neutral"},
}

var stressIndicatorPattern = regexp.MustCompile(`(?i).*stress.*`)
var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

type placePattern struct {
	pattern *regexp.Regexp
	name    string
}

// placePatterns is the fixed filename-driven place derivation table.
var placePatterns = []placePattern{
	{regexp.MustCompile(`white-house`), "White House"},
	{regexp.MustCompile(`mar-a-lago`), "Mar-a-Lago"},
	{regexp.MustCompile(`trump-tower`), "Trump Tower"},
	{regexp.MustCompile(`oval-office`), "Oval Office"},
	{regexp.MustCompile(`rose-garden`), "Rose Garden"},
	{regexp.MustCompile(`camp-david`), "Camp David"},
	{regexp.MustCompile(`florida`), "Florida"},
	{regexp.MustCompile(`texas`), "Texas"},
	{regexp.MustCompile(`california`), "California"},
	{regexp.MustCompile(`new-york`), "New York"},
	{regexp.MustCompile(`nevada`), "Nevada"},
	{regexp.MustCompile(`pennsylvania`), "Pennsylvania"},
	{regexp.MustCompile(`georgia`), "Georgia"},
	{regexp.MustCompile(`arizona`), "Arizona"},
	{regexp.MustCompile(`michigan`), "Michigan"},
	{regexp.MustCompile(`wisconsin`), "Wisconsin"},
	{regexp.MustCompile(`north-carolina`), "North Carolina"},
	{regexp.MustCompile(`ohio`), "Ohio"},
	{regexp.MustCompile(`virginia`), "Virginia"},
	{regexp.MustCompile(`iowa`), "Iowa"},
	{regexp.MustCompile(`new-hampshire`), "New Hampshire"},
	{regexp.MustCompile(`miami`), "Miami"},
	{regexp.MustCompile(`tampa`), "Tampa"},
	{regexp.MustCompile(`orlando`), "Orlando"},
	{regexp.MustCompile(`phoenix`), "Phoenix"},
	{regexp.MustCompile(`las-vegas`), "Las Vegas"},
	{regexp.MustCompile(`atlanta`), "Atlanta"},
	{regexp.MustCompile(`dallas`), "Dallas"},
	{regexp.MustCompile(`houston`), "Houston"},
	{regexp.MustCompile(`philadelphia`), "Philadelphia"},
	{regexp.MustCompile(`detroit`), "Detroit"},
	{regexp.MustCompile(`milwaukee`), "Milwaukee"},
	{regexp.MustCompile(`charlotte`), "Charlotte"},
	{regexp.MustCompile(`columbus`), "Columbus"},
	{regexp.MustCompile(`richmond`), "Richmond"},
	{regexp.MustCompile(`minden`), "Minden"},
	{regexp.MustCompile(`waco`), "Waco"},
	{regexp.MustCompile(`greenville`), "Greenville"},
	{regexp.MustCompile(`youngstown`), "Youngstown"},
	{regexp.MustCompile(`bedminster`), "Bedminster"},
	{regexp.MustCompile(`washington`), "Washington"},
}

type sourcePattern struct {
	substr string
	name   string
}

var sourcePatterns = []sourcePattern{
	{"fox-news", "Fox News"},
	{"cnn", "CNN"},
	{"nbc", "NBC"},
	{"abc", "ABC"},
	{"cbs", "CBS"},
	{"newsmax", "Newsmax"},
}

type formatPattern struct {
	substr string
	name   string
}

var formatPatterns = []formatPattern{
	{"political-rally", "Political Rally"},
	{"rally", "Political Rally"},
	{"press-briefing", "Press Briefing"},
	{"briefing", "Press Briefing"},
	{"interview", "Interview"},
	{"speech", "Speech"},
	{"remarks", "Remarks"},
	{"debate", "Debate"},
	{"town-hall", "Town Hall"},
	{"meeting", "Meeting"},
	{"conference", "Conference"},
}

type candidatePattern struct {
	substr string
	name   string
}

var candidatePatterns = []candidatePattern{
	{"donald-trump", "Donald Trump"},
	{"trump", "Donald Trump"},
	{"joe-biden", "Joe Biden"},
	{"biden", "Joe Biden"},
	{"kamala-harris", "Kamala Harris"},
	{"harris", "Kamala Harris"},
	{"mike-pence", "Mike Pence"},
	{"pence", "Mike Pence"},
	{"ron-desantis", "Ron DeSantis"},
	{"desantis", "Ron DeSantis"},
	{"nikki-haley", "Nikki Haley"},
	{"haley", "Nikki Haley"},
}

// recordTypeFor derives record_type from a resolved format (spec §4.2).
func recordTypeFor(format string) string {
	switch format {
	case "Press Briefing", "Remarks":
		return "Official Statement"
	case "Political Rally", "Speech":
		return "Campaign Event"
	case "Interview":
		return "Media Interview"
	case "Debate":
		return "Political Debate"
	case "Meeting", "Conference":
		return "Official Meeting"
	case "Town Hall":
		return "Public Forum"
	default:
		return ""
	}
}
