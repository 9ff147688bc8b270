package rules

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Vital resource names.
const (
	ResourceHP        = "hp"
	ResourceSanity    = "sanity"
	ResourceHunger    = "hunger"
	ResourcePollution = "pollution"
)

// Authoring aliases. Spreadsheet content is written in Korean.
var statAliases = map[string]string{
	"감각":           StatPerception,
	"지성":           StatIntelligence,
	"지식":           StatIntelligence,
	"의지":           StatWillpower,
	StatPerception:   StatPerception,
	StatIntelligence: StatIntelligence,
	StatWillpower:    StatWillpower,
}

var resourceAliases = map[string]string{
	"체력":           ResourceHP,
	"정신력":         ResourceSanity,
	"허기":           ResourceHunger,
	"오염도":         ResourcePollution,
	"오염":           ResourcePollution,
	"감염":           ResourcePollution,
	"health":         ResourceHP,
	"infection":      ResourcePollution,
	ResourceHP:        ResourceHP,
	ResourceSanity:    ResourceSanity,
	ResourceHunger:    ResourceHunger,
	ResourcePollution: ResourcePollution,
}

// Normalize trims and NFC-normalizes authoring text. Sheets exports sometimes
// hand over decomposed Hangul, which would otherwise never match an alias.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Fold normalizes and case-folds a keyword for comparison.
func Fold(s string) string {
	return cases.Fold().String(Normalize(s))
}

// CanonicalStat resolves a stat alias to perception, intelligence or willpower.
func CanonicalStat(name string) (string, bool) {
	s, ok := statAliases[Fold(name)]
	return s, ok
}

// CanonicalResource resolves a resource alias to hp, sanity, hunger or pollution.
func CanonicalResource(name string) (string, bool) {
	r, ok := resourceAliases[Fold(name)]
	return r, ok
}

var displayNames = map[string]string{
	StatPerception:    "감각",
	StatIntelligence:  "지식",
	StatWillpower:     "의지",
	ResourceHP:        "체력",
	ResourceSanity:    "정신력",
	ResourceHunger:    "허기",
	ResourcePollution: "오염도",
}

// DisplayName returns the player-facing name of a canonical stat or resource.
func DisplayName(name string) string {
	if d, ok := displayNames[name]; ok {
		return d
	}
	return name
}
