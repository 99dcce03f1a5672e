package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SectionID derives a section identifier from its title: accents folded,
// lowercased and with all whitespace removed ("Metrics and Targets" becomes
// "metricsandtargets").
func SectionID(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), ""))
}
