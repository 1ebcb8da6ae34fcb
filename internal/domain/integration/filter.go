package integration

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ---------------------------------------------------------------------------
// 14 karat gold business filter
// ---------------------------------------------------------------------------

var (
	trendyolGoldMarkers = []string{"14 ayar", "14k", "14-k", "14 karat", "14kt", "14/585"}
	trendyolGoldPattern = regexp.MustCompile(`(?i)14\s*ayar|14\s*k`)

	ikasGoldMarkers = []string{"14 Ayar Altın", "14 AYAR ALTIN", "14 Ayar", "14 ayar altın", "14 AYAR"}
)

// foldTurkish lowercases with Turkish rules so that I/İ fold to ı/i.
// A Caser holds state and is built per call.
func foldTurkish(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

// IsTrendyolGold reports whether a Trendyol product name is 14 karat gold
func IsTrendyolGold(productName string) bool {
	name := foldTurkish(productName)
	for _, marker := range trendyolGoldMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return trendyolGoldPattern.MatchString(name)
}

// IsIkasGold reports whether an Ikas product name is 14 karat gold
func IsIkasGold(productName string) bool {
	name := foldTurkish(productName)
	for _, marker := range ikasGoldMarkers {
		if strings.Contains(name, foldTurkish(marker)) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Model code extraction
// ---------------------------------------------------------------------------

var modelCodePattern = regexp.MustCompile(`(?i)\b([A-Z]{2,}[0-9]+)\b`)

// ExtractModelCode returns the first model-code token (two or more letters
// followed by digits) found in a product name, uppercased. Returns "" if none.
func ExtractModelCode(productName string) string {
	m := modelCodePattern.FindStringSubmatch(productName)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
