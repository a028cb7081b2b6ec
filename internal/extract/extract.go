// Package extract pulls structured sales-context facts out of free-text
// user messages. Every function is pure and reports absence with ok=false.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Experience levels returned by the keyword fallback.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelExperienced  = "experienced"
)

// Target markets.
const (
	MarketB2B   = "B2B"
	MarketB2C   = "B2C"
	MarketMixed = "mixed"
)

const (
	maxYears      = 30
	maxMonths     = 35
	maxProductLen = 50
)

var (
	yearsPattern  = regexp.MustCompile(`\b(\d+)\s*(?:years?|yrs?)\b`)
	monthsPattern = regexp.MustCompile(`\b(\d+)\s*(?:months?|mos?)\b`)
)

type bucket struct {
	level string
	terms []string
}

// Checked in order; the first bucket with a matching term wins.
var experienceBuckets = []bucket{
	{LevelBeginner, []string{"beginner", "new", "novice", "starting"}},
	{LevelIntermediate, []string{"intermediate", "some experience", "a few years"}},
	{LevelExperienced, []string{"experienced", "expert", "veteran", "seasoned", "senior"}},
}

var sellingIndicators = []string{
	"selling", "offer", "promote", "market", "sell", "product is", "service is",
	"i sell", "we sell", "i'm selling", "we're selling",
}

const productTerminators = ".!?,\n"

var (
	b2bTerms   = []string{"b2b", "business to business", "businesses", "companies", "corporations", "organizations"}
	b2cTerms   = []string{"b2c", "business to consumer", "consumers", "individuals", "people", "retail"}
	mixedTerms = []string{"both", "mix", "hybrid", "b2b and b2c", "b2c and b2b"}
)

// Experience returns "N years", "N months" or a keyword level. Numeric
// matches take priority; out-of-range numbers fall through to keywords.
func Experience(text string) (string, bool) {
	text = strings.ToLower(text)

	if n, ok := firstInRange(yearsPattern, text, maxYears); ok {
		return strconv.Itoa(n) + " years", true
	}
	if n, ok := firstInRange(monthsPattern, text, maxMonths); ok {
		return strconv.Itoa(n) + " months", true
	}

	for _, b := range experienceBuckets {
		if containsAny(text, b.terms) {
			return b.level, true
		}
	}
	return "", false
}

func firstInRange(re *regexp.Regexp, text string, max int) (int, bool) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= 1 && n <= max {
			return n, true
		}
	}
	return 0, false
}

// Product returns the phrase following the first selling indicator, cut at
// the first sentence terminator and capped at 50 characters.
func Product(text string) (string, bool) {
	text = strings.ToLower(text)

	for _, indicator := range sellingIndicators {
		idx := strings.Index(text, indicator)
		if idx < 0 {
			continue
		}

		rest := strings.TrimSpace(text[idx+len(indicator):])
		if cut := strings.IndexAny(rest, productTerminators); cut >= 0 {
			rest = rest[:cut]
		}
		if runes := []rune(rest); len(runes) > maxProductLen {
			rest = string(runes[:maxProductLen])
		}
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return "", false
		}
		return rest, true
	}
	return "", false
}

// Market classifies the target market. B2B terms are checked first, then
// B2C, then mixed; the order is the tie-break when several co-occur.
func Market(text string) (string, bool) {
	text = strings.ToLower(text)

	switch {
	case containsAny(text, b2bTerms):
		return MarketB2B, true
	case containsAny(text, b2cTerms):
		return MarketB2C, true
	case containsAny(text, mixedTerms):
		return MarketMixed, true
	}
	return "", false
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
