package extract

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExperience_NumericYearsInRange(t *testing.T) {
	for n := 1; n <= 30; n++ {
		got, ok := Experience(fmt.Sprintf("i have %d years in sales", n))
		assert.True(t, ok, "n=%d", n)
		assert.Equal(t, fmt.Sprintf("%d years", n), got)
	}
}

func TestExperience(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "bare years", input: "3 years", want: "3 years", wantOK: true},
		{name: "upper case input", input: "About 12 YEARS now", want: "12 years", wantOK: true},
		{name: "singular year", input: "1 year", want: "1 years", wantOK: true},
		{name: "yr abbreviation", input: "roughly 7 yrs", want: "7 years", wantOK: true},
		{name: "no space", input: "5years of b2b", want: "5 years", wantOK: true},
		{name: "two digit not confused", input: "11 years", want: "11 years", wantOK: true},
		{name: "months", input: "6 months so far", want: "6 months", wantOK: true},
		{name: "mos abbreviation", input: "18 mos", want: "18 months", wantOK: true},
		{name: "months upper bound", input: "35 months", want: "35 months", wantOK: true},
		{name: "months out of range", input: "36 months", wantOK: false},
		{name: "years out of range falls to keyword", input: "45 years, a seasoned rep", want: LevelExperienced, wantOK: true},
		{name: "years out of range not found", input: "45 years", wantOK: false},
		{name: "zero years not found", input: "0 years", wantOK: false},
		{name: "years preferred over months", input: "2 years and 3 months", want: "2 years", wantOK: true},
		{name: "numeric beats keyword", input: "i'm new, 2 years", want: "2 years", wantOK: true},
		{name: "beginner", input: "total novice here", want: LevelBeginner, wantOK: true},
		{name: "intermediate", input: "i have some experience", want: LevelIntermediate, wantOK: true},
		{name: "a few years", input: "a few years", want: LevelIntermediate, wantOK: true},
		{name: "experienced", input: "i'm a veteran closer", want: LevelExperienced, wantOK: true},
		{name: "beginner beats experienced", input: "beginner but my mentor is an expert", want: LevelBeginner, wantOK: true},
		{name: "more is not mo", input: "3 more calls", wantOK: false},
		{name: "nothing", input: "hello there", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Experience(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProduct(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "i sell", input: "I sell CRM software", want: "crm software", wantOK: true},
		{name: "selling with terminator", input: "we're selling solar panels. they are great", want: "solar panels", wantOK: true},
		{name: "comma terminator", input: "our product is a payroll tool, mostly for smbs", want: "a payroll tool", wantOK: true},
		{name: "question mark", input: "selling insurance?", want: "insurance", wantOK: true},
		{name: "earliest terminator wins", input: "selling a, b. c! d", want: "a", wantOK: true},
		{name: "newline terminator", input: "selling boats\nand more", want: "boats", wantOK: true},
		{name: "offer", input: "we offer consulting", want: "consulting", wantOK: true},
		{name: "empty remainder", input: "i'm selling", wantOK: false},
		{name: "only punctuation after", input: "selling.", wantOK: false},
		{name: "no indicator", input: "hello there", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Product(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProduct_CapsAtFiftyCharacters(t *testing.T) {
	got, ok := Product("selling " + strings.Repeat("x", 80) + " and more")
	assert.True(t, ok)
	assert.Equal(t, 50, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("x", 50), got)
}

func TestProduct_TrimsAfterTruncation(t *testing.T) {
	input := "selling " + strings.Repeat("a", 49) + " tail"
	got, ok := Product(input)
	assert.True(t, ok)
	assert.Equal(t, strings.Repeat("a", 49), got)
}

func TestMarket(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "businesses", input: "mostly businesses", want: MarketB2B, wantOK: true},
		{name: "b2b", input: "B2B", want: MarketB2B, wantOK: true},
		{name: "consumers", input: "regular consumers", want: MarketB2C, wantOK: true},
		{name: "retail", input: "retail shoppers", want: MarketB2C, wantOK: true},
		{name: "b2b wins over b2c", input: "companies and individuals", want: MarketB2B, wantOK: true},
		{name: "explicit pair resolves to b2b", input: "b2b and b2c", want: MarketB2B, wantOK: true},
		{name: "hybrid", input: "a hybrid model", want: MarketMixed, wantOK: true},
		{name: "both", input: "both really", want: MarketMixed, wantOK: true},
		{name: "none", input: "not sure", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Market(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
