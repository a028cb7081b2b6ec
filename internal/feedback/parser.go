// Package feedback turns a coach's feedback document into strengths and
// weaknesses and applies them to a user's skill profile.
package feedback

import (
	"strings"
)

// Heading markers of the feedback document.
const (
	StrengthsHeading    = "### Strengths"
	ImprovementsHeading = "### Areas for Improvement"
	headingPrefix       = "###"
)

const maxItemLen = 100

// Sections holds the items extracted from a feedback document.
type Sections struct {
	Strengths  []string
	Weaknesses []string
}

// SectionParser extracts strengths and weaknesses from free text. Parsers
// never fail; a missing section yields an empty list.
type SectionParser interface {
	Parse(text string) Sections
}

// MarkerParser reads sections introduced by fixed markdown headings.
type MarkerParser struct{}

// Parse implements SectionParser.
func (MarkerParser) Parse(text string) Sections {
	return Sections{
		Strengths:  items(section(text, StrengthsHeading)),
		Weaknesses: items(section(text, ImprovementsHeading)),
	}
}

// section returns the body between heading and the next heading marker.
func section(text, heading string) string {
	idx := strings.Index(text, heading)
	if idx < 0 {
		return ""
	}
	body := text[idx+len(heading):]
	if end := strings.Index(body, headingPrefix); end >= 0 {
		body = body[:end]
	}
	return body
}

// items splits a section body on dash bullets. A dash only starts a new
// item at the beginning of a line, so hyphenated words survive. Horizontal
// rules end the current item and are dropped.
func items(body string) []string {
	out := []string{}
	var cur strings.Builder
	flush := func() {
		if item := truncate(strings.TrimSpace(cur.String()), maxItemLen); item != "" {
			out = append(out, item)
		}
		cur.Reset()
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if isRule(trimmed) {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			flush()
			trimmed = strings.TrimSpace(strings.TrimLeft(trimmed, "-"))
		}
		if trimmed == "" {
			continue
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(trimmed)
	}
	flush()
	return out
}

// isRule reports whether line is a markdown thematic break such as "---",
// "***" or "- - -".
func isRule(line string) bool {
	var marker rune
	count := 0
	for _, r := range line {
		switch {
		case r == ' ' || r == '\t':
			continue
		case r != '-' && r != '*' && r != '_':
			return false
		case marker != 0 && r != marker:
			return false
		}
		marker = r
		count++
	}
	return count >= 3
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return strings.TrimSpace(string(r[:n]))
	}
	return s
}
