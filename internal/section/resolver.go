// Package section recovers the text a write step actually contributed to a
// live document. The writer mutates the document through tool calls instead
// of returning its output, so the pipeline reconstructs "what was written"
// from before/after snapshots.
package section

import (
	"strings"
	"unicode"
)

// Resolution strategies, in preference order.
const (
	StrategyHeading  = "heading"
	StrategyDelta    = "delta"
	StrategyDocument = "document"
)

// minHeadingRunes is the plausibility floor for heading-anchored extraction:
// below it, a delta more than twice as long wins.
const minHeadingRunes = 20

// Resolution is the recovered contribution of one write step.
type Resolution struct {
	Content  string
	Strategy string
}

// Resolve recovers the text written for the section titled title, given the
// document before and after the step and the titles of all later sections.
// Heading-anchored extraction is preferred; a prefix/suffix delta is the
// fallback, and the whole current document the last resort.
func Resolve(prevDoc, currDoc, title string, laterTitles []string) Resolution {
	heading := extractByHeading(currDoc, title, laterTitles)
	delta := extractByDelta(prevDoc, currDoc)

	switch {
	case heading != "" && delta != "":
		// Prefer the heading slice unless it is implausibly short while the
		// delta carries much more text.
		if runeLen(heading) < minHeadingRunes && runeLen(delta) > 2*runeLen(heading) {
			return Resolution{Content: delta, Strategy: StrategyDelta}
		}
		return Resolution{Content: heading, Strategy: StrategyHeading}
	case heading != "":
		return Resolution{Content: heading, Strategy: StrategyHeading}
	case delta != "":
		return Resolution{Content: delta, Strategy: StrategyDelta}
	default:
		return Resolution{Content: currDoc, Strategy: StrategyDocument}
	}
}

// ExtractHeading returns the heading-anchored slice of doc for the section
// titled title, or "" when no matching heading exists. It is the extraction
// half of Resolve, for callers that have no before/after pair.
func ExtractHeading(doc, title string, laterTitles []string) string {
	return extractByHeading(doc, title, laterTitles)
}

// extractByHeading slices from the last heading line matching title to just
// before the first subsequent line matching any later section's title.
func extractByHeading(doc, title string, laterTitles []string) string {
	lines := strings.Split(doc, "\n")

	start := -1
	for i, line := range lines {
		if headingMatches(line, title) {
			start = i
		}
	}
	if start < 0 {
		return ""
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		for _, later := range laterTitles {
			if headingMatches(lines[i], later) {
				end = i
				break
			}
		}
		if end != len(lines) {
			break
		}
	}

	return strings.TrimRight(strings.Join(lines[start:end], "\n"), "\n")
}

// headingMatches reports whether line is a heading for the given title,
// comparing normalized (case-insensitive, punctuation-stripped) text.
func headingMatches(line, title string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	isHeading := strings.HasPrefix(trimmed, "#")
	body := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))

	n, t := normalize(body), normalize(title)
	if t == "" || n == "" {
		return false
	}
	if n == t {
		return true
	}
	// A markdown heading also matches when the title is embedded in a longer
	// heading line ("## 第二章 方法" for title "方法").
	return isHeading && strings.Contains(n, t)
}

// extractByDelta returns the middle difference between prev and curr after
// removing their longest common prefix and suffix.
func extractByDelta(prev, curr string) string {
	p, c := []rune(prev), []rune(curr)

	prefix := 0
	for prefix < len(p) && prefix < len(c) && p[prefix] == c[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < len(p)-prefix && suffix < len(c)-prefix &&
		p[len(p)-1-suffix] == c[len(c)-1-suffix] {
		suffix++
	}

	return strings.TrimSpace(string(c[prefix : len(c)-suffix]))
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func runeLen(s string) int {
	return len([]rune(s))
}
