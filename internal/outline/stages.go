package outline

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// planHeading marks the checklist of writing stages inside a markdown plan.
const planHeading = "阶段计划"

var stageLinePattern = regexp.MustCompile(`^\s*(?:\d+[.、)]|[-*])\s*\[[ xX]?\]\s*(.+)$`)

// ExtractPlanStageTitles reads a markdown plan and returns the titles of the
// checkbox stages listed under the "阶段计划" heading, in document order.
// Both "1. [ ] title" and "- [x] title" forms are accepted; the checkbox
// state is ignored.
func ExtractPlanStageTitles(markdown string) []string {
	var titles []string
	inPlan := false

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			inPlan = strings.Contains(heading, planHeading)
			continue
		}
		if !inPlan {
			continue
		}
		if m := stageLinePattern.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[1])
			if title != "" {
				titles = append(titles, title)
			}
		}
	}
	return titles
}

// StripStageMarker removes a leading stage-directive line from model output.
// A line counts as a marker when it names the current stage number
// ("第3阶段", "阶段3", "3."-style prefixes) or fuzzy-matches one of the known
// plan-stage titles. Text without such a leading line is returned unchanged,
// so the operation is idempotent.
func StripStageMarker(text string, stage int, stageTitles []string) string {
	first, rest, found := strings.Cut(text, "\n")
	line := strings.TrimSpace(first)
	if line == "" {
		return text
	}

	if matchesStageNumber(line, stage) || matchesStageTitle(line, stageTitles) {
		if !found {
			return ""
		}
		return strings.TrimLeft(rest, "\n")
	}
	return text
}

func matchesStageNumber(line string, stage int) bool {
	if stage <= 0 {
		return false
	}
	n := strconv.Itoa(stage)
	for _, form := range []string{"第" + n + "阶段", "第" + n + "步", "阶段" + n, "阶段 " + n} {
		if strings.Contains(line, form) {
			return true
		}
	}
	// Bare "3." / "3、" ordinal prefixes only count when the line looks like
	// a directive rather than body text: short and free of sentence
	// punctuation. A prose line can start with the right number too.
	if m := regexp.MustCompile(`^[【\[]?(\d+)[.、)\]】]`).FindStringSubmatch(line); m != nil {
		if m[1] == n && len([]rune(line)) <= 40 && !strings.ContainsAny(line, "，。；！？,;!?") {
			return true
		}
	}
	return false
}

func matchesStageTitle(line string, stageTitles []string) bool {
	norm := normalizeForMatch(line)
	if norm == "" {
		return false
	}
	for _, title := range stageTitles {
		t := normalizeForMatch(title)
		if t == "" {
			continue
		}
		if strings.Contains(norm, t) || strings.Contains(t, norm) {
			return true
		}
	}
	return false
}

// normalizeForMatch lowercases and drops punctuation, spaces, list markers
// and checkbox syntax so titles compare on their core characters only.
func normalizeForMatch(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
