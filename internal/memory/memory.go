// Package memory keeps cross-section writing memory: personas, a glossary
// of recurring terms, and compact per-section summaries. Extraction is
// lexical and deterministic; no model calls happen here.
package memory

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/scribeworks/scribe/internal/outline"
)

const (
	maxPersonas      = 8
	maxGlossaryTerms = 64
	maxTermRunes     = 24
	maxKeywords      = 12
	topSummaries     = 3
	topGlossary      = 8
)

// GlossaryEntry is one deduplicated term with a sighting count.
type GlossaryEntry struct {
	Term      string `json:"term"`
	Note      string `json:"note"`
	Frequency int    `json:"frequency"`
}

// SectionSummary is the compact memory of one written section.
type SectionSummary struct {
	SectionID string    `json:"sectionId"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Keywords  []string  `json:"keywords"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// State is the long-term memory of a document run.
type State struct {
	Personas  []string         `json:"personas"`
	Glossary  []GlossaryEntry  `json:"glossary"`
	Summaries []SectionSummary `json:"sectionSummaries"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// New seeds memory from the confirmed outline, the user requirement and any
// pre-existing document text.
func New(o *outline.Outline, requirement, document string) *State {
	s := &State{UpdatedAt: time.Now()}
	if o != nil {
		if o.Audience != "" {
			s.addPersona("目标读者：" + o.Audience)
		}
		if o.Style != "" {
			s.addPersona("写作风格：" + o.Style)
		}
		if o.Theme != "" {
			s.addPersona("主题：" + o.Theme)
		}
	}
	for _, term := range ExtractTerms(requirement + "\n" + document) {
		s.addTerm(term, "来自写作需求")
	}
	return s
}

// Record updates memory after a section was written or revised. The summary
// is the first two non-heading lines of content, or the section description
// when content is empty. Existing summaries for the section are replaced.
func (s *State) Record(sec outline.Section, content string) {
	now := time.Now()

	for _, term := range ExtractTerms(content) {
		s.addTerm(term, fmt.Sprintf("见「%s」", sec.Title))
	}

	summary := firstLines(content, 2)
	if summary == "" {
		summary = sec.Description
	}
	keywords := Keywords(strings.Join(append([]string{sec.Title, sec.Description, summary}, sec.KeyPoints...), "\n"))

	entry := SectionSummary{
		SectionID: sec.ID,
		Title:     sec.Title,
		Summary:   summary,
		Keywords:  keywords,
		UpdatedAt: now,
	}
	for i := range s.Summaries {
		if s.Summaries[i].SectionID == sec.ID {
			s.Summaries[i] = entry
			s.UpdatedAt = now
			return
		}
	}
	s.Summaries = append(s.Summaries, entry)
	s.UpdatedAt = now
}

// ContextFor builds the retrieval block injected into a section's writing
// prompt: the top keyword-matching summaries of other sections plus the most
// relevant glossary terms.
func (s *State) ContextFor(sec outline.Section) string {
	want := Keywords(strings.Join(append([]string{sec.Title, sec.Description}, sec.KeyPoints...), "\n"))

	type scored struct {
		sum   SectionSummary
		score int
	}
	var hits []scored
	for _, sum := range s.Summaries {
		if sum.SectionID == sec.ID {
			continue
		}
		n := overlap(want, sum.Keywords)
		if n > 0 {
			hits = append(hits, scored{sum, n})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > topSummaries {
		hits = hits[:topSummaries]
	}

	terms := s.matchingTerms(want, topGlossary)

	if len(s.Personas) == 0 && len(terms) == 0 && len(hits) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("【长期记忆】\n")
	if len(s.Personas) > 0 {
		b.WriteString("角色与基调：\n")
		for _, p := range s.Personas {
			b.WriteString("- " + p + "\n")
		}
	}
	if len(terms) > 0 {
		b.WriteString("术语表：\n")
		for _, t := range terms {
			fmt.Fprintf(&b, "- %s：%s（出现 %d 次）\n", t.Term, t.Note, t.Frequency)
		}
	}
	if len(hits) > 0 {
		b.WriteString("相关章节摘要：\n")
		for _, h := range hits {
			fmt.Fprintf(&b, "-「%s」%s\n", h.sum.Title, strings.ReplaceAll(h.sum.Summary, "\n", " "))
		}
	}
	return b.String()
}

// matchingTerms returns up to limit glossary entries matching the wanted
// keywords, falling back to the most frequent terms when nothing matches.
func (s *State) matchingTerms(want []string, limit int) []GlossaryEntry {
	var matched []GlossaryEntry
	for _, g := range s.Glossary {
		lower := strings.ToLower(g.Term)
		for _, w := range want {
			if strings.Contains(lower, w) || strings.Contains(w, lower) {
				matched = append(matched, g)
				break
			}
		}
	}
	if len(matched) == 0 {
		matched = append(matched, s.Glossary...)
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Frequency > matched[j].Frequency })
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Merge combines two memory states: glossary frequencies accumulate, section
// summaries keep the most recent entry per section, keyword sets union.
func Merge(a, b *State) *State {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	out := &State{UpdatedAt: a.UpdatedAt}
	if b.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = b.UpdatedAt
	}

	for _, p := range append(append([]string{}, a.Personas...), b.Personas...) {
		out.addPersona(p)
	}

	for _, g := range a.Glossary {
		out.mergeTerm(g)
	}
	for _, g := range b.Glossary {
		out.mergeTerm(g)
	}

	byID := make(map[string]SectionSummary)
	var order []string
	for _, sum := range append(append([]SectionSummary{}, a.Summaries...), b.Summaries...) {
		prev, ok := byID[sum.SectionID]
		if !ok {
			byID[sum.SectionID] = sum
			order = append(order, sum.SectionID)
			continue
		}
		keep := sum
		if prev.UpdatedAt.After(sum.UpdatedAt) {
			keep = prev
		}
		keep.Keywords = unionKeywords(prev.Keywords, sum.Keywords)
		byID[sum.SectionID] = keep
	}
	for _, id := range order {
		out.Summaries = append(out.Summaries, byID[id])
	}
	return out
}

func (s *State) addPersona(p string) {
	p = strings.TrimSpace(p)
	if p == "" || len(s.Personas) >= maxPersonas {
		return
	}
	for _, existing := range s.Personas {
		if existing == p {
			return
		}
	}
	s.Personas = append(s.Personas, p)
}

// addTerm records one sighting of term, deduplicating case-insensitively.
func (s *State) addTerm(term, note string) {
	term = strings.TrimSpace(term)
	if term == "" || len([]rune(term)) > maxTermRunes {
		return
	}
	lower := strings.ToLower(term)
	for i := range s.Glossary {
		if strings.ToLower(s.Glossary[i].Term) == lower {
			s.Glossary[i].Frequency++
			return
		}
	}
	if len(s.Glossary) >= maxGlossaryTerms {
		return
	}
	s.Glossary = append(s.Glossary, GlossaryEntry{Term: term, Note: note, Frequency: 1})
}

// mergeTerm folds an already-counted entry in, accumulating frequency.
func (s *State) mergeTerm(g GlossaryEntry) {
	lower := strings.ToLower(g.Term)
	for i := range s.Glossary {
		if strings.ToLower(s.Glossary[i].Term) == lower {
			s.Glossary[i].Frequency += g.Frequency
			if s.Glossary[i].Note == "" {
				s.Glossary[i].Note = g.Note
			}
			return
		}
	}
	if len(s.Glossary) >= maxGlossaryTerms {
		return
	}
	s.Glossary = append(s.Glossary, g)
}

var (
	quotedPattern = regexp.MustCompile(`[「『《【“"]([^」』》】”"]{2,24})[」』》】”"]`)
	casedPattern  = regexp.MustCompile(`\b[A-Z][A-Za-z0-9]{2,23}\b`)
)

// ExtractTerms pulls glossary-term candidates from text: quoted or
// bracket-delimited phrases and capitalized ASCII tokens.
func ExtractTerms(text string) []string {
	var terms []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.TrimSpace(t)
		lower := strings.ToLower(t)
		if t == "" || seen[lower] {
			return
		}
		seen[lower] = true
		terms = append(terms, t)
	}

	for _, m := range quotedPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range casedPattern.FindAllString(text, -1) {
		add(m)
	}
	return terms
}

// stopwords filtered out of keyword sets. Single-rune entries also split
// CJK token runs.
var stopwords = map[string]bool{
	"的": true, "了": true, "是": true, "和": true, "与": true, "在": true,
	"对": true, "及": true, "或": true, "等": true, "中": true, "为": true,
	"并": true, "将": true, "把": true, "被": true, "而": true, "其": true,
	"这": true, "那": true, "有": true, "就": true, "都": true, "也": true,
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "are": true, "was": true, "not": true,
	"you": true, "your": true, "其中": true, "以及": true, "通过": true,
	"可以": true, "我们": true, "需要": true, "进行": true, "相关": true,
}

// Keywords tokenizes text, filters the stop-word list and deduplicates,
// returning at most maxKeywords lowercase keywords.
func Keywords(text string) []string {
	var keywords []string
	seen := make(map[string]bool)
	add := func(tok string) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || seen[tok] || stopwords[tok] {
			return
		}
		n := len([]rune(tok))
		if isASCII(tok) {
			if n < 3 {
				return
			}
		} else if n < 2 || n > 8 {
			return
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}

	for _, run := range splitRuns(text) {
		if isASCII(run) {
			add(run)
			continue
		}
		for _, sub := range splitOnStopRunes(run) {
			add(sub)
		}
	}
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// splitRuns splits text into maximal letter/number runs.
func splitRuns(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// splitOnStopRunes breaks a CJK run on single-rune stopwords.
func splitOnStopRunes(run string) []string {
	var parts []string
	var b strings.Builder
	for _, r := range run {
		if stopwords[string(r)] {
			if b.Len() > 0 {
				parts = append(parts, b.String())
				b.Reset()
			}
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// firstLines returns the first n non-empty, non-heading lines of content.
func firstLines(content string, n int) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, trimmed)
		if len(lines) == n {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func overlap(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	n := 0
	for _, w := range b {
		if set[w] {
			n++
		}
	}
	return n
}

func unionKeywords(a, b []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range append(append([]string{}, a...), b...) {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
