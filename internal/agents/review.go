package agents

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/scribeworks/scribe/internal/llmjson"
	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/outline"
)

// reviewSchemaKeys identify a review object among JSON candidates.
var reviewSchemaKeys = []string{"sectionFeedback", "overallScore"}

// ReviewTeam produces one authoritative ReviewFeedback per round from two
// independently-sampled opinions: a balanced reviewer and a stricter
// critic, reconciled by a temperature-zero arbiter. A single pass is both
// under-sensitive to subtle problems and over-sensitive to cosmetic ones;
// the arbitrated pair avoids both without depending on the arbiter call
// succeeding (a deterministic merge backs it up).
type ReviewTeam struct {
	Reviewer model.Client
	Critic   model.Client
	Arbiter  model.Client

	ReviewerOpts model.Options
	CriticOpts   model.Options
	ArbiterOpts  model.Options
}

// ConsensusResult is the arbitrated feedback plus the disagreement measures
// the quality gate consumes.
type ConsensusResult struct {
	Final         *ReviewFeedback
	Conflicts     int
	AgreementRate float64
}

// Review runs both passes against the same document snapshot, measures
// disagreement, and arbitrates. focusSectionID, when non-empty, scopes the
// review to a single section.
func (t *ReviewTeam) Review(ctx context.Context, doc string, o *outline.Outline, round int, focusSectionID string) (*ConsensusResult, error) {
	balanced := t.pass(ctx, t.Reviewer, t.ReviewerOpts, doc, o, round, focusSectionID, LensBalanced)
	critical := t.pass(ctx, t.Critic, t.CriticOpts, doc, o, round, focusSectionID, LensCritical)

	conflicts := ConflictCount(balanced, critical, o)
	agreement := 1.0
	if n := len(o.Sections); n > 0 {
		agreement = 1 - float64(conflicts)/float64(n)
	}

	final := t.arbitrate(ctx, balanced, critical)
	final.Round = round
	final.OverallScore = clampScore(final.OverallScore)

	return &ConsensusResult{Final: final, Conflicts: conflicts, AgreementRate: agreement}, nil
}

// pass runs one reviewer with the given lens. A failed call or unparseable
// response degrades to neutral feedback so the run can proceed.
func (t *ReviewTeam) pass(ctx context.Context, client model.Client, opts model.Options, doc string, o *outline.Outline, round int, focusSectionID, lens string) *ReviewFeedback {
	reply, err := client.Generate(ctx, reviewerSystem, BuildReviewPrompt(doc, o, round, focusSectionID, lens), opts)
	if err != nil {
		return NeutralFeedback(round)
	}
	var fb ReviewFeedback
	if err := llmjson.Decode(reply.Text, &fb, reviewSchemaKeys...); err != nil {
		return NeutralFeedback(round)
	}
	fb.Round = round
	fb.OverallScore = clampScore(fb.OverallScore)
	return &fb
}

// arbitrate merges both passes through the arbiter, falling back to the
// deterministic merge when the call or its parsing fails.
func (t *ReviewTeam) arbitrate(ctx context.Context, a, b *ReviewFeedback) *ReviewFeedback {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return FallbackMerge(a, b)
	}

	reply, err := t.Arbiter.Generate(ctx, arbiterSystem, BuildArbiterPrompt(string(aJSON), string(bJSON)), t.ArbiterOpts)
	if err != nil {
		return FallbackMerge(a, b)
	}
	var merged ReviewFeedback
	if err := llmjson.Decode(reply.Text, &merged, reviewSchemaKeys...); err != nil {
		return FallbackMerge(a, b)
	}
	return &merged
}

// NeutralFeedback is the degraded result of an unusable review pass: no
// revision requested, middling score, so the pipeline proceeds instead of
// aborting.
func NeutralFeedback(round int) *ReviewFeedback {
	return &ReviewFeedback{Round: round, OverallScore: 6}
}

// ConflictCount counts the outline sections on which the two passes
// disagree about needsRevision.
func ConflictCount(a, b *ReviewFeedback, o *outline.Outline) int {
	conflicts := 0
	for _, sec := range o.Sections {
		if a.SectionNeedsRevision(sec.ID) != b.SectionNeedsRevision(sec.ID) {
			conflicts++
		}
	}
	return conflicts
}

// FallbackMerge deterministically merges two review passes: per-section
// issues and suggestions union with case-insensitive de-duplication,
// needsRevision flags OR, overall scores average and round, coherence
// issues and global suggestions union.
func FallbackMerge(a, b *ReviewFeedback) *ReviewFeedback {
	merged := &ReviewFeedback{
		Round:             a.Round,
		OverallScore:      clampScore(int(math.Round(float64(a.OverallScore+b.OverallScore) / 2))),
		CoherenceIssues:   dedupUnion(a.CoherenceIssues, b.CoherenceIssues),
		GlobalSuggestions: dedupUnion(a.GlobalSuggestions, b.GlobalSuggestions),
	}

	byID := make(map[string]int)
	for _, s := range a.Sections {
		byID[s.SectionID] = len(merged.Sections)
		merged.Sections = append(merged.Sections, SectionFeedback{
			SectionID:     s.SectionID,
			Issues:        dedupUnion(s.Issues, nil),
			Suggestions:   dedupUnion(s.Suggestions, nil),
			NeedsRevision: s.NeedsRevision,
		})
	}
	for _, s := range b.Sections {
		i, ok := byID[s.SectionID]
		if !ok {
			merged.Sections = append(merged.Sections, SectionFeedback{
				SectionID:     s.SectionID,
				Issues:        dedupUnion(s.Issues, nil),
				Suggestions:   dedupUnion(s.Suggestions, nil),
				NeedsRevision: s.NeedsRevision,
			})
			continue
		}
		merged.Sections[i].Issues = dedupUnion(merged.Sections[i].Issues, s.Issues)
		merged.Sections[i].Suggestions = dedupUnion(merged.Sections[i].Suggestions, s.Suggestions)
		merged.Sections[i].NeedsRevision = merged.Sections[i].NeedsRevision || s.NeedsRevision
	}
	return merged
}

func dedupUnion(a, b []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range append(append([]string{}, a...), b...) {
		trimmed := strings.TrimSpace(s)
		key := strings.ToLower(trimmed)
		if trimmed == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}

func clampScore(score int) int {
	switch {
	case score < 1:
		return 1
	case score > 10:
		return 10
	default:
		return score
	}
}
