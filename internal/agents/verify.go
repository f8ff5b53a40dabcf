package agents

import (
	"context"
	"fmt"

	"github.com/scribeworks/scribe/internal/llmjson"
	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/outline"
)

// Verifier checks that a written section's key claims carry traceable
// evidence anchors drawn from the section's own text.
type Verifier struct {
	Client model.Client
	Opts   model.Options
}

// Verify runs the verification call for one section. A parse failure is
// fatal to this call only; the caller decides what an unverifiable section
// means for the run.
func (v *Verifier) Verify(ctx context.Context, sec outline.Section, content string) (*VerificationFeedback, error) {
	reply, err := v.Client.Generate(ctx, verifierSystem, BuildVerifyPrompt(sec, content), v.Opts)
	if err != nil {
		return nil, fmt.Errorf("verifier call for %q: %w", sec.Title, err)
	}

	var fb VerificationFeedback
	if err := llmjson.Decode(reply.Text, &fb, "claims"); err != nil {
		return nil, fmt.Errorf("parsing verification for %q: %w", sec.Title, err)
	}
	return NormalizeVerification(&fb), nil
}

// NormalizeVerification enforces the evidence invariants regardless of what
// the model reported: a claim without source anchors is forced to fail, and
// the top-level verdict is pass only when the claim list is non-empty and
// every claim passes. This keeps a model from asserting "verified" without
// citing a locatable anchor.
func NormalizeVerification(fb *VerificationFeedback) *VerificationFeedback {
	allPass := len(fb.Claims) > 0
	for i := range fb.Claims {
		claim := &fb.Claims[i]
		if len(claim.SourceAnchors) == 0 {
			claim.Verdict = VerdictFail
			if claim.Reason == "" {
				claim.Reason = "缺少可定位的原文锚点"
			}
		} else if claim.Verdict != VerdictPass {
			claim.Verdict = VerdictFail
		}
		if claim.Verdict != VerdictPass {
			allPass = false
		}
	}

	if allPass {
		fb.Verdict = VerdictPass
	} else {
		fb.Verdict = VerdictFail
	}
	return fb
}
