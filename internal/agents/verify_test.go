package agents

import (
	"context"
	"testing"

	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/outline"
)

func TestNormalizeVerification(t *testing.T) {
	tests := []struct {
		name        string
		fb          *VerificationFeedback
		wantVerdict string
	}{
		{
			name:        "empty claims fail",
			fb:          &VerificationFeedback{Verdict: VerdictPass},
			wantVerdict: VerdictFail,
		},
		{
			name: "claim without anchors forced to fail",
			fb: &VerificationFeedback{
				Verdict: VerdictPass,
				Claims:  []VerificationClaim{{Claim: "吞吐量提升三倍", Verdict: VerdictPass}},
			},
			wantVerdict: VerdictFail,
		},
		{
			name: "anchored passing claims pass",
			fb: &VerificationFeedback{
				Claims: []VerificationClaim{
					{Claim: "环结构降低再平衡成本", Verdict: VerdictPass, SourceAnchors: []string{"2"}},
					{Claim: "虚拟节点改善均匀性", Verdict: VerdictPass, SourceAnchors: []string{"3"}},
				},
			},
			wantVerdict: VerdictPass,
		},
		{
			name: "unknown verdict with anchors fails",
			fb: &VerificationFeedback{
				Claims: []VerificationClaim{{Claim: "某断言", Verdict: "uncertain", SourceAnchors: []string{"1"}}},
			},
			wantVerdict: VerdictFail,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVerification(tt.fb)
			if got.Verdict != tt.wantVerdict {
				t.Errorf("verdict = %q, want %q", got.Verdict, tt.wantVerdict)
			}
		})
	}
}

func TestNormalizeVerificationFillsReason(t *testing.T) {
	fb := &VerificationFeedback{Claims: []VerificationClaim{{Claim: "无锚点断言", Verdict: VerdictPass}}}
	got := NormalizeVerification(fb)
	if got.Claims[0].Verdict != VerdictFail {
		t.Fatalf("claim verdict = %q, want fail", got.Claims[0].Verdict)
	}
	if got.Claims[0].Reason == "" {
		t.Error("forced failure must carry a reason")
	}
}

func TestVerify(t *testing.T) {
	sec := outline.Section{ID: "s1", Title: "方法", KeyPoints: []string{"环结构"}}
	client := &model.Mock{Replies: []string{
		"核查结果如下：\n```json\n{\"verdict\":\"pass\",\"claims\":[{\"claim\":\"环结构降低成本\",\"verdict\":\"pass\",\"sourceAnchors\":[\"1\"]}]}\n```",
	}}

	v := &Verifier{Client: client}
	fb, err := v.Verify(context.Background(), sec, "环结构降低了再平衡成本。")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !fb.Passed() {
		t.Errorf("verdict = %q, want pass", fb.Verdict)
	}
}

func TestVerifyParseFailure(t *testing.T) {
	v := &Verifier{Client: &model.Mock{Replies: []string{"不是 JSON"}}}
	if _, err := v.Verify(context.Background(), outline.Section{ID: "s1", Title: "方法"}, "内容"); err == nil {
		t.Error("expected error for unparseable verification")
	}
}
