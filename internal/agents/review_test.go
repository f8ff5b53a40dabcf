package agents

import (
	"context"
	"reflect"
	"testing"

	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/outline"
)

func twoSectionOutline() *outline.Outline {
	return &outline.Outline{
		Title: "测试文档",
		Sections: []outline.Section{
			{ID: "s1", Title: "背景"},
			{ID: "s2", Title: "方法"},
		},
	}
}

func TestConflictCount(t *testing.T) {
	o := twoSectionOutline()
	a := &ReviewFeedback{Sections: []SectionFeedback{
		{SectionID: "s1", NeedsRevision: true},
		{SectionID: "s2", NeedsRevision: false},
	}}
	b := &ReviewFeedback{Sections: []SectionFeedback{
		{SectionID: "s1", NeedsRevision: false},
		{SectionID: "s2", NeedsRevision: false},
	}}
	if got := ConflictCount(a, b, o); got != 1 {
		t.Errorf("ConflictCount() = %d, want 1", got)
	}
}

func TestFallbackMerge(t *testing.T) {
	a := &ReviewFeedback{
		Round:        1,
		OverallScore: 8,
		Sections: []SectionFeedback{
			{SectionID: "s1", Issues: []string{"逻辑跳跃", "术语不一致"}, NeedsRevision: false},
		},
		CoherenceIssues: []string{"章节衔接生硬"},
	}
	b := &ReviewFeedback{
		Round:        1,
		OverallScore: 5,
		Sections: []SectionFeedback{
			{SectionID: "s1", Issues: []string{"逻辑跳跃", "缺少例证"}, NeedsRevision: true},
			{SectionID: "s2", Issues: []string{"结尾仓促"}, NeedsRevision: true},
		},
		CoherenceIssues: []string{"章节衔接生硬"},
	}

	m := FallbackMerge(a, b)

	// (8+5)/2 = 6.5 rounds to 7.
	if m.OverallScore != 7 {
		t.Errorf("score = %d, want 7", m.OverallScore)
	}
	if !m.SectionNeedsRevision("s1") || !m.SectionNeedsRevision("s2") {
		t.Error("needsRevision flags must OR across passes")
	}
	var s1 *SectionFeedback
	for i := range m.Sections {
		if m.Sections[i].SectionID == "s1" {
			s1 = &m.Sections[i]
		}
	}
	if s1 == nil {
		t.Fatal("merged feedback lost section s1")
	}
	if want := []string{"逻辑跳跃", "术语不一致", "缺少例证"}; !reflect.DeepEqual(s1.Issues, want) {
		t.Errorf("s1 issues = %v, want %v", s1.Issues, want)
	}
	if want := []string{"章节衔接生硬"}; !reflect.DeepEqual(m.CoherenceIssues, want) {
		t.Errorf("coherence issues = %v, want deduplicated %v", m.CoherenceIssues, want)
	}
}

func TestFallbackMergeCaseInsensitiveDedup(t *testing.T) {
	a := &ReviewFeedback{Sections: []SectionFeedback{{SectionID: "s1", Issues: []string{"API 命名不一致"}}}}
	b := &ReviewFeedback{Sections: []SectionFeedback{{SectionID: "s1", Issues: []string{"api 命名不一致"}}}}
	m := FallbackMerge(a, b)
	if len(m.Sections[0].Issues) != 1 {
		t.Errorf("issues = %v, want single case-insensitive entry", m.Sections[0].Issues)
	}
}

func TestReviewDegradesToNeutralOnBadJSON(t *testing.T) {
	o := twoSectionOutline()
	team := &ReviewTeam{
		Reviewer: &model.Mock{Replies: []string{"这不是 JSON"}},
		Critic:   &model.Mock{Replies: []string{"这也不是 JSON"}},
		Arbiter:  &model.Mock{Replies: []string{"更不是 JSON"}},
	}

	res, err := team.Review(context.Background(), "文档", o, 1, "")
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if res.Final.OverallScore != 6 {
		t.Errorf("score = %d, want neutral 6", res.Final.OverallScore)
	}
	if res.Conflicts != 0 {
		t.Errorf("conflicts = %d, want 0 between two neutral passes", res.Conflicts)
	}
	if len(res.Final.FlaggedSections()) != 0 {
		t.Error("neutral feedback must not request revision")
	}
}

func TestReviewUsesArbiter(t *testing.T) {
	o := twoSectionOutline()
	team := &ReviewTeam{
		Reviewer: &model.Mock{Replies: []string{`{"overallScore":9,"sectionFeedback":[]}`}},
		Critic:   &model.Mock{Replies: []string{`{"overallScore":6,"sectionFeedback":[{"sectionId":"s1","needsRevision":true}]}`}},
		Arbiter:  &model.Mock{Replies: []string{`{"overallScore":7,"sectionFeedback":[{"sectionId":"s1","needsRevision":true}]}`}},
	}

	res, err := team.Review(context.Background(), "文档", o, 2, "")
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if res.Final.OverallScore != 7 {
		t.Errorf("score = %d, want the arbiter's 7", res.Final.OverallScore)
	}
	if res.Final.Round != 2 {
		t.Errorf("round = %d, want 2", res.Final.Round)
	}
	if res.Conflicts != 1 {
		t.Errorf("conflicts = %d, want 1", res.Conflicts)
	}
	if res.AgreementRate != 0.5 {
		t.Errorf("agreement = %v, want 0.5", res.AgreementRate)
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct{ in, want int }{{0, 1}, {-3, 1}, {5, 5}, {11, 10}}
	for _, tt := range tests {
		if got := clampScore(tt.in); got != tt.want {
			t.Errorf("clampScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
