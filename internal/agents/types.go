// Package agents implements the role-specialized model agents of the
// document pipeline: planner, writer, the consensus review team and the
// fact verifier.
package agents

// SectionResult is the recovered contribution of one written section.
// Results are upserted as drafts are revised, never duplicated.
type SectionResult struct {
	SectionID    string   `json:"sectionId"`
	SectionTitle string   `json:"sectionTitle"`
	Content      string   `json:"content"`
	Anchors      []string `json:"sourceAnchors,omitempty"`
}

// SectionFeedback is one reviewer's verdict on one section in one round.
type SectionFeedback struct {
	SectionID     string   `json:"sectionId"`
	Issues        []string `json:"issues"`
	Suggestions   []string `json:"suggestions"`
	NeedsRevision bool     `json:"needsRevision"`
}

// ReviewFeedback is one review pass over the whole document. The arbitrated
// result of two passes is the round's authoritative feedback.
type ReviewFeedback struct {
	Round             int               `json:"round"`
	OverallScore      int               `json:"overallScore"`
	Sections          []SectionFeedback `json:"sectionFeedback"`
	CoherenceIssues   []string          `json:"coherenceIssues"`
	GlobalSuggestions []string          `json:"globalSuggestions"`
}

// SectionNeedsRevision reports the flag for the given section id, false
// when the pass did not mention the section.
func (f *ReviewFeedback) SectionNeedsRevision(sectionID string) bool {
	for _, s := range f.Sections {
		if s.SectionID == sectionID {
			return s.NeedsRevision
		}
	}
	return false
}

// FlaggedSections returns the feedback entries whose sections need revision.
func (f *ReviewFeedback) FlaggedSections() []SectionFeedback {
	var flagged []SectionFeedback
	for _, s := range f.Sections {
		if s.NeedsRevision {
			flagged = append(flagged, s)
		}
	}
	return flagged
}

// Verification verdicts.
const (
	VerdictPass = "pass"
	VerdictFail = "fail"
)

// VerificationClaim is one checked claim with its evidence trace.
type VerificationClaim struct {
	Claim         string   `json:"claim"`
	Verdict       string   `json:"verdict"`
	EvidenceIDs   []string `json:"evidenceIds"`
	SourceAnchors []string `json:"sourceAnchors"`
	Reason        string   `json:"reason,omitempty"`
}

// Evidence is one quoted, anchored snippet from the section under check.
type Evidence struct {
	ID     string `json:"id"`
	Quote  string `json:"quote"`
	Anchor string `json:"anchor"`
}

// VerificationFeedback is the verifier's result for one section.
type VerificationFeedback struct {
	Verdict  string              `json:"verdict"`
	Claims   []VerificationClaim `json:"claims"`
	Evidence []Evidence          `json:"evidence"`
}

// Passed reports whether the normalized top-level verdict is pass.
func (f *VerificationFeedback) Passed() bool {
	return f != nil && f.Verdict == VerdictPass
}
