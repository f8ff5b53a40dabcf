// Package metrics tracks per-run pipeline counters and keeps a bounded
// rolling history of finished runs for trend summaries.
package metrics

import (
	"sync"
	"time"
)

// RunMetrics accumulates counters for one pipeline run.
type RunMetrics struct {
	mu sync.Mutex

	RunID     string
	StartedAt time.Time

	TotalSections        int
	ReviewRounds         int
	ToolCalls            int
	ToolFailures         int
	DuplicateWriteSkips  int
	QualityGateTriggered bool
	QualityGatePassed    bool
	FinalReviewScore     int

	revised map[string]struct{}
}

// NewRun starts metrics for a run.
func NewRun(runID string) *RunMetrics {
	return &RunMetrics{
		RunID:     runID,
		StartedAt: time.Now(),
		revised:   make(map[string]struct{}),
	}
}

// MarkRevised records that a section went through revision. Repeat
// revisions of the same section count once.
func (m *RunMetrics) MarkRevised(sectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revised[sectionID] = struct{}{}
}

// AddToolStats folds tool counters in.
func (m *RunMetrics) AddToolStats(calls, failures, duplicateSkips int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ToolCalls = calls
	m.ToolFailures = failures
	m.DuplicateWriteSkips = duplicateSkips
}

// RevisedCount returns the number of distinct revised sections.
func (m *RunMetrics) RevisedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.revised)
}

// Record is the immutable result of a finished run, as appended to the
// rolling history.
type Record struct {
	RunID                string    `json:"runId"`
	StartedAt            time.Time `json:"startedAt"`
	FinishedAt           time.Time `json:"finishedAt"`
	DurationSeconds      float64   `json:"durationSeconds"`
	TotalSections        int       `json:"totalSections"`
	RevisedSections      int       `json:"revisedSections"`
	ReviewRounds         int       `json:"reviewRounds"`
	ToolCalls            int       `json:"toolCalls"`
	ToolFailures         int       `json:"toolFailures"`
	DuplicateWriteSkips  int       `json:"duplicateWriteSkips"`
	QualityGateTriggered bool      `json:"qualityGateTriggered"`
	QualityGatePassed    bool      `json:"qualityGatePassed"`
	FinalReviewScore     int       `json:"finalReviewScore"`
}

// Finalize freezes the metrics into a record.
func (m *RunMetrics) Finalize() Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	return Record{
		RunID:                m.RunID,
		StartedAt:            m.StartedAt,
		FinishedAt:           now,
		DurationSeconds:      now.Sub(m.StartedAt).Seconds(),
		TotalSections:        m.TotalSections,
		RevisedSections:      len(m.revised),
		ReviewRounds:         m.ReviewRounds,
		ToolCalls:            m.ToolCalls,
		ToolFailures:         m.ToolFailures,
		DuplicateWriteSkips:  m.DuplicateWriteSkips,
		QualityGateTriggered: m.QualityGateTriggered,
		QualityGatePassed:    m.QualityGatePassed,
		FinalReviewScore:     m.FinalReviewScore,
	}
}

// Summary aggregates a slice of records for the trend dashboard.
type Summary struct {
	Runs               int
	PassRate           float64
	AvgReviewRounds    float64
	AvgDurationSeconds float64
	AvgFinalScore      float64
}

// Summarize computes aggregate statistics over records.
func Summarize(records []Record) Summary {
	s := Summary{Runs: len(records)}
	if len(records) == 0 {
		return s
	}
	passed := 0
	for _, r := range records {
		if r.QualityGatePassed {
			passed++
		}
		s.AvgReviewRounds += float64(r.ReviewRounds)
		s.AvgDurationSeconds += r.DurationSeconds
		s.AvgFinalScore += float64(r.FinalReviewScore)
	}
	n := float64(len(records))
	s.PassRate = float64(passed) / n
	s.AvgReviewRounds /= n
	s.AvgDurationSeconds /= n
	s.AvgFinalScore /= n
	return s
}
