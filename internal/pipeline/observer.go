package pipeline

import (
	"time"

	"github.com/scribeworks/scribe/internal/metrics"
	"github.com/scribeworks/scribe/internal/outline"
)

// Observer receives progress callbacks from a run. Implementations must not
// block; the terminal display is the usual host.
type Observer interface {
	RunStarted(runID, request string, resumed bool)
	PlanReady(o *outline.Outline)
	SectionStarted(index, total int, title string)
	SectionWritten(index, total int, title string)
	ToolInvoked(name, detail string)
	ReviewRound(round, max int)
	ReviewDone(score, conflicts, flagged int)
	VerifyDone(passed bool, failed int)
	Replanning(reason string)
	Retry(attempt, max int, delay time.Duration)
	RunFinished(status string, rec *metrics.Record)
}

// NoopObserver discards all callbacks.
type NoopObserver struct{}

func (NoopObserver) RunStarted(string, string, bool)     {}
func (NoopObserver) PlanReady(*outline.Outline)          {}
func (NoopObserver) SectionStarted(int, int, string)     {}
func (NoopObserver) SectionWritten(int, int, string)     {}
func (NoopObserver) ToolInvoked(string, string)          {}
func (NoopObserver) ReviewRound(int, int)                {}
func (NoopObserver) ReviewDone(int, int, int)            {}
func (NoopObserver) VerifyDone(bool, int)                {}
func (NoopObserver) Replanning(string)                   {}
func (NoopObserver) Retry(int, int, time.Duration)       {}
func (NoopObserver) RunFinished(string, *metrics.Record) {}
