// Package pipeline orchestrates a document-writing run as a resumable task
// graph: planning, outline confirmation, memory hydration, section writing,
// a bounded consensus-review cycle, and finalization. Every node transition
// is checkpointed so an interrupted run picks up where it stopped.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/scribeworks/scribe/internal/agents"
	"github.com/scribeworks/scribe/internal/checkpoint"
	"github.com/scribeworks/scribe/internal/memory"
	"github.com/scribeworks/scribe/internal/metrics"
	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/outline"
	"github.com/scribeworks/scribe/internal/section"
	"github.com/scribeworks/scribe/internal/taskgraph"
	"github.com/scribeworks/scribe/internal/tools"
)

// Task graph node ids.
const (
	nodePlanning     = "planning"
	nodeConfirmation = "awaiting_confirmation"
	nodeInitMemory   = "init_memory"
	nodeWriting      = "writing_sections"
	nodeReviewCycle  = "review_cycle"
	nodeFinalize     = "finalize"
)

// defaultMaxReviewCycles bounds the global review/replan loop.
const defaultMaxReviewCycles = 3

// replanScoreCeiling is the overall score at or below which a failed gate
// warrants another cycle.
const replanScoreCeiling = 7

// ErrHalted is returned when the outline confirmation callback declines.
var ErrHalted = errors.New("run halted at outline confirmation")

// ConfirmFunc approves or rejects a freshly planned outline before any
// writing happens. Returning false halts the run.
type ConfirmFunc func(ctx context.Context, o *outline.Outline) (bool, error)

// Deps carries everything a pipeline needs. All fields except History and
// Observer are required.
type Deps struct {
	Planner  *agents.Planner
	Writer   *agents.Writer
	Review   *agents.ReviewTeam
	Verifier *agents.Verifier
	Runner   *tools.Runner
	Store    checkpoint.Store
	History  *metrics.History
	Observer Observer
	Confirm  ConfirmFunc

	// Concurrency caps the parallel draft pool. Values above 6 are clamped.
	Concurrency int

	// MaxReviewCycles bounds the review/replan loop. Defaults to 3.
	MaxReviewCycles int
}

// Pipeline runs document-writing jobs one at a time.
type Pipeline struct {
	deps Deps

	runSeq  atomic.Int64
	stopped atomic.Bool
}

// New validates deps and builds a pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Planner == nil || deps.Writer == nil || deps.Review == nil || deps.Verifier == nil {
		return nil, errors.New("pipeline requires planner, writer, review team and verifier")
	}
	if deps.Runner == nil || deps.Store == nil {
		return nil, errors.New("pipeline requires a tool runner and a checkpoint store")
	}
	if deps.Observer == nil {
		deps.Observer = NoopObserver{}
	}
	if deps.Confirm == nil {
		deps.Confirm = func(context.Context, *outline.Outline) (bool, error) { return true, nil }
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = 1
	}
	if deps.Concurrency > 6 {
		deps.Concurrency = 6
	}
	if deps.MaxReviewCycles <= 0 {
		deps.MaxReviewCycles = defaultMaxReviewCycles
	}
	return &Pipeline{deps: deps}, nil
}

// Cancel requests a cooperative stop of the active run. Partial document
// writes stay committed; the checkpoint keeps status "running" so the run
// can be resumed.
func (p *Pipeline) Cancel() {
	p.stopped.Store(true)
}

// runState is the shared mutable state threaded through the task graph.
type runState struct {
	cp  *checkpoint.Checkpoint
	mem *memory.State

	consensus      *agents.ConsensusResult
	reviewPass     int
	verifyFailures int
	gatePassed     bool
	replan         bool
	replanReason   string
	halted         bool
}

// Run executes (or resumes) a run for the given requirement. A checkpoint
// with status "running" and an identical request resumes from its saved
// node; forceResume skips the request match.
func (p *Pipeline) Run(ctx context.Context, request string, forceResume bool) error {
	seq := p.runSeq.Add(1)
	p.stopped.Store(false)

	st := &runState{}
	start := nodePlanning
	resumed := false

	prev, err := p.deps.Store.LoadCheckpoint()
	if err != nil {
		return fmt.Errorf("loading checkpoint: %w", err)
	}
	if prev != nil && prev.Status == checkpoint.StatusRunning && (forceResume || prev.Request == request) {
		st.cp = prev
		if st.cp.Node != "" {
			start = st.cp.Node
		}
		resumed = true
	} else {
		st.cp = &checkpoint.Checkpoint{
			RunID:     uuid.NewString(),
			Request:   request,
			Status:    checkpoint.StatusRunning,
			Visits:    make(map[string]int),
			StartedAt: time.Now(),
		}
	}
	if st.cp.Visits == nil {
		st.cp.Visits = make(map[string]int)
	}

	m := metrics.NewRun(st.cp.RunID)
	p.deps.Observer.RunStarted(st.cp.RunID, st.cp.Request, resumed)

	nodes := p.nodes(m)
	runner, err := taskgraph.New(nodes)
	if err != nil {
		return fmt.Errorf("building task graph: %w", err)
	}

	nextOf := make(map[string]func(*runState) string, len(nodes))
	for _, n := range nodes {
		nextOf[n.ID] = n.Next
	}

	err = runner.Run(ctx, start, st, taskgraph.Options[*runState]{
		Visits:    st.cp.Visits,
		Cancelled: func() bool { return p.cancelled(seq) },
		AfterNode: func(ctx context.Context, nodeID string, state *runState) error {
			if p.cancelled(seq) {
				// The node aborted cooperatively with partial work; keep it
				// as the resume target and give back its visit so the rerun
				// does not trip the cap.
				state.cp.Node = nodeID
				state.cp.Visits[nodeID]--
			} else {
				state.cp.Node = nextOf[nodeID](state)
			}
			state.cp.UpdatedAt = time.Now()
			if state.cp.Status != checkpoint.StatusRunning {
				return nil
			}
			return p.deps.Store.SaveCheckpoint(state.cp)
		},
	})

	switch {
	case err != nil && errors.Is(err, ErrHalted):
		st.cp.Status = checkpoint.StatusCancelled
	case err != nil && errors.Is(err, context.Canceled):
		// An interrupt mid-node: keep the checkpoint resumable.
		st.cp.UpdatedAt = time.Now()
		if saveErr := p.deps.Store.SaveCheckpoint(st.cp); saveErr != nil {
			return saveErr
		}
		p.deps.Observer.RunFinished(checkpoint.StatusCancelled, nil)
		return err
	case err != nil:
		st.cp.Status = checkpoint.StatusError
	case p.cancelled(seq):
		// Keep status "running" on disk so --resume works, but report
		// the run as cancelled.
		st.cp.UpdatedAt = time.Now()
		if saveErr := p.deps.Store.SaveCheckpoint(st.cp); saveErr != nil {
			err = saveErr
		}
		p.deps.Observer.RunFinished(checkpoint.StatusCancelled, nil)
		return err
	}

	if st.cp.Status == checkpoint.StatusError || st.cp.Status == checkpoint.StatusCancelled {
		st.cp.UpdatedAt = time.Now()
		if saveErr := p.deps.Store.SaveCheckpoint(st.cp); saveErr != nil && err == nil {
			err = saveErr
		}
		p.deps.Observer.RunFinished(st.cp.Status, nil)
		return err
	}
	return err
}

func (p *Pipeline) cancelled(seq int64) bool {
	return p.stopped.Load() || p.runSeq.Load() != seq
}

// nodes wires the task graph. review_cycle is the only node allowed to
// revisit itself; everything else runs once per (re)start.
func (p *Pipeline) nodes(m *metrics.RunMetrics) []taskgraph.Node[*runState] {
	return []taskgraph.Node[*runState]{
		{
			ID:  nodePlanning,
			Run: p.runPlanning,
			Next: func(st *runState) string {
				return nodeConfirmation
			},
		},
		{
			ID:  nodeConfirmation,
			Run: p.runConfirmation,
			Next: func(st *runState) string {
				if st.halted {
					return ""
				}
				return nodeInitMemory
			},
		},
		{
			ID:  nodeInitMemory,
			Run: p.runInitMemory,
			Next: func(st *runState) string {
				return nodeWriting
			},
		},
		{
			ID: nodeWriting,
			Run: func(ctx context.Context, st *runState) error {
				return p.runWriting(ctx, st, m)
			},
			Next: func(st *runState) string {
				return nodeReviewCycle
			},
		},
		{
			ID:        nodeReviewCycle,
			MaxVisits: p.deps.MaxReviewCycles,
			Run: func(ctx context.Context, st *runState) error {
				return p.runReviewCycle(ctx, st, m)
			},
			Next: func(st *runState) string {
				if st.replan && st.cp.Visits[nodeReviewCycle] < p.deps.MaxReviewCycles {
					return nodeReviewCycle
				}
				return nodeFinalize
			},
		},
		{
			ID: nodeFinalize,
			Run: func(ctx context.Context, st *runState) error {
				return p.runFinalize(ctx, st, m)
			},
			Next: func(st *runState) string {
				return ""
			},
		},
	}
}

func (p *Pipeline) runPlanning(ctx context.Context, st *runState) error {
	doc, err := p.readDocument(ctx)
	if err != nil {
		return err
	}
	o, err := p.deps.Planner.Plan(ctx, st.cp.Request, doc)
	if err != nil {
		return err
	}
	st.cp.Outline = o
	p.deps.Observer.PlanReady(o)
	return nil
}

func (p *Pipeline) runConfirmation(ctx context.Context, st *runState) error {
	ok, err := p.deps.Confirm(ctx, st.cp.Outline)
	if err != nil {
		return err
	}
	if !ok {
		st.halted = true
		return ErrHalted
	}
	return nil
}

// runInitMemory builds the long-term memory for this run: a fresh state
// seeded from the outline, merged with the persisted snapshot and with any
// snapshot carried in the checkpoint being resumed.
func (p *Pipeline) runInitMemory(ctx context.Context, st *runState) error {
	doc, err := p.readDocument(ctx)
	if err != nil {
		return err
	}
	st.mem = memory.New(st.cp.Outline, st.cp.Request, doc)

	if snapshot, err := p.deps.Store.LoadMemory(); err == nil && snapshot != "" {
		if persisted, err := memory.Parse(snapshot); err == nil {
			st.mem = memory.Merge(persisted, st.mem)
		}
	}
	if st.cp.Memory != "" {
		if carried, err := memory.Parse(st.cp.Memory); err == nil {
			st.mem = memory.Merge(carried, st.mem)
		}
	}
	return p.saveMemory(st)
}

// ensureMemory hydrates memory when a resumed run starts past init_memory.
func (p *Pipeline) ensureMemory(ctx context.Context, st *runState) error {
	if st.mem != nil {
		return nil
	}
	return p.runInitMemory(ctx, st)
}

func (p *Pipeline) runWriting(ctx context.Context, st *runState, m *metrics.RunMetrics) error {
	if err := p.ensureMemory(ctx, st); err != nil {
		return err
	}
	o := st.cp.Outline
	if o == nil || len(o.Sections) == 0 {
		return agents.ErrEmptyOutline
	}
	m.TotalSections = len(o.Sections)

	// Replay the dedup list so resumed appends of already-written drafts
	// are skipped instead of duplicated.
	p.deps.Runner.SeedWritten(st.cp.Written)

	if len(o.Sections) == 1 {
		return p.writeSingle(ctx, st, m)
	}
	return p.writeParallel(ctx, st, m)
}

// writeSingle is the fully sequential flow for one-section outlines: the
// agentic write loop, a scoped review, at most one revision, then fact
// verification.
func (p *Pipeline) writeSingle(ctx context.Context, st *runState, m *metrics.RunMetrics) error {
	o := st.cp.Outline
	sec := o.Sections[0]

	if done := resultFor(st.cp.Sections, sec.ID); done != nil {
		return nil
	}
	p.deps.Observer.SectionStarted(1, 1, sec.Title)

	before, err := p.readDocument(ctx)
	if err != nil {
		return err
	}
	memCtx := st.mem.ContextFor(sec)
	if err := p.deps.Writer.Write(ctx, o, 0, nil, nil, memCtx, nil); err != nil {
		return err
	}
	content, err := p.resolveSection(ctx, st, before, 0)
	if err != nil {
		return err
	}

	doc, err := p.readDocument(ctx)
	if err != nil {
		return err
	}
	st.reviewPass++
	p.deps.Observer.ReviewRound(st.reviewPass, p.deps.MaxReviewCycles)
	consensus, err := p.deps.Review.Review(ctx, doc, o, st.reviewPass, sec.ID)
	if err != nil {
		return err
	}
	m.ReviewRounds++
	st.consensus = consensus
	p.deps.Observer.ReviewDone(consensus.Final.OverallScore, consensus.Conflicts, len(consensus.Final.FlaggedSections()))

	if consensus.Final.SectionNeedsRevision(sec.ID) {
		fb := feedbackFor(consensus.Final, sec.ID)
		before, err = p.readDocument(ctx)
		if err != nil {
			return err
		}
		if err := p.deps.Writer.Write(ctx, o, 0, nil, fb, memCtx, nil); err != nil {
			return err
		}
		m.MarkRevised(sec.ID)
		if content, err = p.resolveSection(ctx, st, before, 0); err != nil {
			return err
		}
	}

	vf, err := p.deps.Verifier.Verify(ctx, sec, content)
	if err != nil || !vf.Passed() {
		st.verifyFailures++
	}
	failed := 0
	if vf != nil {
		for _, c := range vf.Claims {
			if c.Verdict != agents.VerdictPass {
				failed++
			}
		}
	}
	p.deps.Observer.VerifyDone(st.verifyFailures == 0, failed)

	p.recordSection(st, sec, content)
	p.deps.Observer.SectionWritten(1, 1, sec.Title)
	return p.saveMemory(st)
}

// writeParallel drafts every pending section concurrently, then appends the
// drafts to the document strictly in outline order. The document is a
// single shared resource; only the pure generation runs in parallel.
func (p *Pipeline) writeParallel(ctx context.Context, st *runState, m *metrics.RunMetrics) error {
	o := st.cp.Outline
	n := len(o.Sections)

	// Memory reads happen up front; the state is not goroutine-safe.
	memCtx := make([]string, n)
	for i, sec := range o.Sections {
		memCtx[i] = st.mem.ContextFor(sec)
	}

	drafts := make([]string, n)
	errs := make([]error, n)

	workers := p.deps.Concurrency
	if workers > n {
		workers = n
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if p.stopped.Load() || ctx.Err() != nil {
					return
				}
				i := int(cursor.Add(1)) - 1
				if i >= n {
					return
				}
				if resultFor(st.cp.Sections, o.Sections[i].ID) != nil {
					continue
				}
				drafts[i], errs[i] = p.deps.Writer.Draft(ctx, o, i, memCtx[i])
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("drafting section %d: %w", i+1, err)
		}
	}
	if p.stopped.Load() {
		return nil
	}

	for i, sec := range o.Sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.stopped.Load() {
			return nil
		}
		if resultFor(st.cp.Sections, sec.ID) != nil {
			continue
		}
		p.deps.Observer.SectionStarted(i+1, n, sec.Title)

		before, err := p.readDocument(ctx)
		if err != nil {
			return err
		}
		if err := p.appendText(ctx, drafts[i]); err != nil {
			return err
		}
		content, err := p.resolveSection(ctx, st, before, i)
		if err != nil {
			return err
		}
		p.recordSection(st, sec, content)
		p.deps.Observer.SectionWritten(i+1, n, sec.Title)

		if err := p.saveMemory(st); err != nil {
			return err
		}
		st.cp.UpdatedAt = time.Now()
		if err := p.deps.Store.SaveCheckpoint(st.cp); err != nil {
			return err
		}
	}
	return nil
}

// runReviewCycle is one global consensus pass, targeted revision of flagged
// sections, a second pass when anything was revised, and per-section fact
// verification. It ends by computing the quality gate and whether another
// cycle is warranted.
func (p *Pipeline) runReviewCycle(ctx context.Context, st *runState, m *metrics.RunMetrics) error {
	if err := p.ensureMemory(ctx, st); err != nil {
		return err
	}
	o := st.cp.Outline
	st.verifyFailures = 0

	doc, err := p.readDocument(ctx)
	if err != nil {
		return err
	}
	st.reviewPass++
	p.deps.Observer.ReviewRound(st.reviewPass, p.deps.MaxReviewCycles)
	consensus, err := p.deps.Review.Review(ctx, doc, o, st.reviewPass, "")
	if err != nil {
		return err
	}
	m.ReviewRounds++
	st.consensus = consensus
	p.deps.Observer.ReviewDone(consensus.Final.OverallScore, consensus.Conflicts, len(consensus.Final.FlaggedSections()))

	revised := false
	for _, fb := range consensus.Final.FlaggedSections() {
		if p.stopped.Load() {
			return nil
		}
		idx := o.SectionIndex(fb.SectionID)
		if idx < 0 {
			continue
		}
		before, err := p.readDocument(ctx)
		if err != nil {
			return err
		}
		memCtx := st.mem.ContextFor(o.Sections[idx])
		if err := p.deps.Writer.Write(ctx, o, idx, st.cp.Sections, &fb, memCtx, nil); err != nil {
			return err
		}
		m.MarkRevised(fb.SectionID)
		revised = true
		content, err := p.resolveSection(ctx, st, before, idx)
		if err != nil {
			return err
		}
		p.recordSection(st, o.Sections[idx], content)
	}

	if revised {
		doc, err = p.readDocument(ctx)
		if err != nil {
			return err
		}
		st.reviewPass++
		p.deps.Observer.ReviewRound(st.reviewPass, p.deps.MaxReviewCycles)
		consensus, err = p.deps.Review.Review(ctx, doc, o, st.reviewPass, "")
		if err != nil {
			return err
		}
		m.ReviewRounds++
		st.consensus = consensus
		p.deps.Observer.ReviewDone(consensus.Final.OverallScore, consensus.Conflicts, len(consensus.Final.FlaggedSections()))
	}

	failedClaims := 0
	for i, sec := range o.Sections {
		if p.stopped.Load() {
			return nil
		}
		content := sectionContent(st, doc, i)
		vf, err := p.deps.Verifier.Verify(ctx, sec, content)
		if err != nil || !vf.Passed() {
			st.verifyFailures++
		}
		if vf != nil {
			for _, c := range vf.Claims {
				if c.Verdict != agents.VerdictPass {
					failedClaims++
				}
			}
		}
		st.mem.Record(sec, content)
	}
	p.deps.Observer.VerifyDone(st.verifyFailures == 0, failedClaims)
	if err := p.saveMemory(st); err != nil {
		return err
	}

	final := st.consensus.Final
	st.gatePassed = len(final.FlaggedSections()) == 0 &&
		len(final.CoherenceIssues) == 0 &&
		st.verifyFailures == 0

	st.replan = false
	st.replanReason = ""
	if !st.gatePassed {
		m.QualityGateTriggered = true
		threshold := conflictThreshold(len(o.Sections))
		switch {
		case final.OverallScore <= replanScoreCeiling:
			st.replan = true
			st.replanReason = fmt.Sprintf("整体评分 %d 低于阈值", final.OverallScore)
		case st.consensus.Conflicts > threshold:
			st.replan = true
			st.replanReason = fmt.Sprintf("审校分歧 %d 超过阈值 %d", st.consensus.Conflicts, threshold)
		case st.verifyFailures > 0:
			st.replan = true
			st.replanReason = fmt.Sprintf("%d 个章节未通过事实核查", st.verifyFailures)
		}
	}
	if st.replan && st.cp.Visits[nodeReviewCycle] < p.deps.MaxReviewCycles {
		p.deps.Observer.Replanning(st.replanReason)
	}
	return nil
}

func (p *Pipeline) runFinalize(ctx context.Context, st *runState, m *metrics.RunMetrics) error {
	stats := p.deps.Runner.Stats()
	m.AddToolStats(stats.Calls, stats.Failures, stats.DuplicateSkips)
	m.QualityGatePassed = st.gatePassed
	if st.consensus != nil {
		m.FinalReviewScore = st.consensus.Final.OverallScore
	}

	rec := m.Finalize()
	if p.deps.History != nil {
		if err := p.deps.History.Append(rec); err != nil {
			return fmt.Errorf("recording run history: %w", err)
		}
	}
	if err := p.saveMemory(st); err != nil {
		return err
	}
	if err := p.deps.Store.ClearCheckpoint(); err != nil {
		return err
	}
	st.cp.Status = checkpoint.StatusCompleted
	p.deps.Observer.RunFinished(checkpoint.StatusCompleted, &rec)
	return nil
}

// conflictThreshold scales the tolerated reviewer disagreement with the
// outline size: a third of the sections, never below one.
func conflictThreshold(sections int) int {
	t := sections / 3
	if t < 1 {
		t = 1
	}
	return t
}

// readDocument fetches the current document text through the tool layer;
// the pipeline never touches the document directly.
func (p *Pipeline) readDocument(ctx context.Context) (string, error) {
	results, err := p.deps.Runner.Execute(ctx, []model.ToolCall{{
		ID:   uuid.NewString(),
		Name: "get_document_text",
	}})
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	if len(results) == 0 || !results[0].Success {
		return "", nil
	}
	return results[0].Result, nil
}

func (p *Pipeline) appendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	p.deps.Observer.ToolInvoked("append_text", firstLine(text))
	encoded, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encoding append arguments: %w", err)
	}
	args := string(encoded)
	results, err := p.deps.Runner.Execute(ctx, []model.ToolCall{{
		ID:        uuid.NewString(),
		Name:      "append_text",
		Arguments: args,
	}})
	if err != nil {
		return fmt.Errorf("appending section: %w", err)
	}
	if len(results) > 0 && !results[0].Success {
		return fmt.Errorf("appending section: %s", results[0].Error)
	}
	return nil
}

// resolveSection recovers the text a write step produced for section idx by
// comparing the document before and after the step.
func (p *Pipeline) resolveSection(ctx context.Context, st *runState, before string, idx int) (string, error) {
	after, err := p.readDocument(ctx)
	if err != nil {
		return "", err
	}
	o := st.cp.Outline
	res := section.Resolve(before, after, o.Sections[idx].Title, o.LaterTitles(idx))
	return res.Content, nil
}

// sectionContent extracts a section's current text from the live document,
// falling back to the last recorded result, then to the whole document.
func sectionContent(st *runState, doc string, idx int) string {
	o := st.cp.Outline
	if content := section.ExtractHeading(doc, o.Sections[idx].Title, o.LaterTitles(idx)); strings.TrimSpace(content) != "" {
		return content
	}
	if prev := resultFor(st.cp.Sections, o.Sections[idx].ID); prev != nil {
		return prev.Content
	}
	return doc
}

// recordSection folds a finished section into memory, the checkpoint and
// the dedup list.
func (p *Pipeline) recordSection(st *runState, sec outline.Section, content string) {
	st.mem.Record(sec, content)
	st.cp.Sections = upsertResult(st.cp.Sections, agents.SectionResult{
		SectionID:    sec.ID,
		SectionTitle: sec.Title,
		Content:      content,
	})
	st.cp.Written = p.deps.Runner.Written()
}

func (p *Pipeline) saveMemory(st *runState) error {
	if st.mem == nil {
		return nil
	}
	rendered := memory.Render(st.mem)
	st.cp.Memory = rendered
	return p.deps.Store.SaveMemory(rendered)
}

func resultFor(results []agents.SectionResult, sectionID string) *agents.SectionResult {
	for i := range results {
		if results[i].SectionID == sectionID {
			return &results[i]
		}
	}
	return nil
}

func upsertResult(results []agents.SectionResult, r agents.SectionResult) []agents.SectionResult {
	for i := range results {
		if results[i].SectionID == r.SectionID {
			results[i] = r
			return results
		}
	}
	return append(results, r)
}

func feedbackFor(fb *agents.ReviewFeedback, sectionID string) *agents.SectionFeedback {
	for i := range fb.Sections {
		if fb.Sections[i].SectionID == sectionID {
			return &fb.Sections[i]
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
