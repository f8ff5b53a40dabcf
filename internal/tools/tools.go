// Package tools is the pipeline's tool-execution boundary. The pipeline
// only knows tool names as opaque strings; concrete execution against the
// document host is injected via the Executor interface.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/retry"
)

// Result is the outcome of one executed tool call.
type Result struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Executor executes a batch of tool calls against the document host.
// written carries the text segments already committed, for host-side
// idempotence on appends.
type Executor interface {
	Execute(ctx context.Context, calls []model.ToolCall, written []string) ([]Result, error)
}

// writeTools are the document-mutating tool names. Only these get the
// retry budget and duplicate-write screening.
var writeTools = map[string]bool{
	"append_text":            true,
	"insert_text":            true,
	"insert_after_paragraph": true,
	"replace_selected_text":  true,
}

// IsWriteTool reports whether name mutates the document.
func IsWriteTool(name string) bool {
	return writeTools[name]
}

// Stats counts what happened across a runner's lifetime.
type Stats struct {
	Calls          int
	Failures       int
	DuplicateSkips int
}

// Runner wraps an Executor with duplicate-write skipping and a bounded
// retry budget for write-type tools. It also maintains the list of written
// segments passed through to the executor.
type Runner struct {
	exec     Executor
	retryCfg retry.Config
	written  []string
	stats    Stats
}

// NewRunner builds a runner around exec.
func NewRunner(exec Executor, retryCfg retry.Config) *Runner {
	return &Runner{exec: exec, retryCfg: retryCfg}
}

// Written returns the text segments committed so far.
func (r *Runner) Written() []string {
	return r.written
}

// SeedWritten restores the written-segment list from a checkpoint.
func (r *Runner) SeedWritten(segments []string) {
	r.written = append([]string{}, segments...)
}

// Stats returns the accumulated counters.
func (r *Runner) Stats() Stats {
	return r.stats
}

// Execute runs a batch of tool calls. Write calls whose content matches an
// already-written segment are skipped with a success result instead of
// re-applied; failed write calls are retried within the budget when the
// error text classifies as retryable. Failures are surfaced in the results,
// never as an error: a batch only errors when the executor itself does.
func (r *Runner) Execute(ctx context.Context, calls []model.ToolCall) ([]Result, error) {
	results := make([]Result, 0, len(calls))

	for _, call := range calls {
		r.stats.Calls++

		content, hasContent := writeContent(call)
		if hasContent && r.isDuplicate(content) {
			r.stats.DuplicateSkips++
			results = append(results, Result{
				ID:      call.ID,
				Name:    call.Name,
				Success: true,
				Result:  "内容与已写入段落重复，已跳过",
			})
			continue
		}

		res := r.executeOne(ctx, call)
		if res.Success && hasContent {
			r.written = append(r.written, strings.TrimSpace(content))
		}
		if !res.Success {
			r.stats.Failures++
		}
		results = append(results, res)
	}
	return results, nil
}

// executeOne runs a single call, applying the retry budget to write tools.
func (r *Runner) executeOne(ctx context.Context, call model.ToolCall) Result {
	run := func() retry.Result {
		batch, err := r.exec.Execute(ctx, []model.ToolCall{call}, r.written)
		if err != nil {
			return retry.Result{Error: err}
		}
		if len(batch) == 0 {
			return retry.Result{Error: errors.New("executor returned no result")}
		}
		res := batch[0]
		if !res.Success {
			return retry.Result{Output: res.Result, Error: errors.New(res.Error)}
		}
		return retry.Result{Success: true, Output: res.Result}
	}

	var final retry.Result
	if IsWriteTool(call.Name) {
		final = retry.Execute(ctx, r.retryCfg, run)
	} else {
		final = run()
	}

	out := Result{ID: call.ID, Name: call.Name, Success: final.Success, Result: final.Output}
	if final.Error != nil {
		out.Error = final.Error.Error()
	}
	return out
}

func (r *Runner) isDuplicate(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return false
	}
	for _, seg := range r.written {
		if seg == trimmed {
			return true
		}
	}
	return false
}

// writeContent extracts the text payload of a write-type call from its JSON
// arguments. The host's tools accept either a "text" or "content" field.
func writeContent(call model.ToolCall) (string, bool) {
	if !IsWriteTool(call.Name) {
		return "", false
	}
	var args struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return "", false
	}
	if args.Text != "" {
		return args.Text, true
	}
	if args.Content != "" {
		return args.Content, true
	}
	return "", false
}
