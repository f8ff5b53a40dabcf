package tools

import (
	"context"
	"testing"
	"time"

	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/retry"
)

// scriptedExecutor fails a call the first failuresLeft times it runs.
type scriptedExecutor struct {
	failuresLeft int
	failureText  string
	executed     int
}

func (e *scriptedExecutor) Execute(_ context.Context, calls []model.ToolCall, _ []string) ([]Result, error) {
	var results []Result
	for _, c := range calls {
		e.executed++
		if e.failuresLeft > 0 {
			e.failuresLeft--
			results = append(results, Result{ID: c.ID, Name: c.Name, Success: false, Error: e.failureText})
			continue
		}
		results = append(results, Result{ID: c.ID, Name: c.Name, Success: true, Result: "ok"})
	}
	return results, nil
}

func fastRetry() retry.Config {
	return retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond}
}

func TestExecuteSkipsDuplicateWrites(t *testing.T) {
	exec := &scriptedExecutor{}
	r := NewRunner(exec, fastRetry())
	r.SeedWritten([]string{"已经写过的段落。"})

	results, err := r.Execute(context.Background(), []model.ToolCall{{
		ID:        "c1",
		Name:      "append_text",
		Arguments: `{"text":"已经写过的段落。"}`,
	}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !results[0].Success {
		t.Error("duplicate skip must report success")
	}
	if exec.executed != 0 {
		t.Errorf("executor ran %d times for a duplicate, want 0", exec.executed)
	}
	if r.Stats().DuplicateSkips != 1 {
		t.Errorf("duplicateSkips = %d, want 1", r.Stats().DuplicateSkips)
	}
}

func TestExecuteRecordsWrites(t *testing.T) {
	r := NewRunner(&scriptedExecutor{}, fastRetry())

	_, err := r.Execute(context.Background(), []model.ToolCall{{
		ID:        "c1",
		Name:      "append_text",
		Arguments: `{"text":"新段落。"}`,
	}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	written := r.Written()
	if len(written) != 1 || written[0] != "新段落。" {
		t.Errorf("written = %v, want the trimmed payload", written)
	}
}

func TestExecuteRetriesRetryableWriteFailure(t *testing.T) {
	exec := &scriptedExecutor{failuresLeft: 1, failureText: "请求超时，请稍后重试"}
	r := NewRunner(exec, fastRetry())

	results, err := r.Execute(context.Background(), []model.ToolCall{{
		ID:        "c1",
		Name:      "append_text",
		Arguments: `{"text":"内容"}`,
	}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !results[0].Success {
		t.Errorf("result = %+v, want success after retry", results[0])
	}
	if exec.executed != 2 {
		t.Errorf("executor ran %d times, want 2", exec.executed)
	}
}

func TestExecuteDoesNotRetryNonRetryable(t *testing.T) {
	exec := &scriptedExecutor{failuresLeft: 3, failureText: "参数错误: text 为空"}
	r := NewRunner(exec, fastRetry())

	results, err := r.Execute(context.Background(), []model.ToolCall{{
		ID:        "c1",
		Name:      "append_text",
		Arguments: `{"text":"内容"}`,
	}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if results[0].Success {
		t.Error("expected failure to surface")
	}
	if exec.executed != 1 {
		t.Errorf("executor ran %d times, want 1 (no retry)", exec.executed)
	}
	if r.Stats().Failures != 1 {
		t.Errorf("failures = %d, want 1", r.Stats().Failures)
	}
}

func TestExecuteReadToolsBypassRetry(t *testing.T) {
	exec := &scriptedExecutor{failuresLeft: 1, failureText: "请求超时"}
	r := NewRunner(exec, fastRetry())

	results, err := r.Execute(context.Background(), []model.ToolCall{{
		ID:   "c1",
		Name: "get_document_text",
	}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if results[0].Success {
		t.Error("read failure must not be retried into success")
	}
	if exec.executed != 1 {
		t.Errorf("executor ran %d times, want 1", exec.executed)
	}
}

func TestIsWriteTool(t *testing.T) {
	if !IsWriteTool("append_text") || !IsWriteTool("replace_selected_text") {
		t.Error("write tools misclassified")
	}
	if IsWriteTool("get_document_text") || IsWriteTool("search_document") {
		t.Error("read tools misclassified")
	}
}
