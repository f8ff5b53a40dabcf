package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scribeworks/scribe/internal/docfile"
	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/outline"
	"github.com/scribeworks/scribe/internal/retry"
	"github.com/scribeworks/scribe/internal/tools"
)

// recordingExecutor is a stub document host that records executed calls.
type recordingExecutor struct {
	calls []model.ToolCall
}

func (e *recordingExecutor) Execute(_ context.Context, calls []model.ToolCall, _ []string) ([]tools.Result, error) {
	var results []tools.Result
	for _, c := range calls {
		e.calls = append(e.calls, c)
		results = append(results, tools.Result{ID: c.ID, Name: c.Name, Success: true, Result: "ok"})
	}
	return results, nil
}

func writerOutline() *outline.Outline {
	return &outline.Outline{
		Title:    "测试文档",
		Sections: []outline.Section{{ID: "s1", Title: "背景", EstimatedParagraphs: 2}},
	}
}

func TestWriteRunsToolLoop(t *testing.T) {
	client := &model.Mock{Turns: []model.ScriptTurn{
		{ToolCalls: []model.ToolCall{{ID: "c1", Name: "append_text", Arguments: `{"text":"背景正文。"}`}}},
		{Text: "写作完成"},
	}}
	exec := &recordingExecutor{}
	w := &Writer{
		Client: client,
		Runner: tools.NewRunner(exec, retry.Config{}),
	}

	if err := w.Write(context.Background(), writerOutline(), 0, nil, nil, "", nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(exec.calls) != 1 || exec.calls[0].Name != "append_text" {
		t.Errorf("executed calls = %+v, want one append_text", exec.calls)
	}
	if len(client.Turns) != 0 {
		t.Errorf("%d scripted turns left, want 0", len(client.Turns))
	}
}

func TestWriteStopsAtRoundCap(t *testing.T) {
	turns := make([]model.ScriptTurn, 5)
	for i := range turns {
		turns[i] = model.ScriptTurn{ToolCalls: []model.ToolCall{
			{ID: "c", Name: "get_document_text", Arguments: "{}"},
		}}
	}
	client := &model.Mock{Turns: turns}
	w := &Writer{
		Client:    client,
		Runner:    tools.NewRunner(&recordingExecutor{}, retry.Config{}),
		MaxRounds: 2,
	}

	if err := w.Write(context.Background(), writerOutline(), 0, nil, nil, "", nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := 5 - len(client.Turns); got != 2 {
		t.Errorf("ran %d rounds, want 2", got)
	}
}

// TestWriterToolSpecsAcceptedByDocumentHost drives the document host with
// calls built strictly from the advertised schemas: every argument name and
// type comes from writerToolSpecs, not from knowledge of the host.
func TestWriterToolSpecsAcceptedByDocumentHost(t *testing.T) {
	doc, err := docfile.Open(filepath.Join(t.TempDir(), "doc.md"))
	if err != nil {
		t.Fatalf("opening document: %v", err)
	}
	ctx := context.Background()

	seed := model.ToolCall{ID: "seed", Name: "append_text", Arguments: `{"text":"第一段。\n\n第二段。"}`}
	if _, err := doc.Execute(ctx, []model.ToolCall{seed}, nil); err != nil {
		t.Fatalf("seeding document: %v", err)
	}

	for i, spec := range writerToolSpecs() {
		args := map[string]any{}
		props, _ := spec.Parameters["properties"].(map[string]any)
		required, _ := spec.Parameters["required"].([]string)
		for _, name := range required {
			prop, _ := props[name].(map[string]any)
			if prop["type"] == "integer" {
				args[name] = 1
			} else {
				args[name] = spec.Name + " 示例文本。"
			}
		}
		encoded, err := json.Marshal(args)
		if err != nil {
			t.Fatalf("encoding args for %s: %v", spec.Name, err)
		}

		call := model.ToolCall{ID: fmt.Sprintf("c%d", i), Name: spec.Name, Arguments: string(encoded)}
		results, err := doc.Execute(ctx, []model.ToolCall{call}, nil)
		if err != nil {
			t.Fatalf("Execute(%s) error = %v", spec.Name, err)
		}
		if !results[0].Success {
			t.Errorf("%s rejected its own advertised arguments: %s", spec.Name, results[0].Error)
		}
	}

	// insert_after_paragraph targeted paragraph 1, so its text must land
	// before the original second paragraph, not at the document end.
	text := doc.Text()
	inserted := strings.Index(text, "insert_after_paragraph 示例文本。")
	second := strings.Index(text, "第二段。")
	if inserted < 0 || second < 0 || inserted > second {
		t.Errorf("document = %q, want the insert placed after paragraph 1", text)
	}
}

func TestDraft(t *testing.T) {
	client := &model.Mock{Replies: []string{"# 测试文档\n\n## 背景\n\n第一段。"}}
	w := &Writer{Client: client}

	text, err := w.Draft(context.Background(), writerOutline(), 0, "")
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}
	if text == "" {
		t.Error("empty draft")
	}
}
