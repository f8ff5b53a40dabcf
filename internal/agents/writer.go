package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/outline"
	"github.com/scribeworks/scribe/internal/tools"
)

// DefaultMaxWriteRounds caps the agentic tool-calling loop per section.
const DefaultMaxWriteRounds = 15

// Writer drafts and writes sections. Draft is pure generation for the
// parallel first pass; Write runs the bounded tool-calling loop used for
// precise document edits and revisions.
type Writer struct {
	Client    model.Client
	Runner    *tools.Runner
	Opts      model.Options
	MaxRounds int
}

// Draft generates the section's markdown body in a single non-streaming
// call, with tool use explicitly forbidden.
func (w *Writer) Draft(ctx context.Context, o *outline.Outline, idx int, memoryContext string) (string, error) {
	reply, err := w.Client.Generate(ctx, writerSystem, BuildDraftPrompt(o, idx, memoryContext), w.Opts)
	if err != nil {
		return "", fmt.Errorf("drafting %q: %w", o.Sections[idx].Title, err)
	}
	return reply.Text, nil
}

// Write runs the agentic loop for one section: each turn may request tool
// calls, which are executed and fed back as the next turn's context. The
// loop ends when a turn produces zero tool calls or the round cap is hit.
// feedback, when set, turns the task into a surgical revision.
func (w *Writer) Write(ctx context.Context, o *outline.Outline, idx int, prior []SectionResult, feedback *SectionFeedback, memoryContext string, onChunk func(model.StreamChunk)) error {
	rounds := w.MaxRounds
	if rounds <= 0 {
		rounds = DefaultMaxWriteRounds
	}

	messages := []model.Message{{
		Role:    model.RoleUser,
		Content: BuildWritePrompt(o, idx, prior, feedback, memoryContext),
	}}

	for round := 0; round < rounds; round++ {
		calls, text, err := w.Client.GenerateWithTools(ctx, messages, writerToolSpecs(), writerSystem, onChunk, w.Opts)
		if err != nil {
			return fmt.Errorf("writing %q: %w", o.Sections[idx].Title, err)
		}
		if len(calls) == 0 {
			return nil
		}

		messages = append(messages, model.Message{
			Role:      model.RoleAssistant,
			Content:   text,
			ToolCalls: calls,
		})

		results, err := w.Runner.Execute(ctx, calls)
		if err != nil {
			return fmt.Errorf("executing tools for %q: %w", o.Sections[idx].Title, err)
		}
		for _, res := range results {
			payload, err := json.Marshal(res)
			if err != nil {
				payload = []byte(`{"success":false,"error":"result serialization failed"}`)
			}
			messages = append(messages, model.Message{
				Role:       model.RoleTool,
				ToolCallID: res.ID,
				Content:    string(payload),
			})
		}
	}
	return nil
}

// writerToolSpecs is the restricted tool set offered to the writer: read
// tools plus the document write primitives. The pipeline treats the names
// as opaque; execution happens in the injected executor.
func writerToolSpecs() []model.ToolSpec {
	text := func(desc string) map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string", "description": desc},
			},
			"required": []string{"text"},
		}
	}
	paragraph := func(desc string) map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"paragraph": map[string]any{"type": "integer", "description": desc},
			},
			"required": []string{"paragraph"},
		}
	}
	return []model.ToolSpec{
		{Name: "get_document_text", Description: "读取当前文档全文", Parameters: map[string]any{"type": "object", "properties": map[string]any{}}},
		{Name: "get_document_structure", Description: "读取文档结构（段落编号与标题层级）", Parameters: map[string]any{"type": "object", "properties": map[string]any{}}},
		{Name: "search_document", Description: "在文档中检索文本", Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "检索关键词"},
			},
			"required": []string{"query"},
		}},
		{Name: "append_text", Description: "在文档末尾追加文本", Parameters: text("要追加的 Markdown 文本")},
		{Name: "insert_after_paragraph", Description: "在指定段落之后插入文本", Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"paragraph": map[string]any{"type": "integer", "description": "段落编号"},
				"text":      map[string]any{"type": "string", "description": "要插入的文本"},
			},
			"required": []string{"paragraph", "text"},
		}},
		{Name: "select_paragraph", Description: "选中指定段落作为后续替换目标", Parameters: paragraph("段落编号")},
		{Name: "replace_selected_text", Description: "替换当前选中的段落文本", Parameters: text("替换后的文本")},
	}
}
