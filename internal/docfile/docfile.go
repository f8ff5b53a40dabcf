// Package docfile implements the writer toolset against a markdown file on
// disk. The document is held in memory as a paragraph list and flushed to the
// file after every mutating call, so a crashed run leaves the latest
// successful write behind.
package docfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/tools"
)

// Document edits a markdown file through the writer tool names.
type Document struct {
	mu         sync.Mutex
	path       string
	paragraphs []string
	selected   int
}

// Open loads path, splitting existing content into paragraphs on blank lines.
// A missing file starts an empty document.
func Open(path string) (*Document, error) {
	d := &Document{path: path, selected: -1}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, err
	}
	d.paragraphs = splitParagraphs(string(data))
	return d, nil
}

// Text returns the current document text.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.Join(d.paragraphs, "\n\n")
}

// Execute dispatches a batch of tool calls. It satisfies tools.Executor;
// duplicate-write suppression happens in the runner before calls reach here.
func (d *Document) Execute(ctx context.Context, calls []model.ToolCall, written []string) ([]tools.Result, error) {
	results := make([]tools.Result, 0, len(calls))
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		out, err := d.execute(call)
		res := tools.Result{ID: call.ID, Name: call.Name, Success: err == nil, Result: out}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

type callArgs struct {
	Text      string `json:"text"`
	Content   string `json:"content"`
	Query     string `json:"query"`
	Paragraph int    `json:"paragraph"`
}

func (a callArgs) body() string {
	if a.Text != "" {
		return a.Text
	}
	return a.Content
}

func (d *Document) execute(call model.ToolCall) (string, error) {
	var args callArgs
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", fmt.Errorf("参数错误: %w", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch call.Name {
	case "get_document_text":
		return strings.Join(d.paragraphs, "\n\n"), nil
	case "get_document_structure":
		return d.structure(), nil
	case "search_document":
		return d.search(args.Query), nil
	case "append_text", "insert_text":
		return d.appendText(args.body())
	case "insert_after_paragraph":
		return d.insertAfter(args.Paragraph, args.body())
	case "select_paragraph":
		return d.selectParagraph(args.Paragraph)
	case "replace_selected_text":
		return d.replaceSelected(args.body())
	default:
		return "", fmt.Errorf("未知工具: %s", call.Name)
	}
}

func (d *Document) structure() string {
	if len(d.paragraphs) == 0 {
		return "文档为空"
	}
	var b strings.Builder
	for i, p := range d.paragraphs {
		line := p
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		runes := []rune(line)
		if len(runes) > 60 {
			line = string(runes[:60]) + "…"
		}
		fmt.Fprintf(&b, "[%d] %s\n", i+1, line)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Document) search(query string) string {
	if query == "" {
		return "查询为空"
	}
	var hits []string
	for i, p := range d.paragraphs {
		if strings.Contains(p, query) {
			hits = append(hits, fmt.Sprintf("[%d] %s", i+1, p))
		}
	}
	if len(hits) == 0 {
		return "未找到匹配段落"
	}
	return strings.Join(hits, "\n\n")
}

func (d *Document) appendText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("参数错误: text 为空")
	}
	d.paragraphs = append(d.paragraphs, splitParagraphs(text)...)
	if err := d.flush(); err != nil {
		return "", err
	}
	return fmt.Sprintf("已追加，文档现有 %d 个段落", len(d.paragraphs)), nil
}

func (d *Document) insertAfter(paragraph int, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("参数错误: text 为空")
	}
	if paragraph < 1 || paragraph > len(d.paragraphs) {
		return d.appendText(text)
	}
	inserted := splitParagraphs(text)
	rest := append([]string{}, d.paragraphs[paragraph:]...)
	d.paragraphs = append(d.paragraphs[:paragraph], append(inserted, rest...)...)
	if err := d.flush(); err != nil {
		return "", err
	}
	return fmt.Sprintf("已在段落 %d 之后插入", paragraph), nil
}

func (d *Document) selectParagraph(paragraph int) (string, error) {
	if paragraph < 1 || paragraph > len(d.paragraphs) {
		return "", fmt.Errorf("参数错误: 段落 %d 不存在，文档共 %d 个段落", paragraph, len(d.paragraphs))
	}
	d.selected = paragraph - 1
	return d.paragraphs[d.selected], nil
}

func (d *Document) replaceSelected(text string) (string, error) {
	if d.selected < 0 || d.selected >= len(d.paragraphs) {
		return "", fmt.Errorf("参数错误: 请先调用 select_paragraph 选中段落")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("参数错误: text 为空")
	}
	d.paragraphs[d.selected] = text
	idx := d.selected
	d.selected = -1
	if err := d.flush(); err != nil {
		return "", err
	}
	return fmt.Sprintf("已替换段落 %d", idx+1), nil
}

func (d *Document) flush() error {
	content := strings.Join(d.paragraphs, "\n\n")
	if content != "" {
		content += "\n"
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, d.path)
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
