package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// ErrNoSnapshot is returned when a memory document carries no parseable
// embedded snapshot block.
var ErrNoSnapshot = errors.New("memory document has no snapshot block")

// Render serializes memory as a human-readable markdown document. The prose
// sections are for people; the fenced JSON snapshot at the end is what
// Parse round-trips exactly.
func Render(s *State) string {
	var b strings.Builder
	b.WriteString("# 写作长期记忆\n\n")

	b.WriteString("## 角色设定\n\n")
	if len(s.Personas) == 0 {
		b.WriteString("（无）\n")
	}
	for _, p := range s.Personas {
		b.WriteString("- " + p + "\n")
	}

	b.WriteString("\n## 术语表\n\n")
	if len(s.Glossary) == 0 {
		b.WriteString("（无）\n")
	}
	for _, g := range s.Glossary {
		fmt.Fprintf(&b, "- **%s**：%s（频次 %d）\n", g.Term, g.Note, g.Frequency)
	}

	b.WriteString("\n## 章节摘要\n\n")
	for _, sum := range s.Summaries {
		fmt.Fprintf(&b, "### %s（%s）\n\n%s\n\n", sum.Title, sum.SectionID, sum.Summary)
		if len(sum.Keywords) > 0 {
			fmt.Fprintf(&b, "关键词：%s\n\n", strings.Join(sum.Keywords, "、"))
		}
	}

	fmt.Fprintf(&b, "## 更新时间\n\n%s\n\n", s.UpdatedAt.Format(time.RFC3339))

	snapshot, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		// State is plain data; marshaling cannot realistically fail, but a
		// snapshot-less document is still readable.
		return b.String()
	}
	b.WriteString("## 快照\n\n```json\n")
	b.Write(snapshot)
	b.WriteString("\n```\n")
	return b.String()
}

// Parse restores a memory state from a rendered document by locating the
// fenced JSON snapshot block in the markdown AST.
func Parse(document string) (*State, error) {
	source := []byte(document)
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(source))

	var snapshot []byte
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if lang := fc.Language(source); !bytes.Equal(lang, []byte("json")) {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		for i := 0; i < fc.Lines().Len(); i++ {
			line := fc.Lines().At(i)
			buf.Write(line.Value(source))
		}
		snapshot = buf.Bytes()
		return ast.WalkStop, nil
	})
	if err != nil {
		return nil, err
	}
	if len(snapshot) == 0 {
		return nil, ErrNoSnapshot
	}

	var state State
	if err := json.Unmarshal(snapshot, &state); err != nil {
		return nil, fmt.Errorf("parsing memory snapshot: %w", err)
	}
	return &state, nil
}
