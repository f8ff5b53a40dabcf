package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/scribeworks/scribe/internal/llmjson"
	"github.com/scribeworks/scribe/internal/model"
	"github.com/scribeworks/scribe/internal/outline"
)

// ErrEmptyOutline is returned when the planner produced no usable sections.
// Outline generation has no fallback: without it there is nothing to write.
var ErrEmptyOutline = errors.New("planner returned no usable sections")

// Planner turns a requirement and any existing document into an outline.
type Planner struct {
	Client model.Client
	Opts   model.Options
}

// Plan runs the single non-streaming planning call. Unparseable or empty
// outlines are fatal.
func (p *Planner) Plan(ctx context.Context, requirement, document string) (*outline.Outline, error) {
	reply, err := p.Client.Generate(ctx, plannerSystem, BuildPlannerPrompt(requirement, document), p.Opts)
	if err != nil {
		return nil, fmt.Errorf("planner call: %w", err)
	}

	var o outline.Outline
	if err := llmjson.Decode(reply.Text, &o, "sections"); err != nil {
		return nil, fmt.Errorf("parsing outline: %w", err)
	}

	sections := o.Sections[:0]
	for i, sec := range o.Sections {
		if sec.Title == "" {
			continue
		}
		if sec.ID == "" {
			sec.ID = fmt.Sprintf("section-%d", i+1)
		}
		if sec.Level <= 0 {
			sec.Level = 2
		}
		if sec.EstimatedParagraphs <= 0 {
			sec.EstimatedParagraphs = 3
		}
		sections = append(sections, sec)
	}
	o.Sections = sections
	if len(o.Sections) == 0 {
		return nil, ErrEmptyOutline
	}

	if o.TotalParagraphs <= 0 {
		for _, sec := range o.Sections {
			o.TotalParagraphs += sec.EstimatedParagraphs
		}
	}
	return &o, nil
}
