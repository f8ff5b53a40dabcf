package model

import (
	"context"
	"errors"
	"sync"
)

// ScriptTurn is one scripted tool-calling turn.
type ScriptTurn struct {
	Text      string
	ToolCalls []ToolCall
}

// Mock is a scripted client for tests and offline runs. Replies and turns
// are consumed in order; running past the script is an error.
type Mock struct {
	mu sync.Mutex

	// Replies are consumed by Generate in order. When a Reply function is
	// set, it takes precedence and the queue is untouched.
	Replies []string
	// ReplyFunc, when set, computes each Generate response from the prompt.
	ReplyFunc func(system, prompt string) (string, error)

	// Turns are consumed by GenerateWithTools in order.
	Turns []ScriptTurn

	// Calls records every prompt seen, for assertions.
	Calls []string
}

// Generate pops the next scripted reply.
func (m *Mock) Generate(_ context.Context, system, prompt string, _ Options) (Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, prompt)

	if m.ReplyFunc != nil {
		text, err := m.ReplyFunc(system, prompt)
		return Reply{Text: text}, err
	}
	if len(m.Replies) == 0 {
		return Reply{}, errors.New("mock: no scripted replies left")
	}
	text := m.Replies[0]
	m.Replies = m.Replies[1:]
	return Reply{Text: text}, nil
}

// GenerateWithTools pops the next scripted turn.
func (m *Mock) GenerateWithTools(_ context.Context, messages []Message, _ []ToolSpec, _ string, onChunk func(StreamChunk), _ Options) ([]ToolCall, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(messages) > 0 {
		m.Calls = append(m.Calls, messages[len(messages)-1].Content)
	}
	if len(m.Turns) == 0 {
		return nil, "", errors.New("mock: no scripted turns left")
	}
	turn := m.Turns[0]
	m.Turns = m.Turns[1:]
	if onChunk != nil && turn.Text != "" {
		onChunk(StreamChunk{Kind: TextDelta, Text: turn.Text})
	}
	return turn.ToolCalls, turn.Text, nil
}
