// Package model defines the pipeline's model-call boundary: a provider-
// neutral client interface plus the message, tool and stream types it
// speaks. Concrete providers live in subpackages.
package model

import (
	"context"
	"errors"
)

// Role identifies a message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of a tool-calling conversation.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // assistant turns that requested tools
	ToolCallID string     // set on tool-result turns
}

// ToolCall is one finalized tool request emitted by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema
}

// ChunkKind discriminates streamed output variants.
type ChunkKind int

const (
	TextDelta ChunkKind = iota
	ThinkingDelta
	ToolArgDelta
)

// StreamChunk is one incremental piece of streamed model output.
type StreamChunk struct {
	Kind ChunkKind
	Text string
}

// Options tunes a single model call.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Reply is the result of a non-streaming generation.
type Reply struct {
	Text     string
	Thinking string
}

// ErrToolsUnsupported is returned by providers that cannot run a streaming
// tool-calling turn.
var ErrToolsUnsupported = errors.New("provider does not support tool calling")

// Client is the model-call capability the agents depend on.
type Client interface {
	// Generate runs a single non-streaming completion.
	Generate(ctx context.Context, system, prompt string, opts Options) (Reply, error)

	// GenerateWithTools runs one streaming turn of a tool-calling
	// conversation. onChunk (may be nil) receives incremental output; the
	// finalized tool-call batch and accumulated text are returned once the
	// turn ends. An empty batch means the model finished without tools.
	GenerateWithTools(ctx context.Context, messages []Message, tools []ToolSpec, system string, onChunk func(StreamChunk), opts Options) ([]ToolCall, string, error)
}
