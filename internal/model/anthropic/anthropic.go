// Package anthropic implements the non-streaming model client on top of
// llmkit's Anthropic bindings. Tool-calling turns are not supported here;
// the factory routes tool-using roles to an OpenAI-compatible provider.
package anthropic

import (
	"context"
	"errors"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"github.com/scribeworks/scribe/internal/model"
)

// Client calls the Anthropic API through llmkit.
type Client struct {
	apiKey string
}

// New builds a client.
func New(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic api key missing")
	}
	return &Client{apiKey: apiKey}, nil
}

// Generate runs a single non-streaming completion.
func (c *Client) Generate(ctx context.Context, system, prompt string, opts model.Options) (model.Reply, error) {
	if err := ctx.Err(); err != nil {
		return model.Reply{}, err
	}

	settings := types.RequestSettings{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	response, err := anthropic.PromptWithSettings(system, prompt, "", c.apiKey, settings)
	if err != nil {
		return model.Reply{}, err
	}
	if len(response.Content) == 0 {
		return model.Reply{}, errors.New("anthropic: no content in response")
	}
	return model.Reply{Text: response.Content[0].Text}, nil
}

// GenerateWithTools always fails: llmkit's prompt API does not expose a raw
// tool-call loop.
func (c *Client) GenerateWithTools(ctx context.Context, messages []model.Message, tools []model.ToolSpec, system string, onChunk func(model.StreamChunk), opts model.Options) ([]model.ToolCall, string, error) {
	return nil, "", model.ErrToolsUnsupported
}

// SupportsTools reports that this provider cannot run tool-calling turns,
// so role wiring can reject it up front instead of failing mid-run.
func (c *Client) SupportsTools() bool {
	return false
}

func init() {
	model.Register("anthropic", func(s model.Settings) (model.Client, error) {
		return New(s.APIKey)
	})
}
