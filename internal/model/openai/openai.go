// Package openai implements the model client against any OpenAI-compatible
// chat-completions endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/scribeworks/scribe/internal/model"
)

// Client talks to an OpenAI-compatible endpoint.
type Client struct {
	client openai.Client
}

// New builds a client. baseURL may be empty for the default endpoint.
func New(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{client: openai.NewClient(opts...)}, nil
}

// Generate runs a single non-streaming completion.
func (c *Client) Generate(ctx context.Context, system, prompt string, opts model.Options) (model.Reply, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	}
	applyOptions(&params, opts)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Reply{}, err
	}
	if len(resp.Choices) == 0 {
		return model.Reply{}, errors.New("openai: empty choices")
	}
	return model.Reply{Text: resp.Choices[0].Message.Content}, nil
}

// GenerateWithTools runs one streaming tool-calling turn.
func (c *Client) GenerateWithTools(ctx context.Context, messages []model.Message, tools []model.ToolSpec, system string, onChunk func(model.StreamChunk), opts model.Options) ([]model.ToolCall, string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(opts.Model),
		Messages: convertMessages(system, messages),
		Tools:    convertTools(tools),
	}
	applyOptions(&params, opts)

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if onChunk == nil || len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			onChunk(model.StreamChunk{Kind: model.TextDelta, Text: delta.Content})
		}
		for _, tc := range delta.ToolCalls {
			if tc.Function.Arguments != "" {
				onChunk(model.StreamChunk{Kind: model.ToolArgDelta, Text: tc.Function.Arguments})
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, "", fmt.Errorf("openai stream: %w", err)
	}
	if len(acc.Choices) == 0 {
		return nil, "", errors.New("openai: empty streamed choices")
	}

	msg := acc.Choices[0].Message
	var calls []model.ToolCall
	for _, tc := range msg.ToolCalls {
		calls = append(calls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return calls, msg.Content, nil
}

func applyOptions(params *openai.ChatCompletionNewParams, opts model.Options) {
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
}

func convertMessages(system string, messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range messages {
		switch m.Role {
		case model.RoleAssistant:
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case model.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func convertTools(tools []model.ToolSpec) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters),
			},
		})
	}
	return out
}

func init() {
	model.Register("openai", func(s model.Settings) (model.Client, error) {
		return New(s.APIKey, s.BaseURL)
	})
}
