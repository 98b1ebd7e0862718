// Package openai provides a provider adapter for the OpenAI Chat Completions
// API, including function/tool calling. It converts the flat conversation
// history into the SDK's message format and back.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/convoloop/convoloop/core"
	"github.com/convoloop/convoloop/provider"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI provider adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Provider wraps the OpenAI Chat Completions API behind the generic
// provider.Provider interface.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Invoke implements provider.Provider with a single non-streaming completion.
func (p *Provider) Invoke(ctx context.Context, req provider.Request) (core.Message, error) {
	params := p.buildParams(req)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return core.Message{}, classify("chat.completions.new", err)
	}
	if len(resp.Choices) == 0 {
		return core.Message{}, provider.NewPermanentError(
			"chat.completions.new", errors.New("no choices returned"))
	}

	choice := resp.Choices[0]
	calls := make([]core.ToolCallRequest, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, core.ToolCallRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return core.NewAssistantMessage(choice.Message.Content, calls...), nil
}

// Info implements provider.Provider.
func (p *Provider) Info() provider.Info {
	return provider.Info{Name: p.opts.Model, Vendor: "openai", SupportsTools: true}
}

// buildParams assembles the request parameters including tool definitions.
func (p *Provider) buildParams(req provider.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               p.opts.Model,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, t := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// buildMessages converts the flat conversation history into OpenAI chat
// messages. Tool-result messages map directly onto the SDK's tool role.
func buildMessages(req provider.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case core.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
			for i, call := range m.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   call.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				}
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}
			// Keep any text the assistant produced alongside its tool calls so
			// the replayed history stays lossless.
			if m.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(m.Content),
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}

	return messages
}

// classify wraps an SDK error as transient or permanent based on the HTTP
// status, so the orchestrator retries only what can plausibly recover.
func classify(op string, err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		wrapped := fmt.Errorf("openai api error: %w", err)
		if provider.TransientStatus(apierr.StatusCode) {
			return provider.NewTransientError(op, wrapped)
		}
		return provider.NewPermanentError(op, wrapped)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return provider.NewTransientError(op, fmt.Errorf("openai request failed: %w", err))
}
