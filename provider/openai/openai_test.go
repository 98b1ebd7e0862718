package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoloop/convoloop/core"
	"github.com/convoloop/convoloop/provider"
)

func TestBuildMessagesRoles(t *testing.T) {
	req := provider.Request{
		Instructions: "be brief",
		Messages: []core.Message{
			core.NewUserMessage("hi"),
			core.NewAssistantMessage("hello"),
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 3)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
}

func TestBuildMessagesKeepsAssistantTextWithToolCalls(t *testing.T) {
	req := provider.Request{
		Messages: []core.Message{
			core.NewAssistantMessage("checking the weather",
				core.ToolCallRequest{ID: "c-1", Name: "weather", Arguments: `{"city":"Berlin"}`}),
			core.NewToolResultMessage(core.ToolResult{RequestID: "c-1", Output: "sunny"}),
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 2)

	assistant := msgs[0].OfAssistant
	require.NotNil(t, assistant)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "c-1", assistant.ToolCalls[0].ID)
	assert.Equal(t, "weather", assistant.ToolCalls[0].Function.Name)
	assert.Equal(t, `{"city":"Berlin"}`, assistant.ToolCalls[0].Function.Arguments)
	assert.Equal(t, "checking the weather", assistant.Content.OfString.Value)

	toolMsg := msgs[1].OfTool
	require.NotNil(t, toolMsg)
	assert.Equal(t, "c-1", toolMsg.ToolCallID)
}

func TestBuildMessagesOmitsEmptyAssistantText(t *testing.T) {
	req := provider.Request{
		Messages: []core.Message{
			core.NewAssistantMessage("",
				core.ToolCallRequest{ID: "c-1", Name: "noop", Arguments: `{}`}),
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 1)
	assistant := msgs[0].OfAssistant
	require.NotNil(t, assistant)
	assert.False(t, assistant.Content.OfString.Valid())
}

func TestBuildParamsWiresTools(t *testing.T) {
	p := NewFromClient(nil, func(o *Options) { o.Model = "gpt-4o" })
	params := p.buildParams(provider.Request{
		Tools: []provider.ToolDefinition{
			{Name: "echo", Description: "Echo text", Parameters: map[string]any{"type": "object"}},
		},
	})

	assert.Equal(t, "gpt-4o", params.Model)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "echo", params.Tools[0].Function.Name)
}
