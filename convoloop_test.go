package convoloop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoloop/convoloop/core"
	"github.com/convoloop/convoloop/memory"
	"github.com/convoloop/convoloop/provider"
	"github.com/convoloop/convoloop/tool"
)

func TestLoopChat(t *testing.T) {
	p := provider.NewScriptedProvider(provider.TextStep("hello back"))
	loop, err := New(p)
	require.NoError(t, err)

	threadID := loop.NewThread()
	answer, err := loop.Chat(context.Background(), threadID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello back", answer)

	history, err := loop.History(threadID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
}

func TestLoopWithToolsAndSink(t *testing.T) {
	shout := tool.NewFunctionTool("shout", "Uppercase text",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []string{"text"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return "LOUD: " + args["text"].(string), nil
		},
	)
	p := provider.NewScriptedProvider(
		provider.ToolCallStep("", core.ToolCallRequest{ID: "c-1", Name: "shout", Arguments: `{"text":"hi"}`}),
		provider.TextStep("It said LOUD: hi"),
	)

	sink := core.NewChannelSink(32)
	loop, err := New(p, func(o *Options) {
		o.Tools = []tool.Tool{shout}
		o.Sink = sink
	})
	require.NoError(t, err)

	threadID := loop.NewThread()
	answer, err := loop.Chat(context.Background(), threadID, "shout hi")
	require.NoError(t, err)
	assert.Equal(t, "It said LOUD: hi", answer)
	sink.Close()

	var sawToolDecision, sawCompleted bool
	for ev := range sink.Events() {
		switch ev.Status {
		case core.StatusToolDecision:
			sawToolDecision = true
		case core.StatusCompleted:
			sawCompleted = true
		}
	}
	assert.True(t, sawToolDecision)
	assert.True(t, sawCompleted)
}

func TestLoopRejectsDuplicateTools(t *testing.T) {
	noop := func(context.Context, map[string]any) (any, error) { return nil, nil }
	schema := map[string]any{"type": "object", "properties": map[string]any{}}
	_, err := New(provider.NewScriptedProvider(), func(o *Options) {
		o.Tools = []tool.Tool{
			tool.NewFunctionTool("dup", "first", schema, noop),
			tool.NewFunctionTool("dup", "second", schema, noop),
		}
	})
	require.Error(t, err)
}

func TestLoopThreadManagement(t *testing.T) {
	loop, err := New(provider.NewScriptedProvider(provider.TextStep("ok")))
	require.NoError(t, err)

	a := loop.NewThread()
	b := loop.NewThread()
	assert.NotEqual(t, a, b)
	assert.ElementsMatch(t, []string{a, b}, loop.Threads())

	assert.True(t, loop.DropThread(a))
	assert.False(t, loop.DropThread(a))
	assert.ElementsMatch(t, []string{b}, loop.Threads())

	_, err = loop.Chat(context.Background(), a, "hello")
	var serr *core.StateError
	require.ErrorAs(t, err, &serr)
}

func TestLoopCustomMemory(t *testing.T) {
	mem := memory.NewInMemoryManager()
	loop, err := New(provider.NewScriptedProvider(provider.TextStep("ok")), func(o *Options) {
		o.Memory = mem
	})
	require.NoError(t, err)

	threadID := loop.NewThread()
	_, err = loop.Chat(context.Background(), threadID, "hi")
	require.NoError(t, err)

	state, err := mem.Load(threadID)
	require.NoError(t, err)
	assert.Equal(t, "ok", state.GetFinalAnswer())
}
