package memory

import (
	"testing"

	"github.com/convoloop/convoloop/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileManager_RoundTrip(t *testing.T) {
	m, err := NewFileManager(t.TempDir())
	require.NoError(t, err)

	id := m.CreateThread()

	state, err := m.Load(id)
	require.NoError(t, err)
	state.AppendMessage(core.NewUserMessage("get value of X"))
	state.AppendMessage(core.NewAssistantMessage("", core.ToolCallRequest{ID: "c1", Name: "get_x", Arguments: `{}`}))
	state.AppendMessage(core.NewToolResultMessage(core.ToolResult{RequestID: "c1", Output: "42"}))
	state.SetFinalAnswer("X is 42")
	require.NoError(t, m.Save(id, state))

	reloaded, err := m.Load(id)
	require.NoError(t, err)
	assert.Equal(t, state.History(), reloaded.History())
	assert.Equal(t, state.Steps(), reloaded.Steps())
	assert.Equal(t, "X is 42", reloaded.GetFinalAnswer())
}

func TestFileManager_LoadUnknown(t *testing.T) {
	m, err := NewFileManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.Load("missing")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestFileManager_ListAndDelete(t *testing.T) {
	m, err := NewFileManager(t.TempDir())
	require.NoError(t, err)

	a := m.CreateThread()
	b := m.CreateThread()
	assert.ElementsMatch(t, []string{a, b}, m.ListActive())

	assert.True(t, m.Delete(b))
	assert.False(t, m.Delete(b))
	assert.ElementsMatch(t, []string{a}, m.ListActive())
}

func TestFileManager_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	m1, err := NewFileManager(dir)
	require.NoError(t, err)
	id := m1.CreateThread()
	state, err := m1.Load(id)
	require.NoError(t, err)
	state.AppendMessage(core.NewUserMessage("persist me"))
	require.NoError(t, m1.Save(id, state))

	m2, err := NewFileManager(dir)
	require.NoError(t, err)
	reloaded, err := m2.Load(id)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.MessageCount())
	last, _ := reloaded.LastMessage()
	assert.Equal(t, "persist me", last.Content)
}
