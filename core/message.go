package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks messages supplied by the caller.
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by the reasoning provider.
	RoleAssistant Role = "assistant"
	// RoleTool marks tool-result messages correlated to a prior tool call.
	RoleTool Role = "tool"
)

// ToolCallRequest describes a tool invocation requested by an assistant
// message. Arguments carry the serialized JSON payload exactly as the
// provider produced it.
type ToolCallRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// ToolResult captures the outcome of a single tool invocation. Exactly one of
// Output or Err is meaningful; Err is populated when the tool failed or was
// unknown so the conversation can continue and the model can self-correct.
type ToolResult struct {
	RequestID string `json:"request_id"`
	Output    string `json:"output,omitempty"`
	Err       string `json:"error,omitempty"`
}

// Content returns the text recorded into the correlated tool message.
func (r ToolResult) Content() string {
	if r.Err != "" {
		return r.Err
	}
	return r.Output
}

// Message is an immutable conversational record. Content may be empty when an
// assistant message only carries tool-call requests. ToolCallID is set only
// on tool-role messages and correlates the result back to the request that
// produced it.
type Message struct {
	ID         string            `json:"id"`
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return Message{ID: NewID(), Role: RoleUser, Content: text, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage creates an assistant message carrying text and any
// tool-call requests the provider surfaced for this turn.
func NewAssistantMessage(text string, calls ...ToolCallRequest) Message {
	return Message{ID: NewID(), Role: RoleAssistant, Content: text, ToolCalls: calls, Timestamp: time.Now().UTC()}
}

// NewToolResultMessage records the completion result (or error) of a tool
// invocation, correlated by the originating request id.
func NewToolResultMessage(result ToolResult) Message {
	return Message{
		ID:         NewID(),
		Role:       RoleTool,
		Content:    result.Content(),
		ToolCallID: result.RequestID,
		Timestamp:  time.Now().UTC(),
	}
}

// HasToolCalls reports whether this assistant message requests tool execution.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// NewID generates a new unique identifier for messages and threads.
func NewID() string { return uuid.NewString() }
