package core

import (
	"sync"
	"time"
)

// ConversationState is the per-thread container tracked across turns: an
// append-only message history plus run metadata. It is safe for concurrent
// access, although the orchestrator guarantees a single writer per thread.
//
// Contract:
//   - Messages are append-only; insertion order is the conversation's causal order
//   - StepCount increases monotonically, once per state-mutating stage
//   - FinalAnswer is written exactly once per run, by the response stage
//   - Clone performs deep copies so snapshots can diverge safely
type ConversationState struct {
	ThreadID     string    `json:"thread_id"`
	Messages     []Message `json:"messages"`
	StepCount    int       `json:"step_count"`
	Scratchpad   []string  `json:"scratchpad,omitempty"`
	FinalAnswer  string    `json:"final_answer,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`

	mu sync.RWMutex
}

// NewConversationState creates an empty state bound to a thread id.
func NewConversationState(threadID string) *ConversationState {
	now := time.Now().UTC()
	return &ConversationState{ThreadID: threadID, Messages: []Message{}, Created: now, Updated: now}
}

// BeginRun clears the terminal fields of the previous run so a new turn
// starts with a clean final answer and error slot. Message history and
// step count carry over untouched.
func (s *ConversationState) BeginRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinalAnswer = ""
	s.ErrorMessage = ""
	s.Updated = time.Now().UTC()
}

// AppendMessage appends a message and advances the step counter.
func (s *ConversationState) AppendMessage(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, m)
	s.StepCount++
	s.Updated = time.Now().UTC()
}

// AppendMessages appends a batch of messages as a single stage execution,
// advancing the step counter once. Used by tool execution where all results
// of one turn land together.
func (s *ConversationState) AppendMessages(msgs []Message) {
	if len(msgs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msgs...)
	s.StepCount++
	s.Updated = time.Now().UTC()
}

// AddNote appends a diagnostic line to the scratchpad. Notes are advisory
// only and never influence orchestration decisions.
func (s *ConversationState) AddNote(note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Scratchpad = append(s.Scratchpad, note)
}

// SetFinalAnswer records the terminal answer for the current run.
func (s *ConversationState) SetFinalAnswer(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinalAnswer = answer
	s.Updated = time.Now().UTC()
}

// SetErrorMessage records a degraded-run error after a stage exhausted its
// retry budget.
func (s *ConversationState) SetErrorMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrorMessage = msg
	s.Updated = time.Now().UTC()
}

// GetFinalAnswer returns the terminal answer, empty until the response stage ran.
func (s *ConversationState) GetFinalAnswer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FinalAnswer
}

// GetErrorMessage returns the degraded-run error message, if any.
func (s *ConversationState) GetErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ErrorMessage
}

// Steps returns the current step counter.
func (s *ConversationState) Steps() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.StepCount
}

// MessageCount returns the number of appended messages.
func (s *ConversationState) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Messages)
}

// LastMessage returns the most recently appended message.
func (s *ConversationState) LastMessage() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// History returns a defensive copy of the full message sequence.
func (s *ConversationState) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)
	return msgs
}

// PendingToolCalls returns the tool calls of the latest assistant message
// when no results have been appended for them yet.
func (s *ConversationState) PendingToolCalls() []ToolCallRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Messages) == 0 {
		return nil
	}
	last := s.Messages[len(s.Messages)-1]
	if last.Role != RoleAssistant || len(last.ToolCalls) == 0 {
		return nil
	}
	calls := make([]ToolCallRequest, len(last.ToolCalls))
	copy(calls, last.ToolCalls)
	return calls
}

// Clone returns a deep copy of the state safe for independent mutation.
func (s *ConversationState) Clone() *ConversationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &ConversationState{
		ThreadID:     s.ThreadID,
		Messages:     make([]Message, len(s.Messages)),
		StepCount:    s.StepCount,
		FinalAnswer:  s.FinalAnswer,
		ErrorMessage: s.ErrorMessage,
		Created:      s.Created,
		Updated:      s.Updated,
	}
	copy(clone.Messages, s.Messages)
	if len(s.Scratchpad) > 0 {
		clone.Scratchpad = make([]string, len(s.Scratchpad))
		copy(clone.Scratchpad, s.Scratchpad)
	}
	return clone
}
