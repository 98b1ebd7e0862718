package core

import "time"

// Status enumerates the lifecycle phases reported through the streaming sink.
type Status string

const (
	// StatusStarting is emitted once before the loop begins.
	StatusStarting Status = "starting"
	// StatusRunning is emitted while a stage is executing.
	StatusRunning Status = "running"
	// StatusToolDecision is emitted when the assistant requested tool execution.
	StatusToolDecision Status = "tool_decision"
	// StatusResponseReady is emitted when a final answer has been derived.
	StatusResponseReady Status = "response_ready"
	// StatusError is emitted when a stage degraded after exhausting retries.
	StatusError Status = "error"
	// StatusCompleted is emitted once after the state has been persisted.
	StatusCompleted Status = "completed"
)

// StreamEvent is an advisory progress notification. Events never gate
// orchestration correctness; a consumer may drop or ignore them freely.
type StreamEvent struct {
	Status    Status    `json:"status"`
	Stage     string    `json:"stage"`
	ThreadID  string    `json:"thread_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStreamEvent constructs an event stamped with the current UTC time.
func NewStreamEvent(status Status, stage, threadID, message string) StreamEvent {
	return StreamEvent{Status: status, Stage: stage, ThreadID: threadID, Message: message, Timestamp: time.Now().UTC()}
}

// EventSink receives progress events. Send must never block: a slow or absent
// consumer must not stall the orchestration loop.
type EventSink interface {
	Send(ev StreamEvent)
}

// SinkFunc adapts a function to the EventSink interface. The function itself
// must be non-blocking.
type SinkFunc func(ev StreamEvent)

// Send implements EventSink.
func (f SinkFunc) Send(ev StreamEvent) { f(ev) }

// NopSink discards all events. Used when no consumer is attached.
type NopSink struct{}

// Send implements EventSink.
func (NopSink) Send(StreamEvent) {}

// ChannelSink forwards events into a buffered channel, dropping events when
// the buffer is full rather than blocking the producer.
type ChannelSink struct {
	ch chan StreamEvent
}

// NewChannelSink creates a sink with the given buffer size (minimum 1).
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan StreamEvent, buffer)}
}

// Send implements EventSink with drop-on-full semantics.
func (s *ChannelSink) Send(ev StreamEvent) {
	select {
	case s.ch <- ev:
	default:
	}
}

// Events exposes the receiving side of the sink.
func (s *ChannelSink) Events() <-chan StreamEvent { return s.ch }

// Close closes the underlying channel. Call only after the producing run
// returned.
func (s *ChannelSink) Close() { close(s.ch) }
