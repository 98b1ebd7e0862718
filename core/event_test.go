package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelSink_DropsWhenFull(t *testing.T) {
	sink := NewChannelSink(2)

	// More sends than buffer capacity must not block the producer.
	for i := 0; i < 10; i++ {
		sink.Send(NewStreamEvent(StatusRunning, "reasoning", "t1", "working"))
	}
	sink.Close()

	var received int
	for range sink.Events() {
		received++
	}
	assert.Equal(t, 2, received)
}

func TestSinkFunc(t *testing.T) {
	var got []StreamEvent
	sink := SinkFunc(func(ev StreamEvent) { got = append(got, ev) })
	sink.Send(NewStreamEvent(StatusStarting, "entry", "t1", "processing"))

	assert.Len(t, got, 1)
	assert.Equal(t, StatusStarting, got[0].Status)
	assert.Equal(t, "entry", got[0].Stage)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestNopSink(t *testing.T) {
	var sink EventSink = NopSink{}
	assert.NotPanics(t, func() { sink.Send(NewStreamEvent(StatusCompleted, "response", "t1", "done")) })
}
