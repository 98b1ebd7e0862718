// Package convoloop provides a high-level façade over the orchestrator and
// its services (providers, tools, memory & logging) enabling rapid
// construction of tool-calling conversational applications. Most
// applications interact with this package by:
//  1. Creating a Loop via New() with a provider and optional tool set
//  2. Opening threads with NewThread()
//  3. Sending user turns with Chat() and consuming progress events from
//     an optional sink
//
// The façade delegates turn execution to orchestrator.Orchestrator while
// keeping setup and usage ergonomics concise. All defaults are safe for
// local development and testing; production deployments typically supply a
// durable memory manager and a structured logger.
package convoloop

import (
	"context"

	"github.com/convoloop/convoloop/core"
	"github.com/convoloop/convoloop/logging"
	"github.com/convoloop/convoloop/memory"
	"github.com/convoloop/convoloop/orchestrator"
	"github.com/convoloop/convoloop/provider"
	"github.com/convoloop/convoloop/tool"
)

// Options configures the Loop instance.
type Options struct {
	// Instructions is the system prompt applied to every turn.
	Instructions string

	// Tools are offered to the model on every reasoning pass.
	Tools []tool.Tool

	// Memory stores conversation state per thread (defaults to the
	// in-memory manager if not provided).
	Memory memory.Manager

	// MaxIterations caps reasoning passes per turn.
	MaxIterations int

	// Retry governs repeated attempts of transient provider failures.
	Retry orchestrator.RetryPolicy

	// Sink receives progress events (defaults to discarding them).
	Sink core.EventSink

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Loop is the high-level façade aggregating the orchestrator and its
// services. It is safe for concurrent use.
type Loop struct {
	orch   *orchestrator.Orchestrator
	memory memory.Manager
}

// New creates a Loop around the given provider. Any unset service is
// initialized with an in-memory implementation. Tool registration errors
// (duplicate or empty names) are returned rather than deferred to the
// first turn.
func New(p provider.Provider, optFns ...func(o *Options)) (*Loop, error) {
	opts := Options{
		MaxIterations: 0, // orchestrator default
		Retry:         orchestrator.DefaultRetryPolicy(),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewInMemoryManager()
	}

	reg, err := tool.NewRegistry(opts.Tools...)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(p, reg, opts.Memory, func(o *orchestrator.Options) {
		o.Instructions = opts.Instructions
		if opts.MaxIterations > 0 {
			o.MaxIterations = opts.MaxIterations
		}
		o.Retry = opts.Retry
		if opts.Sink != nil {
			o.Sink = opts.Sink
		}
		o.Logger = opts.Logger
	})

	return &Loop{orch: orch, memory: opts.Memory}, nil
}

// NewThread opens a fresh conversation thread and returns its id.
func (l *Loop) NewThread() string { return l.memory.CreateThread() }

// Chat runs one user turn on the given thread and returns the final
// answer. The thread must have been opened with NewThread (or already
// exist in the configured memory manager); an unknown thread id yields a
// core.StateError rather than an implicit new thread. Turns on the same
// thread are serialized; distinct threads run concurrently.
func (l *Loop) Chat(ctx context.Context, threadID, input string) (string, error) {
	return l.orch.Run(ctx, threadID, input)
}

// History returns a copy of the thread's message history.
func (l *Loop) History(threadID string) ([]core.Message, error) {
	state, err := l.memory.Load(threadID)
	if err != nil {
		return nil, err
	}
	return state.History(), nil
}

// Threads lists the ids of all known threads.
func (l *Loop) Threads() []string { return l.memory.ListActive() }

// DropThread removes a thread and its state. It reports whether the
// thread existed.
func (l *Loop) DropThread(threadID string) bool { return l.memory.Delete(threadID) }
