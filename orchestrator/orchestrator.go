package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/convoloop/convoloop/core"
	"github.com/convoloop/convoloop/logging"
	"github.com/convoloop/convoloop/memory"
	"github.com/convoloop/convoloop/provider"
	"github.com/convoloop/convoloop/tool"
)

// Stage names as reported through stream events.
const (
	StageEntry         = "entry"
	StageReasoning     = "reasoning"
	StageToolExecution = "tool_execution"
	StageResponse      = "response"
)

const (
	defaultMaxIterations    = 10
	defaultStageTimeout     = 60 * time.Second
	defaultMaxParallelTools = 4
)

// degradedAnswer is returned when a run terminates with an error message
// instead of a model-produced answer. It is deterministic and never
// leaks internal details.
const degradedAnswer = "I'm sorry, I ran into a problem while working on your request. Please try again in a moment."

// Options configures an Orchestrator.
type Options struct {
	// Instructions is the system prompt sent with every model request.
	Instructions string

	// MaxIterations caps the number of Reasoning passes per run. When the
	// cap is hit the run terminates with a degraded answer instead of
	// looping forever. Defaults to 10.
	MaxIterations int

	// StageTimeout bounds a single stage attempt: one model invocation or
	// one tool batch. Defaults to 60s. Zero disables the timeout.
	StageTimeout time.Duration

	// MaxParallelTools bounds concurrent tool executions within one
	// batch. Defaults to 4.
	MaxParallelTools int

	// Retry governs repeated attempts of transient stage failures.
	Retry RetryPolicy

	// Sink receives progress events. Defaults to core.NopSink.
	Sink core.EventSink

	// Logger receives structured diagnostics. Defaults to the no-op logger.
	Logger logging.Logger
}

// Orchestrator runs conversation turns against a provider, a tool
// registry and a memory manager. It is safe for concurrent use: runs on
// distinct threads proceed in parallel, runs on the same thread are
// serialized by the memory manager's per-thread lock.
type Orchestrator struct {
	provider provider.Provider
	registry *tool.Registry
	memory   memory.Manager
	opts     Options
	retry    retrier
	executor *toolExecutor
}

// New creates an Orchestrator. The registry may be empty, in which case
// the model is offered no tools and every run resolves in one Reasoning
// pass.
func New(p provider.Provider, reg *tool.Registry, mem memory.Manager, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxIterations:    defaultMaxIterations,
		StageTimeout:     defaultStageTimeout,
		MaxParallelTools: defaultMaxParallelTools,
		Retry:            DefaultRetryPolicy(),
		Sink:             core.NopSink{},
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations < 1 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.MaxParallelTools < 1 {
		opts.MaxParallelTools = defaultMaxParallelTools
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Sink == nil {
		opts.Sink = core.NopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if reg == nil {
		reg = tool.MustRegistry()
	}

	return &Orchestrator{
		provider: p,
		registry: reg,
		memory:   mem,
		opts:     opts,
		retry:    retrier{policy: opts.Retry, timeout: opts.StageTimeout, logger: opts.Logger},
		executor: &toolExecutor{maxParallel: opts.MaxParallelTools, timeout: opts.StageTimeout, logger: opts.Logger},
	}
}

// Run executes one conversation turn on the given thread and returns the
// final answer. The thread must already exist in the memory manager.
//
// The run works on a private clone of the persisted state and saves it
// back only after the Response stage, so a cancelled or crashed run never
// leaves a half-written thread behind. Degraded runs (retry budget or
// iteration cap exhausted) still persist and still return a non-empty
// answer; the degradation is recorded in the state's error message.
func (o *Orchestrator) Run(ctx context.Context, threadID, userInput string) (string, error) {
	input := strings.TrimSpace(userInput)
	if input == "" {
		return "", &core.ValidationError{Reason: "user input must not be empty"}
	}

	release := o.memory.Acquire(threadID)
	defer release()

	state, err := o.memory.Load(threadID)
	if err != nil {
		return "", &core.StateError{ThreadID: threadID, Op: "load", Err: err}
	}

	o.opts.Logger.Info("run started", "thread_id", threadID, "messages", state.MessageCount())
	o.runEntry(state, threadID, input)

	for iteration := 0; ; iteration++ {
		if iteration >= o.opts.MaxIterations {
			reason := fmt.Sprintf("reasoning loop did not converge within %d iterations", o.opts.MaxIterations)
			o.opts.Logger.Warn("iteration cap reached", "thread_id", threadID, "max_iterations", o.opts.MaxIterations)
			state.SetErrorMessage(reason)
			state.AddNote("loop terminated: " + reason)
			o.emit(core.StatusError, StageReasoning, threadID, reason)
			break
		}

		msg, err := o.runReasoning(ctx, state, threadID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			o.opts.Logger.Error("reasoning degraded", "thread_id", threadID, "error", err.Error())
			state.SetErrorMessage(err.Error())
			state.AddNote("reasoning failed: " + err.Error())
			o.emit(core.StatusError, StageReasoning, threadID, err.Error())
			break
		}

		state.AppendMessage(msg)
		if !msg.HasToolCalls() {
			state.AddNote("reasoning produced a direct answer")
			break
		}

		if err := o.runToolExecution(ctx, state, threadID, msg.ToolCalls); err != nil {
			return "", err
		}
	}

	answer := o.runResponse(state, threadID)

	if err := o.memory.Save(threadID, state); err != nil {
		return "", &core.StateError{ThreadID: threadID, Op: "save", Err: err}
	}
	o.emit(core.StatusCompleted, StageResponse, threadID, "turn completed")
	o.opts.Logger.Info("run completed", "thread_id", threadID, "steps", state.Steps(), "degraded", state.GetErrorMessage() != "")

	return answer, nil
}

// runEntry appends the validated user input and resets the terminal
// fields of the previous turn.
func (o *Orchestrator) runEntry(state *core.ConversationState, threadID, input string) {
	continuing := state.MessageCount() > 0
	state.BeginRun()
	state.AppendMessage(core.NewUserMessage(input))
	if continuing {
		state.AddNote("entry: continuing conversation")
		o.emit(core.StatusStarting, StageEntry, threadID, "continuing conversation")
	} else {
		state.AddNote("entry: new conversation")
		o.emit(core.StatusStarting, StageEntry, threadID, "processing request")
	}
}

// runReasoning asks the provider for the next assistant message, applying
// the retry policy to transient failures.
func (o *Orchestrator) runReasoning(ctx context.Context, state *core.ConversationState, threadID string) (core.Message, error) {
	o.emit(core.StatusRunning, StageReasoning, threadID, "calling model")

	req := provider.Request{
		Instructions: o.opts.Instructions,
		Messages:     state.History(),
		Tools:        o.registry.Definitions(),
	}

	var msg core.Message
	err := o.retry.do(ctx, StageReasoning, func(attemptCtx context.Context) error {
		m, err := o.provider.Invoke(attemptCtx, req)
		if err != nil {
			return err
		}
		if m.Role != core.RoleAssistant {
			return provider.NewPermanentError("invoke", fmt.Errorf("provider returned role %q, want %q", m.Role, core.RoleAssistant))
		}
		msg = m
		return nil
	})
	if err != nil {
		return core.Message{}, err
	}
	return msg, nil
}

// runToolExecution runs the requested tool batch and appends the results
// as one stage execution. The returned error is non-nil only on caller
// cancellation; tool failures become error-content results.
func (o *Orchestrator) runToolExecution(ctx context.Context, state *core.ConversationState, threadID string, calls []core.ToolCallRequest) error {
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	o.emit(core.StatusToolDecision, StageToolExecution, threadID, "executing tools: "+strings.Join(names, ", "))
	o.opts.Logger.Debug("tool batch started", "thread_id", threadID, "tools", strings.Join(names, ","), "count", len(calls))

	results, err := o.executor.execute(ctx, o.registry, calls)
	if err != nil {
		return err
	}

	state.AppendMessages(results)
	state.AddNote(fmt.Sprintf("tool execution: %d result(s) for [%s]", len(results), strings.Join(names, ", ")))
	o.emit(core.StatusRunning, StageToolExecution, threadID, fmt.Sprintf("collected %d tool result(s)", len(results)))
	return nil
}

// runResponse derives the final answer from the accumulated state. It is
// structurally idempotent: when a non-empty final answer is already
// recorded and no tool calls are pending, the state is left untouched.
func (o *Orchestrator) runResponse(state *core.ConversationState, threadID string) string {
	if fa := state.GetFinalAnswer(); fa != "" && len(state.PendingToolCalls()) == 0 {
		return fa
	}

	var answer string
	switch {
	case state.GetErrorMessage() != "":
		answer = degradedAnswer
	default:
		if last, ok := state.LastMessage(); ok && last.Role == core.RoleAssistant && last.Content != "" {
			answer = last.Content
		} else {
			answer = "I could not produce a response this time. Please try rephrasing your request."
		}
	}

	state.SetFinalAnswer(answer)
	o.emit(core.StatusResponseReady, StageResponse, threadID, "final answer ready")
	return answer
}

func (o *Orchestrator) emit(status core.Status, stage, threadID, message string) {
	o.opts.Sink.Send(core.NewStreamEvent(status, stage, threadID, message))
}
