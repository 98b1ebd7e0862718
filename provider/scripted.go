package provider

import (
	"context"
	"sync"

	"github.com/convoloop/convoloop/core"
)

// Step is one scripted provider turn: either a canned assistant message or an
// error to surface.
type Step struct {
	Message core.Message
	Err     error
}

// ScriptedProvider is a deterministic in-memory Provider useful for tests and
// examples. It replays its steps in order; once exhausted it repeats the last
// step, which makes infinite tool-call loops easy to script.
type ScriptedProvider struct {
	mu    sync.Mutex
	steps []Step
	next  int
	calls int
}

// NewScriptedProvider constructs a provider replaying the given steps.
func NewScriptedProvider(steps ...Step) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

// TextStep scripts a plain assistant text reply.
func TextStep(text string) Step {
	return Step{Message: core.NewAssistantMessage(text)}
}

// ToolCallStep scripts an assistant turn requesting tool execution.
func ToolCallStep(text string, calls ...core.ToolCallRequest) Step {
	return Step{Message: core.NewAssistantMessage(text, calls...)}
}

// ErrorStep scripts a provider failure.
func ErrorStep(err error) Step { return Step{Err: err} }

// Invoke implements Provider by replaying the next scripted step.
func (p *ScriptedProvider) Invoke(ctx context.Context, _ Request) (core.Message, error) {
	if err := ctx.Err(); err != nil {
		return core.Message{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if len(p.steps) == 0 {
		return core.NewAssistantMessage(""), nil
	}

	step := p.steps[p.next]
	if p.next < len(p.steps)-1 {
		p.next++
	}
	if step.Err != nil {
		return core.Message{}, step.Err
	}

	// Re-mint the message so repeated replays produce distinct message ids.
	return core.NewAssistantMessage(step.Message.Content, step.Message.ToolCalls...), nil
}

// Info implements Provider.
func (p *ScriptedProvider) Info() Info {
	return Info{Name: "scripted", Vendor: "scripted", SupportsTools: true}
}

// Calls returns how many times Invoke was executed.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
