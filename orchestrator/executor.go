package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/convoloop/convoloop/core"
	"github.com/convoloop/convoloop/logging"
	"github.com/convoloop/convoloop/tool"
)

// toolExecutor runs a batch of tool call requests with bounded
// parallelism. Every request produces exactly one result, in request
// order: unknown tools, invalid arguments, panics and per-batch timeouts
// all surface as error-content results so the conversation can continue.
// Only cancellation of the caller's context aborts the batch.
type toolExecutor struct {
	maxParallel int
	timeout     time.Duration
	logger      logging.Logger
}

// execute runs all calls against the registry and returns one tool result
// message per call, ordered to match. The returned error is non-nil only
// when ctx itself was cancelled.
func (e *toolExecutor) execute(ctx context.Context, reg *tool.Registry, calls []core.ToolCallRequest) ([]core.Message, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	batchCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	results := make([]core.ToolResult, len(calls))
	if len(calls) == 1 {
		results[0] = e.executeOne(batchCtx, reg, calls[0])
	} else {
		limit := e.maxParallel
		if limit < 1 {
			limit = 1
		}
		sem := make(chan struct{}, limit)
		var wg sync.WaitGroup
		for i, call := range calls {
			wg.Add(1)
			go func(idx int, fc core.ToolCallRequest) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				results[idx] = e.executeOne(batchCtx, reg, fc)
			}(i, call)
		}
		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgs := make([]core.Message, len(results))
	for i, res := range results {
		msgs[i] = core.NewToolResultMessage(res)
	}
	return msgs, nil
}

// executeOne resolves and invokes a single tool. It never returns an
// error: failures of any kind are encoded in the result so the model can
// see them and self-correct.
func (e *toolExecutor) executeOne(ctx context.Context, reg *tool.Registry, fc core.ToolCallRequest) (res core.ToolResult) {
	res.RequestID = fc.ID
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", "tool", fc.Name, "panic", fmt.Sprintf("%v", r))
			res.Output = ""
			res.Err = fmt.Sprintf("tool %q panicked: %v", fc.Name, r)
		}
	}()

	impl, ok := reg.Resolve(fc.Name)
	if !ok {
		res.Err = fmt.Sprintf("unknown tool %q", fc.Name)
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Sprintf("tool %q not executed: %v", fc.Name, err)
		return res
	}

	args := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			res.Err = fmt.Sprintf("tool %q received invalid arguments: %v", fc.Name, err)
			return res
		}
	}

	started := time.Now()
	out, err := impl.Call(ctx, args)
	if err != nil {
		e.logger.Debug("tool call failed", "tool", fc.Name, "duration", time.Since(started).String(), "error", err.Error())
		res.Err = err.Error()
		return res
	}
	e.logger.Debug("tool call succeeded", "tool", fc.Name, "duration", time.Since(started).String())

	res.Output = stringify(out)
	return res
}

// stringify renders a tool's return value as message content. Strings
// pass through untouched, everything else is JSON encoded.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
