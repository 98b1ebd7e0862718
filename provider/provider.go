// Package provider defines the language-model invocation boundary. A Provider
// receives the full message history plus the registered tool schemas and
// returns exactly one assistant message, which may carry tool-call requests.
// Vendor adapters live in subpackages (anthropic, openai).
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/convoloop/convoloop/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by the reasoning stage.
type Request struct {
	Instructions string           `json:"instructions"`
	Messages     []core.Message   `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name          string `json:"name"`
	Vendor        string `json:"vendor"` // "anthropic", "openai", "scripted", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Provider is the minimal interface required to drive one reasoning turn.
// Implementations must be safe for concurrent use by multiple threads.
type Provider interface {
	// Invoke performs a single model call and returns one assistant message.
	Invoke(ctx context.Context, req Request) (core.Message, error)

	// Info returns information about the provider implementation.
	Info() Info
}

// Error wraps a provider failure with a transience classification. Transient
// failures (timeouts, rate limits, upstream unavailability) are retried by
// the orchestrator; non-transient failures (malformed or rejected requests)
// degrade the run immediately.
type Error struct {
	Op        string
	Err       error
	Transient bool
}

// Error implements the error interface.
func (e *Error) Error() string { return fmt.Sprintf("provider %s: %v", e.Op, e.Err) }

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NewTransientError wraps err as a retryable provider failure.
func NewTransientError(op string, err error) *Error {
	return &Error{Op: op, Err: err, Transient: true}
}

// NewPermanentError wraps err as a non-retryable provider failure.
func NewPermanentError(op string, err error) *Error {
	return &Error{Op: op, Err: err, Transient: false}
}

// IsTransient reports whether err should be retried. Context deadline
// expirations count as transient so a stage timeout re-enters the retry
// policy; explicit cancellation does not.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Transient
	}
	return false
}

// TransientStatus reports whether an HTTP status code from a vendor SDK
// represents a retryable condition.
func TransientStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
