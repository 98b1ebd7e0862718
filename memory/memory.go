// Package memory provides the Memory Manager: creation, loading, saving and
// eviction of per-thread conversation state. Two implementations are
// included: a volatile in-memory manager suited for tests and ephemeral demo
// servers, and a JSON-file-backed manager for durable multi-turn sessions.
package memory

import (
	"errors"

	"github.com/convoloop/convoloop/core"
)

// ErrThreadNotFound is returned by Load when no state exists for the thread.
var ErrThreadNotFound = errors.New("thread not found")

// Manager persists conversation state across turns.
//
// Single-writer rule: Acquire serializes concurrent runs of the same thread;
// runs for different threads proceed fully in parallel. Implementations must
// return defensive copies from Load so callers can mutate freely.
type Manager interface {
	// CreateThread allocates a fresh thread with a globally unique id and an
	// empty conversation state.
	CreateThread() string

	// Load returns a copy of the state for threadID, or ErrThreadNotFound.
	Load(threadID string) (*core.ConversationState, error)

	// Save persists a snapshot of the state under threadID.
	Save(threadID string, state *core.ConversationState) error

	// ListActive returns the ids of all known threads.
	ListActive() []string

	// Delete evicts a thread, reporting whether it existed.
	Delete(threadID string) bool

	// Acquire takes the per-thread run lock and returns its release function.
	Acquire(threadID string) (release func())
}
