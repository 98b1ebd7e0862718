package memory

import (
	"context"
	"sync"
	"time"

	"github.com/convoloop/convoloop/core"
)

// InMemoryOptions configures the volatile manager.
type InMemoryOptions struct {
	// TTL evicts threads whose state has not been updated for this duration.
	// Zero disables eviction.
	TTL time.Duration
	// SweepInterval controls how often the evictor scans for stale threads.
	SweepInterval time.Duration
}

// InMemoryManager is a volatile Manager implementation storing conversation
// state in a process-local map. It is safe for concurrent access. Each
// returned state is cloned to prevent external mutation of internal state.
type InMemoryManager struct {
	mu      sync.RWMutex
	threads map[string]*core.ConversationState
	locks   map[string]*sync.Mutex
	opts    InMemoryOptions
}

// NewInMemoryManager constructs an empty in-memory manager.
func NewInMemoryManager(optFns ...func(o *InMemoryOptions)) *InMemoryManager {
	opts := InMemoryOptions{SweepInterval: time.Minute}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryManager{
		threads: make(map[string]*core.ConversationState),
		locks:   make(map[string]*sync.Mutex),
		opts:    opts,
	}
}

// CreateThread implements Manager.
func (m *InMemoryManager) CreateThread() string {
	id := core.NewID()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[id] = core.NewConversationState(id)
	return id
}

// Load implements Manager returning a defensive copy.
func (m *InMemoryManager) Load(threadID string) (*core.ConversationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.threads[threadID]
	if !ok {
		return nil, ErrThreadNotFound
	}
	return state.Clone(), nil
}

// Save implements Manager storing a clone of the provided snapshot.
func (m *InMemoryManager) Save(threadID string, state *core.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[threadID] = state.Clone()
	return nil
}

// ListActive implements Manager.
func (m *InMemoryManager) ListActive() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.threads))
	for id := range m.threads {
		ids = append(ids, id)
	}
	return ids
}

// Delete implements Manager.
func (m *InMemoryManager) Delete(threadID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.threads[threadID]
	delete(m.threads, threadID)
	delete(m.locks, threadID)
	return ok
}

// Acquire implements Manager with a lazily created per-thread mutex.
func (m *InMemoryManager) Acquire(threadID string) func() {
	mu := m.threadLock(threadID)
	mu.Lock()
	return mu.Unlock
}

func (m *InMemoryManager) threadLock(threadID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	mu, ok := m.locks[threadID]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[threadID] = mu
	}
	return mu
}

// StartEvictor launches a background sweep evicting threads idle longer than
// the configured TTL. It is a no-op when TTL is zero. The goroutine exits
// when ctx is done.
func (m *InMemoryManager) StartEvictor(ctx context.Context) {
	if m.opts.TTL <= 0 {
		return
	}
	interval := m.opts.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.evictStale()
			}
		}
	}()
}

// evictStale removes threads idle past the TTL, skipping any thread whose
// run lock is currently held.
func (m *InMemoryManager) evictStale() {
	cutoff := time.Now().UTC().Add(-m.opts.TTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, state := range m.threads {
		if !state.Updated.Before(cutoff) {
			continue
		}
		if mu, ok := m.locks[id]; ok {
			if !mu.TryLock() {
				continue // active run owns the thread
			}
			mu.Unlock()
		}
		delete(m.threads, id)
		delete(m.locks, id)
	}
}
