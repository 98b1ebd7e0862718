package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/convoloop/convoloop/core"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileManager persists one JSON document per thread under a directory. It
// survives process restarts, which makes it the default choice for durable
// multi-turn conversations without an external database.
type FileManager struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileManager creates the directory if needed and returns a manager
// rooted at it.
func NewFileManager(dir string) (*FileManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileManager{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// CreateThread implements Manager.
func (m *FileManager) CreateThread() string {
	id := core.NewID()
	// Best effort: an unwritable directory surfaces on the first Save.
	_ = m.write(id, core.NewConversationState(id))
	return id
}

// Load implements Manager.
func (m *FileManager) Load(threadID string) (*core.ConversationState, error) {
	raw, err := os.ReadFile(m.path(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("read thread %s: %w", threadID, err)
	}

	var state core.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", threadID, err)
	}
	return &state, nil
}

// Save implements Manager.
func (m *FileManager) Save(threadID string, state *core.ConversationState) error {
	return m.write(threadID, state.Clone())
}

// ListActive implements Manager.
func (m *FileManager) ListActive() []string {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids
}

// Delete implements Manager.
func (m *FileManager) Delete(threadID string) bool {
	err := os.Remove(m.path(threadID))

	m.mu.Lock()
	delete(m.locks, threadID)
	m.mu.Unlock()

	return err == nil
}

// Acquire implements Manager with a lazily created per-thread mutex.
func (m *FileManager) Acquire(threadID string) func() {
	m.mu.Lock()
	mu, ok := m.locks[threadID]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[threadID] = mu
	}
	m.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (m *FileManager) path(threadID string) string {
	return filepath.Join(m.dir, threadID+".json")
}

// write atomically replaces the thread document via a temp file rename so a
// crash mid-write never leaves a truncated state behind.
func (m *FileManager) write(threadID string, state *core.ConversationState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", threadID, err)
	}

	tmp := m.path(threadID) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write thread %s: %w", threadID, err)
	}
	if err := os.Rename(tmp, m.path(threadID)); err != nil {
		return fmt.Errorf("commit thread %s: %w", threadID, err)
	}
	return nil
}
