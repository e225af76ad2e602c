package lock

import (
	"log/slog"
	"sync"

	"github.com/loopline-ai/loopline/internal/ports"
)

// Manager is the in-memory single-flight lock store. Admission is
// fail-fast: TryAcquire never waits and never queues. A distributed
// backing store can replace this behind ports.LockManager without
// touching the executor.
type Manager struct {
	mu     sync.Mutex
	held   map[string]struct{}
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		held:   make(map[string]struct{}),
		logger: logger.With("component", "lock-manager"),
	}
}

var _ ports.LockManager = (*Manager)(nil)

func (m *Manager) TryAcquire(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.held[key]; exists {
		m.logger.Debug("lock already held", "key", key)
		return false
	}
	m.held[key] = struct{}{}
	return true
}

// Release is idempotent; releasing an unheld key is a no-op.
func (m *Manager) Release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
}

// Held reports whether a lock for key is currently held.
func (m *Manager) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.held[key]
	return exists
}
