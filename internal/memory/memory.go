package memory

import (
	"context"
	"sync"

	"agent_orchestrator/internal/core"
)

// MemoryStore is the default in-process session store. Sessions live
// for the lifetime of the process; there is no durability requirement.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string][]core.Turn
	windowTurns int
}

// NewMemoryStore creates an in-memory store whose context windows hold
// at most windowTurns turns.
func NewMemoryStore(windowTurns int) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string][]core.Turn),
		windowTurns: windowTurns,
	}
}

// Append adds a completed turn to the session's full history. The
// session is created on its first turn.
func (m *MemoryStore) Append(ctx context.Context, sessionID string, turn core.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], turn)
	return nil
}

// Window returns a snapshot of the last windowTurns turns in arrival
// order. An unknown session yields an empty window, not an error.
func (m *MemoryStore) Window(ctx context.Context, sessionID string) (ContextWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ContextWindow{Turns: tail(m.sessions[sessionID], m.windowTurns)}, nil
}

// Reset clears the session's history. Resetting an unknown or already
// empty session is a no-op.
func (m *MemoryStore) Reset(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Stats returns turn and per-route counts over the full history.
func (m *MemoryStore) Stats(ctx context.Context, sessionID string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return statsOf(m.sessions[sessionID]), nil
}
