package credential

import (
	"context"
	"encoding/base64"
	"sync"
)

// MemoryManager is the default backend: an inert, symmetric base64
// wrap held in a process-local map (§4.E: "the default backend is an
// inert passthrough, not a functional secret store"; Design Notes §9).
// Suitable for development and tests, never for production secrets.
type MemoryManager struct {
	mu    sync.RWMutex
	store map[string]string
}

// NewMemoryManager returns a ready-to-use in-memory credential backend.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{store: make(map[string]string)}
}

func (m *MemoryManager) Load(_ context.Context, account string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	encoded, ok := m.store[account]
	if !ok {
		return "", false, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false, err
	}
	return string(decoded), true, nil
}

func (m *MemoryManager) Save(_ context.Context, account string, cred string) error {
	if cred == "" {
		return ErrMissingSecret
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[account] = base64.StdEncoding.EncodeToString([]byte(cred))
	return nil
}

func (m *MemoryManager) Delete(_ context.Context, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, account)
	return nil
}
