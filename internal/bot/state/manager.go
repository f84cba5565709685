package state

import "sync"

// ScratchStore keeps short-lived conversation payloads (a pending client
// name, a parsed-but-unsaved program) keyed by telegram ID. Values are
// strings; callers marshal structured payloads to JSON themselves.
type ScratchStore interface {
	Set(userID int64, key, value string)
	Get(userID int64, key string) (string, bool)
	Clear(userID int64)
}

// Manager is the in-memory ScratchStore used when Redis is not configured.
type Manager struct {
	data map[int64]map[string]string
	mu   sync.RWMutex
}

// NewManager creates a new in-memory scratch store
func NewManager() *Manager {
	return &Manager{
		data: make(map[int64]map[string]string),
	}
}

func (m *Manager) Set(userID int64, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[userID] == nil {
		m.data[userID] = make(map[string]string)
	}
	m.data[userID][key] = value
}

func (m *Manager) Get(userID int64, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userData, exists := m.data[userID]
	if !exists {
		return "", false
	}
	value, exists := userData[key]
	return value, exists
}

func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
}
