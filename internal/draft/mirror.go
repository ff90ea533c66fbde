package draft

import "sync"

// Mirror is the durable key/value store the reconciler writes through to.
// Values are opaque JSON strings.
type Mirror interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryMirror is an in-process Mirror, used in tests and when no durable
// path is available.
type MemoryMirror struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{values: make(map[string]string)}
}

func (m *MemoryMirror) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryMirror) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryMirror) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
