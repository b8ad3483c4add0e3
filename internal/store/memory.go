package store

import "sync"

// Memory is an in-memory journal for testing and one-shot runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string]Entry
}

// NewMemory returns an empty journal.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]Entry)}
}

// Get retrieves the entry of a source.
func (m *Memory) Get(source string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.data[source]; ok {
		e.Outputs = append([]Output(nil), e.Outputs...)
		return &e, nil
	}
	return nil, nil
}

// Put stores an entry.
func (m *Memory) Put(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Outputs = append([]Output(nil), e.Outputs...)
	m.data[e.Source] = e
	return nil
}

// Delete removes the entry of a source.
func (m *Memory) Delete(source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, source)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
