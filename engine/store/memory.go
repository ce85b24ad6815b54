// Package store provides Store implementations.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/facultyops/attendance-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(_ context.Context, path string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.records[path]
	if !ok {
		return nil, false, nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, true, nil
}

func (m *Memory) List(_ context.Context, prefix string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]json.RawMessage)
	for path, raw := range m.records {
		if strings.HasPrefix(path, prefix) {
			out := make(json.RawMessage, len(raw))
			copy(out, raw)
			result[path] = out
		}
	}
	return result, nil
}

func (m *Memory) Set(_ context.Context, path string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(path, value)
	return nil
}

// Update applies all writes under one lock acquisition. A nil value deletes.
// Map writes cannot fail mid-way, so the batch is atomic by construction.
func (m *Memory) Update(_ context.Context, writes map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyLocked(writes)
	return nil
}

func (m *Memory) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, path)
	return nil
}

// UpdateIfAbsent checks the guard and applies the batch under a single lock,
// making the check-then-act exclusive against concurrent callers.
func (m *Memory) UpdateIfAbsent(_ context.Context, guardPath string, writes map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, occupied := m.records[guardPath]; occupied {
		return &engine.DuplicateKeyError{Path: guardPath}
	}
	m.applyLocked(writes)
	return nil
}

func (m *Memory) setLocked(path string, value json.RawMessage) {
	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	m.records[path] = stored
}

func (m *Memory) applyLocked(writes map[string]json.RawMessage) {
	for path, value := range writes {
		if value == nil {
			delete(m.records, path)
			continue
		}
		m.setLocked(path, value)
	}
}

// Len reports the number of stored records. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Compile-time capability checks.
var (
	_ engine.Store            = (*Memory)(nil)
	_ engine.ConditionalStore = (*Memory)(nil)
)
