// Package blobstore holds the non-SQL BlobStore engines: in-memory, file directory and a TTL cache decorator.
package blobstore

import (
	"context"
	"sort"
	"sync"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
)

// Memory keeps blobs in process memory. State is lost on exit.
type Memory struct {
	sync.RWMutex
	table map[string][]byte
}

var _ core.BlobStore = (*Memory)(nil) // interface compliance check

func NewMemory() *Memory {
	return &Memory{table: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.RLock()
	defer m.RUnlock()

	data, ok := m.table[key]
	if !ok {
		return nil, core.ErrBlobNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.Lock()
	defer m.Unlock()

	m.table[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.Lock()
	defer m.Unlock()

	delete(m.table, key)
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.RLock()
	defer m.RUnlock()

	keys := make([]string, 0, len(m.table))
	for k := range m.table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
