package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-memory MetadataStore with the same identifier
// allocation contract as the database-backed store. Used in tests and
// available for local experiments without a database.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	tags   map[int64]string
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, tags: make(map[int64]string)}
}

func (m *Memory) Insert(_ context.Context, tags string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.tags[id] = tags
	return id, nil
}

func (m *Memory) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.tags)), nil
}

func (m *Memory) ScanIDs(_ context.Context, fn func(id int64) error) error {
	// Snapshot under the lock so fn can call back into the store.
	m.mu.Lock()
	ids := make([]int64, 0, len(m.tags))
	for id := range m.tags {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

// Tags returns the tags stored for id. Test helper.
func (m *Memory) Tags(id int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[id]
	return t, ok
}
