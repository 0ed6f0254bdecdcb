package leaderboard

import (
	"context"
	"sync"
)

type memStore struct {
	mu  sync.Mutex
	doc Document
}

// NewMemoryStore 内存版，仅用于测试与演示
func NewMemoryStore() Store {
	return &memStore{doc: NewDocument()}
}

func (m *memStore) Load(ctx context.Context) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.clone(), nil
}

func (m *memStore) Save(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc.clone()
	m.doc.Version = SchemaVersion
	return nil
}
