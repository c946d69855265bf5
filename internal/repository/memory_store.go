package repository

import (
	"context"
	"sync"
)

// MemoryStore 纯内存的文档存储实现
// 行为上对应原型的浏览器本地存储，单测也用它。
// 事务实现为：整库互斥 + 在副本上执行，成功才替换，失败丢弃副本
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.docs[key]
	return v, ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]string, len(s.docs))
	for k, v := range s.docs {
		staged[k] = v
	}

	if err := fn(&memoryTx{docs: staged}); err != nil {
		return err
	}

	s.docs = staged
	return nil
}

// memoryTx 事务内视图，写入只落在副本上
type memoryTx struct {
	docs map[string]string
}

func (t *memoryTx) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := t.docs[key]
	return v, ok, nil
}

func (t *memoryTx) Put(ctx context.Context, key, value string) error {
	t.docs[key] = value
	return nil
}

func (t *memoryTx) Delete(ctx context.Context, key string) error {
	delete(t.docs, key)
	return nil
}
