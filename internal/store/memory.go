package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "github.com/sehyun/yt-translator-go/pkg/errors"
)

// MemoryStore is the session-scoped store (and the test double for the
// durable one). Entries written through SetJSON honor their TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string]string
	expires map[string]time.Time
}

var _ Store = (*MemoryStore)(nil)
var _ Cache = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if exp, ok := s.expires[key]; ok && time.Now().After(exp) {
		return "", nil
	}
	return s.values[key], nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	delete(s.expires, key)
	return nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	delete(s.expires, key)
	return nil
}

func (s *MemoryStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	value, err := s.Get(ctx, key)
	if err != nil || value == "" {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return false, apperrors.NewStoreError("unmarshal failed", "get", key, err)
	}
	return true, nil
}

func (s *MemoryStore) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewStoreError("marshal failed", "set", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = string(data)
	if ttl > 0 {
		s.expires[key] = time.Now().Add(ttl)
	} else {
		delete(s.expires, key)
	}
	return nil
}
