package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memEntry struct {
	val       string
	expiresAt time.Time
}

// MemCacheStore is an in-process CacheStore over an expiring LRU. The LRU's
// own TTL acts as a ceiling for eviction; per-entry deadlines shorter than the
// ceiling are enforced on read.
type MemCacheStore struct {
	data   *expirable.LRU[string, memEntry]
	maxTTL time.Duration
}

var _ CacheStore = (*MemCacheStore)(nil)

func NewMemCacheStore(capacity int, maxTTL time.Duration) *MemCacheStore {
	return &MemCacheStore{
		data:   expirable.NewLRU[string, memEntry](capacity, nil, maxTTL),
		maxTTL: maxTTL,
	}
}

func memCacheKey(name, key string) string {
	return name + "/" + key
}

func (s *MemCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	e, ok := s.data.Get(memCacheKey(name, key))
	if !ok {
		return "", nil
	}
	if time.Now().After(e.expiresAt) {
		s.data.Remove(memCacheKey(name, key))
		return "", nil
	}
	return e.val, nil
}

func (s *MemCacheStore) Set(ctx context.Context, name, key, val string, ttl time.Duration) error {
	if ttl <= 0 || ttl > s.maxTTL {
		ttl = s.maxTTL
	}
	s.data.Add(memCacheKey(name, key), memEntry{val: val, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (s *MemCacheStore) Purge(ctx context.Context, name, key string) error {
	s.data.Remove(memCacheKey(name, key))
	return nil
}
