package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache backed by patrickmn/go-cache
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates an in-process cache; expired entries are purged every
// defaultTTL (or every minute when defaultTTL is not positive)
func NewMemory(defaultTTL time.Duration) *Memory {
	cleanup := defaultTTL
	if cleanup <= 0 {
		defaultTTL = gocache.NoExpiration
		cleanup = time.Minute
	}
	return &Memory{store: gocache.New(defaultTTL, cleanup)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.store.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Len returns the number of entries, including expired ones not yet purged
func (m *Memory) Len() int {
	return m.store.ItemCount()
}

func (m *Memory) Close() error {
	m.store.Flush()
	return nil
}
