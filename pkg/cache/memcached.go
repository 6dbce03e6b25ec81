package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// maxRelativeExpiry is the longest expiry memcached treats as relative
// seconds; larger values are read as unix timestamps
const maxRelativeExpiry = 30 * 24 * time.Hour

// Memcached is a cache backed by one or more memcached servers
type Memcached struct {
	client *memcache.Client
}

// NewMemcached creates a cache over the given host:port servers
func NewMemcached(servers ...string) *Memcached {
	return &Memcached{client: memcache.New(servers...)}
}

func (m *Memcached) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("memcached get %s: %w", key, err)
	}
	return item.Value, true, nil
}

func (m *Memcached) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: expirySeconds(ttl),
	}); err != nil {
		return fmt.Errorf("memcached set %s: %w", key, err)
	}
	return nil
}

// Ping checks that every server answers
func (m *Memcached) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.client.Ping()
}

// Close is a no-op; the client keeps only idle pooled connections
func (m *Memcached) Close() error {
	return nil
}

// expirySeconds converts ttl to memcached's relative-seconds form, where 0
// means no expiry
func expirySeconds(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	if ttl > maxRelativeExpiry {
		ttl = maxRelativeExpiry
	}
	secs := int32(ttl / time.Second)
	if secs == 0 {
		secs = 1
	}
	return secs
}
