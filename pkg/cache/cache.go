package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"igaudit/pkg/config"
)

// keyPrefix namespaces every key igaudit writes to a shared cache server
const keyPrefix = "igaudit:"

// Cache is a byte-oriented store with per-entry expiry. Implementations are
// safe for concurrent use.
type Cache interface {
	// Get returns the value for key; ok is false on a miss
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Close releases connections held by the cache
	Close() error
}

// Pinger is implemented by caches backed by a remote server
type Pinger interface {
	Ping(ctx context.Context) error
}

// New builds the cache selected by cfg.Backend. The none backend returns a
// nil Cache and no error.
func New(cfg *config.CacheConfig) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.CacheNone, "":
		return nil, nil
	case config.CacheMemory:
		return NewMemory(cfg.TTL), nil
	case config.CacheRedis:
		return NewRedis(RedisOptions{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	case config.CacheMemcached:
		if len(cfg.MemcachedServers) == 0 {
			return nil, fmt.Errorf("memcached cache needs at least one server")
		}
		return NewMemcached(cfg.MemcachedServers...), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// ProfileKey returns the cache key for a username's profile record
func ProfileKey(source, username string) string {
	return keyPrefix + "profile:" + source + ":" + strings.ToLower(username)
}
