package provider

import (
	"context"
	"encoding/json"
	"time"

	"igaudit/pkg/cache"
	"igaudit/pkg/logger"
	"igaudit/pkg/models"
)

// CachedProvider is a read-through cache in front of another provider.
// Only successful lookups are cached. Cache failures are logged and the
// wrapped provider is consulted as if the entry were missing.
type CachedProvider struct {
	next   Provider
	cache  cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedProvider wraps next with c, keeping entries for ttl
func NewCachedProvider(next Provider, c cache.Cache, ttl time.Duration, log logger.Logger) *CachedProvider {
	if log == nil {
		log = logger.GetLogger()
	}
	return &CachedProvider{next: next, cache: c, ttl: ttl, logger: log}
}

// Name reports the wrapped provider's name
func (p *CachedProvider) Name() string { return p.next.Name() }

func (p *CachedProvider) Lookup(ctx context.Context, username string) (*models.ProfileRecord, error) {
	key := cache.ProfileKey(p.next.Name(), username)
	log := p.logger.WithFields(map[string]interface{}{
		"username": username,
		"key":      key,
	})

	data, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		log.WithError(err).Warn("profile cache read failed")
	case ok:
		var record models.ProfileRecord
		if err := json.Unmarshal(data, &record); err == nil {
			log.Debug("profile cache hit")
			return &record, nil
		}
		log.Warn("discarding unreadable cache entry")
	}

	record, err := p.next.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(record)
	if err == nil {
		err = p.cache.Set(ctx, key, data, p.ttl)
	}
	if err != nil {
		log.WithError(err).Warn("profile cache write failed")
	}

	return record, nil
}
