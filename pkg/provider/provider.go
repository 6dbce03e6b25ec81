package provider

import (
	"context"
	"fmt"

	"igaudit/pkg/cache"
	"igaudit/pkg/config"
	"igaudit/pkg/logger"
	"igaudit/pkg/models"
)

// Provider returns the profile record for a username. A missing account is
// reported with an error for which errors.IsNotFound is true.
type Provider interface {
	Lookup(ctx context.Context, username string) (*models.ProfileRecord, error)
	// Name identifies the data source in reports and logs
	Name() string
}

// New builds the provider selected by cfg.Provider.Source and wraps it in a
// read-through cache when c is non-nil
func New(cfg *config.Config, c cache.Cache, log logger.Logger) (Provider, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	var p Provider
	switch cfg.Provider.Source {
	case config.ProviderMock:
		if cfg.Provider.FixturesFile != "" {
			mock, err := LoadMockProvider(cfg.Provider.FixturesFile)
			if err != nil {
				return nil, err
			}
			p = mock
		} else {
			p = NewMockProvider()
		}
	case config.ProviderInstagram:
		p = NewInstagramProvider(cfg, log)
	default:
		return nil, fmt.Errorf("unknown provider source %q", cfg.Provider.Source)
	}

	if c != nil {
		p = NewCachedProvider(p, c, cfg.Cache.TTL, log)
	}

	log.DebugWithFields("profile provider ready", map[string]interface{}{
		"source": p.Name(),
		"cached": c != nil,
	})
	return p, nil
}
