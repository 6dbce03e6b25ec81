package main

import (
	stderrors "errors"
	"fmt"

	"igaudit/pkg/auth"
	"igaudit/pkg/cache"
	"igaudit/pkg/classifier"
	"igaudit/pkg/config"
	"igaudit/pkg/detector"
	"igaudit/pkg/logger"
	"igaudit/pkg/provider"
)

// app wires the components shared by check and serve
type app struct {
	cache    cache.Cache
	provider provider.Provider
	detector *detector.Detector
}

func newApp(cfg *config.Config, account string) (*app, error) {
	log := logger.GetLogger()

	if cfg.Provider.Source == config.ProviderInstagram {
		manager, err := auth.NewManager("", log)
		if err != nil {
			return nil, err
		}
		if err := manager.Apply(&cfg.Instagram, account); err != nil {
			if !stderrors.Is(err, auth.ErrSessionNotFound) {
				return nil, err
			}
			log.Warn("no stored Instagram session; run 'igaudit auth login' if profiles require login")
		}
	}

	c, err := cache.New(&cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	p, err := provider.New(cfg, c, log)
	if err != nil {
		closeCache(c)
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	cl, err := classifier.New(&cfg.Classifier)
	if err != nil {
		closeCache(c)
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	return &app{
		cache:    c,
		provider: p,
		detector: detector.New(p, cl, log),
	}, nil
}

func (a *app) Close() {
	closeCache(a.cache)
}

func closeCache(c cache.Cache) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.WithError(err).Warn("failed to close cache")
	}
}
