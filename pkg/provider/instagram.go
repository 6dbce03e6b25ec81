package provider

import (
	"context"
	"time"

	"igaudit/pkg/config"
	"igaudit/pkg/instagram"
	"igaudit/pkg/logger"
	"igaudit/pkg/models"
	"igaudit/pkg/ratelimit"
	"igaudit/pkg/retry"
)

// InstagramProvider builds records from Instagram's web profile endpoint
type InstagramProvider struct {
	client      *instagram.Client
	limiter     ratelimit.Limiter
	retry       *retry.Config
	recentPosts int
	logger      logger.Logger
}

// NewInstagramProvider creates a live provider from configuration
func NewInstagramProvider(cfg *config.Config, log logger.Logger) *InstagramProvider {
	client := instagram.NewClient(cfg.Instagram.Timeout, log)
	client.SetSession(cfg.Instagram.SessionID, cfg.Instagram.CSRFToken)
	if cfg.Instagram.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Instagram.UserAgent)
	}

	return NewInstagramProviderWithClient(
		client,
		newOutboundLimiter(cfg.RateLimit),
		retry.FromConfig(&cfg.Retry, log),
		cfg.Provider.RecentPosts,
		log,
	)
}

// NewInstagramProviderWithClient assembles a live provider from parts
func NewInstagramProviderWithClient(client *instagram.Client, limiter ratelimit.Limiter, rc *retry.Config, recentPosts int, log logger.Logger) *InstagramProvider {
	if log == nil {
		log = logger.GetLogger()
	}
	return &InstagramProvider{
		client:      client,
		limiter:     limiter,
		retry:       rc,
		recentPosts: recentPosts,
		logger:      log,
	}
}

// newOutboundLimiter spreads RequestsPerMinute over buckets of BurstSize
// tokens, so short bursts are allowed while the average rate holds
func newOutboundLimiter(cfg config.RateLimitConfig) ratelimit.Limiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 || burst > rpm {
		burst = rpm
	}
	period := time.Duration(int64(time.Minute) * int64(burst) / int64(rpm))
	return ratelimit.NewTokenBucket(burst, period)
}

func (p *InstagramProvider) Name() string { return "instagram" }

// Lookup fetches the profile, retrying transient failures, and converts it
// into a record
func (p *InstagramProvider) Lookup(ctx context.Context, username string) (*models.ProfileRecord, error) {
	user, err := retry.DoWithResult(ctx, p.retry, func(ctx context.Context) (*instagram.User, error) {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return p.client.FetchWebProfile(ctx, username)
	})
	if err != nil {
		return nil, err
	}

	record := RecordFromUser(user, p.recentPosts)
	if record.Username == "" {
		record.Username = username
	}

	p.logger.DebugWithFields("profile fetched", map[string]interface{}{
		"username":   record.Username,
		"followers":  record.FollowerCount,
		"following":  record.FollowingCount,
		"posts":      record.PostCount,
		"engagement": record.EngagementRate,
	})
	return record, nil
}

// RecordFromUser maps an Instagram user onto a profile record. Engagement is
// the mean likes plus comments over at most recentPosts of the latest posts,
// divided by followers and clamped to [0,1]. Accounts without followers or
// visible posts get zero.
func RecordFromUser(user *instagram.User, recentPosts int) *models.ProfileRecord {
	return &models.ProfileRecord{
		Username:       user.Username,
		FollowerCount:  user.EdgeFollowedBy.Count,
		FollowingCount: user.EdgeFollow.Count,
		PostCount:      user.EdgeOwnerToTimelineMedia.Count,
		Bio:            user.Biography,
		EngagementRate: engagementRate(user, recentPosts),

		EngagementUnavailable: engagementUnavailable(user),
	}
}

// engagementUnavailable reports whether the rate had no posts to work from
// even though the account has some, or is private and showed none
func engagementUnavailable(user *instagram.User) bool {
	media := user.EdgeOwnerToTimelineMedia
	if len(media.Edges) > 0 {
		return false
	}
	return user.IsPrivate || media.Count > 0
}

func engagementRate(user *instagram.User, recentPosts int) float64 {
	followers := user.EdgeFollowedBy.Count
	edges := user.EdgeOwnerToTimelineMedia.Edges
	if recentPosts > 0 && len(edges) > recentPosts {
		edges = edges[:recentPosts]
	}
	if followers <= 0 || len(edges) == 0 {
		return 0
	}

	total := 0
	for _, e := range edges {
		total += e.Node.Interactions()
	}

	rate := float64(total) / float64(len(edges)) / float64(followers)
	switch {
	case rate < 0:
		return 0
	case rate > 1:
		return 1
	default:
		return rate
	}
}
