package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igaudit/pkg/config"
	"igaudit/pkg/errors"
	"igaudit/pkg/instagram"
	"igaudit/pkg/logger"
	"igaudit/pkg/ratelimit"
	"igaudit/pkg/retry"
)

func userWithPosts(followers int, interactions ...int) *instagram.User {
	u := &instagram.User{
		Username:       "someone",
		Biography:      "bio",
		EdgeFollowedBy: instagram.Count{Count: followers},
		EdgeFollow:     instagram.Count{Count: 10},
	}
	u.EdgeOwnerToTimelineMedia.Count = 99
	for _, n := range interactions {
		u.EdgeOwnerToTimelineMedia.Edges = append(u.EdgeOwnerToTimelineMedia.Edges, instagram.Edge{
			Node: instagram.Node{EdgeLikedBy: instagram.Count{Count: n}},
		})
	}
	return u
}

func TestRecordFromUser(t *testing.T) {
	rec := RecordFromUser(userWithPosts(1000, 40, 20, 60), 12)
	assert.Equal(t, "someone", rec.Username)
	assert.Equal(t, 1000, rec.FollowerCount)
	assert.Equal(t, 10, rec.FollowingCount)
	assert.Equal(t, 99, rec.PostCount)
	assert.Equal(t, "bio", rec.Bio)
	assert.InDelta(t, 0.04, rec.EngagementRate, 1e-9)
}

func TestEngagementRate(t *testing.T) {
	tests := []struct {
		name   string
		user   *instagram.User
		recent int
		want   float64
	}{
		{"no followers", userWithPosts(0, 10), 12, 0},
		{"no posts", userWithPosts(100), 12, 0},
		{"recent window", userWithPosts(100, 10, 10, 1000), 2, 0.1},
		{"clamped to one", userWithPosts(10, 500), 12, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, engagementRate(tt.user, tt.recent), 1e-9)
		})
	}
}

func TestRecordFromUserMarksUnavailableEngagement(t *testing.T) {
	private := userWithPosts(5000)
	private.IsPrivate = true

	noPosts := userWithPosts(5000)
	noPosts.EdgeOwnerToTimelineMedia.Count = 0

	privateButVisible := userWithPosts(1000, 40)
	privateButVisible.IsPrivate = true

	tests := []struct {
		name string
		user *instagram.User
		want bool
	}{
		{"private without media", private, true},
		{"posts counted but none returned", userWithPosts(5000), true},
		{"no posts at all", noPosts, false},
		{"private with visible media", privateButVisible, false},
		{"public with media", userWithPosts(1000, 40, 20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RecordFromUser(tt.user, 12)
			assert.Equal(t, tt.want, rec.EngagementUnavailable)
			if tt.want {
				assert.Zero(t, rec.EngagementRate)
			}
		})
	}
}

func newLiveProvider(t *testing.T, handler http.HandlerFunc) *InstagramProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.NewNopLogger()
	client := instagram.NewClient(5*time.Second, log)
	client.SetBaseURL(srv.URL)

	rc := &retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, RetryIf: retry.DefaultRetryIf, Logger: log}
	return NewInstagramProviderWithClient(client, ratelimit.NewTokenBucket(100, time.Minute), rc, 12, log)
}

func TestInstagramProviderLookup(t *testing.T) {
	var calls atomic.Int32
	p := newLiveProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"data":{"user":{"username":"natgeo","biography":"photos",
			"edge_followed_by":{"count":2000},"edge_follow":{"count":100},
			"edge_owner_to_timeline_media":{"count":50,"edges":[
				{"node":{"edge_liked_by":{"count":90},"edge_media_to_comment":{"count":10}}}]}}},"status":"ok"}`)
	})

	rec, err := p.Lookup(context.Background(), "natgeo")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "one retry after the 503")
	assert.Equal(t, "natgeo", rec.Username)
	assert.Equal(t, 2000, rec.FollowerCount)
	assert.Equal(t, 50, rec.PostCount)
	assert.InDelta(t, 0.05, rec.EngagementRate, 1e-9)
	assert.Equal(t, "instagram", p.Name())
}

func TestInstagramProviderNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	p := newLiveProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"data":{"user":null},"status":"ok"}`)
	})

	_, err := p.Lookup(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestInstagramProviderGivesUp(t *testing.T) {
	var calls atomic.Int32
	p := newLiveProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Lookup(context.Background(), "natgeo")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeRateLimit, errors.TypeOf(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNewOutboundLimiter(t *testing.T) {
	l := newOutboundLimiter(config.RateLimitConfig{RequestsPerMinute: 60, BurstSize: 2})
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow(), "burst of two")
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := config.DefaultConfig()

	p, err := New(cfg, nil, logger.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &MockProvider{}, p)

	cfg.Provider.Source = config.ProviderInstagram
	p, err = New(cfg, nil, logger.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &InstagramProvider{}, p)

	cfg.Provider.Source = "carrier-pigeon"
	_, err = New(cfg, nil, logger.NewNopLogger())
	assert.Error(t, err)
}
