package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igaudit/pkg/errors"
)

func TestMockProviderSeeds(t *testing.T) {
	p := NewMockProvider()
	ctx := context.Background()

	rec, err := p.Lookup(ctx, "ghost_account")
	require.NoError(t, err)
	assert.Equal(t, 10, rec.FollowerCount)
	assert.Equal(t, 0, rec.PostCount)

	rec, err = p.Lookup(ctx, "Travel_Blogger")
	require.NoError(t, err)
	assert.Equal(t, "travel blogger", rec.Bio)

	for _, name := range p.Usernames() {
		rec, err := p.Lookup(ctx, name)
		require.NoError(t, err)
		assert.NoError(t, rec.Validate(), name)
	}
}

func TestMockProviderNotFound(t *testing.T) {
	_, err := NewMockProvider().Lookup(context.Background(), "nobody_here")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestMockProviderReturnsCopies(t *testing.T) {
	p := NewMockProvider()
	rec, err := p.Lookup(context.Background(), "natgeo")
	require.NoError(t, err)
	rec.FollowerCount = -1

	again, err := p.Lookup(context.Background(), "natgeo")
	require.NoError(t, err)
	assert.Positive(t, again.FollowerCount)
}

func TestMockProviderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockProvider().Lookup(ctx, "natgeo")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadMockProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  - username: Alpha
    follower_count: 120
    following_count: 80
    post_count: 12
    bio: "hiking"
    engagement_rate: 0.04
  - username: beta
    follower_count: 5
    following_count: 900
    post_count: 0
    bio: ""
    engagement_rate: 0
`), 0644))

	p, err := LoadMockProvider(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, p.Usernames())

	rec, err := p.Lookup(context.Background(), "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", rec.Username)
	assert.InDelta(t, 0.04, rec.EngagementRate, 1e-9)

	_, err = p.Lookup(context.Background(), "ghost_account")
	assert.True(t, errors.IsNotFound(err), "fixtures replace the seed table")
}

func TestLoadMockProviderErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "profiles: [", "failed to parse fixtures"},
		{"missing username", "profiles:\n  - follower_count: 1\n", "no username"},
		{"negative count", "profiles:\n  - username: x\n    post_count: -1\n", "post count cannot be negative"},
		{"engagement out of range", "profiles:\n  - username: x\n    engagement_rate: 1.5\n", "engagement rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadMockProvider(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadMockProvider(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read fixtures")
}
