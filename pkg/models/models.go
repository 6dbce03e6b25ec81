package models

import (
	"math"

	"igaudit/pkg/errors"
)

// ProfileRecord holds the account metrics the classifier works from.
// Providers construct it once per request; nothing mutates it afterwards.
type ProfileRecord struct {
	Username       string  `json:"username" yaml:"username"`
	FollowerCount  int     `json:"follower_count" yaml:"follower_count"`
	FollowingCount int     `json:"following_count" yaml:"following_count"`
	PostCount      int     `json:"post_count" yaml:"post_count"`
	Bio            string  `json:"bio" yaml:"bio"`
	EngagementRate float64 `json:"engagement_rate" yaml:"engagement_rate"`

	// EngagementUnavailable marks a rate of 0 that stands in for posts the
	// source could not show, such as a private account's media
	EngagementUnavailable bool `json:"engagement_unavailable,omitempty" yaml:"engagement_unavailable,omitempty"`
}

// Validate rejects records that break the non-negativity and range invariants
func (r *ProfileRecord) Validate() error {
	if r == nil {
		return errors.Validation("profile record is missing")
	}
	if r.FollowerCount < 0 {
		return errors.Validation("follower count cannot be negative: %d", r.FollowerCount)
	}
	if r.FollowingCount < 0 {
		return errors.Validation("following count cannot be negative: %d", r.FollowingCount)
	}
	if r.PostCount < 0 {
		return errors.Validation("post count cannot be negative: %d", r.PostCount)
	}
	if math.IsNaN(r.EngagementRate) || r.EngagementRate < 0 || r.EngagementRate > 1 {
		return errors.Validation("engagement rate must be within [0,1]: %v", r.EngagementRate)
	}
	return nil
}

// FollowRatio returns following / max(followers, 1)
func (r *ProfileRecord) FollowRatio() float64 {
	followers := r.FollowerCount
	if followers < 1 {
		followers = 1
	}
	return float64(r.FollowingCount) / float64(followers)
}
