package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igaudit/pkg/errors"
)

func TestProfileRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  *ProfileRecord
		wantErr bool
	}{
		{"valid", &ProfileRecord{Username: "a", FollowerCount: 10, FollowingCount: 5, EngagementRate: 0.5}, false},
		{"zero values", &ProfileRecord{Username: "a"}, false},
		{"engagement upper bound", &ProfileRecord{EngagementRate: 1}, false},
		{"nil record", nil, true},
		{"negative followers", &ProfileRecord{FollowerCount: -1}, true},
		{"negative following", &ProfileRecord{FollowingCount: -1}, true},
		{"negative posts", &ProfileRecord{PostCount: -3}, true},
		{"engagement above one", &ProfileRecord{EngagementRate: 1.5}, true},
		{"negative engagement", &ProfileRecord{EngagementRate: -0.1}, true},
		{"nan engagement", &ProfileRecord{EngagementRate: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestFollowRatio(t *testing.T) {
	assert.Equal(t, 6.0, (&ProfileRecord{FollowerCount: 1000, FollowingCount: 6000}).FollowRatio())
	assert.Equal(t, 250.0, (&ProfileRecord{FollowerCount: 0, FollowingCount: 250}).FollowRatio())
	assert.Equal(t, 0.0, (&ProfileRecord{}).FollowRatio())
}
