package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igaudit/pkg/config"
	errs "igaudit/pkg/errors"
	"igaudit/pkg/logger"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		RetryIf:     DefaultRetryIf,
		Logger:      logger.NewNopLogger(),
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	var retried []int

	cfg := fastConfig(5)
	cfg.OnRetry = func(attempt int, err error) { retried = append(retried, attempt) }

	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeNetwork, 0, "connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	attempts := 0
	tl := logger.NewTestLogger()
	cfg := fastConfig(3)
	cfg.Logger = tl

	upstream := errs.New(errs.ErrorTypeServerError, http.StatusBadGateway, "bad gateway")
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return upstream
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.ErrorIs(t, err, upstream)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 2)
	assert.True(t, tl.HasMessage("max retry attempts exceeded"))
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not found", errs.NotFound("ghost")},
		{"auth", errs.New(errs.ErrorTypeAuth, http.StatusUnauthorized, "login required")},
		{"validation", errs.Validation("bad username")},
		{"context cancelled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
				attempts++
				return tt.err
			})
			assert.Equal(t, 1, attempts)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDoSingleAttempt(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(1), func(ctx context.Context) error {
		attempts++
		return errors.New("flaky")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoCancelledWhileWaiting(t *testing.T) {
	cfg := fastConfig(10)
	cfg.BaseDelay = time.Hour
	cfg.MaxDelay = 0

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, cfg, func(ctx context.Context) error {
		attempts++
		cancel()
		return errs.New(errs.ErrorTypeRateLimit, http.StatusTooManyRequests, "slow down")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "retry cancelled")
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	got, err := DoWithResult(context.Background(), fastConfig(3), func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("temporary")
		}
		return "natgeo", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "natgeo", got)
	assert.Equal(t, 2, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.True(t, DefaultRetryIf(errors.New("eof")))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeRateLimit, 429, "x")))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeParsing, 0, "x")))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
}

func TestFromConfig(t *testing.T) {
	appCfg := config.DefaultConfig().Retry
	appCfg.MaxAttempts = 4
	appCfg.BaseDelay = 2 * time.Second

	rc := FromConfig(&appCfg, logger.NewNopLogger())
	assert.Equal(t, 4, rc.MaxAttempts)
	assert.Equal(t, 2*time.Second, rc.BaseDelay)
	assert.Equal(t, appCfg.MaxDelay, rc.MaxDelay)
	assert.Equal(t, appCfg.JitterPercent, rc.JitterPercent)

	appCfg.Enabled = false
	rc = FromConfig(&appCfg, logger.NewNopLogger())
	assert.Equal(t, 1, rc.MaxAttempts)
}
