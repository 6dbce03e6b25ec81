package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	gretry "github.com/sethvargo/go-retry"

	"igaudit/pkg/config"
	errs "igaudit/pkg/errors"
	"igaudit/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func(ctx context.Context) error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one
	MaxAttempts int
	// BaseDelay is the first backoff interval; later intervals double
	BaseDelay time.Duration
	// MaxDelay caps a single backoff interval (0 means uncapped)
	MaxDelay time.Duration
	// JitterPercent randomises each interval by up to this percentage
	JitterPercent uint64
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error)
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		JitterPercent: 10,
		RetryIf:       DefaultRetryIf,
		Logger:        logger.GetLogger(),
	}
}

// FromConfig builds a retry configuration from the retry section of the
// application config. A disabled section yields a single attempt.
func FromConfig(cfg *config.RetryConfig, log logger.Logger) *Config {
	rc := DefaultConfig()
	rc.Logger = log
	if cfg == nil {
		return rc
	}

	if !cfg.Enabled {
		rc.MaxAttempts = 1
		return rc
	}
	if cfg.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 {
		rc.BaseDelay = cfg.BaseDelay
	}
	rc.MaxDelay = cfg.MaxDelay
	rc.JitterPercent = cfg.JitterPercent
	return rc
}

// DefaultRetryIf is the default retry predicate
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Unknown errors are most often transport failures
	return true
}

// backoff builds the go-retry backoff chain for this configuration
func (c *Config) backoff() gretry.Backoff {
	base := c.BaseDelay
	if base <= 0 {
		base = time.Second
	}

	b := gretry.NewExponential(base)
	if c.MaxDelay > 0 {
		b = gretry.WithCappedDuration(c.MaxDelay, b)
	}
	if c.JitterPercent > 0 {
		b = gretry.WithJitterPercent(c.JitterPercent, b)
	}

	retries := uint64(0)
	if c.MaxAttempts > 1 {
		retries = uint64(c.MaxAttempts - 1)
	}
	return gretry.WithMaxRetries(retries, b)
}

// Do executes op, retrying errors accepted by cfg.RetryIf with exponential
// backoff until it succeeds, attempts run out or ctx is done.
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	attempt := 0
	exhausted := false
	err := gretry.Do(ctx, cfg.backoff(), func(ctx context.Context) error {
		attempt++

		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !retryIf(err) {
			log.DebugWithFields("error is not retryable", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}

		if attempt >= cfg.MaxAttempts {
			exhausted = true
			return err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"max_attempts": cfg.MaxAttempts,
		})
		return gretry.RetryableError(err)
	})

	switch {
	case err == nil:
		return nil
	case exhausted:
		log.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
			"attempts":   attempt,
			"last_error": err.Error(),
		})
		return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		log.WarnWithFields("retry cancelled", map[string]interface{}{
			"attempt": attempt,
			"reason":  err.Error(),
		})
		return fmt.Errorf("retry cancelled: %w", err)
	default:
		return err
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, cfg *Config, op OperationWithResult[T]) (T, error) {
	var result T

	err := Do(ctx, cfg, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})

	return result, err
}
