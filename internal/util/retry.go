package util

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds retry configuration for external service calls.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int `yaml:"max_attempts" validate:"gte=1"`

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration `yaml:"backoff_base"`

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64 `yaml:"backoff_multiplier" validate:"gte=1"`

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// DefaultRetryConfig returns 3 attempts starting at 2s, doubling up to 30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// Permanent marks err as non-retryable.
func Permanent(err error) error { return backoff.Permanent(err) }

// Retry runs op until it succeeds, returns a Permanent error, the attempts
// are exhausted or ctx is done. The last error is returned.
func Retry(ctx context.Context, cfg RetryConfig, op func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.BackoffBase
	eb.Multiplier = cfg.BackoffMultiplier
	eb.MaxInterval = cfg.MaxBackoff
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(cfg.MaxAttempts-1)), ctx)
	return backoff.Retry(op, b)
}
