package requests

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

// RetryPolicy describes how a failed request is repeated
type RetryPolicy struct {
	// total attempts including the first one
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// Retryable decides whether an error is worth another attempt
	Retryable func(err error) bool
}

func (p RetryPolicy) options(ctx context.Context, url string) []retry.Option {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.InitialDelay),
		retry.MaxDelay(p.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("request to %s failed (attempt %d/%d), retrying: %s", url, n+1, attempts, err)
		}),
	}
}

// Do runs f under the policy
func (p RetryPolicy) Do(ctx context.Context, url string, f func() error) error {
	return retry.Do(f, p.options(ctx, url)...)
}
