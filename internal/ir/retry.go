package ir

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/ntsseq/sequentializer/internal/nts"
)

// RetryPolicy configures retrying a Loader.Load call. Loading happens once
// per CLI invocation rather than once per scheduled unit of work, so unlike
// a node-execution retry policy this has no notion of attempt-scoped
// determinism or replay; BaseDelay/MaxDelay/jitter are still exponential
// backoff to avoid hammering a flaky provider (a network-backed IR service,
// say) with identical requests.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

func (p *RetryPolicy) validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("ir: RetryPolicy.MaxAttempts must be >= 1")
	}
	if p.MaxDelay < p.BaseDelay {
		return errors.New("ir: RetryPolicy.MaxDelay must be >= BaseDelay")
	}
	return nil
}

func computeBackoff(attempt int, base, maxDelay time.Duration) time.Duration {
	delay := base * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(base) + 1)) // #nosec G404 -- jitter for retry timing, not security
	return delay + jitter
}

// WithRetry wraps a Loader so that Load is retried on errors the policy
// classifies as retryable. A *ConversionError is never retryable: it means
// the input was read and rejected, not that the read itself failed
// transiently.
func WithRetry(l Loader, policy *RetryPolicy) (Loader, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	return LoaderFunc(func(ctx context.Context, path string, opts LoadOptions) (*nts.Nts, error) {
		var lastErr error
		for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
			n, err := l.Load(ctx, path, opts)
			if err == nil {
				return n, nil
			}
			lastErr = err

			var convErr *ConversionError
			if errors.As(err, &convErr) {
				return nil, err
			}
			if policy.Retryable == nil || !policy.Retryable(err) {
				return nil, err
			}
			if attempt == policy.MaxAttempts-1 {
				break
			}

			delay := computeBackoff(attempt, policy.BaseDelay, policy.MaxDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		return nil, lastErr
	}), nil
}
