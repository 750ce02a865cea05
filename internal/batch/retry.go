// Package batch runs per-item operations concurrently with bounded retries
// and collects every outcome, successful or not, in input order.
package batch

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
)

// Policy configures retries for a single operation.
type Policy struct {
	MaxAttempts int
	// Backoff holds the delay before each retry. The last delay is reused
	// when attempts outnumber the list.
	Backoff     []time.Duration
	ShouldRetry func(error) bool
	Logger      zerolog.Logger
}

// DefaultPolicy returns 3 attempts with 100ms, 500ms and 1s backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, time.Second},
		ShouldRetry: DefaultShouldRetry,
		Logger:      zerolog.Nop(),
	}
}

// NoRetry runs an operation exactly once.
func NoRetry() Policy {
	p := DefaultPolicy()
	p.MaxAttempts = 1
	return p
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.ShouldRetry == nil {
		p.ShouldRetry = DefaultShouldRetry
	}
	return p
}

// delay returns the wait before retry number n (zero-based).
func (p Policy) delay(n uint) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if int(n) >= len(p.Backoff) {
		return p.Backoff[len(p.Backoff)-1]
	}
	return p.Backoff[n]
}

// Retry calls op until it succeeds, the predicate rejects the error, the
// attempts run out or ctx is done. It returns the last error.
func Retry[T any](ctx context.Context, op func(context.Context) (T, error), policy Policy) (T, error) {
	p := policy.normalized()

	// retry-go hands DelayType the already incremented attempt number, so
	// the retry index is tracked here to start at Backoff[0].
	var retries uint
	return retry.DoWithData(
		func() (T, error) {
			return op(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.MaxAttempts)),
		retry.DelayType(func(_ uint, err error, _ *retry.Config) time.Duration {
			wait := p.delay(retries)
			retries++
			p.Logger.Debug().
				Err(err).
				Uint("attempt", retries).
				Int("maxAttempts", p.MaxAttempts).
				Dur("nextRetryIn", wait).
				Msg("Retrying operation")
			return wait
		}),
		retry.RetryIf(p.ShouldRetry),
		retry.LastErrorOnly(true),
	)
}

// RetryErr is Retry for operations without a result.
func RetryErr(ctx context.Context, op func(context.Context) error, policy Policy) error {
	_, err := Retry(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, policy)
	return err
}
