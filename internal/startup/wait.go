// Package startup holds the boot-time wait for the upstream service.
package startup

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhomen368/overseerr-mcp/internal/batch"
)

// WaitConfig configures the exponential backoff while waiting.
type WaitConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64
}

// DefaultWaitConfig waits up to about a minute.
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  5,
		Multiplier:   2.0,
	}
}

// WaitFor calls probe until it succeeds. Only network errors are retried;
// anything else, such as a rejected API key, fails at once.
func WaitFor(ctx context.Context, name string, cfg WaitConfig, probe func(context.Context) error, logger zerolog.Logger) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	delay := cfg.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := probe(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().Str("target", name).Int("attempt", attempt).Msg("Connected after retry")
			}
			return nil
		}
		lastErr = err

		if !batch.IsNetworkError(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		logger.Warn().
			Err(err).
			Str("target", name).
			Int("attempt", attempt).
			Int("maxAttempts", cfg.MaxAttempts).
			Dur("nextRetryIn", delay).
			Msg("Upstream unreachable, will retry")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	logger.Error().Err(lastErr).Str("target", name).Int("attempts", cfg.MaxAttempts).Msg("Upstream still unreachable")
	return lastErr
}
