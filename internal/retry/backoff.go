// Package retry runs operations with exponential backoff.
package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config configures retry behavior with exponential backoff
type Config struct {
	MaxRetries int           `koanf:"max_retries"` // Retries after the first attempt
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxDelay   time.Duration `koanf:"max_delay"`
	Multiplier float64       `koanf:"multiplier"`
	Jitter     bool          `koanf:"jitter"` // +/-10% random jitter
	// Retryable, when set, stops retrying on errors it rejects.
	Retryable func(error) bool `koanf:"-"`
}

// Result describes how a retried operation went.
type Result struct {
	Attempts      int
	TotalDuration time.Duration
	LastError     error
	Success       bool
	RetryReasons  []string
}

// DatabaseConfig is used while waiting for Postgres at startup. Only
// transient connection errors are retried.
func DatabaseConfig(retries int) Config {
	return Config{
		MaxRetries: retries,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		Retryable:  IsRetryableError,
	}
}

// Do executes operation until it succeeds, retries run out, or ctx is done.
// Attempts are logged to logger; pass zerolog.Nop() to silence them.
func Do(ctx context.Context, cfg Config, logger zerolog.Logger, operation func() error) Result {
	start := time.Now()
	result := Result{RetryReasons: make([]string, 0)}

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		err := operation()
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(start)
			if attempt > 0 {
				logger.Info().Int("retries", attempt).Dur("took", result.TotalDuration).Msg("operation succeeded after retry")
			}
			return result
		}

		result.LastError = err
		result.RetryReasons = append(result.RetryReasons, err.Error())

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			result.TotalDuration = time.Since(start)
			logger.Error().Err(err).Int("attempts", result.Attempts).Msg("operation failed with a permanent error")
			return result
		}

		if attempt >= cfg.MaxRetries {
			result.TotalDuration = time.Since(start)
			logger.Error().Err(err).Int("attempts", result.Attempts).Dur("took", result.TotalDuration).Msg("operation failed, giving up")
			return result
		}

		if ctx.Err() != nil {
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(start)
			return result
		}

		delay := calculateDelay(cfg, attempt)
		logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", cfg.MaxRetries+1).
			Dur("backoff", delay).
			Msg("operation failed, retrying")

		select {
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(start)
			return result
		case <-time.After(delay):
		}
	}

	result.TotalDuration = time.Since(start)
	return result
}

// calculateDelay returns baseDelay * multiplier^attempt, capped at MaxDelay.
func calculateDelay(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
		if delay < 0 {
			delay = float64(cfg.BaseDelay)
		}
	}

	return time.Duration(delay)
}

// IsRetryableError reports whether err looks like a transient connection
// problem.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"the database system is starting up",
		"too many connections",
		"no such host",
		"network is unreachable",
		"broken pipe",
		"context deadline exceeded",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
