package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/chessledger/chessledger/internal/pkg/env"
)

// Options controls the backoff schedule of Do.
type Options struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	ShouldRetry  func(error) bool
}

// DefaultOptions is the budget provider calls start from: up to three
// retries at 1s, 2s, 4s, capped at 30s.
func DefaultOptions() Options {
	return Options{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		Multiplier:   2,
		MaxDelay:     30 * time.Second,
		ShouldRetry:  DefaultShouldRetry,
	}
}

// OptionsFromEnv is DefaultOptions with SYNC_RETRY_COUNT,
// SYNC_RETRY_BASE_DELAY_MS, SYNC_RETRY_MULTIPLIER and
// SYNC_RETRY_MAX_DELAY_MS applied on top. Unset or unparsable values keep
// the defaults.
func OptionsFromEnv() Options {
	opts := DefaultOptions()
	if v, err := strconv.Atoi(env.GetEnv("SYNC_RETRY_COUNT", "")); err == nil && v >= 0 {
		opts.MaxRetries = v
	}
	if v, err := strconv.Atoi(env.GetEnv("SYNC_RETRY_BASE_DELAY_MS", "")); err == nil && v > 0 {
		opts.InitialDelay = time.Duration(v) * time.Millisecond
	}
	if v, err := strconv.ParseFloat(env.GetEnv("SYNC_RETRY_MULTIPLIER", ""), 64); err == nil && v > 0 {
		opts.Multiplier = v
	}
	if v, err := strconv.Atoi(env.GetEnv("SYNC_RETRY_MAX_DELAY_MS", "")); err == nil && v > 0 {
		opts.MaxDelay = time.Duration(v) * time.Millisecond
	}
	return opts
}

// statusError matches errors that carry an upstream HTTP status.
type statusError interface {
	HTTPStatus() int
}

// DefaultShouldRetry retries rate limiting (429), server errors (5xx),
// timeouts and connection failures. Other client errors are permanent.
// Errors that cannot be classified are retried: an unknown transient
// costs a few seconds, a wrongly dropped sync costs a window.
func DefaultShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var se statusError
	if errors.As(err, &se) {
		status := se.HTTPStatus()
		switch {
		case status == http.StatusTooManyRequests:
			return true
		case status >= 500:
			return true
		case status >= 400:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return true
}

// Do runs op until it succeeds, exhausts the retry budget, fails
// permanently or the context ends. The error of the last attempt is
// returned unwrapped.
func Do(ctx context.Context, label string, opts Options, op func(ctx context.Context) error) error {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2
	}
	shouldRetry := opts.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(opts, attempt-1)
			log.Warnf("[Retry] %s failed (attempt %d/%d), retrying in %s: %v",
				label, attempt, opts.MaxRetries, delay, lastErr)
			if err := sleepWithContext(ctx, delay); err != nil {
				return lastErr
			}
		}

		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// backoffDelay is InitialDelay * Multiplier^i capped at MaxDelay.
func backoffDelay(opts Options, i int) time.Duration {
	delay := float64(opts.InitialDelay)
	for j := 0; j < i; j++ {
		delay *= opts.Multiplier
	}
	if opts.MaxDelay > 0 && delay > float64(opts.MaxDelay) {
		return opts.MaxDelay
	}
	return time.Duration(delay)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
