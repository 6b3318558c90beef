package chainutil

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/trenchsniper/trenchsniperd/internal/metrics"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// Sentinel errors for retry logic. Venue clients wrap transient failures
// in ErrRetryable so RetryWithConfig knows to keep trying.
var (
	ErrRetryable = &sniperr.SniperError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: sniperr.ExitGeneral,
	}

	ErrTimeout = &sniperr.SniperError{
		Code:     "TIMEOUT",
		Message:  "operation timed out",
		ExitCode: sniperr.ExitGeneral,
	}

	ErrRateLimited = &sniperr.SniperError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: sniperr.ExitGeneral,
	}
)

// RetryConfig configures backoff retry behavior.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	BaseDelay   time.Duration // Initial delay between retries
	MaxDelay    time.Duration // Maximum delay between retries
}

// RPCRetryConfig is tuned for Solana RPC calls: a dropped or congested
// node usually recovers within a couple of seconds, so 4 attempts
// total (1 initial + 3 retries) with delays 1s, 2s, 4s covers a
// transient blockhash-not-found or node-behind condition without
// stalling a wallet's trade loop for long.
func RPCRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
	}
}

// VenueRetryConfig is tuned for venue builder/aggregator HTTP calls:
// fewer attempts with a shorter ceiling, since a stale quote or a
// failed swap builder call should fail fast back to the router so it
// can fall over to the next venue rather than eat the caller's
// interval budget retrying one that is already struggling.
func VenueRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// DefaultRetryConfig is an alias for RPCRetryConfig retained for
// callers that retry without an endpoint class in mind.
func DefaultRetryConfig() RetryConfig {
	return RPCRetryConfig()
}

// Retry executes operation with RPCRetryConfig against an unlabeled
// endpoint, for callers that don't track retry metrics per endpoint.
func Retry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return RetryWithConfig(ctx, "unspecified", RPCRetryConfig(), operation)
}

// RetryWithConfig executes operation against endpoint, retrying
// non-fatal errors with exponential backoff until cfg.MaxAttempts is
// reached or ctx is done. Every retry beyond the initial attempt is
// recorded in metrics.Global so operators can see how often a given
// endpoint class is degrading without tailing logs.
func RetryWithConfig[T any](ctx context.Context, endpoint string, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}

		if !IsRetryable(err) {
			return result, err
		}

		if attempt < cfg.MaxAttempts-1 {
			metrics.Global.RecordRetry(endpoint)

			delay := calculateDelay(attempt, cfg.BaseDelay, cfg.MaxDelay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return result, fmt.Errorf("operation against %s failed after %d attempts: %w", endpoint, cfg.MaxAttempts, err)
}

// calculateDelay computes exponential backoff with jitter in
// [delay/2, delay) to avoid a thundering herd across wallets retrying in
// lockstep.
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	half := delay / 2
	return half + rand.N(half) //nolint:gosec // G404: jitter does not need cryptographic randomness
}

// IsRetryable reports whether err should trigger another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return false
}

// WrapRetryable marks err as retryable for a later IsRetryable check.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}
