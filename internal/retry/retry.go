package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Func defines the function signature for a retryable operation.
type Func func(ctx context.Context) error

// LoggerFunc defines a logging function signature.
type LoggerFunc func(format string, args ...any)

// Default logger discards output until SetLogger is called
var logger LoggerFunc = func(string, ...any) {}

// SetLogger allows setting a custom logger for retry operations.
func SetLogger(customLogger LoggerFunc) {
	logger = customLogger
}

// permanentError marks an error that retrying cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Execute returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Execute performs an operation with a retry mechanism.
func Execute(ctx context.Context, cfg *Config, op Func) error {
	// If no retry configuration is provided, just execute the operation
	if cfg == nil || !cfg.Enable {
		return unwrapPermanent(op(ctx))
	}
	// Validate retry configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid retry configuration: %w", err)
	}

	var lastErr error
	errStop := errors.New("stop retrying")

	// Helper function to handle retries
	attemptRetry := func(attempts int, interval time.Duration) error {
		for i := 1; i <= attempts; i++ {
			err := op(ctx)
			if err == nil {
				return nil
			}
			lastErr = err
			if IsPermanent(err) {
				return errStop
			}
			if i == attempts {
				break
			}
			logger("Retry %d/%d failed: %v. Waiting %v before next attempt", i, attempts, err, interval)
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				return errStop
			case <-time.After(interval):
			}
		}
		return fmt.Errorf("exhausted %d attempts", attempts)
	}

	// Sequential retry levels
	retryStages := []struct {
		attempts int
		interval time.Duration
	}{
		{cfg.InitialAttempts, cfg.InitialInterval},
		{cfg.MinuteAttempts, cfg.MinuteInterval},
		{cfg.HourlyAttempts, cfg.HourlyInterval},
	}

	// Perform retries
	for _, stage := range retryStages {
		err := attemptRetry(stage.attempts, stage.interval)
		if err == nil {
			return nil
		}
		if errors.Is(err, errStop) {
			return unwrapPermanent(lastErr)
		}
	}

	// Final retry with timeout
	if cfg.FinalRetryTimeout > 0 {
		finalCtx, cancel := context.WithTimeout(ctx, cfg.FinalRetryTimeout)
		defer cancel()
		err := op(finalCtx)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("operation failed after all retries: %w", unwrapPermanent(lastErr))
}

func unwrapPermanent(err error) error {
	var p *permanentError
	if errors.As(err, &p) {
		return p.err
	}
	return err
}
