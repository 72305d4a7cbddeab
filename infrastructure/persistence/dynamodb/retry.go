package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// RetryConfig defines retry behavior for transient DynamoDB errors.
type RetryConfig struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// retryableCodes are API error codes worth another attempt.
var retryableCodes = map[string]struct{}{
	"ProvisionedThroughputExceededException": {},
	"ThrottlingException":                    {},
	"Throttling":                             {},
	"RequestLimitExceeded":                   {},
	"InternalServerError":                    {},
	"ServiceUnavailable":                     {},
	"RequestTimeout":                         {},
	"TransactionConflictException":           {},
}

// IsRetryableError reports whether err is a transient AWS failure.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	switch {
	case errors.As(err, &throughput), errors.As(err, &limit), errors.As(err, &internal):
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		_, ok := retryableCodes[apiErr.ErrorCode()]
		return ok
	}
	return false
}

// RetryWithBackoff runs operation until it succeeds, fails permanently, or
// runs out of attempts.
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation func() error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(config.calculateDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

func (c RetryConfig) calculateDelay(attempt int) time.Duration {
	backoff := float64(c.BaseDelay) * math.Pow(c.BackoffFactor, float64(attempt))
	jitter := backoff * c.JitterFactor * (rand.Float64() - 0.5) * 2
	delay := time.Duration(backoff + jitter)

	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}
