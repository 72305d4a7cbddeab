package dynamodb

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"learnboard/infrastructure/persistence/table"
	"learnboard/pkg/observability"
)

// CircuitBreakerConfig holds configuration for the table circuit breaker.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration for circuit breaker
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      10,
	}
}

// CircuitBreaker stops calling DynamoDB after repeated failures. A nil
// *CircuitBreaker passes every call through.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewCircuitBreaker builds a breaker whose state changes are logged and
// exported as a gauge.
func NewCircuitBreaker(config CircuitBreakerConfig, logger *zap.Logger, metrics *observability.Collector) *CircuitBreaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(name, float64(to))
		},
		// A rejected condition is a normal answer from a healthy table.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, table.ErrConditionFailed)
		},
	})
	return &CircuitBreaker{cb: cb}
}

// Execute runs fn through the breaker.
func (b *CircuitBreaker) Execute(fn func() error) error {
	if b == nil {
		return fn()
	}
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// IsOpen reports whether err is a rejection by an open or saturated breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
