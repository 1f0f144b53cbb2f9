package httpgateway

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ajkula/GoLockers/domain/port/outbound"
)

type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // half-open trial reads, all must succeed before closing
	OpenTimeout      time.Duration // time spent open before trial reads
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// callerAbort marks a read ended by the caller's own context.
// It says nothing about the backend and never counts as a failure.
type callerAbort struct {
	err error
}

func (e *callerAbort) Error() string { return e.err.Error() }
func (e *callerAbort) Unwrap() error { return e.err }

// newBreaker guards backend reads so views fail fast while the backend keeps failing.
// Half-open admits at most SuccessThreshold concurrent trial reads.
func newBreaker(name string, cfg BreakerConfig, logger outbound.Logger) *gobreaker.CircuitBreaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	threshold := uint32(cfg.FailureThreshold)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.SuccessThreshold),
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: backendHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Backend circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func backendHealthy(err error) bool {
	var abort *callerAbort
	return err == nil || errors.As(err, &abort)
}

// breakerRejected reports a read refused without reaching the backend
func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
