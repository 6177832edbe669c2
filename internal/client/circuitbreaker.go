package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// Poller is the polling surface shared by Client and its wrappers.
type Poller interface {
	Poll(now time.Time) (uint32, bool, error)
	NextPoll(now time.Time) time.Duration
}

// BreakerPoller wraps a Poller with circuit breaker protection so repeated
// transport faults stop hitting the socket for a while. Protocol-level
// discards are not failures; only errors returned by Poll count.
type BreakerPoller struct {
	poller  Poller
	breaker *gobreaker.CircuitBreaker
}

// BreakerConfig holds configuration for the poll circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the number of polls allowed through while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which the
	// failure counts reset.
	Interval time.Duration

	// Timeout is the period of the open state, after which the breaker
	// becomes half-open.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the breaker once at
	// least three polls have been observed.
	FailureThreshold float64
}

// DefaultBreakerConfig returns sensible defaults for the poll breaker.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
	}
}

type pollResult struct {
	timestamp uint32
	ok        bool
}

// NewBreakerPoller creates a circuit breaker protected poller.
func NewBreakerPoller(p Poller, cfg BreakerConfig) *BreakerPoller {
	if cfg.MaxRequests == 0 {
		cfg = DefaultBreakerConfig()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sntp-poll",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.FailureThreshold
		},
	})

	return &BreakerPoller{poller: p, breaker: breaker}
}

// Poll forwards to the wrapped poller unless the breaker is open.
func (b *BreakerPoller) Poll(now time.Time) (uint32, bool, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		ts, ok, err := b.poller.Poll(now)
		if err != nil {
			return nil, err
		}
		return pollResult{timestamp: ts, ok: ok}, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return 0, false, fmt.Errorf("poll circuit breaker open: %w", err)
		}
		return 0, false, err
	}

	r := result.(pollResult)
	return r.timestamp, r.ok, nil
}

// NextPoll forwards to the wrapped poller.
func (b *BreakerPoller) NextPoll(now time.Time) time.Duration {
	return b.poller.NextPoll(now)
}

// State returns the current breaker state.
func (b *BreakerPoller) State() gobreaker.State {
	return b.breaker.State()
}
