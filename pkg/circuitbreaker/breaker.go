package circuitbreaker

import (
	"errors"

	"github.com/sony/gobreaker/v2"

	"github.com/architeacher/filterspec/pkg/logger"
)

var (
	// ErrOpen is returned without calling through while the breaker is open.
	ErrOpen = errors.New("circuit breaker is open")

	// ErrProbeLimit is returned when the half-open probe budget is spent.
	ErrProbeLimit = errors.New("circuit breaker probe limit reached")
)

type (
	// Breaker stops calling a failing dependency for a while. A nil Breaker
	// calls straight through.
	Breaker struct {
		cb *gobreaker.CircuitBreaker[any]
	}

	Option func(*options)

	options struct {
		logger   logger.Logger
		excluded []error
	}
)

// WithLogger logs every state transition.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithExcludedErrors lists errors that count as successes, such as a
// missing row, so that caller mistakes never open the breaker.
func WithExcludedErrors(errs ...error) Option {
	return func(o *options) {
		o.excluded = append(o.excluded, errs...)
	}
}

func New(settings Settings, opts ...Option) *Breaker {
	if !settings.Enabled {
		return nil
	}

	o := options{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	threshold := uint32(max(settings.FailureThreshold, 1))

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: uint32(settings.HalfOpenProbes),
		Interval:    settings.ResetInterval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}

			for _, excluded := range o.excluded {
				if errors.Is(err, excluded) {
					return true
				}
			}

			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Breaker{cb: cb}
}

func (b *Breaker) Name() string {
	if b == nil {
		return ""
	}

	return b.cb.Name()
}

// State reports "closed", "half-open" or "open". A nil Breaker is always
// closed.
func (b *Breaker) State() string {
	if b == nil {
		return gobreaker.StateClosed.String()
	}

	return b.cb.State().String()
}

// Call runs fn through b.
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}

	var zero T

	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return zero, ErrOpen
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return zero, ErrProbeLimit
	}

	typed, _ := result.(T)

	return typed, err
}

// Do runs fn through b when there is no result to return.
func Do(b *Breaker, fn func() error) error {
	_, err := Call(b, func() (struct{}, error) {
		return struct{}{}, fn()
	})

	return err
}
