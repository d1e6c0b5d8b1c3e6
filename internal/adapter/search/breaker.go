package search

import (
	"context"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"webskim/internal/domain"
	"webskim/internal/infra/config"
)

// BreakerBackend wraps a Backend with circuit breaker protection. When the
// backend fails repeatedly, the circuit opens and subsequent searches fail
// fast without reaching the backend.
type BreakerBackend struct {
	inner   Backend
	breaker *gobreaker.CircuitBreaker[[]domain.Candidate]
	logger  *slog.Logger
}

// NewBreakerBackend wraps inner with a circuit breaker configured by cfg.
// Zero-valued fields fall back to the config defaults.
func NewBreakerBackend(inner Backend, cfg config.BreakerConfig, logger *slog.Logger) *BreakerBackend {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	cb := gobreaker.NewCircuitBreaker[[]domain.Candidate](gobreaker.Settings{
		Name:        "search:" + inner.Name(),
		MaxRequests: 1, // allow 1 probe in half-open state
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &BreakerBackend{inner: inner, breaker: cb, logger: logger}
}

// Search implements Backend. Calls are routed through the circuit breaker;
// an open circuit surfaces as an atomic backend error like any other.
func (b *BreakerBackend) Search(ctx context.Context, query string, count int) ([]domain.Candidate, error) {
	results, err := b.breaker.Execute(func() ([]domain.Candidate, error) {
		return b.inner.Search(ctx, query, count)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, domain.NewDomainError("BreakerBackend.Search", domain.ErrBackend,
				"circuit open for "+b.inner.Name())
		}
		return nil, err
	}
	return results, nil
}

// Name implements Backend.
func (b *BreakerBackend) Name() string { return b.inner.Name() }

// State returns the current circuit breaker state for monitoring.
func (b *BreakerBackend) State() gobreaker.State {
	return b.breaker.State()
}

var _ Backend = (*BreakerBackend)(nil)
