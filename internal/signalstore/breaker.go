// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package signalstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okonrad/cinegraph/internal/logging"
	"github.com/okonrad/cinegraph/internal/metrics"
)

// BreakerConfig holds circuit breaker and deadline settings for store access.
type BreakerConfig struct {
	// QueryTimeout bounds each query. Zero disables the per-call deadline.
	QueryTimeout time.Duration

	// MaxFailures is the number of consecutive failures before the breaker opens.
	MaxFailures uint32

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		QueryTimeout: 5 * time.Second,
		MaxFailures:  5,
		OpenTimeout:  30 * time.Second,
	}
}

// BreakerStore wraps a SignalStore with a circuit breaker and per-call
// deadlines. While the breaker is open every call fails fast with
// ErrUnavailable, letting the orchestrator serve stale cache instead of
// queueing behind a sick repository.
//
// Not-found results pass through untouched; they describe the data, not
// the health of the store, and must not trip the breaker.
type BreakerStore struct {
	inner   SignalStore
	breaker *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

var _ SignalStore = (*BreakerStore)(nil)

// NewBreakerStore wraps the given store.
func NewBreakerStore(inner SignalStore, cfg BreakerConfig) *BreakerStore {
	settings := gobreaker.Settings{
		Name:    "signalstore",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// Data-shaped errors are successes from the breaker's view.
			return err == nil || errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrMovieNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Signal store circuit breaker state changed")
			metrics.SignalStoreBreakerState.Set(breakerStateValue(to))
		},
	}

	return &BreakerStore{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		timeout: cfg.QueryTimeout,
	}
}

// execute runs fn through the breaker with the configured deadline applied.
func (s *BreakerStore) execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		callCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	return result, nil
}

// mapError converts transport failures into ErrUnavailable while keeping
// data-shaped errors intact.
func (s *BreakerStore) mapError(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrMovieNotFound):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: query deadline exceeded", ErrUnavailable)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}
}

// RatingVector implements SignalStore.
func (s *BreakerStore) RatingVector(ctx context.Context, userID string) (*RatingVector, error) {
	result, err := s.execute(ctx, func(ctx context.Context) (any, error) {
		return s.inner.RatingVector(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*RatingVector), nil
}

// CoRaters implements SignalStore.
func (s *BreakerStore) CoRaters(ctx context.Context, userID string, minCommon, limit int) ([]string, error) {
	result, err := s.execute(ctx, func(ctx context.Context) (any, error) {
		return s.inner.CoRaters(ctx, userID, minCommon, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// MovieFeatures implements SignalStore.
func (s *BreakerStore) MovieFeatures(ctx context.Context, movieID string) (*MovieFeatures, error) {
	result, err := s.execute(ctx, func(ctx context.Context) (any, error) {
		return s.inner.MovieFeatures(ctx, movieID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*MovieFeatures), nil
}

// MoviesByGenres implements SignalStore.
func (s *BreakerStore) MoviesByGenres(ctx context.Context, genres, exclude []string, limit int) ([]*MovieFeatures, error) {
	result, err := s.execute(ctx, func(ctx context.Context) (any, error) {
		return s.inner.MoviesByGenres(ctx, genres, exclude, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*MovieFeatures), nil
}

// PopularMovies implements SignalStore.
func (s *BreakerStore) PopularMovies(ctx context.Context, limit int) ([]*MovieFeatures, error) {
	result, err := s.execute(ctx, func(ctx context.Context) (any, error) {
		return s.inner.PopularMovies(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*MovieFeatures), nil
}

// Watchlist implements SignalStore.
func (s *BreakerStore) Watchlist(ctx context.Context, userID string) ([]string, error) {
	result, err := s.execute(ctx, func(ctx context.Context) (any, error) {
		return s.inner.Watchlist(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// UserExists implements SignalStore.
func (s *BreakerStore) UserExists(ctx context.Context, userID string) (bool, error) {
	result, err := s.execute(ctx, func(ctx context.Context) (any, error) {
		return s.inner.UserExists(ctx, userID)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Close implements SignalStore.
func (s *BreakerStore) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}

// State returns the current breaker state for health reporting.
func (s *BreakerStore) State() string {
	return s.breaker.State().String()
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
