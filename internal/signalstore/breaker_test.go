// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package signalstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flakyStore fails every call until healed.
type flakyStore struct {
	*MemoryStore
	failing bool
}

var errDown = errors.New("connection refused")

func (f *flakyStore) RatingVector(ctx context.Context, userID string) (*RatingVector, error) {
	if f.failing {
		return nil, errDown
	}
	return f.MemoryStore.RatingVector(ctx, userID)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyStore{MemoryStore: seedStore(), failing: true}
	store := NewBreakerStore(inner, BreakerConfig{
		QueryTimeout: time.Second,
		MaxFailures:  3,
		OpenTimeout:  time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.RatingVector(ctx, "alice"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: expected ErrUnavailable, got %v", i, err)
		}
	}

	if store.State() != "open" {
		t.Errorf("expected breaker open after 3 failures, got %q", store.State())
	}

	// Open breaker fails fast without reaching the inner store.
	inner.failing = false
	if _, err := store.RatingVector(ctx, "alice"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected fail-fast ErrUnavailable while open, got %v", err)
	}
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	store := NewBreakerStore(seedStore(), BreakerConfig{
		QueryTimeout: time.Second,
		MaxFailures:  2,
		OpenTimeout:  time.Minute,
	})
	ctx := context.Background()

	// Not-found answers describe the data; they must not trip the breaker.
	for i := 0; i < 5; i++ {
		if _, err := store.RatingVector(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	}

	if store.State() != "closed" {
		t.Errorf("expected breaker closed after not-found results, got %q", store.State())
	}

	vector, err := store.RatingVector(ctx, "alice")
	if err != nil {
		t.Fatalf("RatingVector failed: %v", err)
	}
	if vector.Len() != 2 {
		t.Errorf("expected 2 ratings, got %d", vector.Len())
	}
}

func TestBreakerAppliesDeadline(t *testing.T) {
	slow := &slowStore{MemoryStore: seedStore(), delay: 200 * time.Millisecond}
	store := NewBreakerStore(slow, BreakerConfig{
		QueryTimeout: 20 * time.Millisecond,
		MaxFailures:  10,
		OpenTimeout:  time.Minute,
	})

	_, err := store.RatingVector(context.Background(), "alice")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on timeout, got %v", err)
	}
}

// slowStore delays every call past the configured deadline.
type slowStore struct {
	*MemoryStore
	delay time.Duration
}

func (s *slowStore) RatingVector(ctx context.Context, userID string) (*RatingVector, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.MemoryStore.RatingVector(ctx, userID)
}
