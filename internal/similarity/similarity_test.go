// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package similarity

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okonrad/cinegraph/internal/signalstore"
)

func newTestEngine(t *testing.T, metric string) (*Engine, *signalstore.MemoryStore) {
	t.Helper()
	store := signalstore.NewMemoryStore()
	engine := NewEngine(store, NewMemoryCache(), Config{
		Metric:           metric,
		MinCommonRatings: 2,
		MinScore:         0.0,
		MaxCandidates:    100,
		CacheTTL:         time.Minute,
	})
	return engine, store
}

func TestSimilarityIsSymmetric(t *testing.T) {
	engine, store := newTestEngine(t, "cosine")
	store.SetRating("alice", "m1", 9.0)
	store.SetRating("alice", "m2", 7.0)
	store.SetRating("alice", "m3", 5.0)
	store.SetRating("bob", "m1", 8.0)
	store.SetRating("bob", "m2", 6.5)
	store.SetRating("bob", "m3", 4.0)
	ctx := context.Background()

	ab, err := engine.Similarity(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("Similarity(alice, bob) failed: %v", err)
	}
	ba, err := engine.Similarity(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("Similarity(bob, alice) failed: %v", err)
	}

	if ab.Value != ba.Value {
		t.Errorf("similarity not symmetric: %f vs %f", ab.Value, ba.Value)
	}
	if ab.CoRated != 3 {
		t.Errorf("expected 3 co-rated movies, got %d", ab.CoRated)
	}
}

func TestSimilarityInsufficientOverlap(t *testing.T) {
	engine, store := newTestEngine(t, "cosine")
	store.SetRating("alice", "m1", 9.0)
	store.SetRating("bob", "m1", 8.0) // only one common movie
	store.SetRating("bob", "m2", 5.0)

	_, err := engine.Similarity(context.Background(), "alice", "bob")
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for single common rating, got %v", err)
	}
}

func TestPearsonPerfectAgreement(t *testing.T) {
	engine, store := newTestEngine(t, "pearson")
	// bob's ratings are alice's shifted down by 1: perfect linear agreement.
	store.SetRating("alice", "m1", 9.0)
	store.SetRating("alice", "m2", 7.0)
	store.SetRating("alice", "m3", 5.0)
	store.SetRating("bob", "m1", 8.0)
	store.SetRating("bob", "m2", 6.0)
	store.SetRating("bob", "m3", 4.0)

	score, err := engine.Similarity(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}
	if math.Abs(score.Value-1.0) > 1e-9 {
		t.Errorf("expected Pearson 1.0 for shifted ratings, got %f", score.Value)
	}
}

func TestPearsonOppositeTastes(t *testing.T) {
	engine, store := newTestEngine(t, "pearson")
	store.SetRating("alice", "m1", 9.0)
	store.SetRating("alice", "m2", 5.0)
	store.SetRating("alice", "m3", 1.0)
	store.SetRating("bob", "m1", 1.0)
	store.SetRating("bob", "m2", 5.0)
	store.SetRating("bob", "m3", 9.0)

	score, err := engine.Similarity(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}
	if math.Abs(score.Value+1.0) > 1e-9 {
		t.Errorf("expected Pearson -1.0 for opposite tastes, got %f", score.Value)
	}
}

func TestPearsonConstantRater(t *testing.T) {
	engine, store := newTestEngine(t, "pearson")
	store.SetRating("alice", "m1", 7.0)
	store.SetRating("alice", "m2", 7.0)
	store.SetRating("bob", "m1", 9.0)
	store.SetRating("bob", "m2", 3.0)

	score, err := engine.Similarity(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}
	if score.Value != 0 {
		t.Errorf("expected 0 for constant rater, got %f", score.Value)
	}
}

func TestSimilaritySelfUndefined(t *testing.T) {
	engine, _ := newTestEngine(t, "cosine")

	if _, err := engine.Similarity(context.Background(), "alice", "alice"); err == nil {
		t.Error("expected error for self similarity")
	}
}

func TestInvalidateRefreshesScore(t *testing.T) {
	engine, store := newTestEngine(t, "cosine")
	store.SetRating("alice", "m1", 9.0)
	store.SetRating("alice", "m2", 7.0)
	store.SetRating("bob", "m1", 9.0)
	store.SetRating("bob", "m2", 7.0)
	ctx := context.Background()

	before, err := engine.Similarity(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}

	// A rating change plus invalidation must be visible on the next read.
	store.SetRating("bob", "m1", 1.0)
	store.SetRating("bob", "m2", 9.5)
	if err := engine.Invalidate(ctx, "bob"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	after, err := engine.Similarity(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}
	if before.Value == after.Value {
		t.Error("expected recomputed score after invalidation")
	}
}

func TestCachedScoreSurvivesWithoutInvalidation(t *testing.T) {
	engine, store := newTestEngine(t, "cosine")
	store.SetRating("alice", "m1", 9.0)
	store.SetRating("alice", "m2", 7.0)
	store.SetRating("bob", "m1", 9.0)
	store.SetRating("bob", "m2", 7.0)
	ctx := context.Background()

	before, err := engine.Similarity(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}

	// Without an invalidation the cached value keeps serving.
	store.SetRating("bob", "m1", 1.0)
	after, err := engine.Similarity(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}
	if before.Value != after.Value {
		t.Error("expected cached score without invalidation")
	}
}

func TestTopSimilarUsersOrdering(t *testing.T) {
	engine, store := newTestEngine(t, "cosine")
	// alice's neighbourhood: bob agrees closely, carol diverges.
	store.SetRating("alice", "m1", 9.0)
	store.SetRating("alice", "m2", 8.0)
	store.SetRating("alice", "m3", 2.0)
	store.SetRating("bob", "m1", 9.0)
	store.SetRating("bob", "m2", 8.5)
	store.SetRating("bob", "m3", 2.5)
	store.SetRating("carol", "m1", 2.0)
	store.SetRating("carol", "m2", 3.0)
	store.SetRating("carol", "m3", 9.0)

	neighbours, err := engine.TopSimilarUsers(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("TopSimilarUsers failed: %v", err)
	}
	if len(neighbours) == 0 {
		t.Fatal("expected at least one neighbour")
	}
	if neighbours[0].UserID != "bob" {
		t.Errorf("expected bob as closest neighbour, got %s", neighbours[0].UserID)
	}
	for i := 1; i < len(neighbours); i++ {
		if neighbours[i].Score.Value > neighbours[i-1].Score.Value {
			t.Error("neighbours not ordered by descending score")
		}
	}
}

func TestTopSimilarUsersUnknownUser(t *testing.T) {
	engine, _ := newTestEngine(t, "cosine")

	_, err := engine.TopSimilarUsers(context.Background(), "nobody", 10)
	if !errors.Is(err, signalstore.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTopSimilarUsersRespectsLimit(t *testing.T) {
	engine, store := newTestEngine(t, "cosine")
	store.SetRating("alice", "m1", 9.0)
	store.SetRating("alice", "m2", 8.0)
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		store.SetRating(id, "m1", 9.0)
		store.SetRating(id, "m2", 8.0)
	}

	neighbours, err := engine.TopSimilarUsers(context.Background(), "alice", 2)
	if err != nil {
		t.Fatalf("TopSimilarUsers failed: %v", err)
	}
	if len(neighbours) != 2 {
		t.Errorf("expected limit of 2 neighbours, got %d", len(neighbours))
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	score := Score{Value: 0.8, CoRated: 4, ComputedAt: time.Now()}
	if err := cache.SetScore(ctx, "a|b:0:0:cosine", score, 10*time.Millisecond); err != nil {
		t.Fatalf("SetScore failed: %v", err)
	}

	if _, ok, _ := cache.GetScore(ctx, "a|b:0:0:cosine"); !ok {
		t.Error("expected cache hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok, _ := cache.GetScore(ctx, "a|b:0:0:cosine"); ok {
		t.Error("expected cache miss after expiry")
	}
}
