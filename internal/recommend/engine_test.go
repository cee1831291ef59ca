// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okonrad/cinegraph/internal/config"
	"github.com/okonrad/cinegraph/internal/signalstore"
	"github.com/okonrad/cinegraph/internal/similarity"
)

func testRecommendConfig() config.RecommendConfig {
	return config.RecommendConfig{
		DefaultLimit:              10,
		MaxLimit:                  50,
		CacheTTL:                  time.Hour,
		SimilarUsers:              10,
		TrendingMinRating:         6.0,
		HybridCollaborativeWeight: 0.5,
		HybridContentWeight:       0.3,
		HybridPopularityWeight:    0.2,
		ColdStartPoolSize:         50,
	}
}

// seedStore builds a small catalog: alice and bob overlap on crime
// thrillers, carol has a single rating, dave has none.
func seedStore() *signalstore.MemoryStore {
	store := signalstore.NewMemoryStore()

	store.AddMovie(&signalstore.MovieFeatures{
		MovieID: "m1", Title: "Heat", Genres: []string{"Crime", "Thriller"},
		Director: "Michael Mann", Cast: []string{"Al Pacino", "Robert De Niro"}, Year: 1995,
	})
	store.AddMovie(&signalstore.MovieFeatures{
		MovieID: "m2", Title: "Collateral", Genres: []string{"Crime", "Thriller"},
		Director: "Michael Mann", Cast: []string{"Tom Cruise", "Jamie Foxx"}, Year: 2004,
	})
	store.AddMovie(&signalstore.MovieFeatures{
		MovieID: "m3", Title: "Ronin", Genres: []string{"Action", "Thriller"},
		Director: "John Frankenheimer", Cast: []string{"Robert De Niro"}, Year: 1998,
	})
	store.AddMovie(&signalstore.MovieFeatures{
		MovieID: "m4", Title: "Alien", Genres: []string{"Horror", "Sci-Fi"},
		Director: "Ridley Scott", Cast: []string{"Sigourney Weaver"}, Year: 1979,
	})

	store.AddUser("alice")
	store.AddUser("bob")
	store.AddUser("carol")
	store.AddUser("dave")

	store.SetRating("alice", "m1", 9)
	store.SetRating("alice", "m2", 8)
	store.SetRating("bob", "m1", 9)
	store.SetRating("bob", "m2", 7)
	store.SetRating("bob", "m3", 9)
	store.SetRating("bob", "m4", 8)
	store.SetRating("carol", "m1", 5)

	return store
}

func newTestEngine(store signalstore.SignalStore) *Engine {
	sim := similarity.NewEngine(store, similarity.NewMemoryCache(), similarity.Config{
		Metric:           "cosine",
		MinCommonRatings: 2,
		MinScore:         0.1,
		MaxCandidates:    100,
		CacheTTL:         time.Minute,
	})
	return NewEngine(store, sim, testRecommendConfig())
}

func TestRankerUnavailabilityMapsToUpstreamError(t *testing.T) {
	store := &popularityFailStore{SignalStore: seedStore()}
	engine := newTestEngine(store)
	store.setFailing(true)
	ctx := context.Background()

	// The exclusion set still resolves; the failure happens inside the
	// ranker and must come back as the retryable sentinel.
	if _, err := engine.Rank(ctx, "alice", AlgorithmColdStart, 10); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Rank error = %v, want ErrUpstreamUnavailable", err)
	}
	if _, err := engine.ColdStart(ctx, "alice", AlgorithmCollaborative, 10); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("ColdStart error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestEngineRankUnknownAlgorithm(t *testing.T) {
	engine := newTestEngine(seedStore())

	_, err := engine.Rank(context.Background(), "alice", Algorithm("oracle"), 10)
	if !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestEngineRankUnknownUser(t *testing.T) {
	engine := newTestEngine(seedStore())

	_, err := engine.Rank(context.Background(), "nobody", AlgorithmHybrid, 10)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestEngineRankExcludesSeenMovies(t *testing.T) {
	store := seedStore()
	store.AddToWatchlist("alice", "m4")
	engine := newTestEngine(store)

	list, err := engine.Rank(context.Background(), "alice", AlgorithmHybrid, 10)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	if len(list.Items) == 0 {
		t.Fatal("expected at least one recommendation")
	}
	for _, item := range list.Items {
		switch item.MovieID {
		case "m1", "m2":
			t.Errorf("rated movie %s recommended", item.MovieID)
		case "m4":
			t.Errorf("watchlisted movie %s recommended", item.MovieID)
		}
	}
}

func TestEngineRankListShape(t *testing.T) {
	engine := newTestEngine(seedStore())

	before := time.Now()
	list, err := engine.Rank(context.Background(), "alice", AlgorithmHybrid, 10)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}

	if list.UserID != "alice" || list.Algorithm != AlgorithmHybrid {
		t.Errorf("unexpected list identity: %+v", list)
	}
	if list.GeneratedAt.Before(before) {
		t.Error("GeneratedAt not set")
	}
	if got, want := list.ExpiresAt.Sub(list.GeneratedAt), time.Hour; got != want {
		t.Errorf("TTL = %v, want %v", got, want)
	}
	for _, item := range list.Items {
		if item.Title == "" {
			t.Errorf("item %s not hydrated with a title", item.MovieID)
		}
	}
}

func TestEngineRankDeterministic(t *testing.T) {
	engine := newTestEngine(seedStore())
	ctx := context.Background()

	first, err := engine.Rank(ctx, "alice", AlgorithmHybrid, 10)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	second, err := engine.Rank(ctx, "alice", AlgorithmHybrid, 10)
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}

	if len(first.Items) != len(second.Items) {
		t.Fatalf("item counts differ: %d vs %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i].MovieID != second.Items[i].MovieID {
			t.Errorf("position %d differs: %s vs %s", i, first.Items[i].MovieID, second.Items[i].MovieID)
		}
	}
}

func TestEngineColdStart(t *testing.T) {
	engine := newTestEngine(seedStore())

	list, err := engine.ColdStart(context.Background(), "dave", AlgorithmHybrid, 10)
	if err != nil {
		t.Fatalf("cold start failed: %v", err)
	}
	if len(list.Items) == 0 {
		t.Fatal("expected popularity recommendations for a new user")
	}
	if list.Algorithm != AlgorithmHybrid {
		t.Errorf("cold start list must keep the requested algorithm tag, got %s", list.Algorithm)
	}
	for _, item := range list.Items {
		if item.Reason != "cold-start-popularity" {
			t.Errorf("item %s reason = %q, want cold-start-popularity", item.MovieID, item.Reason)
		}
	}
}

func TestEngineSimilarMovies(t *testing.T) {
	engine := newTestEngine(seedStore())

	items, err := engine.SimilarMovies(context.Background(), "m1", 10)
	if err != nil {
		t.Fatalf("similar movies failed: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected similar movies for m1")
	}
	// Collateral shares both genres and the director; it must beat Ronin.
	if items[0].MovieID != "m2" {
		t.Errorf("expected m2 most similar to m1, got %s", items[0].MovieID)
	}
	for _, item := range items {
		if item.MovieID == "m1" {
			t.Error("anchor movie returned as its own neighbour")
		}
	}
}

func TestEngineSimilarMoviesUnknownMovie(t *testing.T) {
	engine := newTestEngine(seedStore())

	_, err := engine.SimilarMovies(context.Background(), "m999", 10)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestEngineSimilarUsers(t *testing.T) {
	engine := newTestEngine(seedStore())

	neighbours, err := engine.SimilarUsers(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("similar users failed: %v", err)
	}
	if len(neighbours) == 0 {
		t.Fatal("expected bob in alice's neighbourhood")
	}
	if neighbours[0].UserID != "bob" {
		t.Errorf("expected bob as nearest neighbour, got %s", neighbours[0].UserID)
	}

	if _, err := engine.SimilarUsers(context.Background(), "nobody", 10); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestEngineLimitClamping(t *testing.T) {
	engine := newTestEngine(seedStore())

	tests := []struct {
		requested int
		want      int
	}{
		{0, 10},
		{-3, 10},
		{25, 25},
		{500, 50},
	}
	for _, tt := range tests {
		if got := engine.Limit(tt.requested); got != tt.want {
			t.Errorf("Limit(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}
}
