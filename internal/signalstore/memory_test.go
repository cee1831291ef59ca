// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package signalstore

import (
	"context"
	"errors"
	"testing"
)

func seedStore() *MemoryStore {
	store := NewMemoryStore()

	store.AddMovie(&MovieFeatures{MovieID: "m1", Title: "Heat", Genres: []string{"Crime", "Thriller"}, Director: "Mann", Year: 1995})
	store.AddMovie(&MovieFeatures{MovieID: "m2", Title: "Collateral", Genres: []string{"Crime"}, Director: "Mann", Year: 2004})
	store.AddMovie(&MovieFeatures{MovieID: "m3", Title: "Alien", Genres: []string{"Horror", "SciFi"}, Director: "Scott", Year: 1979})

	store.SetRating("alice", "m1", 9.0)
	store.SetRating("alice", "m2", 8.0)
	store.SetRating("bob", "m1", 8.5)
	store.SetRating("bob", "m2", 7.5)
	store.SetRating("bob", "m3", 6.0)
	store.SetRating("carol", "m3", 9.5)

	return store
}

func TestRatingVector(t *testing.T) {
	store := seedStore()
	ctx := context.Background()

	vector, err := store.RatingVector(ctx, "alice")
	if err != nil {
		t.Fatalf("RatingVector failed: %v", err)
	}
	if vector.Len() != 2 {
		t.Errorf("expected 2 ratings, got %d", vector.Len())
	}
	if vector.Ratings["m1"] != 9.0 {
		t.Errorf("expected rating 9.0 for m1, got %f", vector.Ratings["m1"])
	}
	if vector.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestRatingVectorUnknownUser(t *testing.T) {
	store := seedStore()

	_, err := store.RatingVector(context.Background(), "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCoRatersOrdering(t *testing.T) {
	store := seedStore()

	// bob shares 2 movies with alice, carol shares none.
	ids, err := store.CoRaters(context.Background(), "alice", 2, 10)
	if err != nil {
		t.Fatalf("CoRaters failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "bob" {
		t.Errorf("expected [bob], got %v", ids)
	}

	// With a lower overlap threshold nobody else qualifies either.
	ids, err = store.CoRaters(context.Background(), "carol", 1, 10)
	if err != nil {
		t.Fatalf("CoRaters failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "bob" {
		t.Errorf("expected [bob] for carol, got %v", ids)
	}
}

func TestMovieFeaturesAggregates(t *testing.T) {
	store := seedStore()

	m, err := store.MovieFeatures(context.Background(), "m1")
	if err != nil {
		t.Fatalf("MovieFeatures failed: %v", err)
	}
	if m.RatingCount != 2 {
		t.Errorf("expected 2 ratings for m1, got %d", m.RatingCount)
	}
	if m.AvgRating != 8.75 {
		t.Errorf("expected avg rating 8.75, got %f", m.AvgRating)
	}

	_, err = store.MovieFeatures(context.Background(), "missing")
	if !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestMoviesByGenresExcludes(t *testing.T) {
	store := seedStore()

	movies, err := store.MoviesByGenres(context.Background(), []string{"Crime"}, []string{"m1"}, 10)
	if err != nil {
		t.Fatalf("MoviesByGenres failed: %v", err)
	}
	if len(movies) != 1 || movies[0].MovieID != "m2" {
		t.Errorf("expected [m2], got %v", movieIDs(movies))
	}
}

func TestPopularMoviesOrdering(t *testing.T) {
	store := seedStore()

	movies, err := store.PopularMovies(context.Background(), 2)
	if err != nil {
		t.Fatalf("PopularMovies failed: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(movies))
	}
	// m1 has 2 ratings avg 8.75, m2 has 2 ratings avg 7.75, m3 has 2 ratings avg 7.75.
	if movies[0].MovieID != "m1" {
		t.Errorf("expected m1 first, got %s", movies[0].MovieID)
	}
}

func TestWatchlistRoundTrip(t *testing.T) {
	store := seedStore()
	ctx := context.Background()

	store.AddToWatchlist("alice", "m3")
	ids, err := store.Watchlist(ctx, "alice")
	if err != nil {
		t.Fatalf("Watchlist failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "m3" {
		t.Errorf("expected [m3], got %v", ids)
	}

	store.RemoveFromWatchlist("alice", "m3")
	ids, err = store.Watchlist(ctx, "alice")
	if err != nil {
		t.Fatalf("Watchlist failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty watchlist, got %v", ids)
	}
}

func TestRemoveUserClearsRelationships(t *testing.T) {
	store := seedStore()

	store.RemoveUser("bob")
	exists, err := store.UserExists(context.Background(), "bob")
	if err != nil {
		t.Fatalf("UserExists failed: %v", err)
	}
	if exists {
		t.Error("expected bob to be removed")
	}

	m, err := store.MovieFeatures(context.Background(), "m3")
	if err != nil {
		t.Fatalf("MovieFeatures failed: %v", err)
	}
	if m.RatingCount != 1 {
		t.Errorf("expected m3 to keep only carol's rating, got count %d", m.RatingCount)
	}
}

func movieIDs(movies []*MovieFeatures) []string {
	ids := make([]string, len(movies))
	for i, m := range movies {
		ids[i] = m.MovieID
	}
	return ids
}
