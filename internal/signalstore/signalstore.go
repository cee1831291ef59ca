// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

// Package signalstore provides read access to the recommendation signals
// held in the platform's graph repository: rating vectors, movie features,
// co-rater neighbourhoods, popularity aggregates and watchlists.
//
// The graph database is the system of record and is written by the catalog
// services; this service only reads from it. Both a Neo4j-backed store and
// an in-memory store (for tests and development) are provided, plus a
// circuit breaker wrapper that bounds every query with a deadline and
// fails fast while the repository is unhealthy.
package signalstore

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by stores.
var (
	// ErrUserNotFound indicates the user does not exist in the graph.
	ErrUserNotFound = errors.New("signalstore: user not found")

	// ErrMovieNotFound indicates the movie does not exist in the graph.
	ErrMovieNotFound = errors.New("signalstore: movie not found")

	// ErrUnavailable indicates the store could not be reached, timed out,
	// or is fenced off by the circuit breaker. Callers should fall back to
	// cached data where possible.
	ErrUnavailable = errors.New("signalstore: store unavailable")
)

// RatingVector is a user's complete rating history, one entry per movie.
// Scores are on the platform's 0.5 to 10.0 scale.
type RatingVector struct {
	UserID    string
	Ratings   map[string]float64
	UpdatedAt time.Time
}

// Len returns the number of rated movies.
func (v *RatingVector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Ratings)
}

// MovieFeatures is an immutable snapshot of a movie's content attributes
// and rating aggregates, taken at query time.
type MovieFeatures struct {
	MovieID     string
	Title       string
	Genres      []string
	Director    string
	Cast        []string
	Year        int
	AvgRating   float64
	RatingCount int
}

// Popularity is the ordering key for popularity-based ranking: rating
// volume first, average rating as the tie-break.
func (m *MovieFeatures) Popularity() float64 {
	return float64(m.RatingCount) + m.AvgRating/100.0
}

// SignalStore reads recommendation signals from the graph repository.
// All methods honor context cancellation and deadlines.
type SignalStore interface {
	// RatingVector returns the user's full rating history.
	// Returns ErrUserNotFound if the user does not exist. A user with no
	// ratings yields an empty (non-nil) Ratings map.
	RatingVector(ctx context.Context, userID string) (*RatingVector, error)

	// CoRaters returns IDs of users who rated at least minCommon of the
	// same movies as userID, most overlapping first, capped at limit.
	// The result is a bounded candidate sample, never a full scan.
	CoRaters(ctx context.Context, userID string, minCommon, limit int) ([]string, error)

	// MovieFeatures returns the content features of a single movie.
	// Returns ErrMovieNotFound if the movie does not exist.
	MovieFeatures(ctx context.Context, movieID string) (*MovieFeatures, error)

	// MoviesByGenres returns up to limit movies sharing at least one of
	// the given genres, excluding the given movie IDs.
	MoviesByGenres(ctx context.Context, genres []string, exclude []string, limit int) ([]*MovieFeatures, error)

	// PopularMovies returns up to limit movies ordered by rating volume
	// then average rating.
	PopularMovies(ctx context.Context, limit int) ([]*MovieFeatures, error)

	// Watchlist returns the IDs of movies on the user's watchlist.
	// A missing user yields an empty list, not an error; watchlists are
	// optional.
	Watchlist(ctx context.Context, userID string) ([]string, error)

	// UserExists reports whether the user node exists.
	UserExists(ctx context.Context, userID string) (bool, error)

	// Close releases store resources.
	Close(ctx context.Context) error
}
