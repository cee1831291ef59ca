// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package signalstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory SignalStore used in tests and development
// mode. Mutators mirror the write paths the catalog services own in
// production.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]bool
	ratings    map[string]map[string]float64 // userID -> movieID -> score
	updatedAt  map[string]time.Time          // userID -> last rating change
	movies     map[string]*MovieFeatures
	watchlists map[string]map[string]bool // userID -> movieID set
}

var _ SignalStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]bool),
		ratings:    make(map[string]map[string]float64),
		updatedAt:  make(map[string]time.Time),
		movies:     make(map[string]*MovieFeatures),
		watchlists: make(map[string]map[string]bool),
	}
}

// AddUser registers a user.
func (s *MemoryStore) AddUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = true
}

// RemoveUser deletes a user and all their relationships.
func (s *MemoryStore) RemoveUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	delete(s.ratings, userID)
	delete(s.updatedAt, userID)
	delete(s.watchlists, userID)
}

// AddMovie registers a movie with its content features.
func (s *MemoryStore) AddMovie(m *MovieFeatures) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *m
	s.movies[m.MovieID] = &copied
}

// RemoveMovie deletes a movie and all ratings pointing at it.
func (s *MemoryStore) RemoveMovie(movieID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.movies, movieID)
	for _, userRatings := range s.ratings {
		delete(userRatings, movieID)
	}
	for _, wl := range s.watchlists {
		delete(wl, movieID)
	}
}

// SetRating records or updates a user's rating for a movie.
func (s *MemoryStore) SetRating(userID, movieID string, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = true
	if s.ratings[userID] == nil {
		s.ratings[userID] = make(map[string]float64)
	}
	s.ratings[userID][movieID] = score
	s.updatedAt[userID] = time.Now()
}

// RemoveRating deletes a user's rating for a movie.
func (s *MemoryStore) RemoveRating(userID, movieID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userRatings := s.ratings[userID]; userRatings != nil {
		delete(userRatings, movieID)
		s.updatedAt[userID] = time.Now()
	}
}

// AddToWatchlist puts a movie on a user's watchlist.
func (s *MemoryStore) AddToWatchlist(userID, movieID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = true
	if s.watchlists[userID] == nil {
		s.watchlists[userID] = make(map[string]bool)
	}
	s.watchlists[userID][movieID] = true
}

// RemoveFromWatchlist takes a movie off a user's watchlist.
func (s *MemoryStore) RemoveFromWatchlist(userID, movieID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wl := s.watchlists[userID]; wl != nil {
		delete(wl, movieID)
	}
}

// RatingVector implements SignalStore.
func (s *MemoryStore) RatingVector(ctx context.Context, userID string) (*RatingVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.users[userID] {
		return nil, ErrUserNotFound
	}

	vector := &RatingVector{
		UserID:    userID,
		Ratings:   make(map[string]float64, len(s.ratings[userID])),
		UpdatedAt: s.updatedAt[userID],
	}
	for movieID, score := range s.ratings[userID] {
		vector.Ratings[movieID] = score
	}
	return vector, nil
}

// CoRaters implements SignalStore.
func (s *MemoryStore) CoRaters(ctx context.Context, userID string, minCommon, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	own := s.ratings[userID]

	type candidate struct {
		id     string
		common int
	}
	candidates := make([]candidate, 0)
	for otherID, otherRatings := range s.ratings {
		if otherID == userID {
			continue
		}
		common := 0
		for movieID := range own {
			if _, ok := otherRatings[movieID]; ok {
				common++
			}
		}
		if common >= minCommon {
			candidates = append(candidates, candidate{id: otherID, common: common})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].common != candidates[j].common {
			return candidates[i].common > candidates[j].common
		}
		return candidates[i].id < candidates[j].id
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids, nil
}

// MovieFeatures implements SignalStore.
func (s *MemoryStore) MovieFeatures(ctx context.Context, movieID string) (*MovieFeatures, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movies[movieID]
	if !ok {
		return nil, ErrMovieNotFound
	}
	return s.withAggregates(m), nil
}

// MoviesByGenres implements SignalStore.
func (s *MemoryStore) MoviesByGenres(ctx context.Context, genres, exclude []string, limit int) ([]*MovieFeatures, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(genres))
	for _, g := range genres {
		wanted[g] = true
	}
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	matches := make([]*MovieFeatures, 0)
	for _, m := range s.movies {
		if excluded[m.MovieID] {
			continue
		}
		for _, g := range m.Genres {
			if wanted[g] {
				matches = append(matches, s.withAggregates(m))
				break
			}
		}
	}

	sortByPopularity(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// PopularMovies implements SignalStore.
func (s *MemoryStore) PopularMovies(ctx context.Context, limit int) ([]*MovieFeatures, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	movies := make([]*MovieFeatures, 0, len(s.movies))
	for _, m := range s.movies {
		movies = append(movies, s.withAggregates(m))
	}

	sortByPopularity(movies)
	if limit > 0 && len(movies) > limit {
		movies = movies[:limit]
	}
	return movies, nil
}

// Watchlist implements SignalStore.
func (s *MemoryStore) Watchlist(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.watchlists[userID]))
	for movieID := range s.watchlists[userID] {
		ids = append(ids, movieID)
	}
	sort.Strings(ids)
	return ids, nil
}

// UserExists implements SignalStore.
func (s *MemoryStore) UserExists(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[userID], nil
}

// Close implements SignalStore.
func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}

// withAggregates returns a copy of m with AvgRating and RatingCount
// recomputed from the current ratings (must be called with mu held).
func (s *MemoryStore) withAggregates(m *MovieFeatures) *MovieFeatures {
	copied := *m
	sum := 0.0
	count := 0
	for _, userRatings := range s.ratings {
		if score, ok := userRatings[m.MovieID]; ok {
			sum += score
			count++
		}
	}
	copied.RatingCount = count
	if count > 0 {
		copied.AvgRating = sum / float64(count)
	} else {
		copied.AvgRating = 0
	}
	return &copied
}

// sortByPopularity orders movies by rating volume, average rating, then ID.
func sortByPopularity(movies []*MovieFeatures) {
	sort.Slice(movies, func(i, j int) bool {
		if movies[i].RatingCount != movies[j].RatingCount {
			return movies[i].RatingCount > movies[j].RatingCount
		}
		if movies[i].AvgRating != movies[j].AvgRating {
			return movies[i].AvgRating > movies[j].AvgRating
		}
		return movies[i].MovieID < movies[j].MovieID
	})
}
