// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package algorithms

import (
	"context"
	"fmt"
)

// Trending ranks movies by how often the user's neighbourhood rates them
// highly: a co-occurrence count over the top similar users, restricted to
// ratings at or above the configured threshold.
type Trending struct {
	deps Deps

	neighbours int
	minRating  float64
}

var _ Ranker = (*Trending)(nil)

// NewTrending creates the trending ranker.
func NewTrending(deps Deps, neighbours int, minRating float64) *Trending {
	if neighbours <= 0 {
		neighbours = 10
	}
	if minRating <= 0 {
		minRating = 7.0
	}
	return &Trending{deps: deps, neighbours: neighbours, minRating: minRating}
}

// Name implements Ranker.
func (t *Trending) Name() string { return "trending" }

// Rank implements Ranker.
func (t *Trending) Rank(ctx context.Context, req Request) ([]Candidate, error) {
	neighbours, err := t.deps.Similarity.TopSimilarUsers(ctx, req.UserID, t.neighbours)
	if err != nil {
		return nil, fmt.Errorf("failed to build neighbourhood: %w", err)
	}
	if len(neighbours) == 0 {
		return nil, ErrInsufficientData
	}

	counts := make(map[string]int)
	for _, neighbour := range neighbours {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vector, err := t.deps.Store.RatingVector(ctx, neighbour.UserID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch neighbour ratings: %w", err)
		}
		for movieID, rating := range vector.Ratings {
			if rating < t.minRating || req.Excluded(movieID) {
				continue
			}
			counts[movieID]++
		}
	}

	if len(counts) == 0 {
		return nil, ErrInsufficientData
	}

	candidates := make([]Candidate, 0, len(counts))
	for movieID, count := range counts {
		candidates = append(candidates, Candidate{
			MovieID: movieID,
			Score:   float64(count),
			Reason:  ReasonTrending,
		})
	}

	SortCandidates(candidates)
	return candidates, nil
}
