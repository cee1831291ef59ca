// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package algorithms

import (
	"context"
	"fmt"
)

// ColdStart ranks globally popular, well-rated movies for users without
// enough history for personalized ranking. It never returns
// ErrInsufficientData: an empty catalog simply yields an empty list.
type ColdStart struct {
	deps Deps

	// poolSize is how many popular movies are fetched before exclusion
	// filtering. Larger than the request limit so heavy raters still get
	// a full page after their seen movies drop out.
	poolSize int
}

var _ Ranker = (*ColdStart)(nil)

// NewColdStart creates the popularity fallback ranker.
func NewColdStart(deps Deps, poolSize int) *ColdStart {
	if poolSize <= 0 {
		poolSize = 100
	}
	return &ColdStart{deps: deps, poolSize: poolSize}
}

// Name implements Ranker.
func (c *ColdStart) Name() string { return "cold_start" }

// Rank implements Ranker.
func (c *ColdStart) Rank(ctx context.Context, req Request) ([]Candidate, error) {
	pool, err := c.deps.Store.PopularMovies(ctx, c.poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch popular movies: %w", err)
	}

	candidates := make([]Candidate, 0, len(pool))
	for rank, movie := range pool {
		if req.Excluded(movie.MovieID) {
			continue
		}
		candidates = append(candidates, Candidate{
			MovieID: movie.MovieID,
			// Position in the popularity ordering, rescaled so the top
			// movie scores 1 and scores decay linearly.
			Score:    1 - float64(rank)/float64(len(pool)),
			Reason:   ReasonColdStartPopularity,
			Features: movie,
		})
	}

	SortCandidates(candidates)
	return candidates, nil
}
