// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package algorithms

import (
	"context"
	"errors"
	"fmt"

	"github.com/okonrad/cinegraph/internal/signalstore"
)

// Collaborative ranks movies by a similarity-weighted average of what the
// user's nearest neighbours rated them. Only movies the target user has
// not seen are candidates; a user with no usable neighbourhood gets
// ErrInsufficientData.
type Collaborative struct {
	deps Deps

	// neighbours is the neighbourhood size consulted per request.
	neighbours int
}

var _ Ranker = (*Collaborative)(nil)

// NewCollaborative creates the collaborative filtering ranker.
func NewCollaborative(deps Deps, neighbours int) *Collaborative {
	if neighbours <= 0 {
		neighbours = 10
	}
	return &Collaborative{deps: deps, neighbours: neighbours}
}

// Name implements Ranker.
func (c *Collaborative) Name() string { return "collaborative" }

// Rank implements Ranker.
func (c *Collaborative) Rank(ctx context.Context, req Request) ([]Candidate, error) {
	neighbours, err := c.deps.Similarity.TopSimilarUsers(ctx, req.UserID, c.neighbours)
	if err != nil {
		return nil, fmt.Errorf("failed to build neighbourhood: %w", err)
	}
	if len(neighbours) == 0 {
		return nil, ErrInsufficientData
	}

	// Accumulate similarity-weighted rating sums per unseen movie.
	type accumulator struct {
		weighted float64
		weight   float64
	}
	sums := make(map[string]*accumulator)

	for _, neighbour := range neighbours {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vector, err := c.deps.Store.RatingVector(ctx, neighbour.UserID)
		if err != nil {
			// A neighbour deleted mid-ranking is skipped, not fatal.
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch neighbour ratings: %w", err)
		}

		weight := neighbour.Score.Value
		if weight <= 0 {
			continue
		}
		for movieID, rating := range vector.Ratings {
			if req.Excluded(movieID) {
				continue
			}
			acc := sums[movieID]
			if acc == nil {
				acc = &accumulator{}
				sums[movieID] = acc
			}
			acc.weighted += weight * rating
			acc.weight += weight
		}
	}

	if len(sums) == 0 {
		return nil, ErrInsufficientData
	}

	candidates := make([]Candidate, 0, len(sums))
	for movieID, acc := range sums {
		candidates = append(candidates, Candidate{
			MovieID: movieID,
			Score:   acc.weighted / acc.weight,
			Reason:  ReasonSimilarUsers,
		})
	}

	SortCandidates(candidates)
	return candidates, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, signalstore.ErrUserNotFound) || errors.Is(err, signalstore.ErrMovieNotFound)
}
