// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

// Package algorithms implements the individual ranking strategies behind
// the recommendation engine: collaborative filtering over similar users,
// content matching over movie features, trending co-occurrence, and the
// popularity-based cold-start fallback.
//
// Each ranker is a plain struct with a Rank method; the engine composes
// them through a strategy table, so adding a variant means adding a
// ranker and a table entry, nothing else.
package algorithms

import (
	"context"
	"errors"
	"sort"

	"github.com/okonrad/cinegraph/internal/signalstore"
	"github.com/okonrad/cinegraph/internal/similarity"
)

// ErrInsufficientData indicates a ranker has too little signal for the
// user to produce a meaningful list. The caller decides whether to fall
// back to the cold-start ranker.
var ErrInsufficientData = errors.New("algorithms: insufficient data for user")

// Reason codes attached to recommendation items.
const (
	ReasonSimilarUsers        = "similar-users"
	ReasonSameGenre           = "same-genre"
	ReasonTrending            = "trending"
	ReasonColdStartPopularity = "cold-start-popularity"
	ReasonHybrid              = "hybrid"
)

// Request carries the per-call inputs shared by all rankers.
type Request struct {
	// UserID is the target user.
	UserID string

	// Limit is the maximum number of candidates the caller will keep.
	// Rankers may return more; the engine applies the final cut.
	Limit int

	// Exclude holds movie IDs that must never be recommended: everything
	// the user has already rated or watchlisted.
	Exclude map[string]bool
}

// Excluded reports whether a movie is filtered for this request.
func (r *Request) Excluded(movieID string) bool {
	return r.Exclude[movieID]
}

// Candidate is a scored movie produced by a ranker. Scores are comparable
// within one ranker's output only; the engine normalizes before blending.
type Candidate struct {
	MovieID  string
	Score    float64
	Reason   string
	Features *signalstore.MovieFeatures
}

// Ranker produces scored candidates for a user.
type Ranker interface {
	// Name returns the ranker's algorithm tag.
	Name() string

	// Rank scores candidate movies for the request. Returns
	// ErrInsufficientData when the user lacks the signal this ranker needs.
	Rank(ctx context.Context, req Request) ([]Candidate, error)
}

// Deps bundles the data dependencies shared by rankers.
type Deps struct {
	Store      signalstore.SignalStore
	Similarity *similarity.Engine
}

// normalizeScores rescales candidate scores to [0, 1] using min-max
// normalization, in place. A degenerate range maps everything to 1.
func normalizeScores(candidates []Candidate) {
	if len(candidates) == 0 {
		return
	}

	minScore, maxScore := candidates[0].Score, candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score < minScore {
			minScore = c.Score
		}
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}

	spread := maxScore - minScore
	if spread == 0 {
		for i := range candidates {
			candidates[i].Score = 1
		}
		return
	}
	for i := range candidates {
		candidates[i].Score = (candidates[i].Score - minScore) / spread
	}
}

// SortCandidates orders candidates by score descending, then popularity
// descending, then movie ID ascending. The ordering is total, so equal
// inputs always produce equal output.
func SortCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		pi, pj := popularityOf(&candidates[i]), popularityOf(&candidates[j])
		if pi != pj {
			return pi > pj
		}
		return candidates[i].MovieID < candidates[j].MovieID
	})
}

func popularityOf(c *Candidate) float64 {
	if c.Features == nil {
		return 0
	}
	return c.Features.Popularity()
}

// capCandidates truncates to limit when limit is positive.
func capCandidates(candidates []Candidate, limit int) []Candidate {
	if limit > 0 && len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}
