// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package algorithms

import (
	"context"
	"errors"
	"fmt"
)

// HybridWeights holds the blend proportions for the hybrid ranker.
type HybridWeights struct {
	Collaborative float64
	Content       float64
	Popularity    float64
}

// DefaultHybridWeights returns the platform's standard blend.
func DefaultHybridWeights() HybridWeights {
	return HybridWeights{Collaborative: 0.5, Content: 0.3, Popularity: 0.2}
}

// Hybrid blends collaborative, content and popularity signals into one
// list. Each signal's scores are min-max normalized before weighting so
// no single ranker's scale dominates. Signals that report insufficient
// data are dropped and their weight is redistributed over the rest; if
// no personalized signal survives, the hybrid itself reports
// ErrInsufficientData and the caller falls back to cold start.
type Hybrid struct {
	collaborative *Collaborative
	content       *Content
	popularity    *ColdStart
	weights       HybridWeights
}

var _ Ranker = (*Hybrid)(nil)

// NewHybrid creates the hybrid ranker over the given component rankers.
func NewHybrid(collaborative *Collaborative, content *Content, popularity *ColdStart, weights HybridWeights) *Hybrid {
	if weights.Collaborative <= 0 && weights.Content <= 0 && weights.Popularity <= 0 {
		weights = DefaultHybridWeights()
	}
	return &Hybrid{
		collaborative: collaborative,
		content:       content,
		popularity:    popularity,
		weights:       weights,
	}
}

// Name implements Ranker.
func (h *Hybrid) Name() string { return "hybrid" }

// signal is one component's normalized contribution.
type signal struct {
	weight     float64
	candidates []Candidate
}

// Rank implements Ranker.
func (h *Hybrid) Rank(ctx context.Context, req Request) ([]Candidate, error) {
	signals := make([]signal, 0, 3)
	personalized := 0

	run := func(ranker Ranker, weight float64, isPersonalized bool) error {
		if weight <= 0 {
			return nil
		}
		candidates, err := ranker.Rank(ctx, req)
		if errors.Is(err, ErrInsufficientData) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s signal failed: %w", ranker.Name(), err)
		}
		normalizeScores(candidates)
		signals = append(signals, signal{weight: weight, candidates: candidates})
		if isPersonalized {
			personalized++
		}
		return nil
	}

	if err := run(h.collaborative, h.weights.Collaborative, true); err != nil {
		return nil, err
	}
	if err := run(h.content, h.weights.Content, true); err != nil {
		return nil, err
	}
	if err := run(h.popularity, h.weights.Popularity, false); err != nil {
		return nil, err
	}

	if personalized == 0 {
		// Popularity alone is the cold-start ranker's job, not the hybrid's.
		return nil, ErrInsufficientData
	}

	// Renormalize weights over the surviving signals.
	var totalWeight float64
	for _, s := range signals {
		totalWeight += s.weight
	}

	type blended struct {
		score    float64
		features *Candidate
	}
	scores := make(map[string]*blended)
	for _, s := range signals {
		weight := s.weight / totalWeight
		for i := range s.candidates {
			c := &s.candidates[i]
			entry := scores[c.MovieID]
			if entry == nil {
				entry = &blended{}
				scores[c.MovieID] = entry
			}
			entry.score += weight * c.Score
			if entry.features == nil && c.Features != nil {
				entry.features = c
			}
		}
	}

	candidates := make([]Candidate, 0, len(scores))
	for movieID, entry := range scores {
		candidate := Candidate{
			MovieID: movieID,
			Score:   entry.score,
			Reason:  ReasonHybrid,
		}
		if entry.features != nil {
			candidate.Features = entry.features.Features
		}
		candidates = append(candidates, candidate)
	}

	SortCandidates(candidates)
	return candidates, nil
}
