// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

// Package recommend contains the recommendation core: the ranking engine
// with its algorithm strategy table, the generation-counted list cache,
// the background recompute pool, and the orchestrator that ties them to
// the HTTP surface and the invalidation pipeline.
package recommend

import (
	"fmt"
	"time"
)

// Algorithm identifies a ranking strategy.
type Algorithm string

// Supported algorithms.
const (
	AlgorithmCollaborative Algorithm = "collaborative"
	AlgorithmContent       Algorithm = "content"
	AlgorithmHybrid        Algorithm = "hybrid"
	AlgorithmTrending      Algorithm = "trending"
	AlgorithmColdStart     Algorithm = "cold_start"
)

// Algorithms lists every registered strategy tag.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmCollaborative,
		AlgorithmContent,
		AlgorithmHybrid,
		AlgorithmTrending,
		AlgorithmColdStart,
	}
}

// ParseAlgorithm validates and normalizes an algorithm tag. An empty tag
// resolves to the hybrid default.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return AlgorithmHybrid, nil
	}
	alg := Algorithm(s)
	switch alg {
	case AlgorithmCollaborative, AlgorithmContent, AlgorithmHybrid, AlgorithmTrending, AlgorithmColdStart:
		return alg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// Item is a single recommended movie.
type Item struct {
	MovieID    string  `json:"movie_id"`
	Title      string  `json:"title,omitempty"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
	Popularity float64 `json:"popularity,omitempty"`
}

// List is an ordered recommendation list for one user and algorithm.
// Items are ordered by score descending, ties broken by popularity
// descending then movie ID ascending, and contain no duplicates.
type List struct {
	UserID      string    `json:"user_id"`
	Algorithm   Algorithm `json:"algorithm"`
	Items       []Item    `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the list's TTL has lapsed.
func (l *List) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// Contains reports whether the list includes the given movie.
func (l *List) Contains(movieID string) bool {
	for _, item := range l.Items {
		if item.MovieID == movieID {
			return true
		}
	}
	return false
}

// Page is a paged view over a recommendation list.
type Page struct {
	Items      []Item `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalItems int    `json:"total_items"`
}
