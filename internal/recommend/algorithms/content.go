// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package algorithms

import (
	"context"
	"fmt"
	"sort"

	"github.com/okonrad/cinegraph/internal/signalstore"
)

// Feature weights for content scoring. Normalized at construction so the
// combined score stays in [0, 1] before the rating tie-break.
const (
	defaultGenreWeight    = 0.6
	defaultDirectorWeight = 0.2
	defaultCastWeight     = 0.2

	// likedThreshold is the rating above which a movie shapes the user's
	// taste profile.
	likedThreshold = 6.0

	// profileGenreCap bounds how many profile genres seed candidate search.
	profileGenreCap = 5
)

// Content ranks movies by feature similarity to the user's taste profile:
// genres and crew of the movies they rated well. It also answers
// movie-to-movie similarity for the "more like this" surface.
type Content struct {
	deps Deps

	genreWeight    float64
	directorWeight float64
	castWeight     float64

	// candidatePool is how many genre-matched movies are fetched before scoring.
	candidatePool int
}

var _ Ranker = (*Content)(nil)

// NewContent creates the content-based ranker.
func NewContent(deps Deps, candidatePool int) *Content {
	if candidatePool <= 0 {
		candidatePool = 100
	}

	total := defaultGenreWeight + defaultDirectorWeight + defaultCastWeight
	return &Content{
		deps:           deps,
		genreWeight:    defaultGenreWeight / total,
		directorWeight: defaultDirectorWeight / total,
		castWeight:     defaultCastWeight / total,
		candidatePool:  candidatePool,
	}
}

// Name implements Ranker.
func (c *Content) Name() string { return "content" }

// profile is the user's aggregated taste: weights per genre, director and
// cast member, accumulated from liked movies.
type profile struct {
	genres    map[string]float64
	directors map[string]float64
	cast      map[string]float64
}

// Rank implements Ranker.
func (c *Content) Rank(ctx context.Context, req Request) ([]Candidate, error) {
	vector, err := c.deps.Store.RatingVector(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rating history: %w", err)
	}
	if vector.Len() == 0 {
		return nil, ErrInsufficientData
	}

	prof, err := c.buildProfile(ctx, vector)
	if err != nil {
		return nil, err
	}
	if len(prof.genres) == 0 {
		// Nothing rated above the liked threshold: no taste signal.
		return nil, ErrInsufficientData
	}

	exclude := make([]string, 0, len(req.Exclude))
	for movieID := range req.Exclude {
		exclude = append(exclude, movieID)
	}
	sort.Strings(exclude)

	pool, err := c.deps.Store.MoviesByGenres(ctx, topGenres(prof.genres, profileGenreCap), exclude, c.candidatePool)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch genre candidates: %w", err)
	}

	candidates := make([]Candidate, 0, len(pool))
	for _, movie := range pool {
		if req.Excluded(movie.MovieID) {
			continue
		}
		candidates = append(candidates, Candidate{
			MovieID:  movie.MovieID,
			Score:    c.scoreAgainstProfile(prof, movie),
			Reason:   ReasonSameGenre,
			Features: movie,
		})
	}
	if len(candidates) == 0 {
		return nil, ErrInsufficientData
	}

	SortCandidates(candidates)
	return candidates, nil
}

// SimilarMovies returns up to limit movies most similar to the given one
// by content features, ordered deterministically.
func (c *Content) SimilarMovies(ctx context.Context, movieID string, limit int) ([]Candidate, error) {
	anchor, err := c.deps.Store.MovieFeatures(ctx, movieID)
	if err != nil {
		return nil, err
	}

	pool, err := c.deps.Store.MoviesByGenres(ctx, anchor.Genres, []string{movieID}, c.candidatePool)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch genre candidates: %w", err)
	}

	candidates := make([]Candidate, 0, len(pool))
	for _, movie := range pool {
		if movie.MovieID == movieID {
			continue
		}
		candidates = append(candidates, Candidate{
			MovieID:  movie.MovieID,
			Score:    c.movieSimilarity(anchor, movie),
			Reason:   ReasonSameGenre,
			Features: movie,
		})
	}

	SortCandidates(candidates)
	return capCandidates(candidates, limit), nil
}

// buildProfile aggregates feature weights from the user's liked movies.
func (c *Content) buildProfile(ctx context.Context, vector *signalstore.RatingVector) (*profile, error) {
	prof := &profile{
		genres:    make(map[string]float64),
		directors: make(map[string]float64),
		cast:      make(map[string]float64),
	}

	for movieID, rating := range vector.Ratings {
		if rating < likedThreshold {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		movie, err := c.deps.Store.MovieFeatures(ctx, movieID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch movie features: %w", err)
		}

		// Stronger ratings pull the profile harder.
		weight := rating / 10.0
		for _, genre := range movie.Genres {
			prof.genres[genre] += weight
		}
		if movie.Director != "" {
			prof.directors[movie.Director] += weight
		}
		for _, member := range movie.Cast {
			prof.cast[member] += weight
		}
	}
	return prof, nil
}

// scoreAgainstProfile scores a candidate against the taste profile.
// The candidate's average rating contributes a small nudge so equally
// matched movies rank by quality.
func (c *Content) scoreAgainstProfile(prof *profile, movie *signalstore.MovieFeatures) float64 {
	score := c.genreWeight*weightedOverlap(prof.genres, movie.Genres) +
		c.directorWeight*weightedMatch(prof.directors, movie.Director) +
		c.castWeight*weightedOverlap(prof.cast, movie.Cast)

	return score + movie.AvgRating/1000.0
}

// movieSimilarity scores movie-to-movie content similarity.
func (c *Content) movieSimilarity(a, b *signalstore.MovieFeatures) float64 {
	score := c.genreWeight * jaccard(a.Genres, b.Genres)
	if a.Director != "" && a.Director == b.Director {
		score += c.directorWeight
	}
	score += c.castWeight * jaccard(a.Cast, b.Cast)

	return score + b.AvgRating/1000.0
}

// weightedOverlap sums profile weights for the candidate's features,
// normalized by the profile's total mass.
func weightedOverlap(weights map[string]float64, features []string) float64 {
	if len(weights) == 0 || len(features) == 0 {
		return 0
	}
	var total, matched float64
	for _, w := range weights {
		total += w
	}
	for _, f := range features {
		matched += weights[f]
	}
	if total == 0 {
		return 0
	}
	overlap := matched / total
	if overlap > 1 {
		overlap = 1
	}
	return overlap
}

func weightedMatch(weights map[string]float64, feature string) float64 {
	if feature == "" || len(weights) == 0 {
		return 0
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return 0
	}
	return weights[feature] / total
}

// jaccard computes set overlap between two feature lists.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, item := range a {
		setA[item] = true
	}
	intersection := 0
	setB := make(map[string]bool, len(b))
	for _, item := range b {
		if setB[item] {
			continue
		}
		setB[item] = true
		if setA[item] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// topGenres returns the n highest-weighted genres, deterministically.
func topGenres(weights map[string]float64, n int) []string {
	genres := make([]string, 0, len(weights))
	for genre := range weights {
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool {
		if weights[genres[i]] != weights[genres[j]] {
			return weights[genres[i]] > weights[genres[j]]
		}
		return genres[i] < genres[j]
	})
	if n > 0 && len(genres) > n {
		genres = genres[:n]
	}
	return genres
}
