// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

// Package similarity computes user-to-user similarity from rating vectors.
//
// Scores are computed over the intersection of two users' rated movies
// using cosine or Pearson correlation, cached by unordered pair, and
// invalidated through per-user rating versions. Too little overlap yields
// ErrInsufficientData rather than a fabricated zero: "no signal" and
// "signal of zero" are different answers.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okonrad/cinegraph/internal/metrics"
	"github.com/okonrad/cinegraph/internal/signalstore"
)

// ErrInsufficientData indicates two users share too few rated movies for a
// meaningful similarity score.
var ErrInsufficientData = errors.New("similarity: insufficient overlapping ratings")

// minOverlap is the hard floor of common ratings below which no metric
// produces a meaningful score. Pearson is undefined below two points.
const minOverlap = 2

// Score is a computed similarity between two users.
type Score struct {
	// Value is the similarity in [-1, 1].
	Value float64 `json:"value"`

	// CoRated is the number of movies both users rated.
	CoRated int `json:"co_rated"`

	// ComputedAt is when the score was computed.
	ComputedAt time.Time `json:"computed_at"`
}

// SimilarUser is a neighbourhood entry returned by TopSimilarUsers.
type SimilarUser struct {
	UserID string
	Score  Score
}

// Config holds similarity engine settings.
type Config struct {
	// Metric selects the measure: cosine or pearson.
	Metric string

	// MinCommonRatings is the overlap floor for neighbourhood membership.
	MinCommonRatings int

	// MinScore filters weakly similar users out of neighbourhoods.
	MinScore float64

	// MaxCandidates caps the co-rater sample examined per neighbourhood query.
	MaxCandidates int

	// CacheTTL bounds the lifetime of cached pair scores.
	CacheTTL time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Metric:           "cosine",
		MinCommonRatings: 3,
		MinScore:         0.3,
		MaxCandidates:    500,
		CacheTTL:         30 * time.Minute,
	}
}

// Engine computes and caches user similarity.
type Engine struct {
	store signalstore.SignalStore
	cache PairCache
	cfg   Config
}

// NewEngine creates a similarity engine.
func NewEngine(store signalstore.SignalStore, cache PairCache, cfg Config) *Engine {
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	if cfg.MinCommonRatings < minOverlap {
		cfg.MinCommonRatings = minOverlap
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 500
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	return &Engine{store: store, cache: cache, cfg: cfg}
}

// Similarity returns the similarity between two users. The result is
// symmetric: Similarity(a, b) equals Similarity(b, a). Too little rating
// overlap yields ErrInsufficientData.
func (e *Engine) Similarity(ctx context.Context, userA, userB string) (Score, error) {
	if userA == userB {
		return Score{}, fmt.Errorf("similarity of a user with themselves is undefined")
	}

	// Canonical pair order makes the cache key, and therefore the result,
	// independent of argument order.
	first, second := userA, userB
	if second < first {
		first, second = second, first
	}

	key, err := e.pairKey(ctx, first, second)
	if err != nil {
		return Score{}, err
	}

	if cached, ok, err := e.cache.GetScore(ctx, key); err == nil && ok {
		metrics.SimilarityCacheHits.Inc()
		return cached, nil
	}
	metrics.SimilarityCacheMisses.Inc()

	score, err := e.compute(ctx, first, second)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			metrics.SimilarityComputations.WithLabelValues(e.cfg.Metric, "insufficient_data").Inc()
		} else {
			metrics.SimilarityComputations.WithLabelValues(e.cfg.Metric, "error").Inc()
		}
		return Score{}, err
	}
	metrics.SimilarityComputations.WithLabelValues(e.cfg.Metric, "ok").Inc()

	// Cache write failures are not fatal; the score is still valid.
	_ = e.cache.SetScore(ctx, key, score, e.cfg.CacheTTL)

	return score, nil
}

// TopSimilarUsers returns up to limit users most similar to userID,
// ordered by score descending with ties broken by higher overlap and then
// lexicographic user ID. Fewer than limit results is not an error.
func (e *Engine) TopSimilarUsers(ctx context.Context, userID string, limit int) ([]SimilarUser, error) {
	if exists, err := e.store.UserExists(ctx, userID); err != nil {
		return nil, err
	} else if !exists {
		return nil, signalstore.ErrUserNotFound
	}

	candidates, err := e.store.CoRaters(ctx, userID, e.cfg.MinCommonRatings, e.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch co-rater candidates: %w", err)
	}

	neighbours := make([]SimilarUser, 0, len(candidates))
	for _, candidateID := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, err := e.Similarity(ctx, userID, candidateID)
		if errors.Is(err, ErrInsufficientData) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if score.Value < e.cfg.MinScore {
			continue
		}
		neighbours = append(neighbours, SimilarUser{UserID: candidateID, Score: score})
	}

	sort.Slice(neighbours, func(i, j int) bool {
		if neighbours[i].Score.Value != neighbours[j].Score.Value {
			return neighbours[i].Score.Value > neighbours[j].Score.Value
		}
		if neighbours[i].Score.CoRated != neighbours[j].Score.CoRated {
			return neighbours[i].Score.CoRated > neighbours[j].Score.CoRated
		}
		return neighbours[i].UserID < neighbours[j].UserID
	})

	if limit > 0 && len(neighbours) > limit {
		neighbours = neighbours[:limit]
	}
	return neighbours, nil
}

// Invalidate marks a user's cached pair scores as superseded. Called by
// the invalidation pipeline when a user's ratings change.
func (e *Engine) Invalidate(ctx context.Context, userID string) error {
	return e.cache.BumpVersion(ctx, userID)
}

// InvalidateAll drops every cached pair score. Used when an event cannot
// be attributed to specific users.
func (e *Engine) InvalidateAll(ctx context.Context) error {
	return e.cache.Purge(ctx)
}

// pairKey builds a cache key embedding both users' rating versions, so a
// version bump orphans all prior entries for the pair.
func (e *Engine) pairKey(ctx context.Context, first, second string) (string, error) {
	verA, err := e.cache.Version(ctx, first)
	if err != nil {
		return "", fmt.Errorf("failed to read rating version: %w", err)
	}
	verB, err := e.cache.Version(ctx, second)
	if err != nil {
		return "", fmt.Errorf("failed to read rating version: %w", err)
	}

	var b strings.Builder
	b.WriteString(first)
	b.WriteByte('|')
	b.WriteString(second)
	b.WriteByte(':')
	fmt.Fprintf(&b, "%d:%d:%s", verA, verB, e.cfg.Metric)
	return b.String(), nil
}

// compute fetches both rating vectors and scores their overlap.
func (e *Engine) compute(ctx context.Context, userA, userB string) (Score, error) {
	vectorA, err := e.store.RatingVector(ctx, userA)
	if err != nil {
		return Score{}, err
	}
	vectorB, err := e.store.RatingVector(ctx, userB)
	if err != nil {
		return Score{}, err
	}

	common := intersect(vectorA.Ratings, vectorB.Ratings)
	if len(common) < minOverlap {
		return Score{}, ErrInsufficientData
	}

	var value float64
	switch e.cfg.Metric {
	case "pearson":
		value = pearson(vectorA.Ratings, vectorB.Ratings, common)
	default:
		value = cosine(vectorA.Ratings, vectorB.Ratings, common)
	}

	// Floating point drift can push the result marginally outside [-1, 1].
	value = math.Max(-1, math.Min(1, value))

	return Score{
		Value:      value,
		CoRated:    len(common),
		ComputedAt: time.Now(),
	}, nil
}

// intersect returns the movie IDs present in both rating maps.
func intersect(a, b map[string]float64) []string {
	smaller, larger := a, b
	if len(b) < len(a) {
		smaller, larger = b, a
	}
	common := make([]string, 0, len(smaller))
	for movieID := range smaller {
		if _, ok := larger[movieID]; ok {
			common = append(common, movieID)
		}
	}
	return common
}

// cosine computes cosine similarity over the common movies.
func cosine(a, b map[string]float64, common []string) float64 {
	var dot, normA, normB float64
	for _, movieID := range common {
		ra, rb := a[movieID], b[movieID]
		dot += ra * rb
		normA += ra * ra
		normB += rb * rb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// pearson computes the Pearson correlation coefficient over the common movies.
func pearson(a, b map[string]float64, common []string) float64 {
	n := float64(len(common))

	var sumA, sumB float64
	for _, movieID := range common {
		sumA += a[movieID]
		sumB += b[movieID]
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for _, movieID := range common {
		da, db := a[movieID]-meanA, b[movieID]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		// A constant rater correlates with nobody.
		return 0
	}
	return cov / (math.Sqrt(varA) * math.Sqrt(varB))
}
