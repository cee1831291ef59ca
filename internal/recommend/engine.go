// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okonrad/cinegraph/internal/config"
	"github.com/okonrad/cinegraph/internal/metrics"
	"github.com/okonrad/cinegraph/internal/recommend/algorithms"
	"github.com/okonrad/cinegraph/internal/signalstore"
	"github.com/okonrad/cinegraph/internal/similarity"
)

// Engine runs ranking algorithms against the signal store and turns their
// candidates into recommendation lists. Algorithm selection goes through a
// strategy table, so every variant shares the same exclusion, hydration
// and ordering pipeline.
type Engine struct {
	store      signalstore.SignalStore
	similarity *similarity.Engine
	content    *algorithms.Content
	coldStart  *algorithms.ColdStart
	rankers    map[Algorithm]algorithms.Ranker
	cfg        config.RecommendConfig
}

// NewEngine builds the engine and its strategy table from configuration.
func NewEngine(store signalstore.SignalStore, sim *similarity.Engine, cfg config.RecommendConfig) *Engine {
	deps := algorithms.Deps{Store: store, Similarity: sim}

	collaborative := algorithms.NewCollaborative(deps, cfg.SimilarUsers)
	content := algorithms.NewContent(deps, cfg.ColdStartPoolSize)
	trending := algorithms.NewTrending(deps, cfg.SimilarUsers, cfg.TrendingMinRating)
	coldStart := algorithms.NewColdStart(deps, cfg.ColdStartPoolSize)
	hybrid := algorithms.NewHybrid(collaborative, content, coldStart, algorithms.HybridWeights{
		Collaborative: cfg.HybridCollaborativeWeight,
		Content:       cfg.HybridContentWeight,
		Popularity:    cfg.HybridPopularityWeight,
	})

	return &Engine{
		store:      store,
		similarity: sim,
		content:    content,
		coldStart:  coldStart,
		rankers: map[Algorithm]algorithms.Ranker{
			AlgorithmCollaborative: collaborative,
			AlgorithmContent:       content,
			AlgorithmHybrid:        hybrid,
			AlgorithmTrending:      trending,
			AlgorithmColdStart:     coldStart,
		},
		cfg: cfg,
	}
}

// Limit clamps a requested page size to the configured bounds, applying
// the default when the request carries none.
func (e *Engine) Limit(requested int) int {
	if requested <= 0 {
		return e.cfg.DefaultLimit
	}
	if e.cfg.MaxLimit > 0 && requested > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return requested
}

// TTL returns the validity window applied to generated lists.
func (e *Engine) TTL() time.Duration {
	return e.cfg.CacheTTL
}

// Rank generates a fresh recommendation list for the user with the given
// algorithm. Returns ErrUserNotFound for unknown users,
// ErrUnknownAlgorithm for unknown algorithms, and
// algorithms.ErrInsufficientData when the user lacks the signal the chosen
// algorithm needs; the caller decides whether to fall back to cold start.
func (e *Engine) Rank(ctx context.Context, userID string, algorithm Algorithm, limit int) (*List, error) {
	ranker, ok := e.rankers[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	exclude, err := e.excludeSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit = e.Limit(limit)
	req := algorithms.Request{UserID: userID, Limit: limit, Exclude: exclude}

	started := time.Now()
	candidates, err := ranker.Rank(ctx, req)
	metrics.RecordRanking(ranker.Name(), time.Since(started), err)
	if err != nil {
		if errors.Is(err, algorithms.ErrInsufficientData) {
			return nil, err
		}
		return nil, fmt.Errorf("ranking with %s failed: %w", ranker.Name(), mapStoreError(err))
	}

	return e.buildList(ctx, userID, algorithm, candidates, limit)
}

// ColdStart generates a popularity list for the user, bypassing the
// strategy table. Used as the substitute when a personalized algorithm
// reports insufficient data.
func (e *Engine) ColdStart(ctx context.Context, userID string, algorithm Algorithm, limit int) (*List, error) {
	exclude, err := e.excludeSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit = e.Limit(limit)
	req := algorithms.Request{UserID: userID, Limit: limit, Exclude: exclude}

	started := time.Now()
	candidates, err := e.coldStart.Rank(ctx, req)
	metrics.RecordRanking(e.coldStart.Name(), time.Since(started), err)
	if err != nil {
		return nil, fmt.Errorf("cold-start ranking failed: %w", mapStoreError(err))
	}

	// The list keeps the requested algorithm tag so cache lookups for that
	// algorithm find it; the item reasons disclose the substitution.
	return e.buildList(ctx, userID, algorithm, candidates, limit)
}

// SimilarMovies returns movies most similar to the given one by content
// features. Returns ErrMovieNotFound for unknown movies.
func (e *Engine) SimilarMovies(ctx context.Context, movieID string, limit int) ([]Item, error) {
	candidates, err := e.content.SimilarMovies(ctx, movieID, e.Limit(limit))
	if err != nil {
		if errors.Is(err, signalstore.ErrMovieNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMovieNotFound, movieID)
		}
		return nil, mapStoreError(err)
	}
	return itemsFromCandidates(candidates), nil
}

// SimilarUsers returns the user's nearest neighbours by rating overlap.
func (e *Engine) SimilarUsers(ctx context.Context, userID string, limit int) ([]similarity.SimilarUser, error) {
	neighbours, err := e.similarity.TopSimilarUsers(ctx, userID, e.Limit(limit))
	if err != nil {
		if errors.Is(err, signalstore.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, mapStoreError(err)
	}
	return neighbours, nil
}

// excludeSet collects everything the user already rated or watchlisted.
func (e *Engine) excludeSet(ctx context.Context, userID string) (map[string]bool, error) {
	exists, err := e.store.UserExists(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	exclude := make(map[string]bool)

	vector, err := e.store.RatingVector(ctx, userID)
	if err != nil && !errors.Is(err, signalstore.ErrUserNotFound) {
		return nil, mapStoreError(err)
	}
	if vector != nil {
		for movieID := range vector.Ratings {
			exclude[movieID] = true
		}
	}

	watchlist, err := e.store.Watchlist(ctx, userID)
	if err != nil && !errors.Is(err, signalstore.ErrUserNotFound) {
		return nil, mapStoreError(err)
	}
	for _, movieID := range watchlist {
		exclude[movieID] = true
	}

	return exclude, nil
}

// buildList hydrates missing features for the top candidates, re-sorts so
// popularity tie-breaks see hydrated data, and assembles the final list.
func (e *Engine) buildList(ctx context.Context, userID string, algorithm Algorithm, candidates []algorithms.Candidate, limit int) (*List, error) {
	// Hydrate a little past the cut so tie-breaking at the boundary is
	// stable against the pre-hydration order.
	hydrate := limit * 2
	if hydrate > len(candidates) {
		hydrate = len(candidates)
	}
	for i := 0; i < hydrate; i++ {
		if candidates[i].Features != nil {
			continue
		}
		features, err := e.store.MovieFeatures(ctx, candidates[i].MovieID)
		if err != nil {
			// A movie deleted mid-ranking just loses its tie-break weight.
			if errors.Is(err, signalstore.ErrMovieNotFound) {
				continue
			}
			return nil, mapStoreError(err)
		}
		candidates[i].Features = features
	}

	scoped := candidates[:hydrate]
	algorithms.SortCandidates(scoped)
	if len(scoped) > limit {
		scoped = scoped[:limit]
	}

	now := time.Now()
	return &List{
		UserID:      userID,
		Algorithm:   algorithm,
		Items:       itemsFromCandidates(scoped),
		GeneratedAt: now,
		ExpiresAt:   now.Add(e.cfg.CacheTTL),
	}, nil
}

func itemsFromCandidates(candidates []algorithms.Candidate) []Item {
	items := make([]Item, 0, len(candidates))
	for _, c := range candidates {
		item := Item{
			MovieID: c.MovieID,
			Score:   c.Score,
			Reason:  c.Reason,
		}
		if c.Features != nil {
			item.Title = c.Features.Title
			item.Popularity = c.Features.Popularity()
		}
		items = append(items, item)
	}
	return items
}

// mapStoreError normalizes signal store failures into the package's
// API-facing sentinels.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, signalstore.ErrUserNotFound):
		return fmt.Errorf("%w", ErrUserNotFound)
	case errors.Is(err, signalstore.ErrMovieNotFound):
		return fmt.Errorf("%w", ErrMovieNotFound)
	case errors.Is(err, signalstore.ErrUnavailable):
		return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	default:
		return err
	}
}
