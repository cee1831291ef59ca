// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/okonrad/cinegraph/internal/logging"
	"github.com/okonrad/cinegraph/internal/metrics"
	"github.com/okonrad/cinegraph/internal/recommend/algorithms"
	"github.com/okonrad/cinegraph/internal/sharing"
	"github.com/okonrad/cinegraph/internal/similarity"
)

// Scheduler submits background refresh jobs.
type Scheduler interface {
	Enqueue(job RecomputeJob) bool
}

// Orchestrator is the operation surface of the recommendation subsystem.
// It composes the ranking engine, the generation cache, the similarity
// engine and the sharing store, and owns the degradation policy: cold
// start on sparse data, stale cache on upstream failure.
type Orchestrator struct {
	engine    *Engine
	cache     *Cache
	sim       *similarity.Engine
	shares    *sharing.Store
	scheduler Scheduler
}

var _ Refresher = (*Orchestrator)(nil)

// NewOrchestrator wires the recommendation operation surface.
func NewOrchestrator(engine *Engine, cache *Cache, sim *similarity.Engine, shares *sharing.Store) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		cache:  cache,
		sim:    sim,
		shares: shares,
	}
}

// SetScheduler attaches the background refresh pool. Without one, stale
// hits are served without triggering a refresh.
func (o *Orchestrator) SetScheduler(scheduler Scheduler) {
	o.scheduler = scheduler
}

// Generate returns recommendations for a user, serving from cache when
// possible. A stale-flagged hit is returned as-is and refreshed in the
// background. On a miss the list is computed, cached and returned; a user
// with too little signal for the chosen algorithm transparently gets the
// cold-start list instead. When the signal store is unavailable the last
// cached list is served even past its TTL; with nothing cached the error
// surfaces as ErrUpstreamUnavailable.
func (o *Orchestrator) Generate(ctx context.Context, userID string, algorithm Algorithm, limit int) (*List, error) {
	if list, stale, ok := o.cache.Get(userID, algorithm); ok {
		if stale {
			metrics.CacheHits.WithLabelValues(string(algorithm), "stale").Inc()
			o.scheduleRefresh(userID, algorithm)
		} else {
			metrics.CacheHits.WithLabelValues(string(algorithm), "fresh").Inc()
		}
		return list, nil
	}
	metrics.CacheMisses.WithLabelValues(string(algorithm)).Inc()

	list, err := o.compute(ctx, userID, algorithm, limit)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, ErrUpstreamUnavailable) {
		return nil, err
	}

	if stale, ok := o.cache.GetStale(userID, algorithm); ok {
		metrics.CacheHits.WithLabelValues(string(algorithm), "stale").Inc()
		logging.Ctx(ctx).Warn().
			Str("user_id", userID).
			Str("algorithm", string(algorithm)).
			Msg("signal store unavailable, serving expired cached recommendations")
		return stale, nil
	}
	return nil, err
}

// Refresh recomputes and stores the user's list unconditionally. Racing
// refreshes resolve through the cache's generation rule: the superseded
// result is discarded at write time, never served.
func (o *Orchestrator) Refresh(ctx context.Context, userID string, algorithm Algorithm, limit int) (*List, error) {
	return o.compute(ctx, userID, algorithm, limit)
}

// compute ranks, applies the cold-start substitution, and stores the
// result under a generation obtained before ranking started.
func (o *Orchestrator) compute(ctx context.Context, userID string, algorithm Algorithm, limit int) (*List, error) {
	generation := o.cache.NextGeneration(userID, algorithm)

	list, err := o.engine.Rank(ctx, userID, algorithm, limit)
	if errors.Is(err, algorithms.ErrInsufficientData) {
		metrics.ColdStartFallbacks.Inc()
		logging.Ctx(ctx).Debug().
			Str("user_id", userID).
			Str("algorithm", string(algorithm)).
			Msg("insufficient data for personalized ranking, serving cold start")
		list, err = o.engine.ColdStart(ctx, userID, algorithm, limit)
	}
	if err != nil {
		return nil, err
	}

	o.cache.Put(list, generation)
	return list, nil
}

// GetUserRecommendations returns a page over the user's cached hybrid
// list, generating it first when nothing is cached.
func (o *Orchestrator) GetUserRecommendations(ctx context.Context, userID string, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = o.engine.Limit(0)
	}

	// The page window must fit inside the generated list.
	list, err := o.Generate(ctx, userID, AlgorithmHybrid, page*pageSize)
	if err != nil {
		return nil, err
	}

	total := len(list.Items)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &Page{
		Items:      list.Items[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
	}, nil
}

// SimilarMovies returns movies most similar to the given one.
func (o *Orchestrator) SimilarMovies(ctx context.Context, movieID string, limit int) ([]Item, error) {
	return o.engine.SimilarMovies(ctx, movieID, limit)
}

// FindSimilarUsers returns the user's nearest neighbours by rating
// overlap.
func (o *Orchestrator) FindSimilarUsers(ctx context.Context, userID string, limit int) ([]similarity.SimilarUser, error) {
	return o.engine.SimilarUsers(ctx, userID, limit)
}

// TrackInteraction appends to the feedback log. It never invalidates the
// cache; interaction weighting happens offline.
func (o *Orchestrator) TrackInteraction(ctx context.Context, userID, movieID, action string, value float64) error {
	return o.shares.TrackInteraction(ctx, sharing.Interaction{
		UserID:  userID,
		MovieID: movieID,
		Action:  action,
		Value:   value,
	})
}

// ShareRecommendation shares a movie with a set of users and returns how
// many new shares were created. Recipients already holding this share are
// skipped.
func (o *Orchestrator) ShareRecommendation(ctx context.Context, fromUserID, movieID, message string, toUserIDs []string) (int, error) {
	return o.shares.Share(ctx, fromUserID, movieID, message, toUserIDs)
}

// GetSharedRecommendations returns recommendations shared with a user.
func (o *Orchestrator) GetSharedRecommendations(ctx context.Context, userID string) ([]sharing.SharedRecommendation, error) {
	return o.shares.SharedWith(ctx, userID)
}

// GetSharedByUser returns recommendations a user has shared with others.
func (o *Orchestrator) GetSharedByUser(ctx context.Context, userID string) ([]sharing.SharedRecommendation, error) {
	return o.shares.SharedBy(ctx, userID)
}

// MarkSharedViewed flags a shared recommendation as viewed.
func (o *Orchestrator) MarkSharedViewed(ctx context.Context, shareID string) error {
	return o.shares.MarkViewed(ctx, shareID)
}

// UnviewedSharedCount returns how many shares the user has not seen.
func (o *Orchestrator) UnviewedSharedCount(ctx context.Context, userID string) (int, error) {
	return o.shares.UnviewedCount(ctx, userID)
}

// InvalidateUser drops the user's cached lists and detaches their cached
// similarity scores. Called by the invalidation pipeline for events
// attributable to one user.
func (o *Orchestrator) InvalidateUser(ctx context.Context, userID string) error {
	o.cache.Invalidate(userID, "")
	metrics.Invalidations.WithLabelValues("user").Inc()

	if err := o.sim.Invalidate(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate similarity cache for user: %w", err)
	}
	o.scheduleRefresh(userID, AlgorithmHybrid)
	return nil
}

// MarkMovieStale soft-invalidates cached lists containing the movie.
// Entries stay servable and refresh on their next read.
func (o *Orchestrator) MarkMovieStale(_ context.Context, movieID string) error {
	o.cache.MarkMovieStale(movieID)
	metrics.Invalidations.WithLabelValues("movie").Inc()
	return nil
}

// InvalidateAll drops every cached list and similarity score. The
// fallback for events that cannot be attributed to specific users.
func (o *Orchestrator) InvalidateAll(ctx context.Context) error {
	o.cache.InvalidateAll()
	metrics.Invalidations.WithLabelValues("global").Inc()

	if err := o.sim.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to purge similarity cache: %w", err)
	}
	return nil
}

func (o *Orchestrator) scheduleRefresh(userID string, algorithm Algorithm) {
	if o.scheduler == nil {
		return
	}
	o.scheduler.Enqueue(RecomputeJob{UserID: userID, Algorithm: algorithm})
}
