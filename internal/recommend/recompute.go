// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package recommend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okonrad/cinegraph/internal/logging"
	"github.com/okonrad/cinegraph/internal/metrics"
)

// RecomputeJob is one background refresh request.
type RecomputeJob struct {
	UserID    string
	Algorithm Algorithm
}

// Refresher recomputes and stores one recommendation list.
type Refresher interface {
	Refresh(ctx context.Context, userID string, algorithm Algorithm, limit int) (*List, error)
}

// RecomputePool runs background recommendation refreshes on a fixed number
// of workers behind a bounded queue. When the queue is full, jobs are
// dropped rather than queued unboundedly; the affected cache entries stay
// invalidated and are rebuilt on the next read instead.
//
// The pool implements suture.Service: Serve blocks until the context is
// canceled and drains nothing on shutdown, since any dropped job is
// recovered lazily the same way a full-queue drop is.
type RecomputePool struct {
	refresher Refresher
	jobs      chan RecomputeJob
	workers   int
}

// NewRecomputePool creates a pool with the given worker and queue bounds.
func NewRecomputePool(refresher Refresher, workers, queueSize int) *RecomputePool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &RecomputePool{
		refresher: refresher,
		jobs:      make(chan RecomputeJob, queueSize),
		workers:   workers,
	}
}

// Enqueue submits a job without blocking. Returns false when the queue is
// full and the job was dropped.
func (p *RecomputePool) Enqueue(job RecomputeJob) bool {
	select {
	case p.jobs <- job:
		metrics.RecomputeQueueDepth.Set(float64(len(p.jobs)))
		return true
	default:
		metrics.RecomputeJobs.WithLabelValues("dropped").Inc()
		logging.Warn().
			Str("user_id", job.UserID).
			Str("algorithm", string(job.Algorithm)).
			Msg("recompute queue full, dropping job")
		return false
	}
}

// Serve implements suture.Service.
func (p *RecomputePool) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// String implements fmt.Stringer for supervision logs.
func (p *RecomputePool) String() string {
	return "recompute-pool"
}

func (p *RecomputePool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			metrics.RecomputeQueueDepth.Set(float64(len(p.jobs)))
			p.run(ctx, job)
		}
	}
}

func (p *RecomputePool) run(ctx context.Context, job RecomputeJob) {
	started := time.Now()
	_, err := p.refresher.Refresh(ctx, job.UserID, job.Algorithm, 0)
	switch {
	case err == nil:
		metrics.RecomputeJobs.WithLabelValues("completed").Inc()
	case errors.Is(err, context.Canceled):
		// Shutdown, not a failure.
	case errors.Is(err, ErrUserNotFound):
		// The user was deleted after the job was enqueued.
		metrics.RecomputeJobs.WithLabelValues("superseded").Inc()
	default:
		metrics.RecomputeJobs.WithLabelValues("failed").Inc()
		logging.Error().
			Err(err).
			Str("user_id", job.UserID).
			Str("algorithm", string(job.Algorithm)).
			Dur("elapsed", time.Since(started)).
			Msg("background recompute failed")
	}
}
