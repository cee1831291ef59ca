// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package eventprocessor

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/okonrad/cinegraph/internal/logging"
	"github.com/okonrad/cinegraph/internal/metrics"
)

// Invalidator applies classified invalidation signals to the
// recommendation caches. The orchestrator satisfies this.
type Invalidator interface {
	// InvalidateUser drops every cached list of one user.
	InvalidateUser(ctx context.Context, userID string) error

	// MarkMovieStale soft-invalidates lists containing the movie.
	MarkMovieStale(ctx context.Context, movieID string) error

	// InvalidateAll drops everything.
	InvalidateAll(ctx context.Context) error
}

// task carries a signal and its receipt time through a partition lane.
type task struct {
	signal     Signal
	receivedAt time.Time
}

// Dispatcher applies invalidation signals in partition order. Signals are
// routed by a hash of their subject onto a fixed set of lanes with one
// applying goroutine each, so all signals for one user apply in arrival
// order while different users proceed concurrently.
//
// Dispatch blocks when a lane's buffer is full. That backpressure flows
// up through the router handler to the JetStream subscription instead of
// growing an unbounded queue.
//
// The dispatcher implements suture.Service.
type Dispatcher struct {
	invalidator Invalidator
	lanes       []chan task
}

// NewDispatcher creates a dispatcher with the given lane count and
// per-lane buffer.
func NewDispatcher(invalidator Invalidator, partitions, buffer int) *Dispatcher {
	if partitions <= 0 {
		partitions = 8
	}
	if buffer <= 0 {
		buffer = 64
	}

	lanes := make([]chan task, partitions)
	for i := range lanes {
		lanes[i] = make(chan task, buffer)
	}
	return &Dispatcher{invalidator: invalidator, lanes: lanes}
}

// Dispatch routes a signal onto its partition lane, blocking while the
// lane is full. Returns the context's error if it is canceled first.
func (d *Dispatcher) Dispatch(ctx context.Context, signal Signal) error {
	if signal.Kind == SignalNone {
		return nil
	}

	lane := d.partitionFor(signal)
	select {
	case d.lanes[lane] <- task{signal: signal, receivedAt: time.Now()}:
		metrics.PartitionQueueDepth.WithLabelValues(strconv.Itoa(lane)).Set(float64(len(d.lanes[lane])))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve implements suture.Service. It runs one applying goroutine per
// lane until the context is canceled.
func (d *Dispatcher) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := range d.lanes {
		wg.Add(1)
		go func(lane int) {
			defer wg.Done()
			d.runLane(ctx, lane)
		}(i)
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// String implements fmt.Stringer for supervision logs.
func (d *Dispatcher) String() string {
	return "invalidation-dispatcher"
}

func (d *Dispatcher) runLane(ctx context.Context, lane int) {
	label := strconv.Itoa(lane)
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-d.lanes[lane]:
			metrics.PartitionQueueDepth.WithLabelValues(label).Set(float64(len(d.lanes[lane])))
			d.apply(ctx, t)
		}
	}
}

// apply executes one signal. Invalidator failures are logged, never
// propagated: a failing signal must not stall the lane behind it, and
// application is idempotent, so the global fallback on the next event
// repairs any missed invalidation.
func (d *Dispatcher) apply(ctx context.Context, t task) {
	var err error
	switch t.signal.Kind {
	case SignalRatingChanged, SignalWatchlistChanged:
		err = d.invalidator.InvalidateUser(ctx, t.signal.UserID)
	case SignalMovieChanged:
		err = d.invalidator.MarkMovieStale(ctx, t.signal.MovieID)
	case SignalUnknown:
		err = d.invalidator.InvalidateAll(ctx)
	case SignalNone:
		return
	}

	if err != nil {
		logging.Error().
			Err(err).
			Str("signal", string(t.signal.Kind)).
			Str("user_id", t.signal.UserID).
			Str("movie_id", t.signal.MovieID).
			Msg("failed to apply invalidation signal")
		return
	}

	metrics.EventProcessingDuration.WithLabelValues(string(t.signal.Kind)).
		Observe(time.Since(t.receivedAt).Seconds())
}

func (d *Dispatcher) partitionFor(signal Signal) int {
	h := fnv.New32a()
	h.Write([]byte(signal.subject()))
	return int(h.Sum32() % uint32(len(d.lanes)))
}
