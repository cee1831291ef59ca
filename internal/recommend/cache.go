// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package recommend

import (
	"sync"
	"time"

	"github.com/okonrad/cinegraph/internal/metrics"
)

// cacheKey identifies a cached list.
type cacheKey struct {
	userID    string
	algorithm Algorithm
}

// cacheEntry is a stored list with its write generation.
type cacheEntry struct {
	list       *List
	generation uint64
}

// Cache stores recommendation lists keyed by (user, algorithm) under a
// per-key generation counter.
//
// Writers obtain a generation with NextGeneration before computing, and
// Put discards any result whose generation is at or below the key's
// invalidation floor or below the stored entry's generation. That single
// rule gives last-writer-wins semantics for racing recomputes and lets an
// invalidation supersede results that were already in flight when it
// arrived, without cancelling anything.
//
// Movie-level invalidation is soft: MarkMovieStale only records the mark,
// and Get reports an entry as stale when it contains a movie marked after
// the entry was generated. No proactive scan, no eviction of unrelated keys.
type Cache struct {
	mu          sync.RWMutex
	entries     map[cacheKey]cacheEntry
	generations map[cacheKey]uint64
	floors      map[cacheKey]uint64
	staleMovies map[string]time.Time
}

// NewCache creates an empty recommendation cache.
func NewCache() *Cache {
	return &Cache{
		entries:     make(map[cacheKey]cacheEntry),
		generations: make(map[cacheKey]uint64),
		floors:      make(map[cacheKey]uint64),
		staleMovies: make(map[string]time.Time),
	}
}

// NextGeneration issues the next write generation for a key. Callers must
// obtain their generation before starting the recompute it will stamp.
func (c *Cache) NextGeneration(userID string, algorithm Algorithm) uint64 {
	key := cacheKey{userID: userID, algorithm: algorithm}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	return c.generations[key]
}

// Get returns the cached list for the key if present and unexpired.
// stale reports that the entry should be refreshed in the background
// because a movie it contains was marked stale after generation.
func (c *Cache) Get(userID string, algorithm Algorithm) (list *List, stale bool, ok bool) {
	key := cacheKey{userID: userID, algorithm: algorithm}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[key]
	if !found || entry.list.Expired(time.Now()) {
		return nil, false, false
	}
	return entry.list, c.entryStaleLocked(entry.list), true
}

// GetStale returns the cached list even if its TTL has lapsed. Used for
// stale-tolerant reads while the signal store is unavailable.
func (c *Cache) GetStale(userID string, algorithm Algorithm) (*List, bool) {
	key := cacheKey{userID: userID, algorithm: algorithm}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[key]
	if !found {
		return nil, false
	}
	return entry.list, true
}

// Put stores a list under the given generation. Returns false when the
// write was discarded for carrying a superseded generation.
func (c *Cache) Put(list *List, generation uint64) bool {
	key := cacheKey{userID: list.UserID, algorithm: list.Algorithm}

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation <= c.floors[key] {
		metrics.CacheStaleWrites.Inc()
		return false
	}
	if entry, found := c.entries[key]; found && generation < entry.generation {
		metrics.CacheStaleWrites.Inc()
		return false
	}

	c.entries[key] = cacheEntry{list: list, generation: generation}
	metrics.CacheEntries.Set(float64(len(c.entries)))
	return true
}

// Invalidate drops the cached list for one user. An empty algorithm
// invalidates every algorithm variant for that user. Raising the floor to
// the latest issued generation discards any recompute already in flight.
func (c *Cache) Invalidate(userID string, algorithm Algorithm) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if algorithm != "" {
		c.invalidateKeyLocked(cacheKey{userID: userID, algorithm: algorithm})
	} else {
		for _, alg := range Algorithms() {
			c.invalidateKeyLocked(cacheKey{userID: userID, algorithm: alg})
		}
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

// InvalidateAll drops every cached list and supersedes all in-flight
// recomputes. Movie stale marks are cleared as well; nothing remains
// they could apply to.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		delete(c.entries, key)
	}
	for key, gen := range c.generations {
		c.floors[key] = gen
	}
	c.staleMovies = make(map[string]time.Time)
	metrics.CacheEntries.Set(0)
}

// MarkMovieStale records that a movie's attributes changed. Entries
// containing the movie are reported stale on their next read; nothing is
// evicted eagerly.
func (c *Cache) MarkMovieStale(movieID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.staleMovies[movieID] = time.Now()
	c.sweepStaleMarksLocked()
}

// Entries returns the number of cached lists.
func (c *Cache) Entries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedAlgorithms returns the algorithms currently cached for a user.
func (c *Cache) CachedAlgorithms(userID string) []Algorithm {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var algorithms []Algorithm
	for _, alg := range Algorithms() {
		if _, found := c.entries[cacheKey{userID: userID, algorithm: alg}]; found {
			algorithms = append(algorithms, alg)
		}
	}
	return algorithms
}

// invalidateKeyLocked drops one key and raises its floor (mu held).
func (c *Cache) invalidateKeyLocked(key cacheKey) {
	delete(c.entries, key)
	c.floors[key] = c.generations[key]
}

// entryStaleLocked reports whether a list contains a movie marked stale
// after the list was generated (mu held).
func (c *Cache) entryStaleLocked(list *List) bool {
	for _, item := range list.Items {
		if markedAt, found := c.staleMovies[item.MovieID]; found && markedAt.After(list.GeneratedAt) {
			return true
		}
	}
	return false
}

// sweepStaleMarksLocked bounds the stale-mark map (mu held). Marks older
// than an hour cannot affect any live entry; list TTLs are far shorter.
func (c *Cache) sweepStaleMarksLocked() {
	if len(c.staleMovies) < 1024 {
		return
	}
	horizon := time.Now().Add(-time.Hour)
	for movieID, markedAt := range c.staleMovies {
		if markedAt.Before(horizon) {
			delete(c.staleMovies, movieID)
		}
	}
}
