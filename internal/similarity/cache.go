// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package similarity

import (
	"context"
	"sync"
	"time"
)

// PairCache stores computed similarity scores keyed by user pair and the
// rating versions the score was computed from. Bumping a user's version
// makes every pair entry involving that user unreachable; superseded
// entries simply age out via TTL.
//
// Two implementations exist: an in-process cache for single-instance
// deployments and a Redis-backed cache for multi-instance ones.
type PairCache interface {
	// GetScore returns the cached score for key, or ok=false on a miss.
	GetScore(ctx context.Context, key string) (Score, bool, error)

	// SetScore stores a score under key with the given TTL.
	SetScore(ctx context.Context, key string, score Score, ttl time.Duration) error

	// Version returns the current rating version of a user. Versions start
	// at zero and only ever grow.
	Version(ctx context.Context, userID string) (int64, error)

	// BumpVersion advances a user's rating version, detaching every cached
	// pair score that involved the user.
	BumpVersion(ctx context.Context, userID string) error

	// Purge drops every cached pair score. Versions are kept; keys derived
	// from them stay stable across a purge.
	Purge(ctx context.Context) error
}

// memoryEntry is a cached score with its expiry.
type memoryEntry struct {
	score     Score
	expiresAt time.Time
}

// MemoryCache is an in-process PairCache.
type MemoryCache struct {
	mu       sync.RWMutex
	scores   map[string]memoryEntry
	versions map[string]int64
}

var _ PairCache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-process pair cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		scores:   make(map[string]memoryEntry),
		versions: make(map[string]int64),
	}
}

// GetScore implements PairCache.
func (c *MemoryCache) GetScore(_ context.Context, key string) (Score, bool, error) {
	c.mu.RLock()
	entry, ok := c.scores[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return Score{}, false, nil
	}
	return entry.score, true, nil
}

// SetScore implements PairCache.
func (c *MemoryCache) SetScore(_ context.Context, key string, score Score, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[key] = memoryEntry{score: score, expiresAt: time.Now().Add(ttl)}

	// Opportunistic sweep keeps the map from accumulating dead entries.
	if len(c.scores) > 4096 {
		now := time.Now()
		for k, e := range c.scores {
			if now.After(e.expiresAt) {
				delete(c.scores, k)
			}
		}
	}
	return nil
}

// Version implements PairCache.
func (c *MemoryCache) Version(_ context.Context, userID string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[userID], nil
}

// BumpVersion implements PairCache.
func (c *MemoryCache) BumpVersion(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[userID]++
	return nil
}

// Purge implements PairCache.
func (c *MemoryCache) Purge(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores = make(map[string]memoryEntry)
	return nil
}
