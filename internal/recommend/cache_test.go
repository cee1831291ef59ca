// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package recommend

import (
	"testing"
	"time"
)

func testList(userID string, algorithm Algorithm, movieIDs ...string) *List {
	now := time.Now()
	items := make([]Item, 0, len(movieIDs))
	for i, id := range movieIDs {
		items = append(items, Item{
			MovieID: id,
			Title:   "Movie " + id,
			Score:   1.0 - float64(i)*0.1,
			Reason:  "similar-users",
		})
	}
	return &List{
		UserID:      userID,
		Algorithm:   algorithm,
		Items:       items,
		GeneratedAt: now,
		ExpiresAt:   now.Add(time.Hour),
	}
}

func TestCachePutGet(t *testing.T) {
	c := NewCache()

	list := testList("alice", AlgorithmHybrid, "m1", "m2")
	gen := c.NextGeneration("alice", AlgorithmHybrid)
	if !c.Put(list, gen) {
		t.Fatal("expected first put to be accepted")
	}

	got, stale, ok := c.Get("alice", AlgorithmHybrid)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if stale {
		t.Error("fresh entry reported stale")
	}
	if got.UserID != "alice" || len(got.Items) != 2 || got.Items[0].MovieID != "m1" {
		t.Errorf("unexpected list returned: %+v", got)
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewCache()

	if _, _, ok := c.Get("nobody", AlgorithmHybrid); ok {
		t.Error("expected miss for unknown user")
	}

	gen := c.NextGeneration("alice", AlgorithmHybrid)
	c.Put(testList("alice", AlgorithmHybrid, "m1"), gen)
	if _, _, ok := c.Get("alice", AlgorithmCollaborative); ok {
		t.Error("expected miss for different algorithm")
	}
}

func TestCacheExpiredEntryIsMissButServedStale(t *testing.T) {
	c := NewCache()

	list := testList("alice", AlgorithmHybrid, "m1")
	list.ExpiresAt = time.Now().Add(-time.Minute)
	gen := c.NextGeneration("alice", AlgorithmHybrid)
	c.Put(list, gen)

	if _, _, ok := c.Get("alice", AlgorithmHybrid); ok {
		t.Error("expected expired entry to miss on Get")
	}
	if _, ok := c.GetStale("alice", AlgorithmHybrid); !ok {
		t.Error("expected expired entry to be served by GetStale")
	}
}

func TestCacheOutOfOrderWritesDiscarded(t *testing.T) {
	c := NewCache()

	// Two recomputes race; the one issued later lands first.
	genOld := c.NextGeneration("alice", AlgorithmHybrid)
	genNew := c.NextGeneration("alice", AlgorithmHybrid)
	if genNew <= genOld {
		t.Fatalf("generations not monotonic: %d then %d", genOld, genNew)
	}

	newer := testList("alice", AlgorithmHybrid, "m2")
	if !c.Put(newer, genNew) {
		t.Fatal("newer write rejected")
	}
	older := testList("alice", AlgorithmHybrid, "m1")
	if c.Put(older, genOld) {
		t.Fatal("stale write accepted over newer entry")
	}

	got, _, ok := c.Get("alice", AlgorithmHybrid)
	if !ok || got.Items[0].MovieID != "m2" {
		t.Errorf("expected newer list to survive, got %+v", got)
	}
}

func TestCacheInvalidateSupersedesInFlight(t *testing.T) {
	c := NewCache()

	// A recompute starts, then the invalidation arrives before it lands.
	gen := c.NextGeneration("alice", AlgorithmHybrid)
	c.Invalidate("alice", AlgorithmHybrid)

	if c.Put(testList("alice", AlgorithmHybrid, "m1"), gen) {
		t.Fatal("write issued before invalidation was accepted after it")
	}
	if _, _, ok := c.Get("alice", AlgorithmHybrid); ok {
		t.Error("expected miss after superseded write")
	}

	// A recompute started after the invalidation lands normally.
	gen = c.NextGeneration("alice", AlgorithmHybrid)
	if !c.Put(testList("alice", AlgorithmHybrid, "m2"), gen) {
		t.Fatal("post-invalidation write rejected")
	}
}

func TestCacheInvalidateIdempotent(t *testing.T) {
	c := NewCache()

	gen := c.NextGeneration("alice", AlgorithmHybrid)
	c.Put(testList("alice", AlgorithmHybrid, "m1"), gen)

	c.Invalidate("alice", AlgorithmHybrid)
	c.Invalidate("alice", AlgorithmHybrid)
	c.Invalidate("alice", AlgorithmHybrid)

	if _, _, ok := c.Get("alice", AlgorithmHybrid); ok {
		t.Error("entry survived invalidation")
	}

	gen = c.NextGeneration("alice", AlgorithmHybrid)
	if !c.Put(testList("alice", AlgorithmHybrid, "m2"), gen) {
		t.Fatal("write after repeated invalidations rejected")
	}
}

func TestCacheInvalidateAllAlgorithmsForUser(t *testing.T) {
	c := NewCache()

	for _, alg := range Algorithms() {
		gen := c.NextGeneration("alice", alg)
		c.Put(testList("alice", alg, "m1"), gen)
	}
	gen := c.NextGeneration("bob", AlgorithmHybrid)
	c.Put(testList("bob", AlgorithmHybrid, "m1"), gen)

	c.Invalidate("alice", "")

	for _, alg := range Algorithms() {
		if _, _, ok := c.Get("alice", alg); ok {
			t.Errorf("alice %s entry survived user-wide invalidation", alg)
		}
	}
	if _, _, ok := c.Get("bob", AlgorithmHybrid); !ok {
		t.Error("bob's entry dropped by alice's invalidation")
	}
}

func TestCacheInvalidateAll(t *testing.T) {
	c := NewCache()

	genAlice := c.NextGeneration("alice", AlgorithmHybrid)
	c.Put(testList("alice", AlgorithmHybrid, "m1"), genAlice)
	genBob := c.NextGeneration("bob", AlgorithmTrending)

	c.InvalidateAll()

	if c.Entries() != 0 {
		t.Errorf("expected empty cache, have %d entries", c.Entries())
	}
	// Bob's in-flight recompute was issued before the flush.
	if c.Put(testList("bob", AlgorithmTrending, "m1"), genBob) {
		t.Error("pre-flush write accepted after InvalidateAll")
	}
}

func TestCacheMarkMovieStale(t *testing.T) {
	c := NewCache()

	gen := c.NextGeneration("alice", AlgorithmHybrid)
	c.Put(testList("alice", AlgorithmHybrid, "m1", "m2"), gen)

	c.MarkMovieStale("m2")

	got, stale, ok := c.Get("alice", AlgorithmHybrid)
	if !ok {
		t.Fatal("soft invalidation must not evict the entry")
	}
	if !stale {
		t.Error("entry containing marked movie not reported stale")
	}
	if len(got.Items) != 2 {
		t.Errorf("entry mutated by stale mark: %+v", got)
	}

	// A list generated after the mark is fresh again.
	gen = c.NextGeneration("alice", AlgorithmHybrid)
	c.Put(testList("alice", AlgorithmHybrid, "m1", "m2"), gen)
	if _, stale, _ := c.Get("alice", AlgorithmHybrid); stale {
		t.Error("regenerated entry still reported stale")
	}
}

func TestCacheMarkMovieStaleUnrelatedEntry(t *testing.T) {
	c := NewCache()

	gen := c.NextGeneration("alice", AlgorithmHybrid)
	c.Put(testList("alice", AlgorithmHybrid, "m1"), gen)

	c.MarkMovieStale("m9")

	if _, stale, _ := c.Get("alice", AlgorithmHybrid); stale {
		t.Error("entry without the marked movie reported stale")
	}
}

func TestCacheCachedAlgorithms(t *testing.T) {
	c := NewCache()

	gen := c.NextGeneration("alice", AlgorithmHybrid)
	c.Put(testList("alice", AlgorithmHybrid, "m1"), gen)
	gen = c.NextGeneration("alice", AlgorithmTrending)
	c.Put(testList("alice", AlgorithmTrending, "m1"), gen)

	algs := c.CachedAlgorithms("alice")
	if len(algs) != 2 {
		t.Fatalf("expected 2 cached algorithms, got %v", algs)
	}
}
