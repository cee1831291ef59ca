// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package sharing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okonrad/cinegraph/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(config.SharingConfig{InMemory: true})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return store
}

func TestShareAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	shared, err := store.Share(ctx, "alice", "m1", "you have to see this", []string{"bob", "carol"})
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if shared != 2 {
		t.Errorf("expected 2 shares, got %d", shared)
	}

	withBob, err := store.SharedWith(ctx, "bob")
	if err != nil {
		t.Fatalf("shared-with failed: %v", err)
	}
	if len(withBob) != 1 {
		t.Fatalf("expected 1 share for bob, got %d", len(withBob))
	}
	record := withBob[0]
	if record.FromUserID != "alice" || record.MovieID != "m1" || record.Message != "you have to see this" {
		t.Errorf("unexpected share record: %+v", record)
	}
	if record.Viewed {
		t.Error("new share must start unviewed")
	}
	if record.ID == "" {
		t.Error("share record missing ID")
	}

	byAlice, err := store.SharedBy(ctx, "alice")
	if err != nil {
		t.Fatalf("shared-by failed: %v", err)
	}
	if len(byAlice) != 2 {
		t.Errorf("expected 2 shares by alice, got %d", len(byAlice))
	}
}

func TestShareDuplicateSkipped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Share(ctx, "alice", "m1", "", []string{"bob"}); err != nil {
		t.Fatalf("first share failed: %v", err)
	}
	shared, err := store.Share(ctx, "alice", "m1", "again", []string{"bob", "carol"})
	if err != nil {
		t.Fatalf("second share failed: %v", err)
	}
	if shared != 1 {
		t.Errorf("expected only carol's share to count, got %d", shared)
	}

	withBob, err := store.SharedWith(ctx, "bob")
	if err != nil {
		t.Fatalf("shared-with failed: %v", err)
	}
	if len(withBob) != 1 {
		t.Errorf("duplicate share created a second record: %d", len(withBob))
	}
}

func TestShareWithSelfSkipped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	shared, err := store.Share(ctx, "alice", "m1", "", []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if shared != 1 {
		t.Errorf("self-share must be skipped, got %d shares", shared)
	}
}

func TestMarkViewedAndUnviewedCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Share(ctx, "alice", "m1", "", []string{"bob"}); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if _, err := store.Share(ctx, "alice", "m2", "", []string{"bob"}); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	count, err := store.UnviewedCount(ctx, "bob")
	if err != nil {
		t.Fatalf("unviewed count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 unviewed, got %d", count)
	}

	withBob, err := store.SharedWith(ctx, "bob")
	if err != nil {
		t.Fatalf("shared-with failed: %v", err)
	}
	if err := store.MarkViewed(ctx, withBob[0].ID); err != nil {
		t.Fatalf("mark viewed failed: %v", err)
	}
	// Marking twice is a no-op.
	if err := store.MarkViewed(ctx, withBob[0].ID); err != nil {
		t.Fatalf("repeated mark viewed failed: %v", err)
	}

	count, err = store.UnviewedCount(ctx, "bob")
	if err != nil {
		t.Fatalf("unviewed count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 unviewed after marking, got %d", count)
	}
}

func TestMarkViewedUnknownID(t *testing.T) {
	store := newTestStore(t)

	err := store.MarkViewed(context.Background(), "no-such-share")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSharedWithNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Share(ctx, "alice", "m1", "", []string{"bob"}); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := store.Share(ctx, "carol", "m2", "", []string{"bob"}); err != nil {
		t.Fatalf("share failed: %v", err)
	}

	withBob, err := store.SharedWith(ctx, "bob")
	if err != nil {
		t.Fatalf("shared-with failed: %v", err)
	}
	if len(withBob) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(withBob))
	}
	if withBob[0].MovieID != "m2" {
		t.Errorf("expected newest share first, got %s", withBob[0].MovieID)
	}
}

func TestTrackInteractionNormalization(t *testing.T) {
	tests := []struct {
		action string
		want   string
	}{
		{"view", KindClicked},
		{"click", KindClicked},
		{"watch", KindWatched},
		{"watched", KindWatched},
		{"rate", KindRated},
		{"like", KindOther},
		{"watchlist_add", KindOther},
		{"bogus", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			if got := NormalizeKind(tt.action); got != tt.want {
				t.Errorf("NormalizeKind(%q) = %q, want %q", tt.action, got, tt.want)
			}
		})
	}
}

func TestTrackInteractionAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	actions := []string{"view", "watch", "rate"}
	for _, action := range actions {
		err := store.TrackInteraction(ctx, Interaction{
			UserID:  "alice",
			MovieID: "m1",
			Action:  action,
			Value:   8,
		})
		if err != nil {
			t.Fatalf("track %s failed: %v", action, err)
		}
		time.Sleep(time.Millisecond)
	}

	interactions, err := store.Interactions(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("list interactions failed: %v", err)
	}
	if len(interactions) != 3 {
		t.Fatalf("expected 3 interactions, got %d", len(interactions))
	}
	if interactions[0].Kind != KindClicked || interactions[1].Kind != KindWatched || interactions[2].Kind != KindRated {
		t.Errorf("unexpected kinds in order: %+v", interactions)
	}
	if interactions[0].Action != "view" {
		t.Errorf("raw action not preserved: %q", interactions[0].Action)
	}

	limited, err := store.Interactions(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("limited list failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit of 2, got %d", len(limited))
	}

	other, err := store.Interactions(ctx, "bob", 0)
	if err != nil {
		t.Fatalf("list for other user failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("bob has no interactions, got %d", len(other))
	}
}
