// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package eventprocessor

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

func newTestPipeline(t *testing.T, inv *fakeInvalidator) *Pipeline {
	t.Helper()
	d := NewDispatcher(inv, 1, 16)
	startDispatcher(t, d)
	return NewPipeline(d)
}

func ratingPayload(t *testing.T, userID, movieID string, rating float64) []byte {
	t.Helper()
	event := NewCatalogEvent()
	event.UserID = userID
	event.MovieID = movieID
	event.Rating = rating

	data, err := NewSerializer().Marshal(TopicRatingCreated, event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return data
}

func TestPipelineDispatchesValidEvent(t *testing.T) {
	t.Parallel()

	inv := newFakeInvalidator(4)
	p := newTestPipeline(t, inv)
	handler := p.handlerFor(TopicRatingCreated)

	msg := message.NewMessage(watermill.NewUUID(), ratingPayload(t, "u1", "m1", 8.5))
	if err := handler(msg); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	inv.waitFor(t, 1)
	got := inv.recorded()
	if len(got) != 1 || got[0] != "user:u1" {
		t.Errorf("expected a targeted user invalidation, got %v", got)
	}
}

func TestPipelineIgnoresNoopEvents(t *testing.T) {
	t.Parallel()

	inv := newFakeInvalidator(4)
	p := newTestPipeline(t, inv)
	handler := p.handlerFor(TopicUserCreated)

	event := NewCatalogEvent()
	event.UserID = "u1"
	data, err := NewSerializer().Marshal(TopicUserCreated, event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if err := handler(message.NewMessage(watermill.NewUUID(), data)); err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if got := inv.recorded(); len(got) != 0 {
		t.Errorf("expected no invalidation for a user creation, got %v", got)
	}
}

func TestPipelineUndecodablePayloadInvalidatesGlobally(t *testing.T) {
	t.Parallel()

	inv := newFakeInvalidator(4)
	p := newTestPipeline(t, inv)
	handler := p.handlerFor(TopicRatingCreated)

	// The handler must not return an error: redelivering a broken payload
	// cannot fix it, and the global fallback already preserves correctness.
	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	if err := handler(msg); err != nil {
		t.Fatalf("handler returned %v for a malformed payload", err)
	}

	inv.waitFor(t, 1)
	got := inv.recorded()
	if len(got) != 1 || got[0] != "all" {
		t.Errorf("expected a global invalidation, got %v", got)
	}
}

func TestPipelineInvalidEventInvalidatesGlobally(t *testing.T) {
	t.Parallel()

	inv := newFakeInvalidator(4)
	p := newTestPipeline(t, inv)
	handler := p.handlerFor(TopicRatingCreated)

	// Decodes fine but fails validation: rating out of scale, no user.
	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"movie_id":"m1","rating":42}`))
	if err := handler(msg); err != nil {
		t.Fatalf("handler returned %v for an invalid event", err)
	}

	inv.waitFor(t, 1)
	got := inv.recorded()
	if len(got) != 1 || got[0] != "all" {
		t.Errorf("expected a global invalidation, got %v", got)
	}
}
