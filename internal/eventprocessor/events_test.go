// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package eventprocessor

import (
	"testing"
)

func TestCatalogEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		topic   string
		event   CatalogEvent
		wantErr bool
	}{
		{
			name:  "valid rating created",
			topic: TopicRatingCreated,
			event: CatalogEvent{UserID: "u1", MovieID: "m1", Rating: 8.5},
		},
		{
			name:    "rating created without user",
			topic:   TopicRatingCreated,
			event:   CatalogEvent{MovieID: "m1", Rating: 8.5},
			wantErr: true,
		},
		{
			name:    "rating created without movie",
			topic:   TopicRatingCreated,
			event:   CatalogEvent{UserID: "u1", Rating: 8.5},
			wantErr: true,
		},
		{
			name:    "rating below scale",
			topic:   TopicRatingUpdated,
			event:   CatalogEvent{UserID: "u1", MovieID: "m1", Rating: 0.25},
			wantErr: true,
		},
		{
			name:    "rating between half-star steps",
			topic:   TopicRatingUpdated,
			event:   CatalogEvent{UserID: "u1", MovieID: "m1", Rating: 7.3},
			wantErr: true,
		},
		{
			name:    "rating above scale",
			topic:   TopicRatingUpdated,
			event:   CatalogEvent{UserID: "u1", MovieID: "m1", Rating: 10.5},
			wantErr: true,
		},
		{
			name:  "rating deleted with only rating id",
			topic: TopicRatingDeleted,
			event: CatalogEvent{RatingID: "r1"},
		},
		{
			name:  "rating deleted with user id",
			topic: TopicRatingDeleted,
			event: CatalogEvent{UserID: "u1", MovieID: "m1"},
		},
		{
			name:    "rating deleted with no identity",
			topic:   TopicRatingDeleted,
			event:   CatalogEvent{},
			wantErr: true,
		},
		{
			name:  "valid movie updated",
			topic: TopicMovieUpdated,
			event: CatalogEvent{MovieID: "m1", Title: "Heat"},
		},
		{
			name:    "movie deleted without movie id",
			topic:   TopicMovieDeleted,
			event:   CatalogEvent{},
			wantErr: true,
		},
		{
			name:  "valid user deleted",
			topic: TopicUserDeleted,
			event: CatalogEvent{UserID: "u1"},
		},
		{
			name:  "valid watchlist added",
			topic: TopicWatchlistAdded,
			event: CatalogEvent{UserID: "u1", MovieID: "m1", Action: "added"},
		},
		{
			name:    "watchlist removed without movie",
			topic:   TopicWatchlistRemoved,
			event:   CatalogEvent{UserID: "u1"},
			wantErr: true,
		},
		{
			name:    "unknown topic",
			topic:   "catalog.exploded",
			event:   CatalogEvent{UserID: "u1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate(tt.topic)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestNewCatalogEvent(t *testing.T) {
	t.Parallel()

	event := NewCatalogEvent()
	if event.EventID == "" {
		t.Error("expected generated event ID")
	}
	if event.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestSerializerRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewSerializer()
	event := NewCatalogEvent()
	event.UserID = "u1"
	event.MovieID = "m1"
	event.Rating = 9.0
	event.Review = "tight, propulsive, no wasted scene"

	data, err := s.Marshal(TopicRatingCreated, event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	decoded, err := s.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.UserID != "u1" || decoded.MovieID != "m1" || decoded.Rating != 9.0 {
		t.Errorf("round trip lost fields: %+v", decoded)
	}
}

func TestSerializerRejectsInvalidEvent(t *testing.T) {
	t.Parallel()

	s := NewSerializer()
	_, err := s.Marshal(TopicRatingCreated, &CatalogEvent{MovieID: "m1"})
	if err == nil {
		t.Error("expected marshal of invalid event to fail")
	}
}
