// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package eventprocessor

import (
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		topic     string
		event     CatalogEvent
		wantKind  SignalKind
		wantUser  string
		wantMovie string
	}{
		{
			name:      "rating created targets the rater",
			topic:     TopicRatingCreated,
			event:     CatalogEvent{UserID: "u1", MovieID: "m1", Rating: 8},
			wantKind:  SignalRatingChanged,
			wantUser:  "u1",
			wantMovie: "m1",
		},
		{
			name:      "rating updated targets the rater",
			topic:     TopicRatingUpdated,
			event:     CatalogEvent{UserID: "u1", MovieID: "m1", Rating: 6},
			wantKind:  SignalRatingChanged,
			wantUser:  "u1",
			wantMovie: "m1",
		},
		{
			name:      "rating deleted with known user",
			topic:     TopicRatingDeleted,
			event:     CatalogEvent{UserID: "u1", MovieID: "m1"},
			wantKind:  SignalRatingChanged,
			wantUser:  "u1",
			wantMovie: "m1",
		},
		{
			name:     "rating deleted by bare id cannot be scoped",
			topic:    TopicRatingDeleted,
			event:    CatalogEvent{RatingID: "r1"},
			wantKind: SignalUnknown,
		},
		{
			name:     "movie created affects nobody yet",
			topic:    TopicMovieCreated,
			event:    CatalogEvent{MovieID: "m1"},
			wantKind: SignalNone,
		},
		{
			name:      "movie updated marks cached lists stale",
			topic:     TopicMovieUpdated,
			event:     CatalogEvent{MovieID: "m1"},
			wantKind:  SignalMovieChanged,
			wantMovie: "m1",
		},
		{
			name:     "movie deleted forces global invalidation",
			topic:    TopicMovieDeleted,
			event:    CatalogEvent{MovieID: "m1"},
			wantKind: SignalUnknown,
		},
		{
			name:     "user created affects nobody yet",
			topic:    TopicUserCreated,
			event:    CatalogEvent{UserID: "u1"},
			wantKind: SignalNone,
		},
		{
			name:     "user deleted forces global invalidation",
			topic:    TopicUserDeleted,
			event:    CatalogEvent{UserID: "u1"},
			wantKind: SignalUnknown,
		},
		{
			name:      "watchlist added targets the owner",
			topic:     TopicWatchlistAdded,
			event:     CatalogEvent{UserID: "u1", MovieID: "m1"},
			wantKind:  SignalWatchlistChanged,
			wantUser:  "u1",
			wantMovie: "m1",
		},
		{
			name:      "watchlist removed targets the owner",
			topic:     TopicWatchlistRemoved,
			event:     CatalogEvent{UserID: "u1", MovieID: "m1"},
			wantKind:  SignalWatchlistChanged,
			wantUser:  "u1",
			wantMovie: "m1",
		},
		{
			name:     "unrecognized topic falls back to global",
			topic:    "catalog.migrated",
			event:    CatalogEvent{UserID: "u1"},
			wantKind: SignalUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := Classify(tt.topic, &tt.event)
			if signal.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", signal.Kind, tt.wantKind)
			}
			if signal.UserID != tt.wantUser {
				t.Errorf("user = %q, want %q", signal.UserID, tt.wantUser)
			}
			if signal.MovieID != tt.wantMovie {
				t.Errorf("movie = %q, want %q", signal.MovieID, tt.wantMovie)
			}
		})
	}
}

func TestSignalSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		signal Signal
		want   string
	}{
		{"user wins over movie", Signal{UserID: "u1", MovieID: "m1"}, "u1"},
		{"movie only", Signal{MovieID: "m1"}, "m1"},
		{"empty signal", Signal{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.signal.subject(); got != tt.want {
				t.Errorf("subject() = %q, want %q", got, tt.want)
			}
		})
	}
}
