// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package eventprocessor

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Topics published by the catalog services, one logical channel each.
const (
	TopicRatingCreated = "rating.created"
	TopicRatingUpdated = "rating.updated"
	TopicRatingDeleted = "rating.deleted"

	TopicMovieCreated = "movie.created"
	TopicMovieUpdated = "movie.updated"
	TopicMovieDeleted = "movie.deleted"

	TopicUserCreated = "user.created"
	TopicUserDeleted = "user.deleted"

	TopicWatchlistAdded   = "watchlist.added"
	TopicWatchlistRemoved = "watchlist.removed"
)

// Topics returns every catalog topic this service consumes.
func Topics() []string {
	return []string{
		TopicRatingCreated, TopicRatingUpdated, TopicRatingDeleted,
		TopicMovieCreated, TopicMovieUpdated, TopicMovieDeleted,
		TopicUserCreated, TopicUserDeleted,
		TopicWatchlistAdded, TopicWatchlistRemoved,
	}
}

// StreamSubjects returns the JetStream subject filters covering all
// catalog topics.
func StreamSubjects() []string {
	return []string{"rating.>", "movie.>", "user.>", "watchlist.>"}
}

// CatalogEvent is the wire envelope shared by all catalog topics. Each
// topic populates the fields relevant to its entity; Validate enforces
// the per-topic requirements.
type CatalogEvent struct {
	EventID   string    `json:"event_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	RatingID string  `json:"rating_id,omitempty"`
	UserID   string  `json:"user_id,omitempty"`
	MovieID  string  `json:"movie_id,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	Review   string  `json:"review,omitempty"`

	Title  string `json:"title,omitempty"`
	Action string `json:"action,omitempty"`
}

// NewCatalogEvent creates an event with a unique ID and timestamp.
func NewCatalogEvent() *CatalogEvent {
	return &CatalogEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks the per-topic required fields. A rating deletion only
// carries the rating ID in some producers; that passes validation and is
// handled at classification instead.
func (e *CatalogEvent) Validate(topic string) error {
	switch topic {
	case TopicRatingCreated, TopicRatingUpdated:
		if e.UserID == "" {
			return &ValidationError{Field: "user_id", Message: "required"}
		}
		if e.MovieID == "" {
			return &ValidationError{Field: "movie_id", Message: "required"}
		}
		if e.Rating < 0.5 || e.Rating > 10.0 || math.Mod(e.Rating*2, 1) != 0 {
			return &ValidationError{Field: "rating", Message: "must be in [0.5, 10.0] in half-star steps"}
		}
	case TopicRatingDeleted:
		if e.RatingID == "" && e.UserID == "" {
			return &ValidationError{Field: "rating_id", Message: "required"}
		}
	case TopicMovieCreated, TopicMovieUpdated, TopicMovieDeleted:
		if e.MovieID == "" {
			return &ValidationError{Field: "movie_id", Message: "required"}
		}
	case TopicUserCreated, TopicUserDeleted:
		if e.UserID == "" {
			return &ValidationError{Field: "user_id", Message: "required"}
		}
	case TopicWatchlistAdded, TopicWatchlistRemoved:
		if e.UserID == "" {
			return &ValidationError{Field: "user_id", Message: "required"}
		}
		if e.MovieID == "" {
			return &ValidationError{Field: "movie_id", Message: "required"}
		}
	default:
		return &ValidationError{Field: "topic", Message: "unknown topic " + topic}
	}
	return nil
}

// ValidationError describes a missing or invalid event field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
