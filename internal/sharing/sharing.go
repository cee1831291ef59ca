// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

// Package sharing persists recommendations shared between users and the
// interaction feedback log, both in BadgerDB.
package sharing

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound indicates the requested shared recommendation does not exist.
var ErrNotFound = errors.New("sharing: shared recommendation not found")

// SharedRecommendation is one movie shared from one user to another.
type SharedRecommendation struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	MovieID    string    `json:"movie_id"`
	Message    string    `json:"message,omitempty"`
	SharedAt   time.Time `json:"shared_at"`
	Viewed     bool      `json:"viewed"`
}

// Interaction kinds after normalization.
const (
	KindClicked = "clicked"
	KindWatched = "watched"
	KindRated   = "rated"
	KindOther   = "other"
)

// Interaction is one append-only feedback log entry. Kind holds the
// normalized kind; Action preserves what the caller sent.
type Interaction struct {
	UserID     string    `json:"user_id"`
	MovieID    string    `json:"movie_id"`
	Kind       string    `json:"kind"`
	Action     string    `json:"action"`
	Value      float64   `json:"value,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NormalizeKind maps a raw interaction action to its stored kind. Unknown
// actions normalize to KindOther; the log keeps them for later analysis.
func NormalizeKind(action string) string {
	switch strings.ToLower(action) {
	case "view", "click", "clicked":
		return KindClicked
	case "watch", "watched":
		return KindWatched
	case "rate", "rated":
		return KindRated
	default:
		return KindOther
	}
}
