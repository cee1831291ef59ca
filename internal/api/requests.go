// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package api

import (
	"net/http"
	"strconv"

	"github.com/okonrad/cinegraph/internal/validation"
)

// GenerateRequest carries the validated parameters of a recommendation
// request.
type GenerateRequest struct {
	UserID    string `validate:"required"`
	Algorithm string `validate:"algorithm"`
	Limit     int    `validate:"min=0,max=1000"`
}

// PageRequest carries validated pagination parameters.
type PageRequest struct {
	UserID   string `validate:"required"`
	Page     int    `validate:"min=1"`
	PageSize int    `validate:"min=0,max=1000"`
}

// SimilarRequest carries validated parameters for similar-movie and
// similar-user lookups.
type SimilarRequest struct {
	ID    string `validate:"required"`
	Limit int    `validate:"min=0,max=1000"`
}

// ShareRequest is the request body for sharing a recommendation.
type ShareRequest struct {
	MovieID   string   `json:"movie_id" validate:"required"`
	Message   string   `json:"message" validate:"max=500"`
	ToUserIDs []string `json:"to_user_ids" validate:"required,min=1,max=100,dive,required"`
}

// InteractionRequest is the request body for recording recommendation
// feedback.
type InteractionRequest struct {
	MovieID string  `json:"movie_id" validate:"required"`
	Action  string  `json:"action" validate:"required,max=50"`
	Value   float64 `json:"value" validate:"omitempty,rating"`
}

// validateRequest runs struct validation and writes the 400 response on
// failure. Returns false when the request was rejected.
func validateRequest(rw *ResponseWriter, v interface{}) bool {
	if err := validation.Struct(v); err != nil {
		rw.ValidationError(err.Error(), err.Fields())
		return false
	}
	return true
}

// intQuery extracts an integer query parameter, falling back to the
// default on absence or parse failure.
func intQuery(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
