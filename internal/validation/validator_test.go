// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	UserID    string  `validate:"required"`
	Algorithm string  `validate:"algorithm"`
	Rating    float64 `validate:"omitempty,rating"`
	Limit     int     `validate:"min=1,max=100"`
}

func TestStructPasses(t *testing.T) {
	t.Parallel()

	req := sampleRequest{UserID: "u1", Algorithm: "hybrid", Rating: 7.5, Limit: 10}
	if err := Struct(&req); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestStructAllowsEmptyAlgorithm(t *testing.T) {
	t.Parallel()

	req := sampleRequest{UserID: "u1", Limit: 10}
	if err := Struct(&req); err != nil {
		t.Errorf("empty algorithm should pass, got %v", err)
	}
}

func TestStructRejectsOffScaleRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rating  float64
		wantErr bool
	}{
		{"half star", 0.5, false},
		{"whole star", 7, false},
		{"half step", 7.5, false},
		{"top of scale", 10, false},
		{"between steps", 7.3, true},
		{"below scale", 0.25, true},
		{"above scale", 10.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleRequest{UserID: "u1", Rating: tt.rating, Limit: 10}
			err := Struct(&req)
			if tt.wantErr && err == nil {
				t.Errorf("rating %v passed, want rejection", tt.rating)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("rating %v rejected: %v", tt.rating, err)
			}
		})
	}
}

func TestStructCollectsFieldFailures(t *testing.T) {
	t.Parallel()

	req := sampleRequest{Algorithm: "psychic", Rating: 11, Limit: 0}
	err := Struct(&req)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	fields := err.Fields()
	if len(fields) != 4 {
		t.Fatalf("got %d field errors, want 4: %v", len(fields), err)
	}

	byField := make(map[string]FieldError, len(fields))
	for _, f := range fields {
		byField[f.Field] = f
	}
	if f, ok := byField["UserID"]; !ok || f.Tag != "required" {
		t.Errorf("UserID error = %+v, want required", f)
	}
	if f, ok := byField["Algorithm"]; !ok || f.Tag != "algorithm" {
		t.Errorf("Algorithm error = %+v, want algorithm", f)
	}
	if f, ok := byField["Rating"]; !ok || f.Tag != "rating" {
		t.Errorf("Rating error = %+v, want rating", f)
	}
	if f, ok := byField["Limit"]; !ok || f.Tag != "min" {
		t.Errorf("Limit error = %+v, want min", f)
	}
}

func TestTranslatedMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  sampleRequest
		want string
	}{
		{
			name: "required",
			req:  sampleRequest{Algorithm: "hybrid", Limit: 10},
			want: "UserID is required",
		},
		{
			name: "algorithm",
			req:  sampleRequest{UserID: "u1", Algorithm: "psychic", Limit: 10},
			want: "Algorithm must be a registered recommendation algorithm",
		},
		{
			name: "rating",
			req:  sampleRequest{UserID: "u1", Rating: 0.1, Limit: 10},
			want: "Rating must be between 0.5 and 10 in half-star steps",
		},
		{
			name: "max",
			req:  sampleRequest{UserID: "u1", Limit: 500},
			want: "Limit must be at most 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.want)
			}
		})
	}
}
