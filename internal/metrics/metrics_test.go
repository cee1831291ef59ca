// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"deadline", errors.New("query failed: context deadline exceeded"), "timeout"},
		{"breaker", errors.New("circuit breaker is open"), "breaker_open"},
		{"refused", errors.New("dial tcp: connection refused"), "connection"},
		{"other", errors.New("syntax error"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorType(tt.err); got != tt.want {
				t.Errorf("errorType(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestRecordHelpersDoNotPanic(t *testing.T) {
	RecordRanking("collaborative", 10*time.Millisecond, nil)
	RecordRanking("content", 0, errors.New("boom"))
	RecordSignalStoreQuery("rating_vector", time.Millisecond, nil)
	RecordSignalStoreQuery("co_raters", 0, errors.New("timeout"))
	RecordAPIRequest("GET", "/api/v1/recommendations", "200", 5*time.Millisecond)
}
