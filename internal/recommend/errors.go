// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package recommend

import "errors"

// Error taxonomy surfaced to API handlers. The orchestrator normalizes
// lower-layer errors into these sentinels; everything else is treated as
// an internal failure.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("recommend: user not found")

	// ErrMovieNotFound indicates the requested movie does not exist.
	ErrMovieNotFound = errors.New("recommend: movie not found")

	// ErrUnknownAlgorithm indicates an unrecognized algorithm tag.
	ErrUnknownAlgorithm = errors.New("recommend: unknown algorithm")

	// ErrUpstreamUnavailable indicates the signal store could not serve
	// the request and no cached list was available to fall back on.
	// The condition is retryable.
	ErrUpstreamUnavailable = errors.New("recommend: signal store unavailable")
)
