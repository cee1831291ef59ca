// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package api

import (
	"errors"
	"net/http"

	"github.com/okonrad/cinegraph/internal/logging"
	"github.com/okonrad/cinegraph/internal/recommend"
	"github.com/okonrad/cinegraph/internal/sharing"
)

// respondServiceError maps domain sentinels onto HTTP responses.
// Unknown errors become 500 with the detail kept in logs, not the body.
func respondServiceError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrUserNotFound):
		rw.Error(http.StatusNotFound, ErrCodeUserNotFound, "user not found")

	case errors.Is(err, recommend.ErrMovieNotFound):
		rw.Error(http.StatusNotFound, ErrCodeMovieNotFound, "movie not found")

	case errors.Is(err, recommend.ErrUnknownAlgorithm):
		rw.Error(http.StatusBadRequest, ErrCodeUnknownAlgorithm, "unknown recommendation algorithm")

	case errors.Is(err, recommend.ErrUpstreamUnavailable):
		rw.ServiceUnavailable("recommendation signals temporarily unavailable, retry shortly")

	case errors.Is(err, sharing.ErrNotFound):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, "shared recommendation not found")

	default:
		logging.Ctx(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		rw.InternalError("an internal error occurred")
	}
}
