// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package eventprocessor

// SignalKind tags an invalidation signal variant.
type SignalKind string

const (
	// SignalNone means the event needs no invalidation (e.g. a new user
	// with no cached state).
	SignalNone SignalKind = "none"

	// SignalRatingChanged invalidates every cached list of one user; a
	// rating feeds every algorithm.
	SignalRatingChanged SignalKind = "rating_changed"

	// SignalMovieChanged soft-marks one movie stale; affected lists stay
	// servable and refresh in the background.
	SignalMovieChanged SignalKind = "movie_changed"

	// SignalWatchlistChanged invalidates every cached list of one user;
	// watchlist membership is an exclusion filter for all algorithms.
	SignalWatchlistChanged SignalKind = "watchlist_changed"

	// SignalUnknown triggers a global invalidation. Applied for deletions
	// and for any event whose subject cannot be resolved; correctness over
	// cache efficiency.
	SignalUnknown SignalKind = "unknown"
)

// Signal is one classified invalidation, carrying whatever subject
// identity the event resolved.
type Signal struct {
	Kind    SignalKind
	UserID  string
	MovieID string
}

// Classify maps a validated catalog event to its invalidation signal.
//
// Deletions classify as unknown: a movie or user deletion invalidates an
// unbounded set of cached lists (the subject may appear in anyone's
// recommendations), and a rating deletion from some producers carries only
// the rating ID, not the affected user. Movie creations and user
// creations touch no cached state.
func Classify(topic string, event *CatalogEvent) Signal {
	switch topic {
	case TopicRatingCreated, TopicRatingUpdated:
		return Signal{Kind: SignalRatingChanged, UserID: event.UserID, MovieID: event.MovieID}

	case TopicRatingDeleted:
		if event.UserID == "" {
			return Signal{Kind: SignalUnknown}
		}
		return Signal{Kind: SignalRatingChanged, UserID: event.UserID, MovieID: event.MovieID}

	case TopicMovieCreated, TopicUserCreated:
		return Signal{Kind: SignalNone}

	case TopicMovieUpdated:
		return Signal{Kind: SignalMovieChanged, MovieID: event.MovieID}

	case TopicWatchlistAdded, TopicWatchlistRemoved:
		return Signal{Kind: SignalWatchlistChanged, UserID: event.UserID, MovieID: event.MovieID}

	default:
		// movie.deleted, user.deleted, and anything unrecognized.
		return Signal{Kind: SignalUnknown}
	}
}

// subject returns the identity used for partition routing. Signals
// without one share a lane; their application is global and idempotent,
// so relative order against other lanes does not matter.
func (s Signal) subject() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.MovieID
}
