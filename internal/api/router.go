// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okonrad/cinegraph/internal/config"
)

// NewRouter builds the service router: operational endpoints at the
// root, the recommendation API under /api/v1.
func NewRouter(handlers *Handlers, cfg config.APIConfig) *chi.Mux {
	m := NewMiddleware(cfg)

	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogging())
	r.Use(RequestMetrics())
	r.Use(SecurityHeaders())

	r.Get("/healthz", handlers.Health)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(m.CORS())
		r.Use(m.RateLimit())

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/recommendations", handlers.GetRecommendations)
			r.Get("/recommendations/{algorithm}", handlers.Generate)
			r.Post("/recommendations/refresh", handlers.Refresh)
			r.Get("/similar", handlers.FindSimilarUsers)
			r.Post("/interactions", handlers.TrackInteraction)
			r.Post("/shares", handlers.Share)
			r.Get("/shares/received", handlers.SharedWith)
			r.Get("/shares/sent", handlers.SharedBy)
			r.Get("/shares/unviewed-count", handlers.UnviewedCount)
		})

		r.Get("/movies/{movieID}/similar", handlers.SimilarMovies)
		r.Post("/shares/{shareID}/viewed", handlers.MarkViewed)
	})

	return r
}
