// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/okonrad/cinegraph/internal/config"
	"github.com/okonrad/cinegraph/internal/recommend"
	"github.com/okonrad/cinegraph/internal/sharing"
	"github.com/okonrad/cinegraph/internal/similarity"
)

// Service is the recommendation operation surface the handlers expose.
// The recommend.Orchestrator satisfies this.
type Service interface {
	Generate(ctx context.Context, userID string, algorithm recommend.Algorithm, limit int) (*recommend.List, error)
	Refresh(ctx context.Context, userID string, algorithm recommend.Algorithm, limit int) (*recommend.List, error)
	GetUserRecommendations(ctx context.Context, userID string, page, pageSize int) (*recommend.Page, error)
	SimilarMovies(ctx context.Context, movieID string, limit int) ([]recommend.Item, error)
	FindSimilarUsers(ctx context.Context, userID string, limit int) ([]similarity.SimilarUser, error)
	TrackInteraction(ctx context.Context, userID, movieID, action string, value float64) error
	ShareRecommendation(ctx context.Context, fromUserID, movieID, message string, toUserIDs []string) (int, error)
	GetSharedRecommendations(ctx context.Context, userID string) ([]sharing.SharedRecommendation, error)
	GetSharedByUser(ctx context.Context, userID string) ([]sharing.SharedRecommendation, error)
	MarkSharedViewed(ctx context.Context, shareID string) error
	UnviewedSharedCount(ctx context.Context, userID string) (int, error)
}

var _ Service = (*recommend.Orchestrator)(nil)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	service         Service
	checks          map[string]HealthCheck
	defaultPageSize int
	maxPageSize     int
}

// NewHandlers creates the handler set.
func NewHandlers(service Service, cfg config.APIConfig) *Handlers {
	defaultPageSize := cfg.DefaultPageSize
	if defaultPageSize <= 0 {
		defaultPageSize = 10
	}
	maxPageSize := cfg.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &Handlers{
		service:         service,
		checks:          make(map[string]HealthCheck),
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// RegisterHealthCheck adds a named dependency probe to /healthz.
func (h *Handlers) RegisterHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// GetRecommendations handles GET /users/{userID}/recommendations.
// Serves the paged hybrid feed.
func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := PageRequest{
		UserID:   chi.URLParam(r, "userID"),
		Page:     intQuery(r, "page", 1),
		PageSize: intQuery(r, "page_size", h.defaultPageSize),
	}
	if !validateRequest(rw, &req) {
		return
	}
	if req.PageSize > h.maxPageSize {
		req.PageSize = h.maxPageSize
	}

	page, err := h.service.GetUserRecommendations(r.Context(), req.UserID, req.Page, req.PageSize)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}

	rw.SuccessWithPagination(page, &PaginationMeta{
		Page:     page.Page,
		PageSize: page.PageSize,
		Count:    len(page.Items),
		HasMore:  page.Page*page.PageSize < page.TotalItems,
	})
}

// Generate handles GET /users/{userID}/recommendations/{algorithm}.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := GenerateRequest{
		UserID:    chi.URLParam(r, "userID"),
		Algorithm: chi.URLParam(r, "algorithm"),
		Limit:     intQuery(r, "limit", 0),
	}
	if !validateRequest(rw, &req) {
		return
	}

	algorithm, err := recommend.ParseAlgorithm(req.Algorithm)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}

	list, err := h.service.Generate(r.Context(), req.UserID, algorithm, req.Limit)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.Success(list)
}

// Refresh handles POST /users/{userID}/recommendations/refresh.
// Recomputes synchronously, bypassing the cache read path.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := GenerateRequest{
		UserID:    chi.URLParam(r, "userID"),
		Algorithm: r.URL.Query().Get("algorithm"),
		Limit:     intQuery(r, "limit", 0),
	}
	if !validateRequest(rw, &req) {
		return
	}

	algorithm, err := recommend.ParseAlgorithm(req.Algorithm)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}

	list, err := h.service.Refresh(r.Context(), req.UserID, algorithm, req.Limit)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.Success(list)
}

// SimilarMovies handles GET /movies/{movieID}/similar.
func (h *Handlers) SimilarMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := SimilarRequest{
		ID:    chi.URLParam(r, "movieID"),
		Limit: intQuery(r, "limit", 0),
	}
	if !validateRequest(rw, &req) {
		return
	}

	items, err := h.service.SimilarMovies(r.Context(), req.ID, req.Limit)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.Success(items)
}

// FindSimilarUsers handles GET /users/{userID}/similar.
func (h *Handlers) FindSimilarUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := SimilarRequest{
		ID:    chi.URLParam(r, "userID"),
		Limit: intQuery(r, "limit", 0),
	}
	if !validateRequest(rw, &req) {
		return
	}

	users, err := h.service.FindSimilarUsers(r.Context(), req.ID, req.Limit)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.Success(users)
}

// TrackInteraction handles POST /users/{userID}/interactions.
func (h *Handlers) TrackInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	if err := h.service.TrackInteraction(r.Context(), userID, req.MovieID, req.Action, req.Value); err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.NoContent()
}

// Share handles POST /users/{userID}/shares.
func (h *Handlers) Share(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	var req ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	created, err := h.service.ShareRecommendation(r.Context(), userID, req.MovieID, req.Message, req.ToUserIDs)
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.Created(map[string]int{"shared": created})
}

// SharedWith handles GET /users/{userID}/shares/received.
func (h *Handlers) SharedWith(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	shares, err := h.service.GetSharedRecommendations(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.Success(shares)
}

// SharedBy handles GET /users/{userID}/shares/sent.
func (h *Handlers) SharedBy(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	shares, err := h.service.GetSharedByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.Success(shares)
}

// UnviewedCount handles GET /users/{userID}/shares/unviewed-count.
func (h *Handlers) UnviewedCount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	count, err := h.service.UnviewedSharedCount(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.Success(map[string]int{"unviewed": count})
}

// MarkViewed handles POST /shares/{shareID}/viewed.
func (h *Handlers) MarkViewed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.service.MarkSharedViewed(r.Context(), chi.URLParam(r, "shareID")); err != nil {
		respondServiceError(rw, r, err)
		return
	}
	rw.NoContent()
}

// componentHealth is one entry in the health report.
type componentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health handles GET /healthz. Probes run with a shared deadline; any
// failure degrades the response to 503 so load balancers stop routing.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]componentHealth, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthy = false
			components[name] = componentHealth{Status: "unhealthy", Error: err.Error()}
			continue
		}
		components[name] = componentHealth{Status: "healthy"}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC(),
	})
}
