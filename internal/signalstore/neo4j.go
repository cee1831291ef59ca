// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package signalstore

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/okonrad/cinegraph/internal/logging"
	"github.com/okonrad/cinegraph/internal/metrics"
)

// Neo4jConfig holds connection settings for the graph repository.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string

	// MaxPoolSize caps the driver connection pool. Zero uses the driver default.
	MaxPoolSize int

	// ConnectTimeout bounds socket establishment.
	ConnectTimeout time.Duration
}

// Neo4jStore implements SignalStore against a Neo4j graph where catalog
// services maintain (:User)-[:RATED]->(:Movie) and
// (:User)-[:WANTS_TO_WATCH]->(:Movie) relationships.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ SignalStore = (*Neo4jStore)(nil)

// NewNeo4jStore connects to the graph repository and verifies connectivity.
func NewNeo4jStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j uri is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
		c.SocketConnectTimeout = cfg.ConnectTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	logging.Info().Str("uri", cfg.URI).Str("database", cfg.Database).Msg("Connected to graph repository")

	return &Neo4jStore{
		driver:   driver,
		database: cfg.Database,
	}, nil
}

// RatingVector returns the user's full rating history.
func (s *Neo4jStore) RatingVector(ctx context.Context, userID string) (*RatingVector, error) {
	start := time.Now()

	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		exists, err := userExistsTx(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrUserNotFound
		}

		const query = `
			MATCH (u:User {userId: $userId})-[r:RATED]->(m:Movie)
			RETURN m.movieId AS movieId, r.rating AS rating, r.updatedAt AS updatedAt`
		res, err := tx.Run(ctx, query, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		vector := &RatingVector{
			UserID:  userID,
			Ratings: make(map[string]float64, len(records)),
		}
		for _, rec := range records {
			movieID := stringValue(rec, "movieId")
			if movieID == "" {
				continue
			}
			vector.Ratings[movieID] = floatValue(rec, "rating")
			if ts := timeValue(rec, "updatedAt"); ts.After(vector.UpdatedAt) {
				vector.UpdatedAt = ts
			}
		}
		return vector, nil
	})
	metrics.RecordSignalStoreQuery("rating_vector", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result.(*RatingVector), nil
}

// CoRaters returns users overlapping with userID on at least minCommon movies.
func (s *Neo4jStore) CoRaters(ctx context.Context, userID string, minCommon, limit int) ([]string, error) {
	start := time.Now()

	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		const query = `
			MATCH (u:User {userId: $userId})-[:RATED]->(m:Movie)<-[:RATED]-(o:User)
			WHERE o.userId <> $userId
			WITH o, count(m) AS common
			WHERE common >= $minCommon
			RETURN o.userId AS userId
			ORDER BY common DESC, o.userId ASC
			LIMIT $limit`
		res, err := tx.Run(ctx, query, map[string]any{
			"userId":    userID,
			"minCommon": minCommon,
			"limit":     limit,
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(records))
		for _, rec := range records {
			if id := stringValue(rec, "userId"); id != "" {
				ids = append(ids, id)
			}
		}
		return ids, nil
	})
	metrics.RecordSignalStoreQuery("co_raters", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// MovieFeatures returns the content features of a single movie.
func (s *Neo4jStore) MovieFeatures(ctx context.Context, movieID string) (*MovieFeatures, error) {
	start := time.Now()

	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		const query = `
			MATCH (m:Movie {movieId: $movieId})
			OPTIONAL MATCH (m)<-[r:RATED]-(:User)
			RETURN m.movieId AS movieId, m.title AS title, m.genres AS genres,
			       m.director AS director, m.cast AS cast, m.year AS year,
			       avg(r.rating) AS avgRating, count(r) AS ratingCount`
		res, err := tx.Run(ctx, query, map[string]any{"movieId": movieID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrMovieNotFound
		}
		return featuresFromRecord(records[0]), nil
	})
	metrics.RecordSignalStoreQuery("movie_features", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result.(*MovieFeatures), nil
}

// MoviesByGenres returns movies sharing at least one of the given genres.
func (s *Neo4jStore) MoviesByGenres(ctx context.Context, genres, exclude []string, limit int) ([]*MovieFeatures, error) {
	start := time.Now()

	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		const query = `
			MATCH (m:Movie)
			WHERE any(g IN m.genres WHERE g IN $genres)
			  AND NOT m.movieId IN $exclude
			OPTIONAL MATCH (m)<-[r:RATED]-(:User)
			WITH m, avg(r.rating) AS avgRating, count(r) AS ratingCount
			RETURN m.movieId AS movieId, m.title AS title, m.genres AS genres,
			       m.director AS director, m.cast AS cast, m.year AS year,
			       avgRating, ratingCount
			ORDER BY ratingCount DESC, avgRating DESC, m.movieId ASC
			LIMIT $limit`
		res, err := tx.Run(ctx, query, map[string]any{
			"genres":  toAnySlice(genres),
			"exclude": toAnySlice(exclude),
			"limit":   limit,
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		movies := make([]*MovieFeatures, 0, len(records))
		for _, rec := range records {
			movies = append(movies, featuresFromRecord(rec))
		}
		return movies, nil
	})
	metrics.RecordSignalStoreQuery("movies_by_genres", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result.([]*MovieFeatures), nil
}

// PopularMovies returns movies ordered by rating volume then average rating.
func (s *Neo4jStore) PopularMovies(ctx context.Context, limit int) ([]*MovieFeatures, error) {
	start := time.Now()

	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		const query = `
			MATCH (m:Movie)<-[r:RATED]-(:User)
			WITH m, avg(r.rating) AS avgRating, count(r) AS ratingCount
			RETURN m.movieId AS movieId, m.title AS title, m.genres AS genres,
			       m.director AS director, m.cast AS cast, m.year AS year,
			       avgRating, ratingCount
			ORDER BY ratingCount DESC, avgRating DESC, m.movieId ASC
			LIMIT $limit`
		res, err := tx.Run(ctx, query, map[string]any{"limit": limit})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		movies := make([]*MovieFeatures, 0, len(records))
		for _, rec := range records {
			movies = append(movies, featuresFromRecord(rec))
		}
		return movies, nil
	})
	metrics.RecordSignalStoreQuery("popular_movies", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result.([]*MovieFeatures), nil
}

// Watchlist returns the IDs of movies on the user's watchlist.
func (s *Neo4jStore) Watchlist(ctx context.Context, userID string) ([]string, error) {
	start := time.Now()

	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		const query = `
			MATCH (u:User {userId: $userId})-[:WANTS_TO_WATCH]->(m:Movie)
			RETURN m.movieId AS movieId`
		res, err := tx.Run(ctx, query, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(records))
		for _, rec := range records {
			if id := stringValue(rec, "movieId"); id != "" {
				ids = append(ids, id)
			}
		}
		return ids, nil
	})
	metrics.RecordSignalStoreQuery("watchlist", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

// UserExists reports whether the user node exists.
func (s *Neo4jStore) UserExists(ctx context.Context, userID string) (bool, error) {
	start := time.Now()

	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return userExistsTx(ctx, tx, userID)
	})
	metrics.RecordSignalStoreQuery("user_exists", time.Since(start), err)
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Close shuts down the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// read runs fn inside a managed read transaction on a fresh session.
func (s *Neo4jStore) read(ctx context.Context, fn neo4j.ManagedTransactionWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	return session.ExecuteRead(ctx, fn)
}

// userExistsTx checks user existence inside an open transaction.
func userExistsTx(ctx context.Context, tx neo4j.ManagedTransaction, userID string) (bool, error) {
	res, err := tx.Run(ctx, `MATCH (u:User {userId: $userId}) RETURN count(u) > 0 AS exists`,
		map[string]any{"userId": userID})
	if err != nil {
		return false, err
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return false, err
	}
	exists, _ := rec.Get("exists")
	b, ok := exists.(bool)
	return ok && b, nil
}

// featuresFromRecord maps a result record to MovieFeatures.
func featuresFromRecord(rec *neo4j.Record) *MovieFeatures {
	return &MovieFeatures{
		MovieID:     stringValue(rec, "movieId"),
		Title:       stringValue(rec, "title"),
		Genres:      stringSliceValue(rec, "genres"),
		Director:    stringValue(rec, "director"),
		Cast:        stringSliceValue(rec, "cast"),
		Year:        int(intValue(rec, "year")),
		AvgRating:   floatValue(rec, "avgRating"),
		RatingCount: int(intValue(rec, "ratingCount")),
	}
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func floatValue(rec *neo4j.Record, key string) float64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func intValue(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func timeValue(rec *neo4j.Record, key string) time.Time {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}

func stringSliceValue(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
