// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

// Package config defines the Cinegraph configuration model and its layered
// loader. Configuration is resolved from three sources in increasing
// priority: built-in defaults, an optional YAML file, and environment
// variables.
package config

import "time"

// Config is the root configuration for the Cinegraph recommendation service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Neo4j      Neo4jConfig      `koanf:"neo4j"`
	NATS       NATSConfig       `koanf:"nats"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Sharing    SharingConfig    `koanf:"sharing"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"` // Read/write timeout for HTTP requests
}

// APIConfig holds API surface settings.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`   // Requests per window per client IP (0 disables)
	RateLimitWindow time.Duration `koanf:"rate_limit_window"` // Rate limit window
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Neo4jConfig holds the graph repository connection settings.
// The graph database is the system of record for users, movies, ratings
// and watchlist relationships; this service only reads from it.
type Neo4jConfig struct {
	URI      string `koanf:"uri"`      // bolt:// or neo4j:// URI
	Username string `koanf:"username"` //
	Password string `koanf:"password"` //
	Database string `koanf:"database"` // Target database name (empty = default)

	// QueryTimeout bounds every read issued against the graph. A query that
	// exceeds it fails over to the stale-cache path instead of blocking
	// recommendation serving.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// Circuit breaker settings guarding the driver.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"` // Consecutive failures before the breaker opens
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"` // How long the breaker stays open
}

// NATSConfig holds the event bus settings.
// Catalog and rating mutations arrive as events on JetStream subjects;
// the embedded server option supports single-binary deployments.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	StreamName     string `koanf:"stream_name"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`

	// Watermill router middleware settings.
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// SimilarityConfig holds user-to-user similarity settings.
type SimilarityConfig struct {
	// Metric selects the similarity measure: cosine or pearson.
	Metric string `koanf:"metric"`

	// MinCommonRatings is the minimum number of movies two users must both
	// have rated for a similarity score to be meaningful.
	MinCommonRatings int `koanf:"min_common_ratings"`

	// MinScore filters out weakly similar users from neighbourhoods.
	MinScore float64 `koanf:"min_score"`

	// MaxCandidates caps the number of co-rater candidates examined per
	// neighbourhood query. Keeps similarity search bounded on dense graphs.
	MaxCandidates int `koanf:"max_candidates"`

	// CacheBackend selects the pair cache implementation: memory or redis.
	CacheBackend string        `koanf:"cache_backend"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	RedisAddr    string        `koanf:"redis_addr"`
	RedisDB      int           `koanf:"redis_db"`
}

// RecommendConfig holds ranking engine settings.
type RecommendConfig struct {
	DefaultLimit int           `koanf:"default_limit"`
	MaxLimit     int           `koanf:"max_limit"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`

	// Neighbourhood size for collaborative and trending ranking.
	SimilarUsers int `koanf:"similar_users"`

	// TrendingMinRating is the score threshold above which a rating counts
	// toward trending co-occurrence.
	TrendingMinRating float64 `koanf:"trending_min_rating"`

	// Hybrid blend weights. Weights of unavailable signals are
	// redistributed over the remaining ones at ranking time.
	HybridCollaborativeWeight float64 `koanf:"hybrid_collaborative_weight"`
	HybridContentWeight       float64 `koanf:"hybrid_content_weight"`
	HybridPopularityWeight    float64 `koanf:"hybrid_popularity_weight"`

	// ColdStartPoolSize is how many popular movies the cold-start ranker
	// fetches before filtering out already seen ones.
	ColdStartPoolSize int `koanf:"cold_start_pool_size"`
}

// PipelineConfig holds invalidation pipeline settings.
type PipelineConfig struct {
	// Partitions is the number of ordered event lanes. Events for one user
	// always land on the same lane and are applied in publish order.
	Partitions int `koanf:"partitions"`

	// PartitionBuffer is the per-lane queue depth before the dispatcher
	// applies backpressure to the bus subscription.
	PartitionBuffer int `koanf:"partition_buffer"`

	// RecomputeWorkers bounds background recommendation refreshes.
	RecomputeWorkers int `koanf:"recompute_workers"`

	// RecomputeQueueSize bounds pending refresh jobs. When full, new jobs
	// are dropped; the affected entries stay invalidated and are rebuilt
	// on the next read instead.
	RecomputeQueueSize int `koanf:"recompute_queue_size"`
}

// SharingConfig holds storage settings for shared recommendations and the
// interaction feedback log.
type SharingConfig struct {
	Path     string `koanf:"path"`      // Badger data directory
	InMemory bool   `koanf:"in_memory"` // Ephemeral store for tests and dev
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
