// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinegraph/config.yaml",
	"/etc/cinegraph/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// Defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8084,
			Timeout: 30 * time.Second,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Neo4j: Neo4jConfig{
			URI:                "bolt://127.0.0.1:7687",
			Username:           "neo4j",
			Password:           "",
			Database:           "",
			QueryTimeout:       5 * time.Second,
			BreakerMaxFailures: 5,
			BreakerOpenTimeout: 30 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:                    true,
			URL:                        "nats://127.0.0.1:4222",
			EmbeddedServer:             false,
			StoreDir:                   "/data/nats/jetstream",
			StreamName:                 "CATALOG",
			DurableName:                "recommendation-service",
			QueueGroup:                 "recommenders",
			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "catalog.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Similarity: SimilarityConfig{
			Metric:           "cosine",
			MinCommonRatings: 3,
			MinScore:         0.3,
			MaxCandidates:    500,
			CacheBackend:     "memory",
			CacheTTL:         30 * time.Minute,
			RedisAddr:        "127.0.0.1:6379",
			RedisDB:          0,
		},
		Recommend: RecommendConfig{
			DefaultLimit:              10,
			MaxLimit:                  50,
			CacheTTL:                  15 * time.Minute,
			SimilarUsers:              10,
			TrendingMinRating:         7.0,
			HybridCollaborativeWeight: 0.5,
			HybridContentWeight:       0.3,
			HybridPopularityWeight:    0.2,
			ColdStartPoolSize:         100,
		},
		Pipeline: PipelineConfig{
			Partitions:         8,
			PartitionBuffer:    256,
			RecomputeWorkers:   4,
			RecomputeQueueSize: 1024,
		},
		Sharing: SharingConfig{
			Path:     "/data/cinegraph/sharing",
			InMemory: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load resolves configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
//
// Precedence is ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Slice fields arrive from env as comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return empty string and are skipped, which keeps
// unrelated environment noise out of the configuration.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - NEO4J_URI -> neo4j.uri
//   - SIMILARITY_METRIC -> similarity.metric
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"rate_limit_requests":   "api.rate_limit_reqs",
		"rate_limit_window":     "api.rate_limit_window",
		"cors_origins":          "api.cors_origins",

		// Neo4j mappings
		"neo4j_uri":                  "neo4j.uri",
		"neo4j_username":             "neo4j.username",
		"neo4j_password":             "neo4j.password",
		"neo4j_database":             "neo4j.database",
		"neo4j_query_timeout":        "neo4j.query_timeout",
		"neo4j_breaker_max_failures": "neo4j.breaker_max_failures",
		"neo4j_breaker_open_timeout": "neo4j.breaker_open_timeout",

		// NATS mappings
		"nats_enabled":               "nats.enabled",
		"nats_url":                   "nats.url",
		"nats_embedded":              "nats.embedded_server",
		"nats_store_dir":             "nats.store_dir",
		"nats_stream_name":           "nats.stream_name",
		"nats_durable_name":          "nats.durable_name",
		"nats_queue_group":           "nats.queue_group",
		"nats_router_retry_count":    "nats.router_retry_count",
		"nats_router_retry_interval": "nats.router_retry_initial_interval",
		"nats_router_poison_enabled": "nats.router_poison_queue_enabled",
		"nats_router_poison_topic":   "nats.router_poison_queue_topic",
		"nats_router_close_timeout":  "nats.router_close_timeout",

		// Similarity mappings
		"similarity_metric":             "similarity.metric",
		"similarity_min_common_ratings": "similarity.min_common_ratings",
		"similarity_min_score":          "similarity.min_score",
		"similarity_max_candidates":     "similarity.max_candidates",
		"similarity_cache_backend":      "similarity.cache_backend",
		"similarity_cache_ttl":          "similarity.cache_ttl",
		"redis_addr":                    "similarity.redis_addr",
		"redis_db":                      "similarity.redis_db",

		// Recommendation mappings
		"recommend_default_limit":        "recommend.default_limit",
		"recommend_max_limit":            "recommend.max_limit",
		"recommend_cache_ttl":            "recommend.cache_ttl",
		"recommend_similar_users":        "recommend.similar_users",
		"recommend_trending_min_rating":  "recommend.trending_min_rating",
		"recommend_hybrid_collaborative": "recommend.hybrid_collaborative_weight",
		"recommend_hybrid_content":       "recommend.hybrid_content_weight",
		"recommend_hybrid_popularity":    "recommend.hybrid_popularity_weight",
		"recommend_cold_start_pool":      "recommend.cold_start_pool_size",

		// Pipeline mappings
		"pipeline_partitions":           "pipeline.partitions",
		"pipeline_partition_buffer":     "pipeline.partition_buffer",
		"pipeline_recompute_workers":    "pipeline.recompute_workers",
		"pipeline_recompute_queue_size": "pipeline.recompute_queue_size",

		// Sharing store mappings
		"sharing_path":      "sharing.path",
		"sharing_in_memory": "sharing.in_memory",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
