// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateNeo4j(); err != nil {
		return err
	}
	if err := c.validateSimilarity(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size must be between 1 and api.max_page_size (%d), got %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	return nil
}

func (c *Config) validateNeo4j() error {
	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri is required")
	}
	if !strings.HasPrefix(c.Neo4j.URI, "bolt://") &&
		!strings.HasPrefix(c.Neo4j.URI, "bolt+s://") &&
		!strings.HasPrefix(c.Neo4j.URI, "neo4j://") &&
		!strings.HasPrefix(c.Neo4j.URI, "neo4j+s://") {
		return fmt.Errorf("neo4j.uri must use a bolt:// or neo4j:// scheme, got %q", c.Neo4j.URI)
	}
	if c.Neo4j.QueryTimeout <= 0 {
		return fmt.Errorf("neo4j.query_timeout must be positive, got %s", c.Neo4j.QueryTimeout)
	}
	return nil
}

func (c *Config) validateSimilarity() error {
	switch c.Similarity.Metric {
	case "cosine", "pearson":
	default:
		return fmt.Errorf("similarity.metric must be cosine or pearson, got %q", c.Similarity.Metric)
	}
	if c.Similarity.MinCommonRatings < 2 {
		// A single shared rating carries no correlation signal.
		return fmt.Errorf("similarity.min_common_ratings must be at least 2, got %d", c.Similarity.MinCommonRatings)
	}
	if c.Similarity.MaxCandidates < 1 {
		return fmt.Errorf("similarity.max_candidates must be positive, got %d", c.Similarity.MaxCandidates)
	}
	switch c.Similarity.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("similarity.cache_backend must be memory or redis, got %q", c.Similarity.CacheBackend)
	}
	if c.Similarity.CacheBackend == "redis" && c.Similarity.RedisAddr == "" {
		return fmt.Errorf("similarity.redis_addr is required when cache_backend is redis")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.DefaultLimit < 1 || c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit must be between 1 and recommend.max_limit (%d), got %d",
			c.Recommend.MaxLimit, c.Recommend.DefaultLimit)
	}
	if c.Recommend.SimilarUsers < 1 {
		return fmt.Errorf("recommend.similar_users must be positive, got %d", c.Recommend.SimilarUsers)
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"recommend.hybrid_collaborative_weight", c.Recommend.HybridCollaborativeWeight},
		{"recommend.hybrid_content_weight", c.Recommend.HybridContentWeight},
		{"recommend.hybrid_popularity_weight", c.Recommend.HybridPopularityWeight},
	}
	sum := 0.0
	for _, w := range weights {
		if w.value < 0 {
			return fmt.Errorf("%s must not be negative, got %f", w.name, w.value)
		}
		sum += w.value
	}
	if sum <= 0 {
		return fmt.Errorf("hybrid blend weights must not all be zero")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Partitions < 1 {
		return fmt.Errorf("pipeline.partitions must be positive, got %d", c.Pipeline.Partitions)
	}
	if c.Pipeline.PartitionBuffer < 1 {
		return fmt.Errorf("pipeline.partition_buffer must be positive, got %d", c.Pipeline.PartitionBuffer)
	}
	if c.Pipeline.RecomputeWorkers < 1 {
		return fmt.Errorf("pipeline.recompute_workers must be positive, got %d", c.Pipeline.RecomputeWorkers)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level must be a valid level, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
