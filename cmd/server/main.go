// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

// Package main is the entry point for the Cinegraph recommendation
// service.
//
// The service reads taste signals (ratings, watchlist membership, movie
// features) from the catalog's Neo4j graph, ranks recommendations with
// collaborative, content, trending, cold-start and hybrid strategies,
// and keeps its caches consistent by consuming catalog mutation events
// from NATS JetStream.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered load (defaults, YAML, environment)
//  2. Logging: zerolog global logger
//  3. Signal store: Neo4j driver behind a circuit breaker
//  4. Similarity engine: in-memory or Redis pair cache
//  5. Ranking engine, recommendation cache, sharing store, orchestrator
//  6. Invalidation pipeline: embedded NATS (optional), stream
//     provisioning, JetStream subscriber, watermill router
//  7. Supervisor tree: pipeline layer and API layer under suture
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor drains the
// HTTP listener and pipeline lanes, then stores are closed in reverse
// dependency order.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/okonrad/cinegraph/internal/api"
	"github.com/okonrad/cinegraph/internal/config"
	"github.com/okonrad/cinegraph/internal/eventprocessor"
	"github.com/okonrad/cinegraph/internal/logging"
	"github.com/okonrad/cinegraph/internal/recommend"
	"github.com/okonrad/cinegraph/internal/sharing"
	"github.com/okonrad/cinegraph/internal/signalstore"
	"github.com/okonrad/cinegraph/internal/similarity"
	"github.com/okonrad/cinegraph/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting cinegraph recommendation service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Signal store: Neo4j behind a circuit breaker. Every ranking read
	// goes through the breaker so a graph outage degrades to stale
	// cache serving instead of piling up timeouts.
	neo4jStore, err := signalstore.NewNeo4jStore(ctx, signalstore.Neo4jConfig{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		return fmt.Errorf("connecting to neo4j: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := neo4jStore.Close(closeCtx); err != nil {
			logging.Warn().Err(err).Msg("neo4j close failed")
		}
	}()

	store := signalstore.NewBreakerStore(neo4jStore, signalstore.BreakerConfig{
		QueryTimeout: cfg.Neo4j.QueryTimeout,
		MaxFailures:  cfg.Neo4j.BreakerMaxFailures,
		OpenTimeout:  cfg.Neo4j.BreakerOpenTimeout,
	})

	// Similarity pair cache backend.
	pairCache, closePairCache, err := newPairCache(cfg.Similarity)
	if err != nil {
		return fmt.Errorf("creating similarity cache: %w", err)
	}
	defer closePairCache()

	sim := similarity.NewEngine(store, pairCache, similarity.Config{
		Metric:           cfg.Similarity.Metric,
		MinCommonRatings: cfg.Similarity.MinCommonRatings,
		MinScore:         cfg.Similarity.MinScore,
		MaxCandidates:    cfg.Similarity.MaxCandidates,
		CacheTTL:         cfg.Similarity.CacheTTL,
	})

	engine := recommend.NewEngine(store, sim, cfg.Recommend)
	cache := recommend.NewCache()

	shares, err := sharing.Open(cfg.Sharing)
	if err != nil {
		return fmt.Errorf("opening sharing store: %w", err)
	}
	defer func() {
		if err := shares.Close(); err != nil {
			logging.Warn().Err(err).Msg("sharing store close failed")
		}
	}()

	orchestrator := recommend.NewOrchestrator(engine, cache, sim, shares)

	pool := recommend.NewRecomputePool(orchestrator,
		cfg.Pipeline.RecomputeWorkers, cfg.Pipeline.RecomputeQueueSize)
	orchestrator.SetScheduler(pool)

	// Supervisor tree: pipeline components restart independently of the
	// HTTP listener.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddPipelineService(pool)

	if cfg.NATS.Enabled {
		cleanup, err := wirePipeline(ctx, cfg, orchestrator, tree)
		if err != nil {
			return fmt.Errorf("wiring invalidation pipeline: %w", err)
		}
		defer cleanup()
	} else {
		logging.Warn().Msg("NATS disabled, recommendation caches rely on TTL expiry only")
	}

	handlers := api.NewHandlers(orchestrator, cfg.API)
	handlers.RegisterHealthCheck("signalstore", func(ctx context.Context) error {
		_, err := store.UserExists(ctx, "healthcheck")
		return err
	})
	tree.AddAPIService(api.NewServer(api.NewRouter(handlers, cfg.API), cfg.Server))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("shutdown complete")
	return nil
}

// newPairCache builds the configured similarity cache backend and a
// close function for it.
func newPairCache(cfg config.SimilarityConfig) (similarity.PairCache, func(), error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return similarity.NewMemoryCache(), func() {}, nil
	case "redis":
		cache, err := similarity.NewRedisCache(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := cache.Close(); err != nil {
				logging.Warn().Err(err).Msg("redis close failed")
			}
		}
		return cache, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown similarity cache backend %q", cfg.CacheBackend)
	}
}

// wirePipeline stands up the event side: optional embedded NATS server,
// stream provisioning, the JetStream subscriber, the partition-ordered
// dispatcher and the watermill router with one handler per topic.
// The returned cleanup closes connections not owned by the supervisor.
func wirePipeline(ctx context.Context, cfg *config.Config, orchestrator *recommend.Orchestrator, tree *supervisor.Tree) (func(), error) {
	natsURL := cfg.NATS.URL

	var embedded *eventprocessor.EmbeddedServer
	if cfg.NATS.EmbeddedServer {
		serverCfg := eventprocessor.DefaultServerConfig()
		if cfg.NATS.StoreDir != "" {
			serverCfg.StoreDir = cfg.NATS.StoreDir
		}
		var err error
		embedded, err = eventprocessor.NewEmbeddedServer(serverCfg)
		if err != nil {
			return nil, fmt.Errorf("starting embedded NATS server: %w", err)
		}
		natsURL = embedded.ClientURL()
		logging.Info().Str("url", natsURL).Msg("embedded NATS server ready")
	}

	// Provision the catalog stream before binding the durable consumer.
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	streamCfg := eventprocessor.DefaultStreamConfig()
	if cfg.NATS.StreamName != "" {
		streamCfg.Name = cfg.NATS.StreamName
	}
	manager, err := eventprocessor.NewStreamManager(nc, streamCfg)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating stream manager: %w", err)
	}
	if _, err := manager.EnsureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("provisioning catalog stream: %w", err)
	}

	wmLogger := logging.NewWatermillAdapter()

	subscriberCfg := eventprocessor.SubscriberConfigFrom(cfg.NATS)
	subscriberCfg.URL = natsURL
	subscriber, err := eventprocessor.NewSubscriber(&subscriberCfg, wmLogger)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream subscriber: %w", err)
	}

	routerCfg := eventprocessor.RouterConfigFrom(cfg.NATS)

	publisherCfg := eventprocessor.DefaultPublisherConfig()
	publisherCfg.URL = natsURL
	publisher, err := eventprocessor.NewPublisher(publisherCfg, wmLogger)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating poison queue publisher: %w", err)
	}

	router, err := eventprocessor.NewRouter(&routerCfg, publisher, wmLogger)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating event router: %w", err)
	}

	dispatcher := eventprocessor.NewDispatcher(orchestrator,
		cfg.Pipeline.Partitions, cfg.Pipeline.PartitionBuffer)
	eventprocessor.NewPipeline(dispatcher).RegisterHandlers(router, subscriber)

	tree.AddPipelineService(dispatcher)
	tree.AddPipelineService(router)

	cleanup := func() {
		nc.Close()
		if embedded != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := embedded.Shutdown(shutdownCtx); err != nil {
				logging.Warn().Err(err).Msg("embedded NATS shutdown failed")
			}
		}
	}
	return cleanup, nil
}
