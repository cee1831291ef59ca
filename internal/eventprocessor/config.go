// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package eventprocessor

import (
	"time"

	"github.com/okonrad/cinegraph/internal/config"
)

// SubscriberConfig holds NATS JetStream consumption settings.
type SubscriberConfig struct {
	// URL is the NATS server connection URL.
	URL string

	// StreamName binds the consumer to an existing stream. Required for
	// wildcard subjects; stream names cannot contain wildcards.
	StreamName string

	// DurableName is the durable consumer prefix.
	DurableName string

	// QueueGroup load-balances consumption across instances.
	QueueGroup string

	// SubscribersCount is kept at 1: the dispatcher provides the
	// concurrency, and a single consumer preserves publish order into it.
	SubscribersCount int

	// MaxDeliver bounds JetStream redelivery attempts per message.
	MaxDeliver int

	// MaxAckPending bounds unacknowledged in-flight messages.
	MaxAckPending int

	// AckWaitTimeout is how long JetStream waits for an ack before
	// redelivering.
	AckWaitTimeout time.Duration

	// CloseTimeout bounds graceful subscriber shutdown.
	CloseTimeout time.Duration

	// Reconnect behaviour.
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultSubscriberConfig returns production defaults.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		URL:              "nats://127.0.0.1:4222",
		StreamName:       "CATALOG",
		DurableName:      "recommendation-invalidator",
		QueueGroup:       "recommendation",
		SubscribersCount: 1,
		MaxDeliver:       5,
		MaxAckPending:    256,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// SubscriberConfigFrom derives subscriber settings from the service
// configuration.
func SubscriberConfigFrom(cfg config.NATSConfig) SubscriberConfig {
	sc := DefaultSubscriberConfig()
	if cfg.URL != "" {
		sc.URL = cfg.URL
	}
	if cfg.StreamName != "" {
		sc.StreamName = cfg.StreamName
	}
	if cfg.DurableName != "" {
		sc.DurableName = cfg.DurableName
	}
	if cfg.QueueGroup != "" {
		sc.QueueGroup = cfg.QueueGroup
	}
	return sc
}

// RouterConfigFrom derives router settings from the service
// configuration.
func RouterConfigFrom(cfg config.NATSConfig) RouterConfig {
	rc := DefaultRouterConfig()
	if cfg.RouterRetryCount > 0 {
		rc.RetryMaxRetries = cfg.RouterRetryCount
	}
	if cfg.RouterRetryInitialInterval > 0 {
		rc.RetryInitialInterval = cfg.RouterRetryInitialInterval
	}
	if cfg.RouterCloseTimeout > 0 {
		rc.CloseTimeout = cfg.RouterCloseTimeout
	}
	if !cfg.RouterPoisonQueueEnabled {
		rc.PoisonQueueTopic = ""
	} else if cfg.RouterPoisonQueueTopic != "" {
		rc.PoisonQueueTopic = cfg.RouterPoisonQueueTopic
	}
	return rc
}

// StreamConfig holds JetStream stream provisioning settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the catalog stream defaults.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "CATALOG",
		Subjects:        StreamSubjects(),
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        1 << 30, // 1GB
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns embedded server defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   1 << 30,  // 1GB
		JetStreamMaxStore: 10 << 30, // 10GB
	}
}
