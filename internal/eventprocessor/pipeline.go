// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package eventprocessor

import (
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/okonrad/cinegraph/internal/logging"
	"github.com/okonrad/cinegraph/internal/metrics"
)

// Pipeline connects catalog topics to the invalidation dispatcher. One
// consumer handler per topic decodes, validates, classifies and
// dispatches; the dispatcher applies signals in partition order.
type Pipeline struct {
	serializer *Serializer
	dispatcher *Dispatcher
}

// NewPipeline creates the event pipeline over a dispatcher.
func NewPipeline(dispatcher *Dispatcher) *Pipeline {
	return &Pipeline{
		serializer: NewSerializer(),
		dispatcher: dispatcher,
	}
}

// RegisterHandlers adds one consumer handler per catalog topic to the
// router.
func (p *Pipeline) RegisterHandlers(router *Router, subscriber message.Subscriber) {
	for _, topic := range Topics() {
		name := "invalidate-" + strings.ReplaceAll(topic, ".", "-")
		router.AddConsumerHandler(name, topic, subscriber, p.handlerFor(topic))
	}
}

// handlerFor builds the handler closure for one topic.
//
// Malformed payloads are acked, not retried: the payload will not parse
// any better on redelivery. They classify as unknown, so the global
// invalidation keeps the cache correct despite the unreadable event.
// Dispatch errors (context cancellation during backpressure) are returned
// so the message is redelivered.
func (p *Pipeline) handlerFor(topic string) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		metrics.EventsReceived.WithLabelValues(topic).Inc()

		signal, ok := p.classify(topic, msg)
		if !ok {
			metrics.EventsMalformed.WithLabelValues(topic).Inc()
			signal = Signal{Kind: SignalUnknown}
		}

		return p.dispatcher.Dispatch(msg.Context(), signal)
	}
}

func (p *Pipeline) classify(topic string, msg *message.Message) (Signal, bool) {
	event, err := p.serializer.Unmarshal(msg.Payload)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("topic", topic).
			Str("message_uuid", msg.UUID).
			Msg("undecodable catalog event, applying global invalidation")
		return Signal{}, false
	}

	if err := event.Validate(topic); err != nil {
		logging.Warn().
			Err(err).
			Str("topic", topic).
			Str("event_id", event.EventID).
			Msg("invalid catalog event, applying global invalidation")
		return Signal{}, false
	}

	return Classify(topic, event), true
}
