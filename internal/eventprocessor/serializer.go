// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package eventprocessor

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Serializer handles catalog event encoding and decoding for NATS
// messages.
type Serializer struct{}

// NewSerializer creates a serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal converts an event to JSON, validating it against the topic it
// will be published on.
func (s *Serializer) Marshal(topic string, event *CatalogEvent) ([]byte, error) {
	if err := event.Validate(topic); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes JSON into an event. Field validation is the caller's
// concern; a decode failure alone marks the payload malformed.
func (s *Serializer) Unmarshal(data []byte) (*CatalogEvent, error) {
	var event CatalogEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}
