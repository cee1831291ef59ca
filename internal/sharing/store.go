// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package sharing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okonrad/cinegraph/internal/config"
	"github.com/okonrad/cinegraph/internal/logging"
	"github.com/okonrad/cinegraph/internal/metrics"
)

// Key prefixes for BadgerDB storage.
const (
	shareKeyPrefix       = "share:"
	shareToKeyPrefix     = "share_to:"
	shareByKeyPrefix     = "share_by:"
	sharePairKeyPrefix   = "share_pair:"
	interactionKeyPrefix = "interaction:"
)

// Store persists shared recommendations and the interaction log. Shares
// are indexed three ways: by ID, by recipient, and by sender; a pair key
// (from, to, movie) backs the duplicate-share check.
type Store struct {
	db *badger.DB
}

// Open opens the BadgerDB-backed store at the configured path.
func Open(cfg config.SharingConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open sharing store: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already opened BadgerDB handle.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Share records a movie shared from one user to a set of recipients and
// returns how many new shares were created. A recipient who already
// received this movie from this sender is skipped, not an error.
func (s *Store) Share(ctx context.Context, fromUserID, movieID, message string, toUserIDs []string) (int, error) {
	shared := 0
	now := time.Now()

	for _, toUserID := range toUserIDs {
		if err := ctx.Err(); err != nil {
			return shared, err
		}
		if toUserID == fromUserID {
			continue
		}

		created, err := s.shareOne(fromUserID, toUserID, movieID, message, now)
		if err != nil {
			return shared, err
		}
		if created {
			shared++
			metrics.SharedRecommendations.WithLabelValues("created").Inc()
		} else {
			metrics.SharedRecommendations.WithLabelValues("duplicate").Inc()
			logging.Debug().
				Str("from_user_id", fromUserID).
				Str("to_user_id", toUserID).
				Str("movie_id", movieID).
				Msg("movie already shared with recipient, skipping")
		}
	}
	return shared, nil
}

func (s *Store) shareOne(fromUserID, toUserID, movieID, message string, now time.Time) (bool, error) {
	record := SharedRecommendation{
		ID:         uuid.NewString(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		MovieID:    movieID,
		Message:    message,
		SharedAt:   now,
	}

	data, err := json.Marshal(&record)
	if err != nil {
		return false, fmt.Errorf("failed to marshal shared recommendation: %w", err)
	}

	created := false
	err = s.db.Update(func(txn *badger.Txn) error {
		pairKey := []byte(sharePairKeyPrefix + fromUserID + ":" + toUserID + ":" + movieID)
		_, err := txn.Get(pairKey)
		if err == nil {
			return nil // Already shared.
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing share: %w", err)
		}

		if err := txn.Set([]byte(shareKeyPrefix+record.ID), data); err != nil {
			return fmt.Errorf("failed to store share: %w", err)
		}
		if err := txn.Set([]byte(shareToKeyPrefix+toUserID+":"+record.ID), []byte(record.ID)); err != nil {
			return fmt.Errorf("failed to store recipient index: %w", err)
		}
		if err := txn.Set([]byte(shareByKeyPrefix+fromUserID+":"+record.ID), []byte(record.ID)); err != nil {
			return fmt.Errorf("failed to store sender index: %w", err)
		}
		if err := txn.Set(pairKey, []byte(record.ID)); err != nil {
			return fmt.Errorf("failed to store pair index: %w", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// SharedWith returns recommendations shared with a user, newest first.
func (s *Store) SharedWith(ctx context.Context, userID string) ([]SharedRecommendation, error) {
	return s.listByIndex(ctx, shareToKeyPrefix+userID+":")
}

// SharedBy returns recommendations a user has shared, newest first.
func (s *Store) SharedBy(ctx context.Context, userID string) ([]SharedRecommendation, error) {
	return s.listByIndex(ctx, shareByKeyPrefix+userID+":")
}

// MarkViewed flags a shared recommendation viewed. Returns ErrNotFound
// for unknown IDs; marking an already viewed share is a no-op.
func (s *Store) MarkViewed(_ context.Context, shareID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(shareKeyPrefix + shareID)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load share: %w", err)
		}

		var record SharedRecommendation
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return fmt.Errorf("failed to unmarshal share: %w", err)
		}

		if record.Viewed {
			return nil
		}
		record.Viewed = true

		data, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("failed to marshal share: %w", err)
		}
		return txn.Set(key, data)
	})
}

// UnviewedCount returns how many shares the user has not viewed yet.
func (s *Store) UnviewedCount(ctx context.Context, userID string) (int, error) {
	records, err := s.SharedWith(ctx, userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, record := range records {
		if !record.Viewed {
			count++
		}
	}
	return count, nil
}

// TrackInteraction appends one entry to the feedback log. The log never
// feeds back into ranking synchronously; it exists for offline weight
// tuning.
func (s *Store) TrackInteraction(_ context.Context, interaction Interaction) error {
	interaction.Kind = NormalizeKind(interaction.Action)
	if interaction.OccurredAt.IsZero() {
		interaction.OccurredAt = time.Now()
	}

	data, err := json.Marshal(&interaction)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction: %w", err)
	}

	// Timestamp-ordered key; the UUID suffix disambiguates same-nanosecond
	// entries.
	key := interactionKeyPrefix + interaction.UserID + ":" +
		strconv.FormatInt(interaction.OccurredAt.UnixNano(), 10) + ":" + uuid.NewString()

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store interaction: %w", err)
	}

	metrics.InteractionsTracked.WithLabelValues(interaction.Kind).Inc()
	return nil
}

// Interactions returns a user's feedback log entries, oldest first.
func (s *Store) Interactions(_ context.Context, userID string, limit int) ([]Interaction, error) {
	var interactions []Interaction

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(interactionKeyPrefix + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(interactions) >= limit {
				break
			}

			var interaction Interaction
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &interaction)
			})
			if err != nil {
				continue // Corrupt entry, skip.
			}
			interactions = append(interactions, interaction)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	return interactions, nil
}

func (s *Store) listByIndex(ctx context.Context, prefix string) ([]SharedRecommendation, error) {
	var records []SharedRecommendation

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var shareID string
			err := it.Item().Value(func(val []byte) error {
				shareID = string(val)
				return nil
			})
			if err != nil {
				continue
			}

			item, err := txn.Get([]byte(shareKeyPrefix + shareID))
			if err != nil {
				continue // Index entry without a record, skip.
			}

			var record SharedRecommendation
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				continue
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].SharedAt.Equal(records[j].SharedAt) {
			return records[i].SharedAt.After(records[j].SharedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}
