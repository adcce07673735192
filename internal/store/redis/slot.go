package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds how often an optimistic transaction is replayed
// after another writer touched the slot.
const maxTxRetries = 10

// Slot stores the serialized collection under one Redis key.
type Slot struct {
	client *redis.Client
	key    string
}

// NewSlot creates a slot for the named collection.
func NewSlot(client *redis.Client, slot string) *Slot {
	return &Slot{
		client: client,
		key:    SlotKey(slot),
	}
}

// Get returns the stored value, nil when the key is absent
func (s *Slot) Get(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return data, nil
}

// Update runs fn in a WATCH/MULTI transaction and replays it when another
// client modified the key in between.
func (s *Slot) Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, s.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to get slot: %w", err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("slot %s: transaction kept failing after %d attempts", s.key, maxTxRetries)
}

// Ping checks the connection
func (s *Slot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client
func (s *Slot) Close() error {
	return s.client.Close()
}
