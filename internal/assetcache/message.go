package assetcache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tellsiddh/collections/internal/logger"
)

// MessageShareTarget tags messages carrying shared content.
const MessageShareTarget = "SHARE_TARGET"

// Message is a cross-context message posted to the worker.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ShareHook receives share-target payloads. It is the integration point
// for forwarding shared links into the collection; none is wired by default.
type ShareHook func(ctx context.Context, data json.RawMessage) error

// Messenger observes messages posted to the worker.
type Messenger struct {
	logger logger.Logger
	hook   ShareHook
}

// NewMessenger creates a messenger. hook may be nil.
func NewMessenger(log logger.Logger, hook ShareHook) *Messenger {
	return &Messenger{logger: log, hook: hook}
}

// Handle logs msg and passes share-target payloads to the hook, if any.
// It reports whether the message was a share-target payload.
func (m *Messenger) Handle(ctx context.Context, msg Message) (bool, error) {
	m.logger.Info("message received",
		logger.String("type", msg.Type),
		logger.Int("bytes", len(msg.Data)))

	if msg.Type != MessageShareTarget {
		return false, nil
	}

	m.logger.Info("shared data received", logger.String("data", string(msg.Data)))
	if m.hook == nil {
		return true, nil
	}
	if err := m.hook(ctx, msg.Data); err != nil {
		return true, fmt.Errorf("share hook failed: %w", err)
	}
	return true, nil
}
