package scheduler

import (
	"context"
	"time"

	"github.com/tellsiddh/collections/internal/logger"
)

// Collectable is storage that can reclaim space on demand.
type Collectable interface {
	CollectGarbage(ctx context.Context) (int, error)
}

// GarbageCollector periodically reclaims space in the collection storage.
type GarbageCollector struct {
	target   Collectable
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(target Collectable, log logger.Logger, interval time.Duration) *GarbageCollector {
	return &GarbageCollector{
		target:   target,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a collection immediately and then on every interval.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect runs one collection pass.
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	start := time.Now()
	n, err := gc.target.CollectGarbage(ctx)
	if err != nil {
		return err
	}

	if n > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("files_rewritten", n),
			logger.Duration("elapsed", time.Since(start)))
	} else {
		gc.logger.Debug("nothing to garbage collect")
	}
	return nil
}
