package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tellsiddh/collections/internal/domain"
	"github.com/tellsiddh/collections/internal/logger"
	"github.com/tellsiddh/collections/internal/sources/titlerules"
)

// TitleRulesReloader keeps the title classifier in sync with the rules file.
type TitleRulesReloader struct {
	loader        *titlerules.Loader
	mapper        *titlerules.Mapper
	classifier    *domain.TitleClassifier
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewTitleRulesReloader creates a reloader for rulesFile. manualTrigger may
// be nil when reloads are only periodic.
func NewTitleRulesReloader(
	rulesFile string,
	classifier *domain.TitleClassifier,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *TitleRulesReloader {
	return &TitleRulesReloader{
		loader:        titlerules.NewLoader(rulesFile),
		mapper:        titlerules.NewMapper(),
		classifier:    classifier,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the rules once, then reloads them on every tick and manual
// trigger until Stop is called or ctx ends.
func (r *TitleRulesReloader) Start(ctx context.Context) error {
	if err := r.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload title rules", logger.Error(err))
				}
			case <-r.manualTrigger:
				r.logger.Info("manual reload triggered")
				if err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload title rules", logger.Error(err))
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader. It is safe to call more than once.
func (r *TitleRulesReloader) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Reload reads the rules file and swaps the classifier's table. On failure
// the current table stays in place.
func (r *TitleRulesReloader) Reload(_ context.Context) error {
	r.logger.Info("reloading title rules", logger.String("file", r.loader.Path()))

	file, err := r.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load title rules: %w", err)
	}

	rules, err := r.mapper.MapRules(file)
	if err != nil {
		return fmt.Errorf("failed to map title rules: %w", err)
	}

	r.classifier.Replace(rules)
	r.logger.Info("title rules reloaded", logger.Int("count", len(rules)))
	return nil
}
