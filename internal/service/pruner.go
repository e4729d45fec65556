package service

import (
	"context"
	"log"
	"sync"
	"time"

	"lobomat-api/internal/repository"
)

// PrunerConfig holds configuration for the attempt-log pruner.
type PrunerConfig struct {
	// RetainFor is how long attempt records are kept. Default: 30 days.
	RetainFor time.Duration

	// Interval is how often pruning runs. Default: 24 hours.
	Interval time.Duration
}

// AttemptLogPruner periodically removes old fulfillment attempt records so
// the support log does not grow without bound.
type AttemptLogPruner struct {
	attemptLog repository.FulfillmentLogRepository
	config     PrunerConfig
	ticker     *time.Ticker
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewAttemptLogPruner creates a pruner over the given attempt log.
func NewAttemptLogPruner(attemptLog repository.FulfillmentLogRepository, config PrunerConfig) *AttemptLogPruner {
	if config.RetainFor == 0 {
		config.RetainFor = 30 * 24 * time.Hour
	}
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}

	return &AttemptLogPruner{
		attemptLog: attemptLog,
		config:     config,
		stopCh:     make(chan struct{}),
	}
}

// Start begins periodic pruning.
func (p *AttemptLogPruner) Start() {
	p.ticker = time.NewTicker(p.config.Interval)

	log.Printf("[AttemptLogPruner] Started - Interval: %v, Retain: %v",
		p.config.Interval, p.config.RetainFor)

	go func() {
		for {
			select {
			case <-p.ticker.C:
				p.prune()
			case <-p.stopCh:
				log.Printf("[AttemptLogPruner] Stopped")
				return
			}
		}
	}()
}

func (p *AttemptLogPruner) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := p.attemptLog.DeleteOlderThan(ctx, p.config.RetainFor)
	if err != nil {
		log.Printf("[AttemptLogPruner] Error during pruning: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[AttemptLogPruner] Pruned %d attempt records", deleted)
	}
}

// Stop stops the pruner.
func (p *AttemptLogPruner) Stop() {
	p.stopOnce.Do(func() {
		if p.ticker != nil {
			p.ticker.Stop()
		}
		close(p.stopCh)
	})
}
