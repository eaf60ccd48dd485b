// Package scheduler runs the scrape pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/govjobalert/govjobalert/internal/dtos"
)

// Runner performs one scrape cycle.
type Runner interface {
	Run(ctx context.Context) (*dtos.BulkImportResult, error)
}

// Scheduler wraps robfig/cron. Overlapping cycles are skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	spec    string // cron spec, e.g. "@every 6h"
	timeout time.Duration

	wg sync.WaitGroup
}

func New(spec string, runner Runner, timeout time.Duration) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		runner:  runner,
		spec:    spec,
		timeout: timeout,
	}
}

// Start registers the cycle and starts the cron loop. One cycle also runs
// immediately so a fresh deployment is populated without waiting a tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	log.Info().Str("spec", s.spec).Msg("scrape scheduler started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runOnce(ctx)
	}()
	return nil
}

// Stop stops scheduling and waits for a running cycle to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Info().Msg("scrape scheduler stopped")
}

func (s *Scheduler) runOnce(parent context.Context) {
	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.timeout)
		defer cancel()
	}
	if _, err := s.runner.Run(ctx); err != nil {
		log.Error().Err(err).Msg("scrape cycle failed")
	}
}

// cronLogger routes cron's own messages to the global logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug().KeysAndValues(keysAndValues...).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error().Err(err).KeysAndValues(keysAndValues...).Msg("cron: " + msg)
}
