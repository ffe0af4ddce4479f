package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Maintainer performs one round of vector index maintenance.
type Maintainer interface {
	CreateOrUpdateIndex(ctx context.Context) error
	ReindexIfNeeded(ctx context.Context) error
}

// Scheduler periodically rebalances the vector index as the corpus
// grows. A run that overlaps the previous one is skipped.
type Scheduler struct {
	maintainer Maintainer
	interval   time.Duration
	logger     *slog.Logger
	running    atomic.Bool
}

func New(maintainer Maintainer, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		maintainer: maintainer,
		interval:   interval,
		logger:     logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting index maintenance scheduler",
		slog.Duration("interval", s.interval))

	if err := s.maintainer.CreateOrUpdateIndex(ctx); err != nil {
		s.logger.Error("Initial index creation failed",
			slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping index maintenance scheduler")
			return
		case <-ticker.C:
			go s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		// Previous maintenance round still in flight.
		return
	}
	defer s.running.Store(false)

	if err := s.maintainer.ReindexIfNeeded(ctx); err != nil {
		s.logger.Error("Index maintenance failed",
			slog.String("error", err.Error()))
		return
	}
	s.logger.Info("Index maintenance round completed")
}
