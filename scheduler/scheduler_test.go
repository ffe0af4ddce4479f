package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingMaintainer struct {
	created   atomic.Int32
	reindexed atomic.Int32
	block     chan struct{}
}

func (m *countingMaintainer) CreateOrUpdateIndex(ctx context.Context) error {
	m.created.Add(1)
	return nil
}

func (m *countingMaintainer) ReindexIfNeeded(ctx context.Context) error {
	m.reindexed.Add(1)
	if m.block != nil {
		<-m.block
	}
	return nil
}

func TestSchedulerRunsMaintenanceOnInterval(t *testing.T) {
	maintainer := &countingMaintainer{}
	s := New(maintainer, 10*time.Millisecond, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	if maintainer.created.Load() != 1 {
		t.Errorf("expected one initial index creation, got %d", maintainer.created.Load())
	}
	if maintainer.reindexed.Load() < 2 {
		t.Errorf("expected at least 2 maintenance rounds, got %d", maintainer.reindexed.Load())
	}
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	maintainer := &countingMaintainer{block: make(chan struct{})}
	s := New(maintainer, 5*time.Millisecond, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	// The first round blocks; later ticks must not pile up behind it.
	time.Sleep(50 * time.Millisecond)
	close(maintainer.block)
	cancel()
	<-done

	if got := maintainer.reindexed.Load(); got != 1 {
		t.Errorf("expected exactly 1 in-flight maintenance round, got %d", got)
	}
}
