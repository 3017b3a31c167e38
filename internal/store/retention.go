package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionScheduler removes documents older than a retention period on a
// cron schedule.
type RetentionScheduler struct {
	store    Store
	days     int
	schedule string
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	stop    chan struct{}
	running bool
	logger  *slog.Logger
}

// NewRetentionScheduler prunes documents older than days, running on the
// standard cron expression schedule. days <= 0 disables pruning.
func NewRetentionScheduler(store Store, days int, schedule string, logger *slog.Logger) *RetentionScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionScheduler{
		store:    store,
		days:     days,
		schedule: schedule,
		now:      time.Now,
		cron:     cron.New(),
		logger:   logger.With("component", "store.retention"),
	}
}

// Prune removes expired documents once and returns how many were removed.
func (r *RetentionScheduler) Prune(ctx context.Context) (int64, error) {
	if r.days <= 0 {
		return 0, nil
	}
	cutoff := r.now().AddDate(0, 0, -r.days)
	n, err := r.store.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Info("pruned documents", "deleted_count", n, "cutoff", cutoff)
	} else {
		r.logger.Debug("no documents to prune", "cutoff", cutoff)
	}
	return n, nil
}

// Start schedules Prune and returns immediately. The scheduler stops when ctx
// is cancelled or Stop is called. Start does nothing when retention is off.
func (r *RetentionScheduler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.days <= 0 {
		r.logger.Info("retention disabled, skipping scheduler")
		return nil
	}
	if r.running {
		return nil
	}

	id, err := r.cron.AddFunc(r.schedule, func() {
		if _, err := r.Prune(ctx); err != nil {
			r.logger.Error("scheduled pruning failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.schedule, err)
	}

	r.entry = id
	r.stop = make(chan struct{})
	r.cron.Start()
	r.running = true
	r.logger.Info("retention scheduler started", "schedule", r.schedule, "retention_days", r.days)

	go func(stop <-chan struct{}) {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-stop:
		}
	}(r.stop)
	return nil
}

// Stop halts the scheduler and waits for a running prune to finish.
func (r *RetentionScheduler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.cron.Remove(r.entry)
	close(r.stop)
	r.running = false
	r.logger.Info("retention scheduler stopped")
}

// NextRun returns the next scheduled prune, or the zero time when the
// scheduler is not running.
func (r *RetentionScheduler) NextRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return time.Time{}
	}
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
