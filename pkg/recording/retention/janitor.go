package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/metrics"
)

// Store is the part of the artifact store the janitor needs.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// Janitor removes orphaned artifacts on a schedule.
//
// An orphan is a stored artifact strictly older than the manager's floor:
// the oldest retained frame, or the oldest eviction parked for a held
// snapshot. Such artifacts appear when a write lands after its index entry
// was evicted, or when the process died between a write and its eviction.
// Artifacts at or after the floor are never touched.
type Janitor struct {
	manager  *Manager
	store    Store
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	sweepMu  sync.Mutex
	logger   *slog.Logger
	metrics  *metrics.Collector
	running  bool
	stopped  chan struct{}
}

// NewJanitor creates a janitor sweeping store against manager's index.
// An empty schedule disables scheduled sweeps; Sweep still works.
func NewJanitor(manager *Manager, store Store, schedule string, collector *metrics.Collector) *Janitor {
	return &Janitor{
		manager:  manager,
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "recording.janitor"),
		metrics:  collector,
	}
}

// Start schedules the sweep using the standard five-field cron syntax.
//
// Common schedules:
//   - "*/10 * * * *" - Every 10 minutes
//   - "0 * * * *"    - Hourly
//
// The janitor stops when ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.schedule == "" {
		j.logger.Info("sweep schedule not configured, skipping janitor")
		return nil
	}
	if j.running {
		return nil
	}

	if _, err := cron.ParseStandard(j.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", j.schedule, err)
	}

	j.cron = cron.New()
	if _, err := j.cron.AddFunc(j.schedule, func() {
		j.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	j.cron.Start()
	j.running = true
	stopped := make(chan struct{})
	j.stopped = stopped

	j.logger.Info("retention janitor started", "schedule", j.schedule)

	go func() {
		select {
		case <-ctx.Done():
			j.stop(stopped)
		case <-stopped:
		}
	}()

	return nil
}

func (j *Janitor) runSweep(ctx context.Context) {
	removed, err := j.Sweep(ctx)
	if err != nil {
		j.logger.Error("scheduled sweep failed", "error", err)
		return
	}
	if removed > 0 {
		j.logger.Info("scheduled sweep completed", "removed_count", removed)
	} else {
		j.logger.Debug("scheduled sweep completed, no orphans found")
	}
}

// Sweep removes orphaned artifacts now and returns how many were removed.
// It does nothing while the index is empty, since there is no retained
// frame to compare against.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	j.sweepMu.Lock()
	defer j.sweepMu.Unlock()

	floor, ok := j.manager.Floor()
	if !ok {
		return 0, nil
	}

	keys, err := j.store.List(ctx)
	if err != nil {
		j.metrics.RecordArtifactError("list")
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		ts, err := recording.ParseKey(key)
		if err != nil {
			// Not one of ours
			continue
		}
		if ts >= floor {
			continue
		}

		if err := j.store.Delete(ctx, key); err != nil {
			j.metrics.RecordArtifactError("delete")
			j.logger.Warn("failed to delete orphaned artifact", "key", key, "error", err)
			continue
		}
		removed++
	}

	j.metrics.RecordOrphansSwept(removed)
	return removed, nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	j.stop(nil)
}

// stop ends the current session. A non-nil session only stops the session
// it identifies.
func (j *Janitor) stop(session chan struct{}) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if session != nil && session != j.stopped {
		return
	}
	if j.cron != nil && j.running {
		ctx := j.cron.Stop()
		<-ctx.Done()
		close(j.stopped)
		j.running = false
		j.logger.Info("retention janitor stopped")
	}
}

// IsRunning returns true if scheduled sweeps are active.
func (j *Janitor) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// NextRun returns the next scheduled sweep time, or nil if none is scheduled.
func (j *Janitor) NextRun() *time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries := j.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
