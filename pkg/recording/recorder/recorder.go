package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/clock"
	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/capture"
	"github.com/pi3123/SmartDashcam/pkg/recording/catalog"
	"github.com/pi3123/SmartDashcam/pkg/recording/export"
	"github.com/pi3123/SmartDashcam/pkg/recording/recovery"
	"github.com/pi3123/SmartDashcam/pkg/recording/retention"
	"github.com/pi3123/SmartDashcam/pkg/recording/storage"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/health"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/metrics"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/tracing"
)

// Deps overrides the components New would otherwise build from config.
// Zero fields are built from config.
type Deps struct {
	Source  recording.Source
	Store   recording.ArtifactStore
	Catalog catalog.Catalog
	Encoder export.Encoder
	Clock   clock.Clock
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
}

// Status is a point-in-time view of the recorder.
type Status struct {
	Running       bool                `json:"running"`
	SessionID     string              `json:"session_id,omitempty"`
	Source        string              `json:"source"`
	Frames        uint64              `json:"frames_captured"`
	Dropped       uint64              `json:"frames_dropped"`
	Buffered      int                 `json:"buffered_frames"`
	Capacity      int                 `json:"capacity"`
	Oldest        recording.Timestamp `json:"oldest_timestamp,omitempty"`
	Newest        recording.Timestamp `json:"newest_timestamp,omitempty"`
	PendingWrites int                 `json:"pending_writes"`
	LastError     string              `json:"last_error,omitempty"`
	NextSweep     *time.Time          `json:"next_sweep,omitempty"`
}

// Recorder is the assembled rolling recorder.
type Recorder struct {
	config    *config.Config
	source    recording.Source
	store     recording.ArtifactStore
	catalog   catalog.Catalog
	manager   *retention.Manager
	persister *capture.Persister
	loop      *capture.Loop
	pipeline  *export.Pipeline
	janitor   *retention.Janitor
	scanner   *recovery.Scanner
	logger    *slog.Logger

	ownsCatalog bool

	mu        sync.Mutex
	recovered bool
	closed    bool
}

// New assembles a stopped recorder.
func New(cfg *config.Config, deps Deps) (*Recorder, error) {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Tracer == nil {
		deps.Tracer = tracing.Noop()
	}

	r := &Recorder{
		config: cfg,
		logger: slog.Default().With("component", "recording.recorder"),
	}

	var err error
	r.store = deps.Store
	if r.store == nil {
		if r.store, err = storage.NewFileStore(storage.FileConfigFrom(&cfg.Storage)); err != nil {
			return nil, fmt.Errorf("failed to create artifact store: %w", err)
		}
	}

	r.source = deps.Source
	if r.source == nil {
		if r.source, err = NewSource(cfg, deps.Clock); err != nil {
			return nil, err
		}
	}

	encoder := deps.Encoder
	if encoder == nil {
		if encoder, err = export.NewEncoder(&cfg.Export, &cfg.Camera); err != nil {
			return nil, err
		}
	}

	r.catalog = deps.Catalog
	if r.catalog == nil {
		if cfg.Export.CatalogPath == "" {
			r.catalog = catalog.NewMemoryCatalog()
		} else if r.catalog, err = catalog.NewSQLiteCatalog(cfg.Export.CatalogPath); err != nil {
			return nil, fmt.Errorf("failed to open export catalog: %w", err)
		}
		r.ownsCatalog = true
	}

	r.persister = capture.NewPersister(r.store, capture.PersisterConfigFrom(&cfg.Storage), deps.Metrics)

	r.manager, err = retention.New(cfg.RetentionCapacity(), r.persister, retention.WithMetrics(deps.Metrics))
	if err != nil {
		r.persister.Close()
		r.closeCatalog()
		return nil, err
	}

	r.loop = capture.NewLoop(r.source, r.persister, r.manager,
		capture.WithClock(deps.Clock),
		capture.WithMetrics(deps.Metrics),
		capture.WithTracer(deps.Tracer),
	)

	r.pipeline = export.New(export.ConfigFrom(&cfg.Export, &cfg.Camera), r.manager, r.store, encoder,
		export.WithClock(deps.Clock),
		export.WithFlusher(r.persister),
		export.WithCatalog(r.catalog),
		export.WithMetrics(deps.Metrics),
		export.WithTracer(deps.Tracer),
	)

	r.janitor = retention.NewJanitor(r.manager, r.store, cfg.Retention.SweepSchedule, deps.Metrics)
	r.scanner = recovery.NewScanner(r.store)

	return r, nil
}

// Recover rebuilds the retention index from the artifact store. It runs at
// most once per Recorder; later calls return nil without scanning.
func (r *Recorder) Recover(ctx context.Context) (*recovery.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recoverLocked(ctx)
}

func (r *Recorder) recoverLocked(ctx context.Context) (*recovery.Result, error) {
	if r.recovered {
		return nil, nil
	}

	result, err := r.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.manager.Rehydrate(ctx, result.Records); err != nil {
		return nil, fmt.Errorf("failed to rehydrate retention index: %w", err)
	}
	r.recovered = true

	r.logger.InfoContext(ctx, "retention index recovered",
		"frames", len(result.Records),
		"retained", r.manager.Len(),
		"skipped", len(result.Skipped),
		"duplicates", len(result.Duplicates),
	)
	return result, nil
}

// Start recovers the index on first use, starts capturing, and schedules
// the orphan sweep. The sweep stops when ctx is cancelled.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return recording.ErrClosed
	}
	if _, err := r.recoverLocked(ctx); err != nil {
		return err
	}
	if err := r.loop.Start(ctx); err != nil {
		return err
	}
	if err := r.janitor.Start(ctx); err != nil {
		r.logger.Warn("failed to start retention janitor", "error", err)
	} else if next := r.janitor.NextRun(); next != nil {
		r.logger.Debug("retention janitor scheduled", "next_run", next)
	}
	return nil
}

// Stop stops capturing and the orphan sweep. It waits up to the configured
// camera stop timeout for the producer to exit.
func (r *Recorder) Stop(ctx context.Context) error {
	r.janitor.Stop()

	ctx, cancel := r.stopContext(ctx)
	defer cancel()
	return r.loop.Stop(ctx)
}

// Restart stops capturing, clears the retained history, and starts again.
// Like Stop it gives up with recording.ErrStopTimeout once the camera stop
// timeout passes.
func (r *Recorder) Restart(ctx context.Context) error {
	ctx, cancel := r.stopContext(ctx)
	defer cancel()
	return r.loop.Restart(ctx)
}

func (r *Recorder) stopContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := r.config.Camera.StopTimeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// Clear deletes every retained frame. Capture keeps running.
func (r *Recorder) Clear(ctx context.Context) error {
	if err := r.manager.Clear(ctx); err != nil {
		return err
	}
	return r.persister.Flush(ctx)
}

// Export writes the last req.WindowMinutes of history to a video file.
func (r *Recorder) Export(ctx context.Context, req recording.ExportRequest, opts ...export.ExportOption) (*export.Result, error) {
	return r.pipeline.Export(ctx, req, opts...)
}

// Sweep deletes orphaned artifacts once.
func (r *Recorder) Sweep(ctx context.Context) (int, error) {
	return r.janitor.Sweep(ctx)
}

// Frames returns the retained frame records, oldest first.
func (r *Recorder) Frames() []recording.FrameRecord {
	return r.manager.Snapshot()
}

// Jobs lists recorded exports, newest first.
func (r *Recorder) Jobs(ctx context.Context, limit int) ([]*catalog.Job, error) {
	return r.catalog.ListJobs(ctx, limit)
}

// Done is closed when the capture producer exits.
func (r *Recorder) Done() <-chan struct{} {
	return r.loop.Done()
}

// Err returns the error that ended the capture producer, if any.
func (r *Recorder) Err() error {
	return r.loop.Err()
}

// Running reports whether capture is running.
func (r *Recorder) Running() bool {
	return r.loop.Running()
}

// Status returns a snapshot of the recorder state.
func (r *Recorder) Status() Status {
	s := Status{
		Running:       r.loop.Running(),
		SessionID:     r.loop.SessionID(),
		Source:        r.source.Name(),
		Frames:        r.loop.Frames(),
		Dropped:       r.loop.Dropped(),
		Buffered:      r.manager.Len(),
		Capacity:      r.manager.Capacity(),
		PendingWrites: r.persister.Pending(),
	}
	if r.janitor.IsRunning() {
		s.NextSweep = r.janitor.NextRun()
	}
	if oldest, ok := r.manager.Oldest(); ok {
		s.Oldest = oldest.Timestamp
	}
	if newest, ok := r.manager.Newest(); ok {
		s.Newest = newest.Timestamp
	}
	if err := r.loop.Err(); err != nil {
		s.LastError = err.Error()
	}
	return s
}

// RegisterHealthChecks adds the recorder's readiness checks to checker.
func (r *Recorder) RegisterHealthChecks(checker *health.Checker) {
	checker.RegisterCheck("capture", health.Condition(r.loop.Running, "capture loop not running"))
	checker.RegisterCheck("capture_source", func(ctx context.Context) error {
		return r.loop.Err()
	})
	if fs, ok := r.store.(*storage.FileStore); ok {
		checker.RegisterCheck("frames_dir", health.DirWritable(fs.Dir()))
	}
	checker.RegisterOptionalCheck("catalog", r.catalog.Ping)
}

// Close stops the recorder and releases everything it owns.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	var errs []error
	if err := r.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := r.persister.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close persister: %w", err))
	}
	if err := r.closeCatalog(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Recorder) closeCatalog() error {
	if !r.ownsCatalog {
		return nil
	}
	if err := r.catalog.Close(); err != nil {
		return fmt.Errorf("failed to close export catalog: %w", err)
	}
	return nil
}
