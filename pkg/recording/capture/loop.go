package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/pi3123/SmartDashcam/pkg/clock"
	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/retention"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/logging"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/metrics"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/tracing"
)

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock used to stamp frames.
func WithClock(c clock.Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithLogger sets the loop's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithMetrics reports captured and dropped frames to collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(l *Loop) { l.metrics = collector }
}

// WithTracer records one span per capture session.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(l *Loop) { l.tracer = tracer }
}

// Loop pulls frames from a Source, stamps them with the capture time, hands
// them to the persister, and appends them to the retention manager.
//
// A Loop is either stopped or running. A source failure ends the producer
// and is reported by Err; the loop stays running until Stop is called.
type Loop struct {
	source    recording.Source
	persister *Persister
	manager   *retention.Manager
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *metrics.Collector
	tracer    *tracing.Tracer

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	sessionID string

	errMu sync.Mutex
	err   error

	frames  atomic.Uint64
	dropped atomic.Uint64
}

// NewLoop creates a stopped capture loop.
func NewLoop(source recording.Source, persister *Persister, manager *retention.Manager, opts ...Option) *Loop {
	done := make(chan struct{})
	close(done)

	l := &Loop{
		source:    source,
		persister: persister,
		manager:   manager,
		clock:     clock.Real(),
		logger:    slog.Default().With("component", "recording.capture"),
		tracer:    tracing.Noop(),
		done:      done,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start opens the source and starts the producer goroutine. The producer
// keeps ctx's values but not its cancellation; only Stop ends it.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return recording.ErrAlreadyRunning
	}

	if err := l.source.Open(ctx); err != nil {
		return recording.NewCaptureError(l.source.Name(), 0, err)
	}

	l.setErr(nil)
	l.sessionID = uuid.New().String()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	runCtx = logging.WithSessionID(runCtx, l.sessionID)

	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true

	go l.run(runCtx, l.done)

	l.logger.InfoContext(runCtx, "capture loop started",
		"source", l.source.Name(),
		"capacity", l.manager.Capacity(),
	)
	return nil
}

// Stop ends the producer, waits for it to exit, flushes pending writes, and
// closes the source. If ctx expires first Stop returns
// recording.ErrStopTimeout and the loop stays running; Stop may be called
// again. Stopping a stopped loop is a no-op.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return nil
	}

	l.cancel()

	select {
	case <-l.done:
	case <-ctx.Done():
		l.logger.Warn("capture loop did not stop in time",
			"source", l.source.Name(),
			"error", ctx.Err(),
		)
		return fmt.Errorf("%w: %v", recording.ErrStopTimeout, ctx.Err())
	}

	var errs []error
	if err := l.persister.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush pending writes: %w", err))
	}
	if err := l.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close source: %w", err))
	}

	l.running = false

	l.logger.Info("capture loop stopped",
		"source", l.source.Name(),
		"session_id", l.sessionID,
		"frames", l.frames.Load(),
		"dropped", l.dropped.Load(),
	)

	return errors.Join(errs...)
}

// Restart stops the loop, clears the retained history, and starts again.
func (l *Loop) Restart(ctx context.Context) error {
	if err := l.Stop(ctx); err != nil {
		return err
	}
	if err := l.manager.Clear(ctx); err != nil {
		l.logger.Warn("clear during restart left artifacts behind", "error", err)
	}
	return l.Start(ctx)
}

// Running reports whether the loop has been started and not stopped.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Done returns a channel closed when the current producer exits. For a
// loop that was never started it is already closed.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Err returns the terminal error of the last session, or nil.
func (l *Loop) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.err
}

// Frames returns the number of frames appended to the buffer.
func (l *Loop) Frames() uint64 { return l.frames.Load() }

// Dropped returns the number of frames discarded before reaching the buffer.
func (l *Loop) Dropped() uint64 { return l.dropped.Load() }

// SessionID returns the ID of the current or last capture session.
func (l *Loop) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

func (l *Loop) setErr(err error) {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	l.err = err
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ctx, span := l.tracer.Start(ctx, "capture.session")
	defer span.End()
	tracing.SetCaptureAttributes(span, l.source.Name(), logging.GetSessionID(ctx))

	// Persistence must outlive the producer so that the final evictions
	// still reach the store.
	persistCtx := context.WithoutCancel(ctx)

	// Frames not newer than the retained tail would be written only to be
	// rejected and deleted, so they are dropped before persistence.
	var last recording.Timestamp
	if newest, ok := l.manager.Newest(); ok {
		last = newest.Timestamp
	}
	var seq uint64

	for {
		frame, err := l.source.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			captureErr := recording.NewCaptureError(l.source.Name(), seq, err)
			l.setErr(captureErr)
			tracing.SetError(span, captureErr)
			l.logger.ErrorContext(ctx, "capture source failed", "error", captureErr)
			return
		}
		seq++

		ts := recording.FromTime(l.clock.Now())
		if ts <= last {
			l.drop(metrics.DropNonMonotonic)
			l.logger.DebugContext(ctx, "dropping frame with non-increasing timestamp",
				"timestamp", ts,
				"previous", last,
			)
			continue
		}
		last = ts

		rec := recording.NewFrameRecord(ts)
		if err := l.persister.Submit(persistCtx, rec.ArtifactKey, frame); err != nil {
			// The persister counts queue-full drops itself.
			l.dropped.Add(1)
			continue
		}

		if err := l.manager.Append(persistCtx, rec); err != nil {
			l.drop(metrics.DropRejected)
			l.logger.WarnContext(ctx, "retention rejected frame", "key", rec.ArtifactKey, "error", err)
			if err := l.persister.Delete(persistCtx, rec.ArtifactKey); err != nil {
				l.logger.WarnContext(ctx, "failed to queue delete for rejected frame", "key", rec.ArtifactKey, "error", err)
			}
			continue
		}

		l.frames.Add(1)
		l.metrics.RecordFrameCaptured()
	}
}

func (l *Loop) drop(reason string) {
	l.dropped.Add(1)
	l.metrics.RecordFrameDropped(reason)
}
