package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pi3123/SmartDashcam/pkg/clock"
	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/catalog"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/logging"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/metrics"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/tracing"
)

// Snapshotter provides a consistent copy of the retention index whose
// artifacts stay readable until release is called.
type Snapshotter interface {
	Hold() (snapshot []recording.FrameRecord, release func())
}

// Flusher waits until every queued artifact write has been applied.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Reader loads artifacts.
type Reader interface {
	Get(ctx context.Context, key string) (*recording.Artifact, error)
}

// Progress receives per-frame export progress. It matches the CLI
// progress reporter.
type Progress interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// Config contains configuration for the export pipeline.
type Config struct {
	// OutputDir receives exported videos. It is created if missing.
	OutputDir string

	// FPS is the nominal capture rate used to size the window.
	FPS int

	// QueueSize is the capacity of the reader/writer handoff queue.
	QueueSize int

	// Location is the time zone used for output names.
	Location *time.Location
}

// ConfigFrom builds a pipeline Config from the export and camera sections.
func ConfigFrom(export *config.ExportConfig, camera *config.CameraConfig) *Config {
	return &Config{
		OutputDir: export.OutputDir,
		FPS:       camera.FPS,
		QueueSize: export.QueueSize,
		Location:  export.Location(),
	}
}

// Result describes a completed export.
type Result struct {
	JobID    string              `json:"job_id"`
	Path     string              `json:"path"`
	Frames   int                 `json:"frames"`
	First    recording.Timestamp `json:"first_timestamp"`
	Last     recording.Timestamp `json:"last_timestamp"`
	Duration time.Duration       `json:"duration"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for "now" and the future-frames wait.
func WithClock(c clock.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithFlusher makes every export wait for pending artifact writes after
// taking its snapshot.
func WithFlusher(f Flusher) Option {
	return func(p *Pipeline) { p.flusher = f }
}

// WithCatalog records every export job.
func WithCatalog(c catalog.Catalog) Option {
	return func(p *Pipeline) { p.catalog = c }
}

// WithMetrics reports export outcomes to collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = collector }
}

// WithTracer records one span per export.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// ExportOption configures a single export.
type ExportOption func(*exportOptions)

type exportOptions struct {
	progress Progress
}

// WithProgress reports per-frame progress of one export.
func WithProgress(progress Progress) ExportOption {
	return func(o *exportOptions) { o.progress = progress }
}

// Pipeline exports windows of retained history. Exports run one at a time.
type Pipeline struct {
	config  *Config
	buffer  Snapshotter
	store   Reader
	encoder Encoder
	flusher Flusher
	clock   clock.Clock
	catalog catalog.Catalog
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
	sem     chan struct{}
}

// New creates an export pipeline reading frames listed by buffer from store.
func New(cfg *Config, buffer Snapshotter, store Reader, encoder Encoder, opts ...Option) *Pipeline {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = config.DefaultExportQueueSize
	}
	if cfg.FPS <= 0 {
		cfg.FPS = config.DefaultCameraFPS
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	p := &Pipeline{
		config:  cfg,
		buffer:  buffer,
		store:   store,
		encoder: encoder,
		clock:   clock.Real(),
		tracer:  tracing.Noop(),
		logger:  slog.Default().With("component", "recording.export"),
		sem:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Export writes the requested window of history to a new video file.
//
// Failures are returned as *recording.ExportError; use errors.Is with
// recording.ErrInvalidWindow or recording.ErrEmptyExport to tell the
// resolution failures apart.
func (p *Pipeline) Export(ctx context.Context, req recording.ExportRequest, opts ...ExportOption) (*Result, error) {
	var o exportOptions
	for _, opt := range opts {
		opt(&o)
	}

	jobID := uuid.New().String()
	ctx = logging.WithJobID(ctx, jobID)

	ctx, span := p.tracer.Start(ctx, "export")
	defer span.End()
	tracing.SetExportRequestAttributes(span, jobID, req.WindowMinutes, req.WaitForFutureFrames)

	started := p.clock.Now()
	result, err := p.export(ctx, jobID, req, o.progress)
	finished := p.clock.Now()

	job := &catalog.Job{
		ID:            jobID,
		WindowMinutes: req.WindowMinutes,
		Status:        catalog.StatusSuccess,
		StartedAt:     started,
		FinishedAt:    finished,
	}
	frames := 0
	if result != nil {
		result.Duration = finished.Sub(started)
		frames = result.Frames
		job.OutputPath = result.Path
		job.FirstTimestamp = result.First
		job.LastTimestamp = result.Last
		job.FrameCount = result.Frames
		tracing.SetExportResultAttributes(span, result.Path, result.Frames)
	}
	if err != nil {
		job.Status = catalog.StatusFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			job.Status = catalog.StatusCancelled
		}
		job.Error = err.Error()
	}
	tracing.SetStatus(span, err)

	p.metrics.RecordExport(metricStatus(err), finished.Sub(started), frames)
	p.recordJob(ctx, job)

	if err != nil {
		p.logger.WarnContext(ctx, "export failed", "error", err)
		return nil, err
	}

	p.logger.InfoContext(ctx, "export completed",
		"path", result.Path,
		"frames", result.Frames,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (p *Pipeline) export(ctx context.Context, jobID string, req recording.ExportRequest, progress Progress) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, recording.NewExportError(jobID, "resolve", err)
	}

	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return nil, recording.NewExportError(jobID, "wait", ctx.Err())
	}

	if req.WaitForFutureFrames {
		wait := time.Duration(req.WindowMinutes / 2 * float64(time.Minute))
		p.logger.InfoContext(ctx, "waiting for future frames", "wait", wait)
		select {
		case <-p.clock.After(wait):
		case <-ctx.Done():
			return nil, recording.NewExportError(jobID, "wait", ctx.Err())
		}
	}

	snapshot, release := p.buffer.Hold()
	defer release()
	if p.flusher != nil {
		if err := p.flusher.Flush(ctx); err != nil {
			return nil, recording.NewExportError(jobID, "resolve", fmt.Errorf("failed to flush pending writes: %w", err))
		}
	}

	window, err := ResolveWindow(snapshot, p.config.FPS, req.WindowMinutes, p.clock.Now())
	if err != nil {
		return nil, recording.NewExportError(jobID, "resolve", err)
	}
	if len(window) == 0 {
		return nil, recording.NewExportError(jobID, "resolve", recording.ErrEmptyExport)
	}

	if err := os.MkdirAll(p.config.OutputDir, 0o755); err != nil {
		return nil, recording.NewExportError(jobID, "open", err)
	}
	path := filepath.Join(p.config.OutputDir, OutputName(window[0].Timestamp, p.config.Location, p.encoder.Extension()))

	writer, err := p.encoder.Create(ctx, path)
	if err != nil {
		return nil, recording.NewExportError(jobID, "open", err)
	}

	p.logger.DebugContext(ctx, "export window resolved",
		"frames", len(window),
		"first", window[0].Timestamp,
		"last", window[len(window)-1].Timestamp,
		"path", path,
	)

	if progress != nil {
		progress.Start(int64(len(window)))
	}

	stage, err := p.transfer(ctx, window, writer, progress)
	if err == nil {
		stage = "finalize"
		err = writer.Close()
	}
	if err != nil {
		if abortErr := writer.Abort(); abortErr != nil {
			p.logger.WarnContext(ctx, "failed to remove partial export", "path", path, "error", abortErr)
		}
		if progress != nil {
			progress.Error(err)
		}
		return nil, recording.NewExportError(jobID, stage, err)
	}

	if progress != nil {
		progress.Finish()
	}

	return &Result{
		JobID:  jobID,
		Path:   path,
		Frames: len(window),
		First:  window[0].Timestamp,
		Last:   window[len(window)-1].Timestamp,
	}, nil
}

// transfer runs the reader and writer stages. The reader loads artifacts in
// window order onto a bounded queue and closes it when done; the writer
// appends frames in the order received. The first failure in either stage
// stops both. It returns the failing stage and its error.
func (p *Pipeline) transfer(ctx context.Context, window []recording.FrameRecord, writer OutputWriter, progress Progress) (string, error) {
	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan []byte, p.config.QueueSize)
	var readErr, writeErr error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer close(queue)

		for _, rec := range window {
			artifact, err := p.store.Get(stageCtx, rec.ArtifactKey)
			if err != nil {
				readErr = err
				cancel()
				return
			}
			// Only the primary track is exported.
			select {
			case queue <- artifact.Data:
			case <-stageCtx.Done():
				return
			}
		}
	}()

	go func() {
		defer wg.Done()

		written := 0
		for data := range queue {
			if err := writer.WriteFrame(data); err != nil {
				writeErr = err
				cancel()
				return
			}
			written++
			if progress != nil {
				progress.Update(int64(written))
			}
		}
	}()

	wg.Wait()

	switch {
	case ctx.Err() != nil:
		return "cancel", ctx.Err()
	case writeErr != nil:
		return "write", writeErr
	case readErr != nil:
		return "read", readErr
	}
	return "", nil
}

func (p *Pipeline) recordJob(ctx context.Context, job *catalog.Job) {
	if p.catalog == nil {
		return
	}
	if err := p.catalog.RecordJob(context.WithoutCancel(ctx), job); err != nil {
		p.logger.WarnContext(ctx, "failed to record export job", "error", err)
	}
}

func metricStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, recording.ErrInvalidWindow):
		return "invalid_window"
	case errors.Is(err, recording.ErrEmptyExport):
		return "empty"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
