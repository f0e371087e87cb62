package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/metrics"
)

// PersisterConfig contains configuration for the persister.
type PersisterConfig struct {
	// QueueSize is the capacity of the operation queue.
	// Default: 256
	QueueSize int

	// WriteTimeout bounds how long an enqueue waits for queue space and how
	// long a single store operation may take.
	// Default: 2 seconds
	WriteTimeout time.Duration

	// Quality is the JPEG quality used for frames delivered as raw images.
	// Default: 80
	Quality int
}

// DefaultPersisterConfig returns the default persister configuration.
func DefaultPersisterConfig() *PersisterConfig {
	return &PersisterConfig{
		QueueSize:    config.DefaultPersistQueueSize,
		WriteTimeout: config.DefaultWriteTimeout,
		Quality:      config.DefaultArtifactQuality,
	}
}

// PersisterConfigFrom builds a PersisterConfig from the storage section.
func PersisterConfigFrom(cfg *config.StorageConfig) *PersisterConfig {
	return &PersisterConfig{
		QueueSize:    cfg.PersistQueueSize,
		WriteTimeout: cfg.WriteTimeout,
		Quality:      cfg.ArtifactQuality,
	}
}

type opKind int

const (
	opPut opKind = iota
	opDelete
	opBarrier
)

type operation struct {
	kind  opKind
	key   string
	frame *recording.Frame
	done  chan struct{}
}

// Persister applies store operations from a single bounded FIFO queue.
//
// Puts and deletes for the same key are applied in submission order, so a
// delete queued for an evicted frame always runs after that frame's write.
type Persister struct {
	store   recording.ArtifactStore
	config  *PersisterConfig
	queue   chan operation
	closing chan struct{}
	mu      sync.RWMutex
	closed  bool
	once    sync.Once
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Collector

	written atomic.Uint64
	deleted atomic.Uint64
	failed  atomic.Uint64
}

// NewPersister creates a persister and starts its writer goroutine.
func NewPersister(store recording.ArtifactStore, cfg *PersisterConfig, collector *metrics.Collector) *Persister {
	if cfg == nil {
		cfg = DefaultPersisterConfig()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = config.DefaultPersistQueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultWriteTimeout
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = config.DefaultArtifactQuality
	}

	p := &Persister{
		store:   store,
		config:  cfg,
		queue:   make(chan operation, cfg.QueueSize),
		closing: make(chan struct{}),
		logger:  slog.Default().With("component", "recording.persister"),
		metrics: collector,
	}

	p.wg.Add(1)
	go p.worker()

	p.logger.Debug("persister started",
		"queue_size", cfg.QueueSize,
		"write_timeout", cfg.WriteTimeout,
	)

	return p
}

// Submit queues the frame to be written under key. It returns once the
// write is queued, not when it is applied. If the queue stays full for
// longer than WriteTimeout the write is dropped and ErrQueueFull returned.
func (p *Persister) Submit(ctx context.Context, key string, frame *recording.Frame) error {
	return p.enqueue(ctx, operation{kind: opPut, key: key, frame: frame})
}

// Delete queues deletion of key behind every previously queued operation.
func (p *Persister) Delete(ctx context.Context, key string) error {
	return p.enqueue(ctx, operation{kind: opDelete, key: key})
}

// Flush blocks until every operation queued before the call has been
// applied. On a closing persister it waits for the drain to finish.
func (p *Persister) Flush(ctx context.Context) error {
	done := make(chan struct{})

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.wg.Wait()
		return nil
	}
	select {
	case p.queue <- operation{kind: opBarrier, done: done}:
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	case <-p.closing:
		p.mu.RUnlock()
		p.wg.Wait()
		return nil
	}
	p.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) enqueue(ctx context.Context, op operation) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return recording.ErrClosed
	}

	timer := time.NewTimer(p.config.WriteTimeout)
	defer timer.Stop()

	select {
	case p.queue <- op:
		p.metrics.UpdatePersistQueueDepth(len(p.queue))
		return nil
	case <-timer.C:
		p.logger.Error("persistence queue full, dropping operation",
			"key", op.key,
			"queue_capacity", p.config.QueueSize,
		)
		if op.kind == opPut {
			p.metrics.RecordFrameDropped(metrics.DropQueueFull)
		}
		return fmt.Errorf("%w: key %s", recording.ErrQueueFull, op.key)
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closing:
		return recording.ErrClosed
	}
}

// Pending returns the number of queued operations.
func (p *Persister) Pending() int {
	return len(p.queue)
}

// Stats returns the number of applied writes, applied deletes, and failed
// operations.
func (p *Persister) Stats() (written, deleted, failed uint64) {
	return p.written.Load(), p.deleted.Load(), p.failed.Load()
}

// Close stops accepting operations, applies everything already queued, and
// waits for the writer goroutine to exit.
func (p *Persister) Close() error {
	p.once.Do(func() {
		close(p.closing)

		// Wait for in-flight enqueues to finish before closing the queue.
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()

		p.wg.Wait()

		written, deleted, failed := p.Stats()
		p.logger.Info("persister shut down",
			"written", written,
			"deleted", deleted,
			"failed", failed,
		)
	})
	return nil
}

func (p *Persister) worker() {
	defer p.wg.Done()

	for op := range p.queue {
		p.apply(op)
		p.metrics.UpdatePersistQueueDepth(len(p.queue))
	}
}

func (p *Persister) apply(op operation) {
	switch op.kind {
	case opBarrier:
		close(op.done)

	case opPut:
		ctx, cancel := context.WithTimeout(context.Background(), p.config.WriteTimeout)
		defer cancel()

		data, err := encodeFrame(op.frame, p.config.Quality)
		if err == nil {
			err = p.store.Put(ctx, &recording.Artifact{Key: op.key, Data: data, Aux: op.frame.Aux})
		}
		if err != nil {
			p.failed.Add(1)
			p.metrics.RecordArtifactError("put")
			p.logger.Error("failed to write artifact", "key", op.key, "error", err)
			return
		}
		p.written.Add(1)

	case opDelete:
		ctx, cancel := context.WithTimeout(context.Background(), p.config.WriteTimeout)
		defer cancel()

		if err := p.store.Delete(ctx, op.key); err != nil {
			p.failed.Add(1)
			p.metrics.RecordArtifactError("delete")
			p.logger.Warn("failed to delete artifact", "key", op.key, "error", err)
			return
		}
		p.deleted.Add(1)
	}
}

// encodeFrame returns the JPEG bytes of a frame, encoding raw images at
// the given quality.
func encodeFrame(frame *recording.Frame, quality int) ([]byte, error) {
	if frame == nil {
		return nil, errors.New("nil frame")
	}
	if frame.Encoded != nil {
		return frame.Encoded, nil
	}
	if frame.Image == nil {
		return nil, errors.New("frame has neither encoded data nor an image")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
