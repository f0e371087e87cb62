package recording

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWindow is returned when no retained frame covers the start
	// of the requested export window.
	ErrInvalidWindow = errors.New("start time invalid: no frame covers the requested window")

	// ErrEmptyExport is returned when the resolved export window holds no frames.
	ErrEmptyExport = errors.New("no frames to export")

	// ErrOutOfOrder is returned when a record does not advance the index tail.
	ErrOutOfOrder = errors.New("frame timestamp does not advance the index")

	// ErrAlreadyRunning is returned by Start on a running capture loop.
	ErrAlreadyRunning = errors.New("capture loop already running")

	// ErrStopTimeout is returned when the producer does not exit before the
	// stop deadline.
	ErrStopTimeout = errors.New("capture loop did not stop before deadline")

	// ErrQueueFull is returned when the persistence queue stays full for
	// longer than the write timeout.
	ErrQueueFull = errors.New("persistence queue full")

	// ErrClosed is returned by components used after Close.
	ErrClosed = errors.New("component closed")

	// ErrNotFound is wrapped by ArtifactError when a key does not exist.
	ErrNotFound = errors.New("artifact not found")
)

// CaptureError represents a failure of the capture source to produce a frame.
// It terminates the capture loop.
type CaptureError struct {
	Source string // Source name ("ffmpeg", "pattern", ...)
	Seq    uint64 // Frames read before the failure
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture error [source=%s, frames=%d]: %v", e.Source, e.Seq, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CaptureError) Unwrap() error {
	return e.Cause
}

// NewCaptureError creates a new CaptureError.
func NewCaptureError(source string, seq uint64, cause error) *CaptureError {
	return &CaptureError{
		Source: source,
		Seq:    seq,
		Cause:  cause,
	}
}

// ArtifactError represents a failed operation against the artifact store.
type ArtifactError struct {
	Op    string // "put", "get", "delete", "list"
	Key   string // Artifact key (empty for list)
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *ArtifactError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("artifact error [op=%s, key=%s]: %v", e.Op, e.Key, e.Cause)
	}
	return fmt.Sprintf("artifact error [op=%s]: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ArtifactError) Unwrap() error {
	return e.Cause
}

// NewArtifactError creates a new ArtifactError.
func NewArtifactError(op, key string, cause error) *ArtifactError {
	return &ArtifactError{
		Op:    op,
		Key:   key,
		Cause: cause,
	}
}

// ExportError represents an aborted export.
type ExportError struct {
	JobID string // Export job ID
	Stage string // "wait", "resolve", "open", "read", "write", "finalize", "cancel"
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [job_id=%s, stage=%s]: %v", e.JobID, e.Stage, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(jobID, stage string, cause error) *ExportError {
	return &ExportError{
		JobID: jobID,
		Stage: stage,
		Cause: cause,
	}
}
