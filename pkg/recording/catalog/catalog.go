package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/recording"
)

// ErrJobNotFound is returned by GetJob for an unknown ID.
var ErrJobNotFound = errors.New("export job not found")

// Status is the outcome of an export job.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job is one recorded export.
type Job struct {
	ID             string              `json:"id"`
	OutputPath     string              `json:"output_path,omitempty"`
	FirstTimestamp recording.Timestamp `json:"first_timestamp,omitempty"`
	LastTimestamp  recording.Timestamp `json:"last_timestamp,omitempty"`
	FrameCount     int                 `json:"frame_count"`
	WindowMinutes  float64             `json:"window_minutes"`
	Status         Status              `json:"status"`
	Error          string              `json:"error,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     time.Time           `json:"finished_at"`
}

// Duration returns how long the job ran.
func (j *Job) Duration() time.Duration {
	return j.FinishedAt.Sub(j.StartedAt)
}

// Catalog records export jobs. Implementations must be safe for concurrent use.
type Catalog interface {
	// RecordJob inserts or replaces a job.
	RecordJob(ctx context.Context, job *Job) error

	// ListJobs returns the most recent jobs first. limit <= 0 returns all.
	ListJobs(ctx context.Context, limit int) ([]*Job, error)

	// GetJob returns one job or ErrJobNotFound.
	GetJob(ctx context.Context, id string) (*Job, error)

	// Ping checks that the catalog is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the catalog.
	Close() error
}
