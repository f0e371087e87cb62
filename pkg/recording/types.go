package recording

import (
	"context"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a capture time in seconds since the Unix epoch.
// Values produced by FromTime carry microsecond resolution.
type Timestamp float64

// FromTime converts a wall-clock time to a Timestamp truncated to microseconds.
func FromTime(t time.Time) Timestamp {
	return Timestamp(float64(t.UnixMicro()) / 1e6)
}

// Time converts the timestamp back to a time.Time, rounded to the microsecond.
func (ts Timestamp) Time() time.Time {
	sec, frac := math.Modf(float64(ts))
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond))
}

// Key returns the artifact key for the timestamp: the shortest decimal
// representation that parses back to the same float.
func (ts Timestamp) Key() string {
	return strconv.FormatFloat(float64(ts), 'f', -1, 64)
}

// String implements fmt.Stringer.
func (ts Timestamp) String() string {
	return ts.Key()
}

// ParseKey parses an artifact key back into a timestamp. Stores strip their
// own file extension before calling it.
func ParseKey(key string) (Timestamp, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, fmt.Errorf("empty artifact key")
	}
	f, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid artifact key %q: %w", key, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("invalid artifact key %q: not a capture time", key)
	}
	return Timestamp(f), nil
}

// FrameRecord is one entry of the retention index. The artifact key is
// derived from the timestamp, so the mapping is 1:1.
type FrameRecord struct {
	Timestamp   Timestamp `json:"timestamp"`
	ArtifactKey string    `json:"artifact_key"`
}

// NewFrameRecord builds the record for a capture time.
func NewFrameRecord(ts Timestamp) FrameRecord {
	return FrameRecord{Timestamp: ts, ArtifactKey: ts.Key()}
}

// Timestamps extracts the ordered timestamps of a record slice.
func Timestamps(records []FrameRecord) []Timestamp {
	out := make([]Timestamp, len(records))
	for i, r := range records {
		out[i] = r.Timestamp
	}
	return out
}

// Frame is a single frame handed over by a Source.
//
// Sources either deliver an already encoded JPEG in Encoded or a raw Image
// that the persister encodes at the configured artifact quality.
type Frame struct {
	// Seq is the source's monotonic sequence number.
	Seq uint64

	// Encoded holds the JPEG bytes when the source produces them directly.
	Encoded []byte

	// Image holds the raw frame when Encoded is nil.
	Image image.Image

	// Aux is an optional secondary track (for example an audio chunk)
	// stored beside the primary artifact and deleted with it. Exports carry
	// only the primary track; Aux is never muxed into the output.
	Aux []byte
}

// Artifact is the persisted form of one frame.
type Artifact struct {
	Key  string
	Data []byte
	Aux  []byte
}

// ExportRequest asks for the last WindowMinutes of history.
type ExportRequest struct {
	// WindowMinutes is the length of the window ending at "now".
	WindowMinutes float64 `json:"window_minutes"`

	// WaitForFutureFrames delays resolution by WindowMinutes/2 so that the
	// window ends up centered on the moment of the request.
	WaitForFutureFrames bool `json:"wait_for_future_frames"`
}

// Validate checks the request parameters.
func (r ExportRequest) Validate() error {
	if math.IsNaN(r.WindowMinutes) || r.WindowMinutes <= 0 {
		return fmt.Errorf("window_minutes must be positive, got %v", r.WindowMinutes)
	}
	return nil
}

// ExportJob is one resolved export: the ordered window and its target.
type ExportJob struct {
	ID                string
	OrderedTimestamps []Timestamp
	OutputTarget      string
}

// Source produces frames. Read blocks until a frame is available.
//
// Implementations must return promptly once ctx is cancelled and must be
// safe to Close while a Read is blocked.
type Source interface {
	Open(ctx context.Context) error
	Read(ctx context.Context) (*Frame, error)
	Close() error
	Name() string
}

// ArtifactStore persists encoded frames by key.
// Implementations must be safe for concurrent use.
type ArtifactStore interface {
	// Put writes an artifact, replacing any existing one with the same key.
	Put(ctx context.Context, artifact *Artifact) error

	// Get loads an artifact.
	Get(ctx context.Context, key string) (*Artifact, error)

	// Delete removes an artifact. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the keys of all stored artifacts in no particular order.
	List(ctx context.Context) ([]string, error)
}
