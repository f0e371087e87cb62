// Package recording provides the shared types, interfaces, and errors for the
// rolling dashcam recorder. It always captures frames into a bounded history on
// disk and, on demand, exports the last N minutes of that history as a video.
//
// # Architecture
//
// The recorder consists of five cooperating components:
//
//  1. Capture Loop - Pulls frames from a Source and stamps them
//  2. Persister - Writes artifacts to the ArtifactStore from a bounded FIFO queue
//  3. Retention Manager - Owns the timestamp index and evicts the oldest frames
//  4. Recovery Scanner - Rebuilds the index from stored artifacts at startup
//  5. Export Pipeline - Resolves a time window and encodes it (reader → writer)
//
// # Data Flow
//
//	Source.Read → stamp → Persister (async) → ArtifactStore
//	     ↓
//	Retention Manager (append, evict oldest)
//	     ↓
//	Export Pipeline: snapshot → ceiling search → reader → queue → writer → output
//
// # Timestamps and Keys
//
// Frames are identified by their capture time in seconds since the Unix epoch
// with microsecond resolution. The artifact key is the textual form of that
// float (for example "1700000000.123456"), so the index can always be rebuilt
// from the artifact names alone:
//
//	ts := recording.FromTime(time.Now())
//	key := ts.Key()                  // "1700000000.123456"
//	back, err := recording.ParseKey(key)
//
// # Errors
//
// Every failure is surfaced as a distinct error that can be checked with
// errors.Is or errors.As:
//
//   - *CaptureError: the source failed to produce a frame (fatal to the loop)
//   - ErrInvalidWindow: no retained frame covers the requested window start
//   - ErrEmptyExport: the resolved window contains no frames
//   - *ArtifactError: a put, get, delete, or list against the store failed
//   - *ExportError: an export was aborted (wraps the cause)
package recording
