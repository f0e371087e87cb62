package export

import (
	"time"

	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/index"
)

// ResolveWindow selects the frames of snapshot that cover the last
// windowMinutes ending at now.
//
// If the snapshot holds fewer frames than fps*60*windowMinutes the whole
// snapshot is returned. Otherwise the window runs from the ceiling of
// now-windowMinutes to the ceiling of now, inclusive; when no frame is at
// or after now the window runs to the newest frame. A start after every
// retained frame yields recording.ErrInvalidWindow. A start before every
// retained frame resolves to the oldest one.
//
// The returned slice aliases snapshot.
func ResolveWindow(snapshot []recording.FrameRecord, fps int, windowMinutes float64, now time.Time) ([]recording.FrameRecord, error) {
	required := float64(fps) * 60 * windowMinutes
	if float64(len(snapshot)) < required {
		return snapshot, nil
	}

	timestamps := recording.Timestamps(snapshot)
	end := recording.FromTime(now)
	start := end - recording.Timestamp(windowMinutes*60)

	startIndex, ok := index.CeilingSearch(timestamps, start)
	if !ok {
		return nil, recording.ErrInvalidWindow
	}

	endIndex, ok := index.CeilingSearch(timestamps, end)
	if !ok {
		endIndex = len(timestamps) - 1
	}

	return snapshot[startIndex : endIndex+1], nil
}
