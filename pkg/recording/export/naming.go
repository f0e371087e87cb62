package export

import (
	"strings"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/recording"
)

var nameReplacer = strings.NewReplacer(" ", "-", ":", "-")

// OutputName returns the file name for an export whose first frame was
// captured at first: the local date and time of that frame with spaces and
// colons replaced by dashes, plus ext. Microseconds are included only when
// non-zero, e.g. "2023-11-14-22-13-20.123456.mp4".
func OutputName(first recording.Timestamp, loc *time.Location, ext string) string {
	if loc == nil {
		loc = time.Local
	}
	t := first.Time().In(loc)

	layout := "2006-01-02 15:04:05"
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		layout += ".000000"
	}
	return nameReplacer.Replace(t.Format(layout)) + ext
}
