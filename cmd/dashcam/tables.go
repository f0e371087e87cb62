package main

import (
	"strconv"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/catalog"
)

// frameRow is one retained frame in listings.
type frameRow struct {
	Timestamp   recording.Timestamp `json:"timestamp"`
	ArtifactKey string              `json:"artifact_key"`
	CapturedAt  time.Time           `json:"captured_at"`
}

type framesTable []frameRow

func newFramesTable(records []recording.FrameRecord) framesTable {
	rows := make(framesTable, len(records))
	for i, r := range records {
		rows[i] = frameRow{Timestamp: r.Timestamp, ArtifactKey: r.ArtifactKey, CapturedAt: r.Timestamp.Time()}
	}
	return rows
}

func (t framesTable) Header() []string {
	return []string{"TIMESTAMP", "KEY", "CAPTURED"}
}

func (t framesTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, r := range t {
		rows[i] = []string{r.Timestamp.Key(), r.ArtifactKey, r.CapturedAt.Format("2006-01-02 15:04:05.000000")}
	}
	return rows
}

type jobsTable []*catalog.Job

func (t jobsTable) Header() []string {
	return []string{"ID", "STATUS", "FRAMES", "WINDOW", "STARTED", "DURATION", "OUTPUT"}
}

func (t jobsTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, j := range t {
		output := j.OutputPath
		if j.Status != catalog.StatusSuccess {
			output = j.Error
		}
		rows[i] = []string{
			j.ID,
			string(j.Status),
			strconv.Itoa(j.FrameCount),
			strconv.FormatFloat(j.WindowMinutes, 'f', -1, 64) + "m",
			j.StartedAt.Format(time.DateTime),
			j.Duration().Round(time.Millisecond).String(),
			output,
		}
	}
	return rows
}
