package recorder

import (
	"fmt"

	"github.com/pi3123/SmartDashcam/pkg/clock"
	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/capture"
)

// NewSource creates the capture source named by cfg.Camera.Source.
func NewSource(cfg *config.Config, c clock.Clock) (recording.Source, error) {
	switch cfg.Camera.Source {
	case "ffmpeg", "":
		return capture.NewFFmpegSource(capture.FFmpegConfigFrom(&cfg.Camera, &cfg.Storage)), nil
	case "pattern":
		return capture.NewPatternSource(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS, c), nil
	default:
		return nil, fmt.Errorf("unsupported camera source: %s", cfg.Camera.Source)
	}
}
