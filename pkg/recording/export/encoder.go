package export

import (
	"context"
	"fmt"

	"github.com/pi3123/SmartDashcam/pkg/config"
)

// Encoder creates output writers for one video format.
type Encoder interface {
	// Name identifies the encoder ("ffmpeg", "mjpeg").
	Name() string

	// Extension is appended to output file names, including the dot.
	Extension() string

	// Create opens a writer producing path. Nothing appears at path until
	// the writer is closed successfully.
	Create(ctx context.Context, path string) (OutputWriter, error)
}

// OutputWriter appends JPEG frames to an output video.
type OutputWriter interface {
	// WriteFrame appends one JPEG-encoded frame.
	WriteFrame(data []byte) error

	// Close finalizes the output and moves it into place.
	Close() error

	// Abort discards the partial output. It is safe to call after a failed
	// Close.
	Abort() error
}

// NewEncoder returns the encoder selected by export.encoder.
func NewEncoder(export *config.ExportConfig, camera *config.CameraConfig) (Encoder, error) {
	switch export.Encoder {
	case "mjpeg":
		return NewMJPEGEncoder(), nil
	case "ffmpeg", "":
		return NewFFmpegEncoder(FFmpegEncoderConfig{
			Path:     export.FFmpegPath,
			FPS:      camera.FPS,
			Width:    camera.Width,
			Height:   camera.Height,
			Bitrate:  export.Bitrate,
			QScale:   export.OutputQuality,
			Encoding: "mpeg4",
		}), nil
	default:
		return nil, fmt.Errorf("unknown export encoder %q", export.Encoder)
	}
}
