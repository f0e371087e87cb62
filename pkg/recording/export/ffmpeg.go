package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pi3123/SmartDashcam/pkg/config"
)

// FFmpegEncoderConfig contains configuration for the ffmpeg encoder.
type FFmpegEncoderConfig struct {
	// Path is the ffmpeg binary. Default: "ffmpeg"
	Path string

	// FPS is the output frame rate.
	FPS int

	// Width and Height scale the output. Zero keeps the input size.
	Width  int
	Height int

	// Bitrate is the target bitrate in bits per second. Zero omits -b:v.
	Bitrate int

	// QScale is ffmpeg's -q:v (1-31, lower is better). Zero omits it.
	QScale int

	// Encoding is the ffmpeg video codec. Default: "mpeg4"
	Encoding string
}

// FFmpegEncoder pipes JPEG frames into ffmpeg and produces an MP4 file.
type FFmpegEncoder struct {
	config FFmpegEncoderConfig
}

// NewFFmpegEncoder creates an ffmpeg encoder.
func NewFFmpegEncoder(cfg FFmpegEncoderConfig) *FFmpegEncoder {
	if cfg.Path == "" {
		cfg.Path = config.DefaultFFmpegPath
	}
	if cfg.FPS <= 0 {
		cfg.FPS = config.DefaultCameraFPS
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "mpeg4"
	}
	return &FFmpegEncoder{config: cfg}
}

// Name implements Encoder.
func (e *FFmpegEncoder) Name() string { return "ffmpeg" }

// Extension implements Encoder.
func (e *FFmpegEncoder) Extension() string { return ".mp4" }

// Args returns the ffmpeg command line writing to output.
func (e *FFmpegEncoder) Args(output string) []string {
	fps := strconv.Itoa(e.config.FPS)
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-framerate", fps,
		"-i", "pipe:0",
	}
	if e.config.Width > 0 && e.config.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", e.config.Width, e.config.Height))
	}
	args = append(args, "-c:v", e.config.Encoding, "-pix_fmt", "yuv420p", "-r", fps)
	if e.config.Bitrate > 0 {
		args = append(args, "-b:v", strconv.Itoa(e.config.Bitrate))
	}
	if e.config.QScale > 0 {
		args = append(args, "-q:v", strconv.Itoa(e.config.QScale))
	}
	return append(args, "-f", "mp4", output)
}

// Create starts ffmpeg writing to a temporary file next to path.
// Cancelling ctx kills ffmpeg.
func (e *FFmpegEncoder) Create(ctx context.Context, path string) (OutputWriter, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*"+e.Extension())
	if err != nil {
		return nil, err
	}
	tmpName := tmp.Name()
	tmp.Close()

	cmd := exec.CommandContext(ctx, e.config.Path, e.Args(tmpName)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		os.Remove(tmpName)
		return nil, err
	}
	w := &ffmpegWriter{cmd: cmd, stdin: stdin, tmp: tmpName, path: path}
	cmd.Stderr = &w.stderr

	if err := cmd.Start(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to start %s: %w", e.config.Path, err)
	}
	return w, nil
}

type ffmpegWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	tmp    string
	path   string
	waited bool
}

func (w *ffmpegWriter) WriteFrame(data []byte) error {
	if _, err := w.stdin.Write(data); err != nil {
		return fmt.Errorf("ffmpeg rejected frame: %w%s", err, w.detail())
	}
	return nil
}

func (w *ffmpegWriter) Close() error {
	if err := w.stdin.Close(); err != nil {
		return err
	}
	w.waited = true
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w%s", err, w.detail())
	}
	if err := os.Rename(w.tmp, w.path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

func (w *ffmpegWriter) Abort() error {
	if !w.waited {
		w.stdin.Close()
		w.cmd.Process.Kill()
		w.cmd.Wait()
		w.waited = true
	}
	if err := os.Remove(w.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (w *ffmpegWriter) detail() string {
	if msg := strings.TrimSpace(w.stderr.String()); msg != "" {
		return ": " + msg
	}
	return ""
}
