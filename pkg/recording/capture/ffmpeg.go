package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"

	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording"
)

// FFmpegConfig contains configuration for the ffmpeg capture source.
type FFmpegConfig struct {
	// Path is the ffmpeg binary.
	Path string

	// InputFormat is the demuxer for the device ("v4l2", "dshow", "avfoundation").
	InputFormat string

	// Device is the capture device.
	Device string

	// Width, Height, and FPS are requested from the device.
	Width  int
	Height int
	FPS    int

	// Quality is the artifact JPEG quality (1-100).
	Quality int
}

// FFmpegConfigFrom builds an FFmpegConfig from the camera and storage sections.
func FFmpegConfigFrom(camera *config.CameraConfig, storage *config.StorageConfig) FFmpegConfig {
	return FFmpegConfig{
		Path:        camera.FFmpegPath,
		InputFormat: camera.InputFormat,
		Device:      camera.Device,
		Width:       camera.Width,
		Height:      camera.Height,
		FPS:         camera.FPS,
		Quality:     storage.ArtifactQuality,
	}
}

// FFmpegSource captures frames by running ffmpeg against a camera device
// and reading the MJPEG stream it writes to stdout.
type FFmpegSource struct {
	config FFmpegConfig
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	stderr  *tailBuffer
	seq     uint64
	waited  bool
	waitErr error
}

// NewFFmpegSource creates an unopened ffmpeg source.
func NewFFmpegSource(cfg FFmpegConfig) *FFmpegSource {
	if cfg.Path == "" {
		cfg.Path = config.DefaultFFmpegPath
	}
	return &FFmpegSource{
		config: cfg,
		logger: slog.Default().With("component", "recording.capture.ffmpeg"),
	}
}

// Name implements recording.Source.
func (s *FFmpegSource) Name() string { return "ffmpeg" }

// Args returns the ffmpeg command line used for capture.
func (s *FFmpegSource) Args() []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	if s.config.InputFormat != "" {
		args = append(args, "-f", s.config.InputFormat)
	}
	if s.config.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(s.config.FPS))
	}
	if s.config.Width > 0 && s.config.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", s.config.Width, s.config.Height))
	}
	args = append(args,
		"-i", s.config.Device,
		"-an",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", strconv.Itoa(QScale(s.config.Quality)),
		"pipe:1",
	)
	return args
}

// Open starts the ffmpeg process. The process runs until Close.
func (s *FFmpegSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return errors.New("ffmpeg source already open")
	}

	cmd := exec.Command(s.config.Path, s.Args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr := newTailBuffer(4096)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.config.Path, err)
	}

	s.cmd = cmd
	s.scanner = newFrameScanner(stdout)
	s.stderr = stderr
	s.seq = 0
	s.waited = false
	s.waitErr = nil

	s.logger.Info("ffmpeg capture started",
		"device", s.config.Device,
		"input_format", s.config.InputFormat,
		"pid", cmd.Process.Pid,
	)
	return nil
}

// Read blocks until ffmpeg emits the next complete JPEG. Cancelling ctx
// kills the process so a blocked read returns.
func (s *FFmpegSource) Read(ctx context.Context) (*recording.Frame, error) {
	s.mu.Lock()
	cmd, scanner := s.cmd, s.scanner
	s.mu.Unlock()

	if cmd == nil {
		return nil, errors.New("ffmpeg source not open")
	}

	stop := context.AfterFunc(ctx, func() {
		cmd.Process.Kill()
	})
	defer stop()

	if scanner.Scan() {
		s.seq++
		data := make([]byte, len(scanner.Bytes()))
		copy(data, scanner.Bytes())
		return &recording.Frame{Seq: s.seq, Encoded: data}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := scanner.Err()
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	if waitErr := s.wait(); waitErr != nil {
		err = fmt.Errorf("%w: ffmpeg exited: %v", err, waitErr)
	}
	if tail := s.stderr.String(); tail != "" {
		err = fmt.Errorf("%w: %s", err, tail)
	}
	return nil, err
}

// Close kills ffmpeg if it is still running and reaps it. Close is safe to
// call while a Read is blocked and more than once.
func (s *FFmpegSource) Close() error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()

	if cmd == nil {
		return nil
	}

	cmd.Process.Kill()
	s.wait()

	s.mu.Lock()
	s.cmd = nil
	s.scanner = nil
	s.mu.Unlock()
	return nil
}

func (s *FFmpegSource) wait() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.waited || s.cmd == nil {
		return s.waitErr
	}
	s.waitErr = s.cmd.Wait()
	s.waited = true
	return s.waitErr
}

// QScale maps a JPEG quality in 1-100 to ffmpeg's -q:v scale, where 2 is
// best and 31 worst.
func QScale(quality int) int {
	if quality <= 0 {
		quality = config.DefaultArtifactQuality
	}
	if quality > 100 {
		quality = 100
	}
	return 2 + (100-quality)*29/99
}

// tailBuffer keeps the last n bytes written to it.
type tailBuffer struct {
	mu   sync.Mutex
	buf  []byte
	size int
}

func newTailBuffer(size int) *tailBuffer {
	return &tailBuffer{size: size}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.size; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
