package export

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MJPEGEncoder writes exports as a concatenated JPEG stream (Motion JPEG).
// It needs no external tools; most players open the result directly.
type MJPEGEncoder struct{}

// NewMJPEGEncoder creates an MJPEG encoder.
func NewMJPEGEncoder() *MJPEGEncoder { return &MJPEGEncoder{} }

// Name implements Encoder.
func (e *MJPEGEncoder) Name() string { return "mjpeg" }

// Extension implements Encoder.
func (e *MJPEGEncoder) Extension() string { return ".mjpeg" }

// Create implements Encoder.
func (e *MJPEGEncoder) Create(ctx context.Context, path string) (OutputWriter, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*"+e.Extension())
	if err != nil {
		return nil, err
	}
	return &mjpegWriter{
		file: tmp,
		buf:  bufio.NewWriterSize(tmp, 1<<20),
		path: path,
	}, nil
}

type mjpegWriter struct {
	file   *os.File
	buf    *bufio.Writer
	path   string
	closed bool
}

func (w *mjpegWriter) WriteFrame(data []byte) error {
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		return errors.New("frame is not a JPEG image")
	}
	_, err := w.buf.Write(data)
	return err
}

func (w *mjpegWriter) Close() error {
	if w.closed {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	w.closed = true
	if err := os.Rename(w.file.Name(), w.path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

func (w *mjpegWriter) Abort() error {
	w.file.Close()
	if err := os.Remove(w.file.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
