package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/clock"
	"github.com/pi3123/SmartDashcam/pkg/recording"
)

// PatternSource generates a synthetic test pattern: a bar sweeping across
// the frame and a row of blocks encoding the frame counter in binary.
// Frames are paced at the configured rate on the injected clock.
type PatternSource struct {
	width  int
	height int
	fps    int
	clock  clock.Clock

	mu     sync.Mutex
	ticker *clock.Ticker
	seq    uint64
}

// NewPatternSource creates a pattern source. A nil clock uses the real one.
func NewPatternSource(width, height, fps int, c clock.Clock) *PatternSource {
	if c == nil {
		c = clock.Real()
	}
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 240
	}
	if fps <= 0 {
		fps = 1
	}
	return &PatternSource{width: width, height: height, fps: fps, clock: c}
}

// Name implements recording.Source.
func (s *PatternSource) Name() string { return "pattern" }

// Open starts the frame ticker.
func (s *PatternSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return errors.New("pattern source already open")
	}
	s.ticker = s.clock.NewTicker(time.Second / time.Duration(s.fps))
	s.seq = 0
	return nil
}

// Read waits for the next tick and renders a frame.
func (s *PatternSource) Read(ctx context.Context) (*recording.Frame, error) {
	s.mu.Lock()
	ticker := s.ticker
	s.mu.Unlock()

	if ticker == nil {
		return nil, errors.New("pattern source not open")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ticker.C:
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	return &recording.Frame{Seq: seq, Image: s.render(seq)}, nil
}

// Close stops the ticker.
func (s *PatternSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	return nil
}

func (s *PatternSource) render(seq uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))

	background := color.RGBA{R: 32, G: 32, B: 48, A: 255}
	bar := color.RGBA{R: 230, G: 200, B: 40, A: 255}
	on := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	off := color.RGBA{R: 80, G: 80, B: 80, A: 255}

	barWidth := max(s.width/32, 1)
	barX := int(seq*uint64(barWidth)) % s.width

	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			if x >= barX && x < barX+barWidth {
				img.SetRGBA(x, y, bar)
			} else {
				img.SetRGBA(x, y, background)
			}
		}
	}

	// 16-bit counter along the top edge
	block := max(s.width/20, 2)
	for bit := 0; bit < 16; bit++ {
		c := off
		if seq&(1<<uint(15-bit)) != 0 {
			c = on
		}
		x0 := block/2 + bit*block
		for y := block / 2; y < block/2+block-1 && y < s.height; y++ {
			for x := x0; x < x0+block-1 && x < s.width; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}

	return img
}
