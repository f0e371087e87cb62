package capture

import (
	"strings"
	"testing"
)

func TestFFmpegSource_Args(t *testing.T) {
	source := NewFFmpegSource(FFmpegConfig{
		InputFormat: "v4l2",
		Device:      "/dev/video0",
		Width:       1280,
		Height:      720,
		FPS:         30,
		Quality:     100,
	})

	got := strings.Join(source.Args(), " ")
	for _, want := range []string{
		"-f v4l2",
		"-framerate 30",
		"-video_size 1280x720",
		"-i /dev/video0",
		"-f image2pipe -c:v mjpeg -q:v 2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Args() = %q, missing %q", got, want)
		}
	}
}

func TestQScale(t *testing.T) {
	tests := []struct {
		quality int
		want    int
	}{
		{100, 2},
		{1, 31},
		{0, QScale(80)},
		{150, 2},
	}
	for _, tt := range tests {
		if got := QScale(tt.quality); got != tt.want {
			t.Errorf("QScale(%d) = %d, want %d", tt.quality, got, tt.want)
		}
	}
}

func TestTailBuffer(t *testing.T) {
	buf := newTailBuffer(5)
	buf.Write([]byte("hello "))
	buf.Write([]byte("world"))
	if got := buf.String(); got != "world" {
		t.Errorf("String() = %q, want %q", got, "world")
	}
}
