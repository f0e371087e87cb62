package recorder

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/clock"
	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/export"
	"github.com/pi3123/SmartDashcam/pkg/recording/storage"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/health"
)

func jpegFrame(payload string) []byte {
	return append(append([]byte{0xFF, 0xD8}, payload...), 0xFF, 0xD9)
}

// stepSource emits n frames, advancing the fake clock by step before each,
// then blocks until cancelled.
type stepSource struct {
	clock *clock.FakeClock
	step  time.Duration
	n     int

	mu   sync.Mutex
	sent int
}

func (s *stepSource) Name() string                   { return "step" }
func (s *stepSource) Open(ctx context.Context) error { return nil }
func (s *stepSource) Close() error                   { return nil }

func (s *stepSource) Read(ctx context.Context) (*recording.Frame, error) {
	s.mu.Lock()
	if s.sent >= s.n {
		s.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s.sent++
	seq := s.sent
	s.mu.Unlock()

	s.clock.Advance(s.step)
	return &recording.Frame{Seq: uint64(seq), Encoded: jpegFrame(s.clock.Now().String())}, nil
}

func (s *stepSource) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Camera.FPS = 4
	cfg.Camera.StopTimeout = 5 * time.Second
	cfg.Storage.FramesDir = filepath.Join(dir, "frames")
	cfg.Retention.MaxDurationMinutes = 0.0625 // 15 frames at 4 fps
	cfg.Retention.SweepSchedule = ""
	cfg.Export.OutputDir = filepath.Join(dir, "videos")
	cfg.Export.Encoder = "mjpeg"
	cfg.Export.CatalogPath = filepath.Join(dir, "exports.db")
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRecorder_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	// Leftovers from a previous run, plus a stray file
	store, err := storage.NewFileStore(storage.FileConfigFrom(&cfg.Storage))
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}
	for _, key := range []string{"100", "101", "102"} {
		if err := store.Put(ctx, &recording.Artifact{Key: key, Data: jpegFrame(key)}); err != nil {
			t.Fatalf("Put(%s) failed: %v", key, err)
		}
	}
	os.WriteFile(filepath.Join(cfg.Storage.FramesDir, "notes.txt"), []byte("x"), 0o644)

	fake := clock.Fake(time.Unix(1700000000, 0))
	source := &stepSource{clock: fake, step: 250 * time.Millisecond, n: 20}

	rec, err := New(cfg, Deps{Source: source, Clock: fake})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer rec.Close(ctx)

	if err := rec.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	waitFor(t, "all frames captured", func() bool {
		return source.delivered() == 20 && rec.Status().Frames == 20
	})
	if err := rec.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	status := rec.Status()
	if status.Running {
		t.Error("Status().Running = true after Stop()")
	}
	if status.Buffered != 15 || status.Capacity != 15 {
		t.Errorf("Status() buffered = %d, capacity = %d, want 15, 15", status.Buffered, status.Capacity)
	}
	if status.Oldest != 1700000001.5 || status.Newest != 1700000005 {
		t.Errorf("Status() oldest = %v, newest = %v", status.Oldest, status.Newest)
	}

	keys, _ := store.List(ctx)
	if len(keys) != 15 {
		t.Errorf("store holds %d artifacts after eviction, want 15: %v", len(keys), keys)
	}
	for _, key := range []string{"100", "101", "102"} {
		if _, err := store.Get(ctx, key); !errors.Is(err, recording.ErrNotFound) {
			t.Errorf("recovered artifact %s not evicted: %v", key, err)
		}
	}

	result, err := rec.Export(ctx, recording.ExportRequest{WindowMinutes: 5})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if result.Frames != 15 || filepath.Ext(result.Path) != ".mjpeg" {
		t.Errorf("Export() = %+v", result)
	}
	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if n := bytes.Count(data, []byte{0xFF, 0xD8}); n != 15 {
		t.Errorf("exported video holds %d frames, want 15", n)
	}

	jobs, err := rec.Jobs(ctx, 10)
	if err != nil {
		t.Fatalf("Jobs() failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != result.JobID {
		t.Errorf("Jobs() = %+v, want the export job", jobs)
	}

	if err := rec.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if got := rec.Status().Buffered; got != 0 {
		t.Errorf("Status().Buffered after Clear() = %d, want 0", got)
	}
	keys, _ = store.List(ctx)
	if len(keys) != 0 {
		t.Errorf("store holds %v after Clear(), want nothing", keys)
	}

	if _, err := rec.Export(ctx, recording.ExportRequest{WindowMinutes: 5}); !errors.Is(err, recording.ErrEmptyExport) {
		t.Errorf("Export() after Clear() error = %v, want ErrEmptyExport", err)
	}
}

func TestRecorder_RecoverOnce(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	store := storage.NewMemoryStore()
	for _, key := range []string{"5", "3", "4"} {
		store.Put(ctx, &recording.Artifact{Key: key, Data: jpegFrame(key)})
	}

	fake := clock.Fake(time.Unix(1700000000, 0))
	rec, err := New(cfg, Deps{Source: &stepSource{clock: fake}, Store: store, Clock: fake})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer rec.Close(ctx)

	result, err := rec.Recover(ctx)
	if err != nil {
		t.Fatalf("Recover() failed: %v", err)
	}
	if len(result.Records) != 3 {
		t.Errorf("Recover() found %d records, want 3", len(result.Records))
	}
	got := recording.Timestamps(rec.Frames())
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Errorf("Frames() = %v, want [3 4 5]", got)
	}

	again, err := rec.Recover(ctx)
	if err != nil || again != nil {
		t.Errorf("second Recover() = %v, %v, want nil, nil", again, err)
	}
}

func TestRecorder_Restart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	store := storage.NewMemoryStore()
	fake := clock.Fake(time.Unix(1700000000, 0))
	source := &stepSource{clock: fake, step: time.Second, n: 5}

	rec, err := New(cfg, Deps{Source: source, Store: store, Clock: fake})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer rec.Close(ctx)

	if err := rec.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := rec.Start(ctx); !errors.Is(err, recording.ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
	waitFor(t, "frames captured", func() bool { return rec.Status().Buffered == 5 })
	firstSession := rec.Status().SessionID

	if err := rec.Restart(ctx); err != nil {
		t.Fatalf("Restart() failed: %v", err)
	}
	status := rec.Status()
	if !status.Running || status.SessionID == firstSession {
		t.Errorf("Status() after Restart() = %+v", status)
	}
	if status.Buffered != 0 {
		t.Errorf("Status().Buffered after Restart() = %d, want 0", status.Buffered)
	}
	waitFor(t, "pending deletes applied", func() bool { return store.Size() == 0 })
}

// tickSource emits a frame every interval on the real clock until cancelled.
type tickSource struct {
	interval time.Duration
	seq      uint64
}

func (s *tickSource) Name() string                   { return "tick" }
func (s *tickSource) Open(ctx context.Context) error { return nil }
func (s *tickSource) Close() error                   { return nil }

func (s *tickSource) Read(ctx context.Context) (*recording.Frame, error) {
	select {
	case <-time.After(s.interval):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.seq++
	return &recording.Frame{Seq: s.seq, Encoded: jpegFrame("tick")}, nil
}

// slowEncoder delays opening the output, like an ffmpeg process starting up.
type slowEncoder struct {
	export.Encoder
	delay time.Duration
}

func (e *slowEncoder) Create(ctx context.Context, path string) (export.OutputWriter, error) {
	time.Sleep(e.delay)
	return e.Encoder.Create(ctx, path)
}

func TestRecorder_ExportWholeBufferWhileCapturing(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	store := storage.NewMemoryStore()

	rec, err := New(cfg, Deps{
		Source:  &tickSource{interval: 3 * time.Millisecond},
		Store:   store,
		Encoder: &slowEncoder{Encoder: export.NewMJPEGEncoder(), delay: 50 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer rec.Close(ctx)

	if err := rec.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	waitFor(t, "buffer full and evicting", func() bool {
		status := rec.Status()
		return status.Buffered == status.Capacity && status.Frames >= 40
	})

	// The window is far longer than the buffer, so every export takes the
	// whole snapshot including its oldest frame, which capture evicts while
	// the output is being opened.
	for i := 0; i < 5; i++ {
		result, err := rec.Export(ctx, recording.ExportRequest{WindowMinutes: 10})
		if err != nil {
			t.Fatalf("Export() #%d failed while capturing: %v", i, err)
		}
		if result.Frames != 15 {
			t.Errorf("Export() #%d frames = %d, want 15", i, result.Frames)
		}
	}

	if err := rec.Stop(ctx); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if got, want := store.Size(), rec.Status().Buffered; got != want {
		t.Errorf("store holds %d artifacts after exports, want %d", got, want)
	}
}

// stuckSource ignores cancellation until released.
type stuckSource struct {
	release chan struct{}
}

func (s *stuckSource) Name() string                   { return "stuck" }
func (s *stuckSource) Open(ctx context.Context) error { return nil }
func (s *stuckSource) Close() error                   { return nil }

func (s *stuckSource) Read(ctx context.Context) (*recording.Frame, error) {
	<-s.release
	return nil, context.Canceled
}

func TestRecorder_RestartHonoursStopTimeout(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Camera.StopTimeout = 50 * time.Millisecond
	source := &stuckSource{release: make(chan struct{})}

	rec, err := New(cfg, Deps{Source: source, Store: storage.NewMemoryStore()})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer rec.Close(ctx)
	defer close(source.release)

	if err := rec.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- rec.Restart(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, recording.ErrStopTimeout) {
			t.Errorf("Restart() error = %v, want ErrStopTimeout", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Restart() blocked past the stop timeout")
	}
}

func TestRecorder_HealthChecks(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	fake := clock.Fake(time.Unix(1700000000, 0))

	rec, err := New(cfg, Deps{Source: &stepSource{clock: fake}, Clock: fake})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer rec.Close(ctx)

	checker := health.New(time.Second)
	rec.RegisterHealthChecks(checker)

	ready := func() int {
		w := httptest.NewRecorder()
		checker.ReadinessHandler()(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		return w.Code
	}

	if code := ready(); code != http.StatusServiceUnavailable {
		t.Errorf("ready before Start() = %d, want %d", code, http.StatusServiceUnavailable)
	}
	if err := rec.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if code := ready(); code != http.StatusOK {
		t.Errorf("ready after Start() = %d, want %d", code, http.StatusOK)
	}
}

func TestRecorder_StartAfterClose(t *testing.T) {
	ctx := context.Background()
	fake := clock.Fake(time.Unix(1700000000, 0))
	rec, err := New(testConfig(t), Deps{Source: &stepSource{clock: fake}, Store: storage.NewMemoryStore(), Clock: fake})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := rec.Close(ctx); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := rec.Start(ctx); !errors.Is(err, recording.ErrClosed) {
		t.Errorf("Start() after Close() error = %v, want ErrClosed", err)
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.Default()

	for _, name := range []string{"ffmpeg", "pattern"} {
		cfg.Camera.Source = name
		source, err := NewSource(cfg, clock.Real())
		if err != nil {
			t.Fatalf("NewSource(%q) failed: %v", name, err)
		}
		if source.Name() != name {
			t.Errorf("NewSource(%q).Name() = %q", name, source.Name())
		}
	}

	cfg.Camera.Source = "v4l2-direct"
	if _, err := NewSource(cfg, clock.Real()); err == nil {
		t.Error("NewSource() accepted an unknown source")
	}
}
