package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/catalog"
	"github.com/pi3123/SmartDashcam/pkg/recording/export"
	"github.com/pi3123/SmartDashcam/pkg/recording/recorder"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/health"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/metrics"
)

type fakeRecorder struct {
	mu        sync.Mutex
	status    recorder.Status
	exportErr error
	requests  []recording.ExportRequest
	cleared   int
	jobs      []*catalog.Job
	panicOn   bool
}

func (f *fakeRecorder) Status() recorder.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn {
		panic("boom")
	}
	return f.status
}

func (f *fakeRecorder) Export(ctx context.Context, req recording.ExportRequest, opts ...export.ExportOption) (*export.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return &export.Result{JobID: "job-1", Path: "/videos/out.mp4", Frames: 42, First: 10, Last: 11}, nil
}

func (f *fakeRecorder) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	f.status.Buffered = 0
	return nil
}

func (f *fakeRecorder) Jobs(ctx context.Context, limit int) ([]*catalog.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit < len(f.jobs) {
		return f.jobs[:limit], nil
	}
	return f.jobs, nil
}

func newTestServer(rec Recorder, opts Options) *Server {
	cfg := &config.ServerConfig{ListenAddress: "127.0.0.1:0", ShutdownTimeout: time.Second}
	return NewServer(cfg, rec, opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleExport(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		exportErr  error
		wantStatus int
		wantType   string
		wantWindow float64
	}{
		{"explicit window", `{"window_minutes": 2.5}`, nil, http.StatusOK, "", 2.5},
		{"default window", ``, nil, http.StatusOK, "", 7},
		{"zero window", `{"window_minutes": 0}`, nil, http.StatusBadRequest, "invalid_request", 0},
		{"malformed", `{"window_minutes": "five"}`, nil, http.StatusBadRequest, "invalid_request", 0},
		{"unknown field", `{"minutes": 5}`, nil, http.StatusBadRequest, "invalid_request", 0},
		{
			"invalid window", `{"window_minutes": 5}`,
			recording.NewExportError("j", "resolve", recording.ErrInvalidWindow),
			http.StatusConflict, "invalid_window", 5,
		},
		{
			"empty", `{"window_minutes": 5}`,
			recording.NewExportError("j", "resolve", recording.ErrEmptyExport),
			http.StatusConflict, "empty_export", 5,
		},
		{
			"artifact failure", `{"window_minutes": 5}`,
			recording.NewExportError("j", "read", recording.NewArtifactError("get", "1.5", errors.New("io"))),
			http.StatusInternalServerError, "artifact_error", 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{exportErr: tt.exportErr}
			h := newTestServer(rec, Options{DefaultWindowMinutes: 7}).Handler()

			w := do(t, h, http.MethodPost, "/api/v1/export", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantType != "" {
				var resp ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Unmarshal() failed: %v", err)
				}
				if resp.Error.Type != tt.wantType {
					t.Errorf("error type = %q, want %q", resp.Error.Type, tt.wantType)
				}
			} else {
				var result export.Result
				if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
					t.Fatalf("Unmarshal() failed: %v", err)
				}
				if result.JobID != "job-1" || result.Frames != 42 {
					t.Errorf("result = %+v", result)
				}
			}

			if tt.wantWindow > 0 {
				if len(rec.requests) != 1 || rec.requests[0].WindowMinutes != tt.wantWindow {
					t.Errorf("export requests = %+v, want window %v", rec.requests, tt.wantWindow)
				}
			} else if len(rec.requests) != 0 {
				t.Errorf("invalid request reached the recorder: %+v", rec.requests)
			}
		})
	}
}

func TestHandleExport_MethodNotAllowed(t *testing.T) {
	h := newTestServer(&fakeRecorder{}, Options{}).Handler()
	if w := do(t, h, http.MethodGet, "/api/v1/export", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/v1/export = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleStatus(t *testing.T) {
	rec := &fakeRecorder{status: recorder.Status{Running: true, Source: "pattern", Buffered: 12, Capacity: 100}}
	h := newTestServer(rec, Options{}).Handler()

	w := do(t, h, http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got recorder.Status
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if !got.Running || got.Buffered != 12 || got.Capacity != 100 {
		t.Errorf("status = %+v", got)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("response missing request ID header")
	}
}

func TestHandleClear(t *testing.T) {
	rec := &fakeRecorder{status: recorder.Status{Buffered: 5}}
	h := newTestServer(rec, Options{}).Handler()

	w := do(t, h, http.MethodPost, "/api/v1/clear", "")
	if w.Code != http.StatusOK || rec.cleared != 1 {
		t.Errorf("POST /api/v1/clear = %d, cleared %d times", w.Code, rec.cleared)
	}
}

func TestHandleJobs(t *testing.T) {
	rec := &fakeRecorder{}
	for i := 0; i < 5; i++ {
		rec.jobs = append(rec.jobs, &catalog.Job{ID: fmt.Sprintf("job-%d", i), Status: catalog.StatusSuccess})
	}
	h := newTestServer(rec, Options{}).Handler()

	w := do(t, h, http.MethodGet, "/api/v1/exports?limit=2", "")
	var jobs []catalog.Job
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("len(jobs) = %d, want 2", len(jobs))
	}

	if w := do(t, h, http.MethodGet, "/api/v1/exports?limit=zero", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", w.Code)
	}

	empty := newTestServer(&fakeRecorder{}, Options{}).Handler()
	if w := do(t, empty, http.MethodGet, "/api/v1/exports", ""); strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty jobs body = %q, want []", w.Body.String())
	}
}

func TestProbesAndMetrics(t *testing.T) {
	checker := health.New(time.Second)
	ready := false
	checker.RegisterCheck("capture", health.Condition(func() bool { return ready }, "capture loop not running"))

	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test", Subsystem: "recorder"}, prometheus.NewRegistry())
	collector.RecordFrameCaptured()

	h := newTestServer(&fakeRecorder{}, Options{
		Checker:     checker,
		Metrics:     collector,
		MetricsPath: "/metrics",
		Version:     "1.2.3",
	}).Handler()

	if w := do(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("/health = %d, want 200", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/ready", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready = %d, want 503", w.Code)
	}
	ready = true
	if w := do(t, h, http.MethodGet, "/ready", ""); w.Code != http.StatusOK {
		t.Errorf("/ready = %d, want 200", w.Code)
	}

	w := do(t, h, http.MethodGet, "/version", "")
	if !strings.Contains(w.Body.String(), `"1.2.3"`) {
		t.Errorf("/version body = %s", w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/metrics", "")
	if !strings.Contains(w.Body.String(), "test_recorder_frames_captured_total 1") {
		t.Errorf("/metrics missing frames counter:\n%s", w.Body.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newTestServer(&fakeRecorder{panicOn: true}, Options{}).Handler()

	w := do(t, h, http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := newTestServer(&fakeRecorder{}, Options{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("%s = %q, want %q", RequestIDHeader, got, "abc-123")
	}
}

func TestServer_StartShutdown(t *testing.T) {
	srv := newTestServer(&fakeRecorder{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}
