package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/cli"
	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/catalog"
	"github.com/pi3123/SmartDashcam/pkg/recording/export"
	"github.com/pi3123/SmartDashcam/pkg/recording/recorder"
	"github.com/pi3123/SmartDashcam/pkg/server"
)

type stubRecorder struct {
	exportErr error
	cleared   bool
}

func (s *stubRecorder) Status() recorder.Status { return recorder.Status{} }

func (s *stubRecorder) Export(ctx context.Context, req recording.ExportRequest, opts ...export.ExportOption) (*export.Result, error) {
	if s.exportErr != nil {
		return nil, s.exportErr
	}
	return &export.Result{JobID: "job-9", Frames: int(req.WindowMinutes * 60), Path: "/videos/x.mp4"}, nil
}

func (s *stubRecorder) Clear(ctx context.Context) error {
	s.cleared = true
	return nil
}

func (s *stubRecorder) Jobs(ctx context.Context, limit int) ([]*catalog.Job, error) {
	return nil, nil
}

func newAdminServer(t *testing.T, rec server.Recorder) *adminClient {
	t.Helper()
	srv := server.NewServer(&config.ServerConfig{}, rec, server.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return newAdminClient(ts.URL, 5*time.Second)
}

func TestAdminClient_Export(t *testing.T) {
	client := newAdminServer(t, &stubRecorder{})

	var result export.Result
	err := client.post(context.Background(), "/api/v1/export", recording.ExportRequest{WindowMinutes: 2}, &result)
	if err != nil {
		t.Fatalf("post() failed: %v", err)
	}
	if result.JobID != "job-9" || result.Frames != 120 {
		t.Errorf("result = %+v", result)
	}
}

func TestAdminClient_MapsWindowErrors(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  error
	}{
		{"invalid window", recording.ErrInvalidWindow, recording.ErrInvalidWindow},
		{"empty", recording.ErrEmptyExport, recording.ErrEmptyExport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newAdminServer(t, &stubRecorder{exportErr: recording.NewExportError("j", "resolve", tt.cause)})

			err := client.post(context.Background(), "/api/v1/export", recording.ExportRequest{WindowMinutes: 1}, &export.Result{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("post() error = %v, want %v", err, tt.want)
			}
			if code := cli.ExitCode(cli.NewCommandError("export", err)); code != cli.ExitNoFrames {
				t.Errorf("ExitCode() = %d, want %d", code, cli.ExitNoFrames)
			}
		})
	}
}

func TestAdminClient_Clear(t *testing.T) {
	rec := &stubRecorder{}
	client := newAdminServer(t, rec)

	if err := client.post(context.Background(), "/api/v1/clear", nil, nil); err != nil {
		t.Fatalf("post() failed: %v", err)
	}
	if !rec.cleared {
		t.Error("recorder not cleared")
	}
}

func TestAdminClient_Unreachable(t *testing.T) {
	client := newAdminClient("127.0.0.1:1", time.Second)
	if err := client.post(context.Background(), "/api/v1/clear", nil, nil); err == nil {
		t.Error("post() to a closed port succeeded")
	}
}

func TestNewAdminClient_BaseURL(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"127.0.0.1:8090", "http://127.0.0.1:8090"},
		{"http://dashcam.local:8090/", "http://dashcam.local:8090"},
		{"https://dashcam.local", "https://dashcam.local"},
	}
	for _, tt := range tests {
		if got := newAdminClient(tt.address, time.Second).baseURL; got != tt.want {
			t.Errorf("newAdminClient(%q).baseURL = %q, want %q", tt.address, got, tt.want)
		}
	}
}
