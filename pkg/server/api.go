package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/catalog"
	"github.com/pi3123/SmartDashcam/pkg/recording/export"
	"github.com/pi3123/SmartDashcam/pkg/recording/recorder"
)

// Recorder is the part of the recorder the API drives.
type Recorder interface {
	Status() recorder.Status
	Export(ctx context.Context, req recording.ExportRequest, opts ...export.ExportOption) (*export.Result, error)
	Clear(ctx context.Context) error
	Jobs(ctx context.Context, limit int) ([]*catalog.Job, error)
}

const (
	defaultJobsLimit = 20
	maxRequestBody   = 1 << 16
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// exportRequest mirrors recording.ExportRequest with an optional window.
type exportRequest struct {
	WindowMinutes       *float64 `json:"window_minutes"`
	WaitForFutureFrames bool     `json:"wait_for_future_frames"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.recorder.Status())
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultJobsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	jobs, err := s.recorder.Jobs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
		return
	}
	if jobs == nil {
		jobs = []*catalog.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var body exportRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body: "+err.Error())
		return
	}

	req := recording.ExportRequest{
		WindowMinutes:       s.options.DefaultWindowMinutes,
		WaitForFutureFrames: body.WaitForFutureFrames,
	}
	if body.WindowMinutes != nil {
		req.WindowMinutes = *body.WindowMinutes
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.recorder.Export(r.Context(), req)
	if err != nil {
		status, kind := exportErrorStatus(err)
		writeError(w, status, kind, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "artifact_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.recorder.Status())
}

func exportErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, recording.ErrInvalidWindow):
		return http.StatusConflict, "invalid_window"
	case errors.Is(err, recording.ErrEmptyExport):
		return http.StatusConflict, "empty_export"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	}
	var artifactErr *recording.ArtifactError
	if errors.As(err, &artifactErr) {
		return http.StatusInternalServerError, "artifact_error"
	}
	return http.StatusInternalServerError, "export_error"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Type: kind, Message: message}})
}
