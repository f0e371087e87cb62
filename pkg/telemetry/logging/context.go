package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	// JobIDKey is the context key for export job IDs.
	JobIDKey contextKey = "job_id"

	// SessionIDKey is the context key for capture session IDs.
	SessionIDKey contextKey = "session_id"
)

// WithJobID adds an export job ID to the context.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

// GetJobID retrieves the export job ID from the context.
func GetJobID(ctx context.Context) string {
	if id, ok := ctx.Value(JobIDKey).(string); ok {
		return id
	}
	return ""
}

// WithSessionID adds a capture session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID retrieves the capture session ID from the context.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}

// contextHandler adds the job and session IDs carried by the context to
// every record logged through the *Context methods.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetJobID(ctx); id != "" {
		r.AddAttrs(slog.String(string(JobIDKey), id))
	}
	if id := GetSessionID(ctx); id != "" {
		r.AddAttrs(slog.String(string(SessionIDKey), id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
