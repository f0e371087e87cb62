package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on recorder spans.
const (
	AttrExportJobID         = "dashcam.export.job_id"
	AttrExportWindowMinutes = "dashcam.export.window_minutes"
	AttrExportWaitFuture    = "dashcam.export.wait_for_future_frames"
	AttrExportFrames        = "dashcam.export.frames"
	AttrExportPath          = "dashcam.export.path"
	AttrExportEncoder       = "dashcam.export.encoder"
	AttrBufferFrames        = "dashcam.buffer.frames"
	AttrCaptureSource       = "dashcam.capture.source"
	AttrCaptureSession      = "dashcam.capture.session_id"
)

// SetExportRequestAttributes annotates a span with the export request.
func SetExportRequestAttributes(span trace.Span, jobID string, windowMinutes float64, waitFuture bool) {
	span.SetAttributes(
		attribute.String(AttrExportJobID, jobID),
		attribute.Float64(AttrExportWindowMinutes, windowMinutes),
		attribute.Bool(AttrExportWaitFuture, waitFuture),
	)
}

// SetExportResultAttributes annotates a span with the export outcome.
func SetExportResultAttributes(span trace.Span, path string, frames int) {
	span.SetAttributes(
		attribute.String(AttrExportPath, path),
		attribute.Int(AttrExportFrames, frames),
	)
}

// SetCaptureAttributes annotates a capture session span.
func SetCaptureAttributes(span trace.Span, source, sessionID string) {
	span.SetAttributes(
		attribute.String(AttrCaptureSource, source),
		attribute.String(AttrCaptureSession, sessionID),
	)
}

// AddEvent adds a named event to the span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
