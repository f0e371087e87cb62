// Package server provides the admin HTTP server of the recorder.
//
// The server exposes probes, metrics, and a small JSON API for triggering
// exports while the recorder keeps capturing.
//
// # Endpoints
//
//	GET  /health            Liveness probe
//	GET  /ready             Readiness probe (capture running, frames dir writable, catalog)
//	GET  /version           Build information
//	GET  /metrics           Prometheus metrics (path configurable)
//	GET  /api/v1/status     Recorder status
//	GET  /api/v1/exports    Recent export jobs (?limit=N)
//	POST /api/v1/export     Export the last N minutes
//	POST /api/v1/clear      Delete all retained frames
//
// # Export Requests
//
//	curl -X POST http://127.0.0.1:8090/api/v1/export \
//	    -d '{"window_minutes": 5, "wait_for_future_frames": false}'
//
// An omitted window_minutes uses export.default_window_minutes. Responses:
//
//   - 200 OK: the export result
//   - 400 Bad Request: malformed body or invalid window length
//   - 409 Conflict: the retained history cannot serve the window
//     (start time invalid, or no frames)
//   - 500 Internal Server Error: artifact or encoder failure
//
// # Middleware
//
// Requests pass through panic recovery, request ID assignment, structured
// logging, and trace context extraction, outermost first.
package server
