// Package metrics exposes Prometheus metrics for the recorder.
//
// The Collector groups capture metrics (frames captured, dropped, evicted,
// buffer fill, persistence queue depth, artifact errors, orphan sweeps) and
// export metrics (outcomes, duration, frames per export). Every method is a
// no-op on a nil Collector, which is what tests and the CLI one-shot
// commands use.
//
// # Configuration
//
//	telemetry:
//	  metrics:
//	    enabled: true
//	    path: "/metrics"
//	    namespace: "dashcam"
//	    subsystem: "recorder"
package metrics
