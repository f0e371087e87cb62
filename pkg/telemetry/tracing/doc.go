// Package tracing provides OpenTelemetry tracing for the recorder.
//
// Exports are the only request-shaped operation in the recorder, so spans
// are created around each export (resolve, read, write stages) and around
// capture sessions. When tracing is disabled a noop tracer is used and the
// instrumentation costs next to nothing.
//
// # Configuration
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    sampler: ratio
//	    sample_ratio: 1.0
//	    endpoint: "localhost:4317"
//	    service_name: "smart-dashcam"
//	    insecure: true
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "export.run")
//	defer span.End()
package tracing
