// Package telemetry groups the observability packages of the recorder.
//
// # Components
//
//   - logging: slog logger built from configuration, runtime level changes
//   - metrics: Prometheus metrics for capture, retention, and export
//   - tracing: OpenTelemetry spans for capture sessions and exports
//   - health: liveness and readiness checks for the admin server
//
// # Usage
//
//	cfg := config.GetConfig()
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//		return err
//	}
//	logger.Install()
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//
//	ctx, span := tracer.Start(ctx, "export")
//	defer span.End()
package telemetry
