// Package health provides liveness and readiness checks for the recorder.
//
// The recorder registers critical checks for the capture loop and the
// frames directory, and an optional check for the export catalog:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("capture", health.Condition(rec.Running, "capture loop not running"))
//	checker.RegisterCheck("frames_dir", health.DirWritable(cfg.Storage.FramesDir))
//	checker.RegisterOptionalCheck("catalog", catalog.Ping)
//
// The admin server exposes them at /health, /ready, and /version.
package health
