// Package capture implements the always-on capture side of the recorder.
//
// Loop reads frames from a recording.Source, stamps each with the capture
// time, queues its artifact write on the Persister, and appends its record
// to the retention manager. Frames whose timestamp does not advance are
// dropped. A source failure ends the session with a *recording.CaptureError;
// it is not retried.
//
// Persister owns the only goroutine that writes to the artifact store. Puts,
// deletes, and flush barriers share one bounded FIFO queue, so an eviction
// can never delete a file before it is written.
//
// Two sources are provided:
//
//   - FFmpegSource runs ffmpeg against a camera device and splits its MJPEG
//     output into frames.
//   - PatternSource renders a synthetic test pattern at a fixed rate.
//
// # Usage
//
//	persister := capture.NewPersister(store, capture.PersisterConfigFrom(&cfg.Storage), collector)
//	loop := capture.NewLoop(source, persister, manager, capture.WithMetrics(collector))
//	if err := loop.Start(ctx); err != nil {
//		return err
//	}
//	defer loop.Stop(context.Background())
package capture
