// Package export turns a window of retained history into a video file.
//
// An export takes a snapshot of the retention index, waits for queued
// artifact writes, and resolves the requested window with a ceiling search
// over the snapshot's timestamps. The frames are then moved through two
// stages joined by a bounded queue: a reader loading artifacts in ascending
// order and a writer appending them to the output. Frame order is preserved
// end to end. Any failure aborts both stages and removes the partial file.
//
// # Output
//
// Files are named after the first exported frame in the configured time
// zone, with spaces and colons replaced by dashes:
//
//	outputVideo/2023-11-14-22-13-20.mp4
//	outputVideo/2023-11-14-22-13-20.123456.mp4
//
// Two encoders are provided. FFmpegEncoder pipes the JPEG frames into
// ffmpeg and produces MP4. MJPEGEncoder concatenates the JPEG frames and
// needs no external tools.
//
// # Usage
//
//	pipeline := export.New(export.ConfigFrom(&cfg.Export, &cfg.Camera), manager, store, encoder,
//		export.WithFlusher(persister),
//		export.WithCatalog(jobs),
//	)
//	result, err := pipeline.Export(ctx, recording.ExportRequest{WindowMinutes: 5})
//	if errors.Is(err, recording.ErrInvalidWindow) {
//		// no retained frame covers the window start
//	}
package export
