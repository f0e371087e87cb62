// Package logging configures the process logger.
//
// Components log through log/slog and obtain their logger with
// slog.Default().With("component", "<area>.<component>"). This package
// builds the default handler from configuration (level, json or text
// format, source locations) and keeps the level in a slog.LevelVar so it
// can be changed when the configuration file is reloaded.
//
// Export job and capture session IDs stored in a context with WithJobID
// and WithSessionID are attached automatically to records logged with the
// *Context variants:
//
//	ctx = logging.WithJobID(ctx, job.ID)
//	logger.InfoContext(ctx, "export started", "frames", len(job.OrderedTimestamps))
package logging
