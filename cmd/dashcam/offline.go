package main

import (
	"context"
	"log/slog"

	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording/recorder"
)

// openOffline assembles a recorder over the frames on disk without starting
// capture and rebuilds its index. Retention applies exactly as on a restart:
// artifacts beyond capacity are evicted oldest first.
func openOffline(ctx context.Context, cfg *config.Config) (*recorder.Recorder, error) {
	rec, err := recorder.New(cfg, recorder.Deps{})
	if err != nil {
		return nil, err
	}
	if _, err := rec.Recover(ctx); err != nil {
		rec.Close(context.WithoutCancel(ctx))
		return nil, err
	}
	return rec, nil
}

func closeOffline(ctx context.Context, rec *recorder.Recorder) {
	if err := rec.Close(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("failed to close recorder", "error", err)
	}
}
