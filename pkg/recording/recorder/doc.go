// Package recorder assembles the rolling recorder from configuration.
//
// A Recorder owns one artifact store, retention index, persister, capture
// loop, export pipeline, orphan janitor, and export catalog. Start rebuilds
// the index from the store once, then starts capturing:
//
//	rec, err := recorder.New(cfg, recorder.Deps{})
//	if err != nil {
//		return err
//	}
//	defer rec.Close(context.Background())
//
//	if err := rec.Start(ctx); err != nil {
//		return err
//	}
//
//	result, err := rec.Export(ctx, recording.ExportRequest{WindowMinutes: 5})
//
// Every dependency can be replaced through Deps, which is how tests run the
// recorder against an in-memory store and a scripted source.
package recorder
