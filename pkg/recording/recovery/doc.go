// Package recovery rebuilds the retention index from stored artifacts.
//
// At startup the Scanner lists every artifact key, parses it back into a
// capture timestamp, and returns the records in ascending order. Store
// enumeration order is never trusted. Keys that do not parse are skipped
// and duplicate timestamps are dropped; both are reported in the Result.
//
//	result, err := recovery.NewScanner(store).Scan(ctx)
//	if err != nil {
//		return err
//	}
//	err = manager.Rehydrate(ctx, result.Records)
package recovery
