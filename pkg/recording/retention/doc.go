// Package retention owns the bounded history of captured frames.
//
// Manager is the single owner of the timestamp index. Every read and write
// goes through it under one lock; readers get copies. When an append pushes
// the index past its capacity the oldest record is evicted and its artifact
// deletion is requested after the lock is released.
//
// Janitor runs a cron-scheduled orphan sweep that removes stored artifacts
// older than the oldest retained frame which the index no longer tracks.
//
// # Configuration
//
//	retention:
//	  max_duration_minutes: 30      # with camera.fps: capacity = 30*fps*60
//	  sweep_schedule: "*/10 * * * *"
package retention
