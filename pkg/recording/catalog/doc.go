// Package catalog keeps the history of export jobs.
//
// Every export, successful or not, is recorded as a Job with its output
// path, the first and last exported capture timestamps, the frame count,
// and the outcome. SQLiteCatalog persists jobs with the pure-Go
// modernc.org/sqlite driver in WAL mode; MemoryCatalog is used in tests and
// when no catalog path is configured.
//
// # Configuration
//
//	export:
//	  catalog_path: "data/exports.db"   # empty keeps the catalog in memory
package catalog
