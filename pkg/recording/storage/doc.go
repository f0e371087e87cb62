// Package storage provides ArtifactStore implementations.
//
// FileStore keeps one file per frame under a frames directory, named
// "<key><ext>" (for example "1700000000.123456.jpg"), with an optional
// secondary track beside it under the aux extension. Writes go through a
// temporary file and a rename so a crash never leaves a truncated artifact
// under a valid key.
//
// MemoryStore is a map-backed store for tests. It supports fault injection
// so callers can exercise ArtifactError paths.
package storage
