package storage

import (
	"context"
	"sync"

	"github.com/pi3123/SmartDashcam/pkg/recording"
)

// Fault is consulted before every MemoryStore operation. A non-nil return
// fails the operation with an ArtifactError wrapping it. op is one of
// "put", "get", "delete", "list"; key is empty for list.
type Fault func(op, key string) error

// MemoryStore implements recording.ArtifactStore using an in-memory map.
// This implementation is intended for testing only.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]recording.Artifact
	fault     Fault
	deletes   int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		artifacts: make(map[string]recording.Artifact),
	}
}

// InjectFault installs f. Passing nil removes the current fault.
func (s *MemoryStore) InjectFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *MemoryStore) check(ctx context.Context, op, key string) error {
	if err := ctx.Err(); err != nil {
		return recording.NewArtifactError(op, key, err)
	}
	s.mu.RLock()
	fault := s.fault
	s.mu.RUnlock()
	if fault != nil {
		if err := fault(op, key); err != nil {
			return recording.NewArtifactError(op, key, err)
		}
	}
	return nil
}

// Put stores a copy of the artifact.
func (s *MemoryStore) Put(ctx context.Context, artifact *recording.Artifact) error {
	if err := s.check(ctx, "put", artifact.Key); err != nil {
		return err
	}

	// Copy so callers can reuse their buffers
	stored := recording.Artifact{
		Key:  artifact.Key,
		Data: append([]byte(nil), artifact.Data...),
	}
	if artifact.Aux != nil {
		stored.Aux = append([]byte(nil), artifact.Aux...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[artifact.Key] = stored
	return nil
}

// Get returns a copy of the artifact.
func (s *MemoryStore) Get(ctx context.Context, key string) (*recording.Artifact, error) {
	if err := s.check(ctx, "get", key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.artifacts[key]
	if !ok {
		return nil, recording.NewArtifactError("get", key, recording.ErrNotFound)
	}
	out := stored
	out.Data = append([]byte(nil), stored.Data...)
	if stored.Aux != nil {
		out.Aux = append([]byte(nil), stored.Aux...)
	}
	return &out, nil
}

// Delete removes the artifact. Missing keys are not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx, "delete", key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.artifacts, key)
	s.deletes++
	return nil
}

// List returns all keys.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := s.check(ctx, "list", ""); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.artifacts))
	for key := range s.artifacts {
		keys = append(keys, key)
	}
	return keys, nil
}

// Has reports whether key is stored (for testing).
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.artifacts[key]
	return ok
}

// Size returns the number of stored artifacts (for testing).
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}

// Deletes returns the number of successful Delete calls (for testing).
func (s *MemoryStore) Deletes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deletes
}
