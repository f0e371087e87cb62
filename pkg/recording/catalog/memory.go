package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryCatalog implements Catalog using an in-memory map.
type MemoryCatalog struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{jobs: make(map[string]Job)}
}

// RecordJob stores a copy of job.
func (c *MemoryCatalog) RecordJob(ctx context.Context, job *Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs[job.ID] = *job
	return nil
}

// ListJobs returns jobs newest first.
func (c *MemoryCatalog) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	jobs := make([]*Job, 0, len(c.jobs))
	for _, job := range c.jobs {
		jobCopy := job
		jobs = append(jobs, &jobCopy)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].StartedAt.Equal(jobs[j].StartedAt) {
			return jobs[i].StartedAt.After(jobs[j].StartedAt)
		}
		return jobs[i].ID > jobs[j].ID
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// GetJob returns a copy of the job.
func (c *MemoryCatalog) GetJob(ctx context.Context, id string) (*Job, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	job, ok := c.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

// Ping always succeeds.
func (c *MemoryCatalog) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (c *MemoryCatalog) Close() error { return nil }
