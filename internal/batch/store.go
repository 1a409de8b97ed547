// Package batch owns the lifecycle of image-extraction jobs: fan-out under
// a concurrency bound, per-item settlement, and job-level aggregation.
package batch

import (
	"sync"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// JobStore is the process-scoped job registry. State lives for the process
// lifetime only and is never persisted; losing it on restart is an accepted
// property of the system, not a bug.
type JobStore interface {
	Create(job model.BatchJob)
	// Get returns a snapshot safe to read while the job is still mutating.
	Get(id string) (model.BatchJob, bool)
	// Update applies fn under the job's lock. No-op for unknown ids.
	Update(id string, fn func(*model.BatchJob))
}

// MemoryStore is the in-memory JobStore used in production.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

type jobEntry struct {
	mu  sync.Mutex
	job model.BatchJob
}

// NewMemoryStore creates an empty registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*jobEntry)}
}

func (s *MemoryStore) Create(job model.BatchJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = &jobEntry{job: job}
}

func (s *MemoryStore) Get(id string) (model.BatchJob, bool) {
	s.mu.RLock()
	entry, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return model.BatchJob{}, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	snapshot := entry.job
	snapshot.Results = append([]model.ItemResult(nil), entry.job.Results...)
	return snapshot, true
}

func (s *MemoryStore) Update(id string, fn func(*model.BatchJob)) {
	s.mu.RLock()
	entry, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	fn(&entry.job)
}
