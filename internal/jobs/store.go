// Package jobs tracks asynchronous invoice sync jobs from submission to
// their terminal state and fans status changes out to websocket watchers.
package jobs

import (
	"context"
	"sync"

	"billing-backend/internal/models"
)

// Store persists job metadata keyed by job id. Writes are last-writer-wins;
// the orchestrator records PROCESSING up front and overwrites with the
// terminal state when the platform answers.
type Store interface {
	Put(ctx context.Context, meta models.JobMetadata) error
	Get(ctx context.Context, jobID string) (*models.JobMetadata, error)
	Delete(ctx context.Context, jobID string) error
}

// MemoryStore is the default in-process store.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]models.JobMetadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]models.JobMetadata)}
}

func (s *MemoryStore) Put(_ context.Context, meta models.JobMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[meta.JobID] = meta
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (*models.JobMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &meta, nil
}

func (s *MemoryStore) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}
