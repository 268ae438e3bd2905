package jobs

import (
	"sync"

	"billing-backend/internal/models"
)

// Hub fans job status updates out to live watchers. A watcher subscribes
// to one job id and receives every update published for it until it
// unsubscribes. Slow watchers drop updates rather than block publishers.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[chan models.JobMetadata]struct{}
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[chan models.JobMetadata]struct{})}
}

// Subscribe registers a watcher for a job and returns its update channel.
func (h *Hub) Subscribe(jobID string) chan models.JobMetadata {
	ch := make(chan models.JobMetadata, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watchers[jobID] == nil {
		h.watchers[jobID] = make(map[chan models.JobMetadata]struct{})
	}
	h.watchers[jobID][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a watcher and closes its channel.
func (h *Hub) Unsubscribe(jobID string, ch chan models.JobMetadata) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.watchers[jobID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(h.watchers, jobID)
	}
	close(ch)
}

// Publish delivers an update to every watcher of the job.
func (h *Hub) Publish(meta models.JobMetadata) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.watchers[meta.JobID] {
		select {
		case ch <- meta:
		default:
		}
	}
}
