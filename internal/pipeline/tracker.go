package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

// BatchStatus is the in-memory view of a batch's lifecycle.
type BatchStatus struct {
	ID            string          `json:"batch_id"`
	Status        feedback.Status `json:"status"`
	Error         string          `json:"error,omitempty"`
	DocumentCount int             `json:"document_count"`
	ReportID      string          `json:"report_id,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
}

// Tracker maps batch IDs to their current status. It is safe for
// concurrent use by running batches and HTTP handlers.
type Tracker struct {
	mu      sync.RWMutex
	batches map[string]BatchStatus
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{batches: make(map[string]BatchStatus)}
}

// Set stores the status of a batch, replacing any previous one.
func (t *Tracker) Set(s BatchStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.batches[s.ID] = s
}

// Update applies fn to a tracked batch. Unknown IDs are ignored.
func (t *Tracker) Update(id string, fn func(*BatchStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.batches[id]
	if !ok {
		return
	}
	fn(&s)
	t.batches[id] = s
}

// Get returns the status of a batch.
func (t *Tracker) Get(id string) (BatchStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.batches[id]
	return s, ok
}

// All returns every tracked batch, newest first.
func (t *Tracker) All() []BatchStatus {
	t.mu.RLock()
	out := make([]BatchStatus, 0, len(t.batches))
	for _, s := range t.batches {
		out = append(out, s)
	}
	t.mu.RUnlock()

	// ULIDs sort by creation time
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
