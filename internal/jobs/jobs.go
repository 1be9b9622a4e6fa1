// Package jobs is an in-memory capture job tracker backing the async API.
// It is best-effort bookkeeping: jobs do not survive a restart, and its
// absence degrades the system to synchronous-only operation.
package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job states.
const (
	StateQueued  = "queued"
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

// ErrNotFound is returned for unknown or expired job identifiers.
var ErrNotFound = errors.New("job not found")

// Job describes one tracked capture.
type Job struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	State      string    `json:"state"`
	Percent    int       `json:"percent"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	ResultPath string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tracker stores jobs in memory.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Job)}
}

// Create registers a queued job for the given URL and returns its snapshot.
func (t *Tracker) Create(url string) Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		URL:       url,
		State:     StateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()
	return *job
}

// Get returns a snapshot of the job.
func (t *Tracker) Get(id string) (Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

// Progress records a state/progress update. Unknown identifiers are ignored;
// progress reporting is a side-effect boundary, never a control-flow one.
func (t *Tracker) Progress(id string, percent int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[id]; ok {
		job.State = StateRunning
		job.Percent = percent
		job.Message = message
		job.UpdatedAt = time.Now()
	}
}

// Complete marks the job done, recording where its PDF artifact lives.
func (t *Tracker) Complete(id, resultPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[id]; ok {
		job.State = StateDone
		job.Percent = 100
		job.ResultPath = resultPath
		job.UpdatedAt = time.Now()
	}
}

// Fail marks the job failed with the given reason.
func (t *Tracker) Fail(id, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[id]; ok {
		job.State = StateFailed
		job.Error = reason
		job.UpdatedAt = time.Now()
	}
}

// Sweep drops terminal jobs older than maxAge and returns how many were
// removed. Callers run it periodically; result artifacts are released by
// their own scoped handles.
func (t *Tracker) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, job := range t.jobs {
		if job.UpdatedAt.Before(cutoff) && (job.State == StateDone || job.State == StateFailed) {
			delete(t.jobs, id)
			removed++
		}
	}
	return removed
}
