package importer

import (
	"context"
	"sync"
)

// Status is the lifecycle state of an import job.
type Status string

// Import job states.
const (
	StatusIdle       Status = "idle"
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Job is a point-in-time snapshot of a user's import progress.
type Job struct {
	Status    Status `json:"status"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Imported  int    `json:"imported"`
	Error     string `json:"error,omitempty"`
}

type trackedJob struct {
	job    Job
	gen    uint64
	cancel context.CancelFunc
}

// Tracker keeps at most one import job per user in memory. Starting a new
// import cancels the previous job's context; a generation counter keeps a
// superseded job from clobbering its successor's progress.
type Tracker struct {
	mu   sync.Mutex
	gen  uint64
	jobs map[string]*trackedJob
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*trackedJob)}
}

// Begin registers a fresh job for the user, cancelling any previous one.
// It returns the job's context and generation token.
func (t *Tracker) Begin(userID string, total int) (context.Context, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.jobs[userID]; ok && prev.cancel != nil {
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.gen++
	t.jobs[userID] = &trackedJob{
		job:    Job{Status: StatusStarting, Total: total},
		gen:    t.gen,
		cancel: cancel,
	}

	return ctx, t.gen
}

// Update applies fn to the user's job if it is still the generation that
// acquired the token. Updates from superseded jobs are dropped.
func (t *Tracker) Update(userID string, gen uint64, fn func(*Job)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.jobs[userID]
	if !ok || tracked.gen != gen {
		return
	}
	fn(&tracked.job)
}

// Get returns the current job snapshot for the user, or an idle job when
// no import has been started.
func (t *Tracker) Get(userID string) Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tracked, ok := t.jobs[userID]; ok {
		return tracked.job
	}
	return Job{Status: StatusIdle}
}
