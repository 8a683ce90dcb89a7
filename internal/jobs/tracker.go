package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"mmrhub/internal/model"
)

// Tracker errors surfaced to the service layer.
var (
	ErrJobNotFound   = errors.New("job not found")
	ErrTerminalState = errors.New("job already in a terminal state")
)

// Tracker persists per-job status records. Records expire after a fixed
// retention window regardless of terminal state.
type Tracker interface {
	// Create stores a new pending job record.
	Create(ctx context.Context, job *model.Job) error
	// Get returns one job record or ErrJobNotFound.
	Get(ctx context.Context, jobID string) (*model.Job, error)
	// UpdateStatus applies a lifecycle transition. Transitions out of a
	// terminal state are rejected with ErrTerminalState.
	UpdateStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error
	// UpdateProgress records structured progress. Percentage is
	// non-decreasing; IncrementRetry is the only reset. Writes to a
	// terminal record are rejected with ErrTerminalState.
	UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error
	// SetResult attaches the parse result payload. A result arriving for a
	// terminal record is rejected with ErrTerminalState.
	SetResult(ctx context.Context, jobID string, result *model.ParseResult) error
	// IncrementRetry bumps the retry counter, resets progress to zero and
	// returns the job to pending for its next attempt. Terminal records
	// are rejected with ErrTerminalState.
	IncrementRetry(ctx context.Context, jobID string) error
	// ListByUser returns the owner's jobs newest-first, paged.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Job, error)
	// Delete removes the record and its user-index membership.
	Delete(ctx context.Context, jobID string) error
}

// applyStatus mutates a job record for one lifecycle transition, enforcing
// terminal-state finality and the started-at-set-once rule.
func applyStatus(job *model.Job, status model.JobStatus, errMsg string) error {
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, job.Status)
	}
	job.Status = status
	now := time.Now()
	if status == model.JobProcessing && job.StartedAt == nil {
		job.StartedAt = &now
	}
	if status.Terminal() {
		job.CompletedAt = &now
	}
	if errMsg != "" {
		job.Error = errMsg
	}
	return nil
}

// applyProgress mutates a job record's progress, keeping the percentage
// non-decreasing. Terminal records never change; the only progress reset
// is the one applyRetry performs.
func applyProgress(job *model.Job, current, total int, message string) error {
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, job.Status)
	}
	if total <= 0 {
		total = 100
	}
	pct := int(math.Round(float64(current) / float64(total) * 100))
	if pct < job.Progress.Percentage {
		return nil
	}
	job.Progress = model.JobProgress{
		Current:    current,
		Total:      total,
		Percentage: pct,
		Message:    message,
	}
	return nil
}

// applyResult attaches a parse result. A result that arrives after the job
// reached a terminal state is rejected so a cancelled job never gains one.
func applyResult(job *model.Job, result *model.ParseResult) error {
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, job.Status)
	}
	job.Result = result
	return nil
}

// applyRetry returns a job to pending for its next attempt. A terminal job
// is never resurrected by a retry.
func applyRetry(job *model.Job) error {
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, job.Status)
	}
	job.RetryCount++
	job.Progress = model.JobProgress{Total: job.Progress.Total}
	job.Status = model.JobPending
	job.Error = ""
	return nil
}

// memoryTracker is the in-process Tracker used in tests and single-node
// runs. Each record is independently keyed; one lock guards the maps.
type memoryTracker struct {
	mu     sync.RWMutex
	jobs   map[string]*model.Job
	byUser map[string][]string // newest last
}

// NewMemoryTracker creates an in-process tracker.
func NewMemoryTracker() Tracker {
	return &memoryTracker{
		jobs:   make(map[string]*model.Job),
		byUser: make(map[string][]string),
	}
}

func (t *memoryTracker) Create(_ context.Context, job *model.Job) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	clone := *job
	t.jobs[job.JobID] = &clone
	t.byUser[job.UserID] = append(t.byUser[job.UserID], job.JobID)
	return nil
}

func (t *memoryTracker) Get(_ context.Context, jobID string) (*model.Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

func (t *memoryTracker) UpdateStatus(_ context.Context, jobID string, status model.JobStatus, errMsg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	return applyStatus(job, status, errMsg)
}

func (t *memoryTracker) UpdateProgress(_ context.Context, jobID string, current, total int, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	return applyProgress(job, current, total, message)
}

func (t *memoryTracker) SetResult(_ context.Context, jobID string, result *model.ParseResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	return applyResult(job, result)
}

func (t *memoryTracker) IncrementRetry(_ context.Context, jobID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	return applyRetry(job)
}

func (t *memoryTracker) ListByUser(_ context.Context, userID string, limit, offset int) ([]*model.Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := t.byUser[userID]
	out := make([]*model.Job, 0, limit)
	// Stored oldest-first; walk backwards for newest-first listing.
	for i := len(ids) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		if job, ok := t.jobs[ids[i]]; ok {
			clone := *job
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (t *memoryTracker) Delete(_ context.Context, jobID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	delete(t.jobs, jobID)
	ids := t.byUser[job.UserID]
	filtered := ids[:0]
	for _, id := range ids {
		if id != jobID {
			filtered = append(filtered, id)
		}
	}
	t.byUser[job.UserID] = filtered
	return nil
}
