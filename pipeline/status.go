package pipeline

import (
	"strconv"
	"sync"
	"time"

	"github.com/adamsih300u/bastion/core"
	"github.com/adamsih300u/bastion/notify"
)

// Status is the structured answer to a status query. Lookups never
// fail; unknown IDs come back with core.StatusUnknown.
type Status struct {
	ID            string
	Status        core.JobStatus
	Progress      float64
	QueuePosition int
	Error         string
	Summary       *core.JobSummary
	UpdatedAt     time.Time
}

// Tracker is the single source of truth for job state. A tracked ID
// lives in exactly one of the active, completed, or failed maps at any
// instant; transitions move it atomically under one lock. Terminal
// entries persist until Clear.
type Tracker struct {
	mu        sync.Mutex
	active    map[string]*Status
	completed map[string]*Status
	failed    map[string]*Status

	notifier notify.Notifier
}

// NewTracker creates a tracker. The notifier may be nil; when set it
// receives every transition, after the tracker lock is released.
func NewTracker(notifier notify.Notifier) *Tracker {
	return &Tracker{
		active:    make(map[string]*Status),
		completed: make(map[string]*Status),
		failed:    make(map[string]*Status),
		notifier:  notifier,
	}
}

// statusProgress maps a stage to coarse forward progress.
func statusProgress(status core.JobStatus) float64 {
	switch status {
	case core.StatusQueued:
		return 0.0
	case core.StatusProcessing:
		return 0.25
	case core.StatusEmbedding:
		return 0.5
	case core.StatusCompleted:
		return 1.0
	case core.StatusFailed:
		return 1.0
	default:
		return 0.0
	}
}

// Track registers a newly submitted ID as queued and returns true. A
// previously terminal ID is re-registered fresh, supporting
// re-submission. An ID that is still active is rejected with false so
// the same document cannot be in flight twice.
func (t *Tracker) Track(id string) bool {
	t.mu.Lock()
	if _, busy := t.active[id]; busy {
		t.mu.Unlock()
		return false
	}
	delete(t.completed, id)
	delete(t.failed, id)
	position := 0
	for _, entry := range t.active {
		if entry.Status == core.StatusQueued {
			position++
		}
	}
	t.active[id] = &Status{
		ID:            id,
		Status:        core.StatusQueued,
		QueuePosition: position + 1,
		UpdatedAt:     time.Now().UTC(),
	}
	t.mu.Unlock()

	t.notify(id, core.StatusQueued, nil)
	return true
}

// SetStatus records a non-terminal stage transition for an active ID.
// Unknown IDs are registered on the fly so out-of-band submissions
// (recovery re-imports) stay observable.
func (t *Tracker) SetStatus(id string, status core.JobStatus) {
	t.mu.Lock()
	entry, ok := t.active[id]
	if !ok {
		entry = &Status{ID: id}
		t.active[id] = entry
	}
	entry.Status = status
	entry.Progress = statusProgress(status)
	entry.QueuePosition = 0
	entry.UpdatedAt = time.Now().UTC()
	t.mu.Unlock()

	t.notify(id, status, nil)
}

// Complete moves an ID from active to completed.
func (t *Tracker) Complete(id string, summary *core.JobSummary) {
	t.mu.Lock()
	entry, ok := t.active[id]
	if !ok {
		entry = &Status{ID: id}
	}
	delete(t.active, id)
	entry.Status = core.StatusCompleted
	entry.Progress = 1.0
	entry.QueuePosition = 0
	entry.Summary = summary
	entry.UpdatedAt = time.Now().UTC()
	t.completed[id] = entry
	t.mu.Unlock()

	var metadata map[string]string
	if summary != nil {
		metadata = map[string]string{
			"chunks_processed":  strconv.Itoa(summary.ChunksProcessed),
			"embeddings_stored": strconv.Itoa(summary.EmbeddingsStored),
		}
	}
	t.notify(id, core.StatusCompleted, metadata)
}

// Fail moves an ID from active to failed, recording the error text.
func (t *Tracker) Fail(id string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	t.mu.Lock()
	entry, ok := t.active[id]
	if !ok {
		entry = &Status{ID: id}
	}
	delete(t.active, id)
	entry.Status = core.StatusFailed
	entry.Progress = 1.0
	entry.QueuePosition = 0
	entry.Error = errMsg
	entry.UpdatedAt = time.Now().UTC()
	t.failed[id] = entry
	t.mu.Unlock()

	t.notify(id, core.StatusFailed, map[string]string{"error": errMsg})
}

// Get returns the current status of an ID, checking completed, then
// failed, then active. Unknown IDs return a zero-status result.
func (t *Tracker) Get(id string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.completed[id]; ok {
		return *entry
	}
	if entry, ok := t.failed[id]; ok {
		return *entry
	}
	if entry, ok := t.active[id]; ok {
		return *entry
	}
	return Status{ID: id, Status: core.StatusUnknown}
}

// Counts returns the sizes of the three maps.
func (t *Tracker) Counts() (active, completed, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active), len(t.completed), len(t.failed)
}

// ActiveCount returns the number of non-terminal tracked IDs.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Clear removes terminal entries, optionally only those older than
// the given age. Active entries are never cleared.
func (t *Tracker) Clear(olderThan time.Duration) int {
	cutoff := time.Now().UTC().Add(-olderThan)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, entry := range t.completed {
		if olderThan <= 0 || entry.UpdatedAt.Before(cutoff) {
			delete(t.completed, id)
			removed++
		}
	}
	for id, entry := range t.failed {
		if olderThan <= 0 || entry.UpdatedAt.Before(cutoff) {
			delete(t.failed, id)
			removed++
		}
	}
	return removed
}

// WaitFor polls until the ID reaches a terminal state or the timeout
// elapses. Returns true only for completion; failure and timeout both
// return false, distinguishable via a subsequent Get. A timeout <= 0
// waits indefinitely.
func (t *Tracker) WaitFor(id string, timeout, pollInterval time.Duration) bool {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		status := t.Get(id)
		switch status.Status {
		case core.StatusCompleted:
			return true
		case core.StatusFailed, core.StatusUnknown:
			return false
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

// WaitForAll polls until no active IDs remain or the timeout elapses.
func (t *Tracker) WaitForAll(timeout, pollInterval time.Duration) bool {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if t.ActiveCount() == 0 {
			return true
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

func (t *Tracker) notify(id string, status core.JobStatus, metadata map[string]string) {
	if t.notifier != nil {
		t.notifier.NotifyStatusChanged(id, status, metadata)
	}
}
