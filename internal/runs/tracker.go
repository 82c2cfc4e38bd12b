// Package runs tracks the lifecycle of concurrent analysis runs and keeps
// a bounded event history for progress consumers.
package runs

import (
	"errors"
	"fmt"
	"sync"

	"accent-detector/internal/domain"
)

// ErrRunExists is returned when starting a run with a duplicate ID.
var ErrRunExists = errors.New("run already exists")

// ErrUnknownRun is returned for operations on an untracked run ID.
var ErrUnknownRun = errors.New("unknown run")

// Tracker maintains the status of every active and recently finished run.
// Unlike a single-job manager, any number of runs may be active at once;
// each run's state machine is still enforced individually.
type Tracker struct {
	mu   sync.RWMutex
	runs map[string]domain.Run
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		runs: make(map[string]domain.Run),
	}
}

// Start registers a new run in acquiring state.
func (t *Tracker) Start(runID, url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.runs[runID]; ok {
		return ErrRunExists
	}

	t.runs[runID] = domain.Run{
		ID:     runID,
		URL:    url,
		Status: domain.RunStatusAcquiring,
	}
	return nil
}

// Transition validates and applies a status change for one run.
func (t *Tracker) Transition(runID string, status domain.RunStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[runID]
	if !ok {
		return ErrUnknownRun
	}
	if status == run.Status {
		return nil
	}
	if !isValidTransition(run.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", run.Status, status)
	}

	run.Status = status
	t.runs[runID] = run
	return nil
}

// Get returns a snapshot of one run.
func (t *Tracker) Get(runID string) (domain.Run, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	run, ok := t.runs[runID]
	return run, ok
}

// ActiveCount reports how many runs are not yet terminal.
func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, run := range t.runs {
		if !run.Status.Terminal() {
			count++
		}
	}
	return count
}

// Forget removes a terminal run from the tracker.
func (t *Tracker) Forget(runID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[runID]
	if !ok {
		return ErrUnknownRun
	}
	if !run.Status.Terminal() {
		return fmt.Errorf("cannot forget active run %s", runID)
	}

	delete(t.runs, runID)
	return nil
}

// isValidTransition enforces the allowed run state machine edges.
func isValidTransition(from, to domain.RunStatus) bool {
	switch from {
	case domain.RunStatusAcquiring:
		return to == domain.RunStatusExtracting || to == domain.RunStatusFailed || to == domain.RunStatusCancelled
	case domain.RunStatusExtracting:
		return to == domain.RunStatusTranscribing || to == domain.RunStatusFailed || to == domain.RunStatusCancelled
	case domain.RunStatusTranscribing:
		return to == domain.RunStatusClassifying || to == domain.RunStatusFailed || to == domain.RunStatusCancelled
	case domain.RunStatusClassifying:
		return to == domain.RunStatusDone || to == domain.RunStatusFailed || to == domain.RunStatusCancelled
	default:
		return false
	}
}
