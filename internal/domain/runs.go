package domain

// RunStatus tracks each pipeline stage for a single analysis run.
type RunStatus string

const (
	RunStatusAcquiring    RunStatus = "acquiring"
	RunStatusExtracting   RunStatus = "extracting"
	RunStatusTranscribing RunStatus = "transcribing"
	RunStatusClassifying  RunStatus = "classifying"
	RunStatusDone         RunStatus = "done"
	RunStatusFailed       RunStatus = "failed"
	RunStatusCancelled    RunStatus = "cancelled"
)

// Run stores one analysis run's identity and lifecycle status.
type Run struct {
	ID     string    `json:"id"`
	URL    string    `json:"url"`
	Status RunStatus `json:"status"`
}

// Terminal reports whether a status represents a finished run.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusDone, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}
