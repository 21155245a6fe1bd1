package poller

import (
	"github.com/better-hash/ai-video-generator/internal/entity"
)

// State is the lifecycle position of the poller's task slot.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// Active reports whether a run is in flight.
func (s State) Active() bool {
	return s == StateSubmitting || s == StatePolling
}

// Terminal reports whether the backend finished the task.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// EventType identifies what changed.
type EventType string

const (
	EventStateChanged EventType = "state_changed"
	EventProgress     EventType = "progress"
	EventCompleted    EventType = "completed"
	EventFailed       EventType = "failed"
)

// Event is delivered to observers after every change.
type Event struct {
	Type  EventType
	State State
	Task  entity.GenerationTask
	// Err is set on the transition back to idle after a failed submission.
	Err error
}

// Snapshot is a consistent copy of the poller's slot.
type Snapshot struct {
	State State
	Task  entity.GenerationTask
	// LastError is the most recent submission failure.
	LastError error
	// PollFailures counts consecutive status fetches that failed.
	PollFailures int
}
