package reminder

import (
	"time"

	"github.com/google/uuid"
)

// Status represents where a reminder state sits in its lifecycle.
type Status string

const (
	// StatusPending means the assignment is outstanding and ticks may
	// still fire for it.
	StatusPending Status = "PENDING"
	// StatusExhausted means maxRetries was consumed. Terminal; retained
	// for audit until archived.
	StatusExhausted Status = "EXHAUSTED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further dispatch may ever occur for a
// state in this status.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// State tracks one outstanding task assignment's reminder progress.
// Owned exclusively by the scheduler; the effective policy is
// deliberately not stored here, it is re-resolved on every tick so
// administrator edits take effect on the next cycle.
type State struct {
	TaskAssignmentID uuid.UUID
	ChildID          uuid.UUID
	AttemptsSoFar    int
	LastSentAt       *time.Time
	NextDueAt        time.Time
	Status           Status
	ClosedAt         *time.Time // Set on any terminal transition, drives archival
}

// NewState creates a Pending state due immediately: a freshly assigned
// task gets its first reminder at assignment time.
func NewState(taskAssignmentID, childID uuid.UUID, now time.Time) *State {
	return &State{
		TaskAssignmentID: taskAssignmentID,
		ChildID:          childID,
		AttemptsSoFar:    0,
		NextDueAt:        now,
		Status:           StatusPending,
	}
}
