package motion

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of one in-flight plan execution.
type TaskStatus string

const (
	// StatusQueued means the task has been accepted but its first step has
	// not run yet.
	StatusQueued TaskStatus = "queued"
	// StatusRunning means the worker is executing the task's steps.
	StatusRunning TaskStatus = "running"
	// StatusCompleted means every step ran, or the interrupt predicate
	// pre-empted the remainder. Pre-emption is a success, not an error.
	StatusCompleted TaskStatus = "completed"
	// StatusInterrupted means an actuation failure or an unexpected panic
	// aborted the task.
	StatusInterrupted TaskStatus = "interrupted"
	// StatusSuperseded means a newer submission replaced the task before it
	// finished.
	StatusSuperseded TaskStatus = "superseded"
)

// Terminal reports whether the status is an end state.
func (s TaskStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusInterrupted, StatusSuperseded:
		return true
	}
	return false
}

// Task is one submission being executed. Two independent signals steer it:
// Locked blocks supersession by newer submissions, and interruptRequested
// asks the worker to stop between steps. The lock always wins: a locked task
// that receives an interrupt request clears the request and keeps going.
// All fields are mutated only under the executor's lock.
type Task struct {
	ID     uuid.UUID
	Plan   Plan
	Locked bool

	Status    TaskStatus
	StartedAt time.Time
	EndedAt   time.Time

	// Preempted marks a completion that skipped remaining steps because the
	// external interrupt predicate fired mid-plan.
	Preempted bool

	interruptRequested bool
}

func newTask(plan Plan, locked bool) *Task {
	return &Task{
		ID:     uuid.New(),
		Plan:   plan,
		Locked: locked,
		Status: StatusQueued,
	}
}

// Snapshot is a copy of a task's externally visible state, safe to hand to
// callers without holding the executor lock.
type Snapshot struct {
	ID        uuid.UUID
	Status    TaskStatus
	Locked    bool
	Magnitude Magnitude
	Distance  float64
	Steps     int
	StartedAt time.Time
	Preempted bool
}

func (t *Task) snapshot() Snapshot {
	return Snapshot{
		ID:        t.ID,
		Status:    t.Status,
		Locked:    t.Locked,
		Magnitude: t.Plan.Magnitude,
		Distance:  t.Plan.Distance,
		Steps:     len(t.Plan.Steps),
		StartedAt: t.StartedAt,
		Preempted: t.Preempted,
	}
}
