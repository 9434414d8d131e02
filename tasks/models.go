package tasks

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusOnHold     Status = "ON_HOLD"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Task is a unit of work on a board. Assignment is multi-valued: zero or
// more accounts can be assigned to one task.
type Task struct {
	ID          uuid.UUID
	Title       string
	Description string
	Status      Status
	Priority    Priority
	BoardID     uuid.UUID
	CreatedBy   uuid.UUID
	Assignees   []uuid.UUID
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SyncCompletedAt keeps the completed_at invariant: it is set exactly when
// the status is COMPLETED. Must run before every write, not only creation.
func (t *Task) SyncCompletedAt(now time.Time) {
	if t.Status == StatusCompleted {
		if t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
		return
	}
	t.CompletedAt = nil
}

// IsOverdue reports whether the task's due date has passed while the task is
// still open.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == StatusCompleted || t.Status == StatusCancelled {
		return false
	}
	return now.After(*t.DueDate)
}
