package sched

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck-org/schedkit/tasks"
)

// ProcessingStatus is the scheduled task's position in the processing state
// machine. The only legal transitions are pending→processed and
// pending→failed; terminal rows are never picked up again.
type ProcessingStatus int16

const (
	ProcessingPending   ProcessingStatus = 0
	ProcessingProcessed ProcessingStatus = 1
	ProcessingFailed    ProcessingStatus = 2
)

func (s ProcessingStatus) String() string {
	switch s {
	case ProcessingPending:
		return "pending"
	case ProcessingProcessed:
		return "processed"
	case ProcessingFailed:
		return "failed"
	}
	return "unknown"
}

type RecurrencePattern string

const (
	RecurOnce    RecurrencePattern = "ONCE"
	RecurDaily   RecurrencePattern = "DAILY"
	RecurWeekly  RecurrencePattern = "WEEKLY"
	RecurMonthly RecurrencePattern = "MONTHLY"
)

// ScheduledTask is a template for a Task to be materialized at or after
// ScheduledTime. BoardID is nullable only for legacy rows; materialization
// falls back to the creator's boards for those.
type ScheduledTask struct {
	ID          uuid.UUID
	Title       string
	Description string
	Status      tasks.Status
	Priority    tasks.Priority
	BoardID     *uuid.UUID
	CreatedBy   uuid.UUID
	Assignees   []uuid.UUID
	DueDate     *time.Time

	ScheduledTime time.Time
	Recurrence    RecurrencePattern

	ProcessingStatus ProcessingStatus
	FailureReason    *string
	ProcessedAt      *time.Time

	CreatedAt time.Time
}
