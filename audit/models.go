package audit

import (
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionTaskCreated          ActionType = "TASK_CREATED"
	ActionTaskUpdated          ActionType = "TASK_UPDATED"
	ActionTaskDeleted          ActionType = "TASK_DELETED"
	ActionTaskAssigned         ActionType = "TASK_ASSIGNED"
	ActionTaskCompleted        ActionType = "TASK_COMPLETED"
	ActionBoardCreated         ActionType = "BOARD_CREATED"
	ActionBoardUpdated         ActionType = "BOARD_UPDATED"
	ActionBoardDeleted         ActionType = "BOARD_DELETED"
	ActionScheduledTaskCreated ActionType = "SCHEDULED_TASK_CREATED"
)

// Entry is one append-only audit record. Actor is nullable because the
// acting account may be deleted after the fact; entries outlive accounts.
type Entry struct {
	ID          uuid.UUID
	Actor       *uuid.UUID
	Action      ActionType
	Description string
	Metadata    map[string]any

	// Request origin, when the action came through the API.
	IPAddress string
	UserAgent string

	CreatedAt time.Time
}
