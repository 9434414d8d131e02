package boards

import (
	"time"

	"github.com/google/uuid"
)

// Fallback board used for legacy scheduled tasks created before board
// association became mandatory.
const (
	DefaultName        = "Default Board"
	DefaultDescription = "Default board for scheduled tasks"
)

// Board is a named collection of tasks within a tenant.
type Board struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
