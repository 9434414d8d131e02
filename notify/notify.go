// Package notify hands task-created events to an external notification
// queue. Dispatch is fire-and-forget: delivery, retry, and fan-out to
// channels are entirely the queue's problem, and a dispatch failure must
// never affect the materialization that triggered it.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// TaskCreated is the payload accepted by the notification queue when a task
// is materialized for an assignee.
type TaskCreated struct {
	TaskID        uuid.UUID
	TaskTitle     string
	AssigneeEmail string
	Tenant        string
}

// Dispatcher accepts fire-and-forget notifications. Implementations must not
// block on delivery and must swallow delivery errors.
type Dispatcher interface {
	TaskCreated(ctx context.Context, n TaskCreated)
}

// LogDispatcher writes notifications to the log. It stands in for a real
// queue in development and tests.
type LogDispatcher struct {
	Log *slog.Logger
}

func (d *LogDispatcher) TaskCreated(ctx context.Context, n TaskCreated) {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	if n.AssigneeEmail == "" {
		log.Debug("no assignee for task, skipping notification",
			slog.String("tenant", n.Tenant),
			slog.String("task_id", n.TaskID.String()))
		return
	}
	log.Info("task created notification",
		slog.String("tenant", n.Tenant),
		slog.String("task_id", n.TaskID.String()),
		slog.String("title", n.TaskTitle),
		slog.String("assignee", n.AssigneeEmail))
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) TaskCreated(context.Context, TaskCreated) {}
