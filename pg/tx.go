package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskdeck-org/schedkit/boards"
	"github.com/taskdeck-org/schedkit/runtime"
	"github.com/taskdeck-org/schedkit/sched"
	"github.com/taskdeck-org/schedkit/tasks"
)

// txStore is the claim-transaction view handed to the materializer. All of
// its writes land in the nested transaction and roll back together on
// failure.
type txStore struct {
	tx pgx.Tx
	qs string
}

var _ runtime.Tx = (*txStore)(nil)

func (t *txStore) BoardByID(ctx context.Context, id uuid.UUID) (*boards.Board, error) {
	q := fmt.Sprintf(`
		SELECT board_id, name, description, created_by, created_at, updated_at
		FROM %s.boards
		WHERE board_id = $1
	`, t.qs)
	return scanBoard(t.tx.QueryRow(ctx, q, id))
}

// FirstBoardByCreator returns the creator's most recently created board.
func (t *txStore) FirstBoardByCreator(ctx context.Context, creator uuid.UUID) (*boards.Board, error) {
	q := fmt.Sprintf(`
		SELECT board_id, name, description, created_by, created_at, updated_at
		FROM %s.boards
		WHERE created_by = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, t.qs)
	return scanBoard(t.tx.QueryRow(ctx, q, creator))
}

func scanBoard(row pgx.Row) (*boards.Board, error) {
	var b boards.Board
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, runtime.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (t *txStore) CreateBoard(ctx context.Context, b *boards.Board) error {
	if b == nil {
		return fmt.Errorf("board is required")
	}
	if b.ID == uuid.Nil {
		return fmt.Errorf("board id is required")
	}
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("board name is required")
	}
	q := fmt.Sprintf(`
		INSERT INTO %s.boards (board_id, name, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.qs)
	_, err := t.tx.Exec(ctx, q, b.ID, b.Name, b.Description, b.CreatedBy, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	return err
}

func (t *txStore) CreateTask(ctx context.Context, tk *tasks.Task) error {
	if tk == nil {
		return fmt.Errorf("task is required")
	}
	if tk.ID == uuid.Nil {
		return fmt.Errorf("task id is required")
	}
	if strings.TrimSpace(tk.Title) == "" {
		return fmt.Errorf("task title is required")
	}
	if tk.BoardID == uuid.Nil {
		return fmt.Errorf("task board is required")
	}
	// Enforced on every write, alongside the schema CHECK constraint.
	tk.SyncCompletedAt(tk.UpdatedAt)

	q := fmt.Sprintf(`
		INSERT INTO %s.tasks (task_id, title, description, status, priority,
			board_id, created_by, due_date, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, t.qs)
	_, err := t.tx.Exec(ctx, q,
		tk.ID, tk.Title, tk.Description, tk.Status, tk.Priority,
		tk.BoardID, tk.CreatedBy, tk.DueDate, tk.CompletedAt,
		tk.CreatedAt.UTC(), tk.UpdatedAt.UTC())
	if err != nil {
		return err
	}

	qa := fmt.Sprintf(`
		INSERT INTO %s.task_assignees (task_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, t.qs)
	for _, user := range tk.Assignees {
		if _, err := t.tx.Exec(ctx, qa, tk.ID, user); err != nil {
			return err
		}
	}
	return nil
}

func (t *txStore) CreateScheduledTask(ctx context.Context, st *sched.ScheduledTask) error {
	if st == nil {
		return fmt.Errorf("scheduled task is required")
	}
	if st.ID == uuid.Nil {
		return fmt.Errorf("scheduled task id is required")
	}
	if strings.TrimSpace(st.Title) == "" {
		return fmt.Errorf("scheduled task title is required")
	}
	if st.ScheduledTime.IsZero() {
		return fmt.Errorf("scheduled time is required")
	}

	q := fmt.Sprintf(`
		INSERT INTO %s.scheduled_tasks (scheduled_task_id, title, description,
			status, priority, board_id, created_by, due_date, scheduled_time,
			recurrence_pattern, processing_status, failure_reason, processed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, t.qs)
	_, err := t.tx.Exec(ctx, q,
		st.ID, st.Title, st.Description, st.Status, st.Priority,
		st.BoardID, st.CreatedBy, st.DueDate, st.ScheduledTime.UTC(),
		st.Recurrence, st.ProcessingStatus, st.FailureReason, st.ProcessedAt,
		st.CreatedAt.UTC())
	if err != nil {
		return err
	}

	qa := fmt.Sprintf(`
		INSERT INTO %s.scheduled_task_assignees (scheduled_task_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, t.qs)
	for _, user := range st.Assignees {
		if _, err := t.tx.Exec(ctx, qa, st.ID, user); err != nil {
			return err
		}
	}
	return nil
}
