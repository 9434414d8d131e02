package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskdeck-org/schedkit/runtime"
	"github.com/taskdeck-org/schedkit/sched"
)

// ClaimNextDue claims one pending scheduled task due at or before now and
// runs fn inside the claim transaction.
//
// The claim row lock uses SKIP LOCKED: concurrent invocations partition the
// due set instead of serializing on it, so overlapping cron fires are safe.
// fn runs in a nested transaction (savepoint); on failure only fn's writes
// roll back, the row lock stays held, and the FAILED transition commits in
// the same claim transaction. That closes the window where a failed row
// would otherwise be briefly unlocked and still pending.
func (s *Store) ClaimNextDue(ctx context.Context, now time.Time, fn func(ctx context.Context, tx runtime.Tx, st *sched.ScheduledTask) error) (*runtime.Outcome, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := fmt.Sprintf(`
		SELECT scheduled_task_id, title, description, status, priority,
		       board_id, created_by, due_date, scheduled_time,
		       recurrence_pattern, processing_status, failure_reason,
		       processed_at, created_at
		FROM %s.scheduled_tasks
		WHERE processing_status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time ASC, created_at DESC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, s.qs)

	var st sched.ScheduledTask
	err = tx.QueryRow(ctx, q, sched.ProcessingPending, now.UTC()).Scan(
		&st.ID,
		&st.Title,
		&st.Description,
		&st.Status,
		&st.Priority,
		&st.BoardID,
		&st.CreatedBy,
		&st.DueDate,
		&st.ScheduledTime,
		&st.Recurrence,
		&st.ProcessingStatus,
		&st.FailureReason,
		&st.ProcessedAt,
		&st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	st.Assignees, err = scheduledAssignees(ctx, tx, s.qs, &st)
	if err != nil {
		return nil, err
	}

	inner, err := tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	ferr := fn(ctx, &txStore{tx: inner, qs: s.qs}, &st)
	if ferr != nil {
		// Record the failure even when fn died of a per-item deadline: the
		// FAILED transition must survive the item context.
		failCtx := context.WithoutCancel(ctx)
		if err := failClaim(failCtx, tx, inner, s.qs, &st, ferr, now); err != nil {
			return nil, err
		}
		return &runtime.Outcome{Task: &st, Err: ferr}, nil
	}
	if err := inner.Commit(ctx); err != nil {
		return nil, err
	}
	if err := markProcessed(ctx, tx, s.qs, &st, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &runtime.Outcome{Task: &st}, nil
}

func scheduledAssignees(ctx context.Context, tx pgx.Tx, qs string, st *sched.ScheduledTask) ([]uuid.UUID, error) {
	q := fmt.Sprintf(`
		SELECT user_id
		FROM %s.scheduled_task_assignees
		WHERE scheduled_task_id = $1
		ORDER BY user_id ASC
	`, qs)
	rows, err := tx.Query(ctx, q, st.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// failClaim rolls back the materialization savepoint and commits the FAILED
// transition in the outer claim transaction. ctx must not carry the item
// deadline. The savepoint rollback has to succeed before anything commits:
// proceeding past a failed rollback would commit fn's partial writes
// together with the FAILED row.
func failClaim(ctx context.Context, outer, inner pgx.Tx, qs string, st *sched.ScheduledTask, ferr error, now time.Time) error {
	if err := inner.Rollback(ctx); err != nil {
		return fmt.Errorf("rollback materialization: %w", err)
	}
	if err := markFailed(ctx, outer, qs, st, ferr.Error(), now); err != nil {
		return err
	}
	return outer.Commit(ctx)
}

// Terminal transitions are guarded on processing_status = pending so a row
// can never leave one terminal state for another.

func markProcessed(ctx context.Context, tx pgx.Tx, qs string, st *sched.ScheduledTask, now time.Time) error {
	q := fmt.Sprintf(`
		UPDATE %s.scheduled_tasks
		SET processing_status = $1, processed_at = $2, failure_reason = NULL
		WHERE scheduled_task_id = $3 AND processing_status = $4
	`, qs)
	tag, err := tx.Exec(ctx, q, sched.ProcessingProcessed, now.UTC(), st.ID, sched.ProcessingPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scheduled task %s is no longer pending", st.ID)
	}
	st.ProcessingStatus = sched.ProcessingProcessed
	ts := now.UTC()
	st.ProcessedAt = &ts
	st.FailureReason = nil
	return nil
}

func markFailed(ctx context.Context, tx pgx.Tx, qs string, st *sched.ScheduledTask, reason string, now time.Time) error {
	if reason == "" {
		reason = "unknown error"
	}
	q := fmt.Sprintf(`
		UPDATE %s.scheduled_tasks
		SET processing_status = $1, failure_reason = $2
		WHERE scheduled_task_id = $3 AND processing_status = $4
	`, qs)
	tag, err := tx.Exec(ctx, q, sched.ProcessingFailed, reason, st.ID, sched.ProcessingPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scheduled task %s is no longer pending", st.ID)
	}
	st.ProcessingStatus = sched.ProcessingFailed
	st.FailureReason = &reason
	return nil
}
