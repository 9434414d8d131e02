// Package runtime processes one tenant's due scheduled tasks: it claims a
// pending row, materializes it into a concrete task inside the claim
// transaction, drives the pending→processed/failed state machine, and then
// records audit and notification side effects post-commit.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck-org/schedkit/audit"
	"github.com/taskdeck-org/schedkit/boards"
	"github.com/taskdeck-org/schedkit/notify"
	"github.com/taskdeck-org/schedkit/sched"
	"github.com/taskdeck-org/schedkit/tasks"
)

// ErrNotFound is returned by Tx lookups when no row matches.
var ErrNotFound = errors.New("not found")

// Tx is the claim-transaction view of a tenant's storage. Writes made
// through Tx roll back together if the materialization fails.
type Tx interface {
	BoardByID(ctx context.Context, id uuid.UUID) (*boards.Board, error)
	FirstBoardByCreator(ctx context.Context, creator uuid.UUID) (*boards.Board, error)
	CreateBoard(ctx context.Context, b *boards.Board) error
	CreateTask(ctx context.Context, t *tasks.Task) error
	CreateScheduledTask(ctx context.Context, st *sched.ScheduledTask) error
}

// Outcome reports one claim: the scheduled task worked on and the
// materialization error, if any. A nil Err means the task ended PROCESSED.
type Outcome struct {
	Task *sched.ScheduledTask
	Err  error
}

// Store is the per-tenant persistence surface the processor drives. The pg
// package implements it against Postgres; tests use fakes.
type Store interface {
	// ClaimNextDue claims at most one pending scheduled task with
	// scheduled_time <= now, using a row lock that concurrent claimers skip
	// rather than wait on, and invokes fn inside the claim transaction.
	//
	// A non-nil error from fn rolls back fn's writes and commits the FAILED
	// transition (failure_reason set, processed_at untouched) in the same
	// transaction; a nil error commits the writes together with the
	// PROCESSED transition. A nil Outcome means nothing was due or every
	// due row is held by a concurrent claimer.
	ClaimNextDue(ctx context.Context, now time.Time, fn func(ctx context.Context, tx Tx, st *sched.ScheduledTask) error) (*Outcome, error)

	// RecordAudit appends an audit entry outside any claim transaction.
	RecordAudit(ctx context.Context, e *audit.Entry) error

	// UserEmails resolves account emails for notification dispatch.
	UserEmails(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type Options struct {
	Store  Store
	Tenant string

	Notifier notify.Dispatcher // optional
	Log      *slog.Logger      // optional
	Now      func() time.Time  // optional, injectable for tests
}

// Processor materializes one tenant's scheduled tasks.
type Processor struct {
	store    Store
	tenant   string
	notifier notify.Dispatcher
	log      *slog.Logger
	now      func() time.Time
}

func New(opts Options) (*Processor, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if strings.TrimSpace(opts.Tenant) == "" {
		return nil, fmt.Errorf("tenant is required")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Processor{
		store:    opts.Store,
		tenant:   opts.Tenant,
		notifier: opts.Notifier,
		log:      log,
		now:      now,
	}, nil
}

// Result describes one processed or failed scheduled task.
type Result struct {
	ScheduledTaskID uuid.UUID
	Title           string
	TaskID          uuid.UUID
	BoardID         uuid.UUID
	BoardName       string
	Err             error
}

func (r Result) Failed() bool { return r.Err != nil }

type materialized struct {
	taskID    uuid.UUID
	boardID   uuid.UUID
	boardName string
	assignees []uuid.UUID
}

// ProcessNext claims and processes one due scheduled task. ok reports
// whether a task was claimed. err reports infrastructure failures only; a
// materialization failure surfaces in res.Err after the scheduled task has
// already been marked FAILED.
func (p *Processor) ProcessNext(ctx context.Context) (res Result, ok bool, err error) {
	now := p.now().UTC()

	var m materialized
	outcome, err := p.store.ClaimNextDue(ctx, now, func(ctx context.Context, tx Tx, st *sched.ScheduledTask) error {
		var ferr error
		m, ferr = p.materialize(ctx, tx, st, now)
		return ferr
	})
	if err != nil {
		return Result{}, false, err
	}
	if outcome == nil {
		return Result{}, false, nil
	}

	st := outcome.Task
	res = Result{
		ScheduledTaskID: st.ID,
		Title:           st.Title,
		TaskID:          m.taskID,
		BoardID:         m.boardID,
		BoardName:       m.boardName,
		Err:             outcome.Err,
	}
	if outcome.Err != nil {
		p.log.Error("scheduled task failed",
			slog.String("tenant", p.tenant),
			slog.String("scheduled_task_id", st.ID.String()),
			slog.String("title", st.Title),
			slog.Any("err", outcome.Err))
		return res, true, nil
	}

	p.log.Info("scheduled task processed",
		slog.String("tenant", p.tenant),
		slog.String("scheduled_task_id", st.ID.String()),
		slog.String("task_id", m.taskID.String()),
		slog.String("title", st.Title))

	// Side channels only after the claim transaction committed: neither may
	// roll back a successful materialization.
	p.recordAudit(ctx, st, m)
	p.dispatchNotifications(ctx, st, m)
	return res, true, nil
}

// materialize converts the claimed scheduled task into a concrete task and,
// for recurring patterns, creates the next occurrence in PENDING state. Any
// error aborts the whole unit and routes to the FAILED transition.
func (p *Processor) materialize(ctx context.Context, tx Tx, st *sched.ScheduledTask, now time.Time) (materialized, error) {
	board, err := p.resolveBoard(ctx, tx, st, now)
	if err != nil {
		return materialized{}, fmt.Errorf("resolve board: %w", err)
	}

	t := &tasks.Task{
		ID:          uuid.New(),
		Title:       st.Title,
		Description: st.Description,
		Status:      st.Status,
		Priority:    st.Priority,
		BoardID:     board.ID,
		CreatedBy:   st.CreatedBy,
		Assignees:   append([]uuid.UUID(nil), st.Assignees...),
		DueDate:     st.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.SyncCompletedAt(now)
	if err := tx.CreateTask(ctx, t); err != nil {
		return materialized{}, fmt.Errorf("create task: %w", err)
	}

	if next, recurs := sched.NextOccurrence(st.Recurrence, now); recurs {
		succ := &sched.ScheduledTask{
			ID:               uuid.New(),
			Title:            st.Title,
			Description:      st.Description,
			Status:           st.Status,
			Priority:         st.Priority,
			BoardID:          &board.ID,
			CreatedBy:        st.CreatedBy,
			Assignees:        append([]uuid.UUID(nil), st.Assignees...),
			DueDate:          st.DueDate,
			ScheduledTime:    next,
			Recurrence:       st.Recurrence,
			ProcessingStatus: sched.ProcessingPending,
			CreatedAt:        now,
		}
		if err := tx.CreateScheduledTask(ctx, succ); err != nil {
			return materialized{}, fmt.Errorf("create next occurrence: %w", err)
		}
		p.log.Info("created next occurrence",
			slog.String("tenant", p.tenant),
			slog.String("scheduled_task_id", st.ID.String()),
			slog.Time("next_time", next))
	}

	return materialized{
		taskID:    t.ID,
		boardID:   board.ID,
		boardName: board.Name,
		assignees: t.Assignees,
	}, nil
}

// resolveBoard returns the scheduled task's board, falling back for legacy
// rows without one: the creator's most recently created board, or a fresh
// "Default Board" when the creator has none.
func (p *Processor) resolveBoard(ctx context.Context, tx Tx, st *sched.ScheduledTask, now time.Time) (*boards.Board, error) {
	if st.BoardID != nil {
		return tx.BoardByID(ctx, *st.BoardID)
	}

	b, err := tx.FirstBoardByCreator(ctx, st.CreatedBy)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	b = &boards.Board{
		ID:          uuid.New(),
		Name:        boards.DefaultName,
		Description: boards.DefaultDescription,
		CreatedBy:   st.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.CreateBoard(ctx, b); err != nil {
		return nil, err
	}
	p.log.Info("created default board",
		slog.String("tenant", p.tenant),
		slog.String("creator", st.CreatedBy.String()))
	return b, nil
}

// recordAudit is best-effort: a failed write is logged and dropped.
func (p *Processor) recordAudit(ctx context.Context, st *sched.ScheduledTask, m materialized) {
	actor := st.CreatedBy
	e := &audit.Entry{
		ID:          uuid.New(),
		Actor:       &actor,
		Action:      audit.ActionTaskCreated,
		Description: fmt.Sprintf("Task '%s' created from scheduled task", st.Title),
		Metadata: map[string]any{
			"task_id":           m.taskID.String(),
			"scheduled_task_id": st.ID.String(),
			"title":             st.Title,
			"board_id":          m.boardID.String(),
			"board_name":        m.boardName,
			"from_scheduled":    true,
		},
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.RecordAudit(ctx, e); err != nil {
		p.log.Error("audit write failed",
			slog.String("tenant", p.tenant),
			slog.String("scheduled_task_id", st.ID.String()),
			slog.Any("err", err))
	}
}

func (p *Processor) dispatchNotifications(ctx context.Context, st *sched.ScheduledTask, m materialized) {
	if p.notifier == nil || len(m.assignees) == 0 {
		return
	}
	emails, err := p.store.UserEmails(ctx, m.assignees)
	if err != nil {
		p.log.Warn("assignee email lookup failed",
			slog.String("tenant", p.tenant),
			slog.String("task_id", m.taskID.String()),
			slog.Any("err", err))
		return
	}
	for _, id := range m.assignees {
		email := emails[id]
		if email == "" {
			continue
		}
		p.notifier.TaskCreated(ctx, notify.TaskCreated{
			TaskID:        m.taskID,
			TaskTitle:     st.Title,
			AssigneeEmail: email,
			Tenant:        p.tenant,
		})
	}
}
