package tasks

import (
	"testing"
	"time"
)

func TestSyncCompletedAt(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	tk := Task{Status: StatusCompleted}
	tk.SyncCompletedAt(now)
	if tk.CompletedAt == nil || !tk.CompletedAt.Equal(now) {
		t.Fatalf("completed task should get completed_at = %v, got %v", now, tk.CompletedAt)
	}

	// An already-set completion time is preserved on later writes.
	later := now.Add(time.Hour)
	tk.SyncCompletedAt(later)
	if !tk.CompletedAt.Equal(now) {
		t.Fatalf("completed_at changed on re-sync: %v", tk.CompletedAt)
	}

	// Leaving COMPLETED clears it.
	tk.Status = StatusInProgress
	tk.SyncCompletedAt(later)
	if tk.CompletedAt != nil {
		t.Fatalf("expected completed_at cleared, got %v", tk.CompletedAt)
	}
}

func TestSyncCompletedAtNonCompleted(t *testing.T) {
	now := time.Now()
	for _, s := range []Status{StatusPending, StatusInProgress, StatusCancelled, StatusOnHold} {
		tk := Task{Status: s}
		tk.SyncCompletedAt(now)
		if tk.CompletedAt != nil {
			t.Fatalf("%s: completed_at should stay nil", s)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Now()
	due := now.Add(-time.Hour)

	tk := Task{Status: StatusPending, DueDate: &due}
	if !tk.IsOverdue(now) {
		t.Fatalf("pending task past due date should be overdue")
	}

	tk.Status = StatusCompleted
	if tk.IsOverdue(now) {
		t.Fatalf("completed task is never overdue")
	}

	tk = Task{Status: StatusPending}
	if tk.IsOverdue(now) {
		t.Fatalf("task without due date is never overdue")
	}
}
