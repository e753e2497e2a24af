package models

import (
	"testing"
	"time"
)

func TestJobLogsSince(t *testing.T) {
	store := NewJobStore()
	job := store.Create("migration-run", "conn-1")

	job.AppendLog("one")
	job.AppendLog("two")
	job.AppendLog("three")

	if got := job.LogsSince(0); len(got) != 3 {
		t.Errorf("LogsSince(0) = %d lines, want 3", len(got))
	}
	got := job.LogsSince(2)
	if len(got) != 1 || got[0] != "three" {
		t.Errorf("LogsSince(2) = %v", got)
	}
	if got := job.LogsSince(5); got != nil {
		t.Errorf("LogsSince past end = %v, want nil", got)
	}
}

func TestJobCancelWinsOverComplete(t *testing.T) {
	store := NewJobStore()
	job := store.Create("migration-run", "conn-1")

	ctx := job.Context()
	job.Cancel()

	select {
	case <-ctx.Done():
	default:
		t.Error("Cancel should cancel the job context")
	}

	// The worker goroutine finishing later must not overwrite the status
	job.Complete()
	if job.Status != "cancelled" {
		t.Errorf("Status = %q, want cancelled", job.Status)
	}
}

func TestJobFail(t *testing.T) {
	store := NewJobStore()
	job := store.Create("migration-preview", "conn-1")

	job.Fail("listing source: boom")
	if job.Status != "failed" || job.Error == "" || job.FinishedAt == nil {
		t.Errorf("after Fail = %+v", job)
	}
}

func TestJobStoreListOrder(t *testing.T) {
	store := NewJobStore()
	first := store.Create("migration-run", "c1")
	time.Sleep(2 * time.Millisecond)
	second := store.Create("migration-run", "c1")

	jobs := store.List()
	if len(jobs) != 2 {
		t.Fatalf("List = %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != second.ID || jobs[1].ID != first.ID {
		t.Error("List should return most recent job first")
	}
}
