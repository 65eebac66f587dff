package taskstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cliair-memcore/memcore/memtypes"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAssignsVersionOne(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	task, err := s.Create(ctx, memtypes.TaskInput{Goal: "ship feature"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Version != 1 {
		t.Fatalf("expected version 1, got %d", task.Version)
	}
	if task.Status != memtypes.TaskPending {
		t.Fatalf("expected pending status, got %v", task.Status)
	}
}

func TestUpdateVersionIncrementsAndSnapshots(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	task, err := s.Create(ctx, memtypes.TaskInput{Goal: "ship feature"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n := 3
	for i := 0; i < n; i++ {
		goal := "ship feature v2"
		updated, err := s.Update(ctx, task.ID, memtypes.TaskUpdate{Goal: &goal})
		if err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
		task = updated
	}

	if task.Version != n+1 {
		t.Fatalf("expected version %d after %d updates, got %d", n+1, n, task.Version)
	}

	snaps, err := s.ListSnapshots(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(snaps) != n+1 {
		t.Fatalf("expected %d snapshots (1 create + %d updates), got %d", n+1, n, len(snaps))
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	task, err := s.Create(ctx, memtypes.TaskInput{Goal: "ship feature"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	staleVersion := 99
	_, err = s.Update(ctx, task.ID, memtypes.TaskUpdate{Version: &staleVersion})
	if !memtypes.Is(err, memtypes.KindConflict) {
		t.Fatalf("expected KindConflict, got %v", err)
	}
}

func TestRollbackCreatesGreaterVersion(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	task, err := s.Create(ctx, memtypes.TaskInput{Goal: "original goal"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	changed := "changed goal"
	if _, err := s.Update(ctx, task.ID, memtypes.TaskUpdate{Goal: &changed}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	restored, err := s.Rollback(ctx, task.ID, 1)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if restored.Goal != "original goal" {
		t.Fatalf("expected original goal restored, got %q", restored.Goal)
	}
	if restored.Version <= 2 {
		t.Fatalf("expected rollback version strictly greater than prior version, got %d", restored.Version)
	}
}

func TestDoneAndBlockedMustAppearInPlan(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	task, err := s.Create(ctx, memtypes.TaskInput{Goal: "goal", Plan: []memtypes.PlanStep{{ID: "s1", Description: "step 1"}}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	badDone := memtypes.NewStringSet("not-in-plan")
	if _, err := s.Update(ctx, task.ID, memtypes.TaskUpdate{Done: &badDone}); !memtypes.Is(err, memtypes.KindInvalid) {
		t.Fatalf("expected KindInvalid for done id not in plan, got %v", err)
	}
}

func TestGetCurrentReturnsMostRecentNonTerminal(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	first, err := s.Create(ctx, memtypes.TaskInput{Goal: "first", SessionID: "s1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := s.Create(ctx, memtypes.TaskInput{Goal: "second", SessionID: "s1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	current, err := s.GetCurrent(ctx, "s1")
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if current.ID != second.ID {
		t.Fatalf("expected most recently updated task %s, got %s", second.ID, current.ID)
	}

	completed := memtypes.TaskCompleted
	if _, err := s.Update(ctx, second.ID, memtypes.TaskUpdate{Status: &completed}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	current, err = s.GetCurrent(ctx, "s1")
	if err != nil {
		t.Fatalf("GetCurrent after completing second: %v", err)
	}
	if current.ID != first.ID {
		t.Fatalf("expected fallback to non-terminal task %s, got %s", first.ID, current.ID)
	}
	if _, err := s.Update(ctx, first.ID, memtypes.TaskUpdate{Status: &completed}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := s.GetCurrent(ctx, "s1"); err == nil {
		t.Fatalf("expected NotFound once every task in the session is terminal")
	}
}

func TestCompleteStepIdempotentOnSameActionID(t *testing.T) {
	reducer := StateReducer{}
	state := memtypes.TaskState{
		Plan: []memtypes.PlanStep{{ID: "s1", Description: "do thing"}},
		Done: memtypes.NewStringSet(),
	}

	r1 := reducer.CompleteStep(state, "s1", "done", "action-1")
	r2 := reducer.CompleteStep(r1.State, "s1", "done", "action-1")
	r3 := reducer.CompleteStep(r2.State, "s1", "done", "action-1")

	if !r3.State.Done.Has("s1") || r3.State.Done.Len() != 1 {
		t.Fatalf("expected done={s1}, got %v", r3.State.Done.Slice())
	}
	if r1.State.Done.Slice()[0] != r2.State.Done.Slice()[0] || r2.State.Done.Slice()[0] != r3.State.Done.Slice()[0] {
		t.Fatalf("expected stable done set across repeated calls")
	}
}
