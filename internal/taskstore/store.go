// Package taskstore implements spec.md §4.2: the working task state store
// with optimistic-concurrency updates and append-only version snapshots.
// Grounded on the teacher's internal/memory state-tracking tables,
// generalized to the richer TaskState/PlanStep shape and version-conflict
// semantics spec.md §3/§4.2 describe.
package taskstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cliair-memcore/memcore/internal/sqlstore"
	"github.com/cliair-memcore/memcore/memtypes"
)

// Store is the SQLite-backed task state store.
type Store struct {
	db *sql.DB
}

// Open creates/opens the task store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlstore.Open(ctx, path, schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new task at version 1, per spec.md §4.2.
func (s *Store) Create(ctx context.Context, input memtypes.TaskInput) (memtypes.TaskState, error) {
	if input.Goal == "" {
		return memtypes.TaskState{}, memtypes.Newf(memtypes.KindInvalid, "taskstore.Create", "goal must not be empty")
	}

	t := memtypes.TaskState{
		ID:          memtypes.NewID(),
		Goal:        input.Goal,
		Status:      memtypes.TaskPending,
		Constraints: input.Constraints,
		Plan:        input.Plan,
		Done:        memtypes.NewStringSet(),
		Blocked:     memtypes.NewStringSet(),
		UpdatedAt:   memtypes.NowMillis(),
		Version:     1,
		SessionID:   input.SessionID,
		Metadata:    input.Metadata,
	}
	if err := validateInvariants(t); err != nil {
		return memtypes.TaskState{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Create", err)
	}
	defer tx.Rollback()

	if err := insertTask(ctx, tx, t); err != nil {
		return memtypes.TaskState{}, err
	}
	if err := insertSnapshot(ctx, tx, t); err != nil {
		return memtypes.TaskState{}, err
	}
	if err := tx.Commit(); err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Create", err)
	}
	return t, nil
}

// Get retrieves a task by id.
func (s *Store) Get(ctx context.Context, id string) (memtypes.TaskState, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return memtypes.TaskState{}, memtypes.Newf(memtypes.KindNotFound, "taskstore.Get", "task %s not found", id)
	}
	if err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Get", err)
	}
	return t, nil
}

// Update applies a field-level merge with optimistic concurrency, per
// spec.md §4.2: if update.Version is set and doesn't match the stored
// version, fails with KindConflict; otherwise increments the version,
// stamps updated_at, and appends a snapshot row — all in one transaction.
func (s *Store) Update(ctx context.Context, id string, update memtypes.TaskUpdate) (memtypes.TaskState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Update", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectCols+` FROM tasks WHERE id = ?`, id)
	current, err := scanTask(row)
	if err == sql.ErrNoRows {
		return memtypes.TaskState{}, memtypes.Newf(memtypes.KindNotFound, "taskstore.Update", "task %s not found", id)
	}
	if err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Update", err)
	}

	if update.Version != nil && *update.Version != current.Version {
		return memtypes.TaskState{}, &memtypes.Error{
			Kind: memtypes.KindConflict,
			Op:   "taskstore.Update",
			Path: id,
		}
	}

	next := applyUpdate(current, update)
	next.Version = current.Version + 1
	next.UpdatedAt = memtypes.NowMillis()

	if err := validateInvariants(next); err != nil {
		return memtypes.TaskState{}, err
	}

	if err := updateTask(ctx, tx, next); err != nil {
		return memtypes.TaskState{}, err
	}
	if err := insertSnapshot(ctx, tx, next); err != nil {
		return memtypes.TaskState{}, err
	}
	if err := tx.Commit(); err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Update", err)
	}
	return next, nil
}

// Rollback creates a new row (with a strictly greater version than the
// task's current one) whose fields match the snapshot at version, per
// spec.md §4.2 ("rollback(id,version) creates a new row... with strictly
// greater version").
func (s *Store) Rollback(ctx context.Context, id string, version int) (memtypes.TaskState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Rollback", err)
	}
	defer tx.Rollback()

	var stateJSON string
	err = tx.QueryRowContext(ctx, `SELECT state FROM task_snapshots WHERE task_id = ? AND version = ?`, id, version).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return memtypes.TaskState{}, memtypes.Newf(memtypes.KindNotFound, "taskstore.Rollback", "snapshot %s@%d not found", id, version)
	}
	if err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Rollback", err)
	}

	var snapshot memtypes.TaskState
	if err := json.Unmarshal([]byte(stateJSON), &snapshot); err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Rollback", err)
	}

	row := tx.QueryRowContext(ctx, selectCols+` FROM tasks WHERE id = ?`, id)
	current, err := scanTask(row)
	if err == sql.ErrNoRows {
		return memtypes.TaskState{}, memtypes.Newf(memtypes.KindNotFound, "taskstore.Rollback", "task %s not found", id)
	}
	if err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Rollback", err)
	}

	restored := snapshot
	restored.ID = current.ID
	restored.Version = current.Version + 1
	restored.UpdatedAt = memtypes.NowMillis()

	if err := updateTask(ctx, tx, restored); err != nil {
		return memtypes.TaskState{}, err
	}
	if err := insertSnapshot(ctx, tx, restored); err != nil {
		return memtypes.TaskState{}, err
	}
	if err := tx.Commit(); err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.Rollback", err)
	}
	return restored, nil
}

// GetCurrent returns the most recently updated non-terminal task for a
// session (or globally, if sessionID is empty), or KindNotFound if none
// exists, per spec.md §4.2.
func (s *Store) GetCurrent(ctx context.Context, sessionID string) (memtypes.TaskState, error) {
	sqlQuery := selectCols + ` FROM tasks WHERE status NOT IN (?, ?, ?)`
	args := []any{string(memtypes.TaskCompleted), string(memtypes.TaskFailed), string(memtypes.TaskCancelled)}
	if sessionID != "" {
		sqlQuery += ` AND session_id = ?`
		args = append(args, sessionID)
	}
	sqlQuery += ` ORDER BY updated_at DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, sqlQuery, args...)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return memtypes.TaskState{}, memtypes.Newf(memtypes.KindNotFound, "taskstore.GetCurrent", "no current task")
	}
	if err != nil {
		return memtypes.TaskState{}, memtypes.Wrap(memtypes.KindDatabase, "taskstore.GetCurrent", err)
	}
	return t, nil
}

// ListSnapshots returns every snapshot recorded for a task, ordered by
// version ascending.
func (s *Store) ListSnapshots(ctx context.Context, id string) ([]memtypes.TaskSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, version, state, created_at FROM task_snapshots WHERE task_id = ? ORDER BY version ASC`, id)
	if err != nil {
		return nil, memtypes.Wrap(memtypes.KindDatabase, "taskstore.ListSnapshots", err)
	}
	defer rows.Close()

	var out []memtypes.TaskSnapshot
	for rows.Next() {
		var snap memtypes.TaskSnapshot
		var stateJSON string
		if err := rows.Scan(&snap.TaskID, &snap.Version, &stateJSON, &snap.CreatedAt); err != nil {
			return nil, memtypes.Wrap(memtypes.KindDatabase, "taskstore.ListSnapshots", err)
		}
		if err := json.Unmarshal([]byte(stateJSON), &snap.State); err != nil {
			return nil, memtypes.Wrap(memtypes.KindDatabase, "taskstore.ListSnapshots", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func applyUpdate(current memtypes.TaskState, u memtypes.TaskUpdate) memtypes.TaskState {
	next := current
	if u.Goal != nil {
		next.Goal = *u.Goal
	}
	if u.Status != nil {
		next.Status = *u.Status
	}
	if u.Constraints != nil {
		next.Constraints = *u.Constraints
	}
	if u.Plan != nil {
		next.Plan = *u.Plan
	}
	if u.Done != nil {
		next.Done = *u.Done
	}
	if u.Blocked != nil {
		next.Blocked = *u.Blocked
	}
	if u.NextAction != nil {
		next.NextAction = *u.NextAction
	}
	if u.Metadata != nil {
		next.Metadata = *u.Metadata
	}
	return next
}

// validateInvariants enforces spec.md §3's TaskState invariants: every
// done/blocked id must appear in the plan, and done/blocked never overlap.
func validateInvariants(t memtypes.TaskState) error {
	planIDs := memtypes.NewStringSet()
	for _, step := range t.Plan {
		planIDs.Add(step.ID)
	}
	for _, id := range t.Done.Slice() {
		if !planIDs.Has(id) {
			return memtypes.Newf(memtypes.KindInvalid, "taskstore.validateInvariants", "done step %q not present in plan", id)
		}
	}
	for _, id := range t.Blocked.Slice() {
		if !planIDs.Has(id) {
			return memtypes.Newf(memtypes.KindInvalid, "taskstore.validateInvariants", "blocked step %q not present in plan", id)
		}
		if t.Done.Has(id) {
			return memtypes.Newf(memtypes.KindInvalid, "taskstore.validateInvariants", "step %q is both done and blocked", id)
		}
	}
	return nil
}

const selectCols = `SELECT id, goal, status, constraints, plan, done, blocked, next_action, updated_at, version, session_id, metadata`

func insertTask(ctx context.Context, tx *sql.Tx, t memtypes.TaskState) error {
	cols, err := marshalTaskCols(t)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, goal, status, constraints, plan, done, blocked, next_action, updated_at, version, session_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Goal, string(t.Status), cols.constraints, cols.plan, cols.done, cols.blocked,
		sqlstore.NullIfEmpty(t.NextAction), t.UpdatedAt, t.Version, sqlstore.NullIfEmpty(t.SessionID), cols.metadata)
	if err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "taskstore.insertTask", err)
	}
	return nil
}

func updateTask(ctx context.Context, tx *sql.Tx, t memtypes.TaskState) error {
	cols, err := marshalTaskCols(t)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET goal=?, status=?, constraints=?, plan=?, done=?, blocked=?, next_action=?, updated_at=?, version=?, session_id=?, metadata=?
		WHERE id = ?
	`, t.Goal, string(t.Status), cols.constraints, cols.plan, cols.done, cols.blocked,
		sqlstore.NullIfEmpty(t.NextAction), t.UpdatedAt, t.Version, sqlstore.NullIfEmpty(t.SessionID), cols.metadata, t.ID)
	if err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "taskstore.updateTask", err)
	}
	return nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, t memtypes.TaskState) error {
	stateJSON, err := json.Marshal(t)
	if err != nil {
		return memtypes.Wrap(memtypes.KindInvalid, "taskstore.insertSnapshot", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO task_snapshots (task_id, version, state, created_at) VALUES (?, ?, ?, ?)
	`, t.ID, t.Version, string(stateJSON), memtypes.NowMillis())
	if err != nil {
		return memtypes.Wrap(memtypes.KindDatabase, "taskstore.insertSnapshot", err)
	}
	return nil
}

type marshalledCols struct {
	constraints, plan, done, blocked, metadata any
}

func marshalTaskCols(t memtypes.TaskState) (marshalledCols, error) {
	constraintsJSON, err := marshalOrNil(t.Constraints, len(t.Constraints) == 0)
	if err != nil {
		return marshalledCols{}, memtypes.Wrap(memtypes.KindInvalid, "taskstore.marshalTaskCols", err)
	}
	planJSON, err := marshalOrNil(t.Plan, len(t.Plan) == 0)
	if err != nil {
		return marshalledCols{}, memtypes.Wrap(memtypes.KindInvalid, "taskstore.marshalTaskCols", err)
	}
	doneJSON, err := json.Marshal(t.Done.Slice())
	if err != nil {
		return marshalledCols{}, memtypes.Wrap(memtypes.KindInvalid, "taskstore.marshalTaskCols", err)
	}
	blockedJSON, err := json.Marshal(t.Blocked.Slice())
	if err != nil {
		return marshalledCols{}, memtypes.Wrap(memtypes.KindInvalid, "taskstore.marshalTaskCols", err)
	}
	metaJSON, err := marshalOrNil(t.Metadata, len(t.Metadata) == 0)
	if err != nil {
		return marshalledCols{}, memtypes.Wrap(memtypes.KindInvalid, "taskstore.marshalTaskCols", err)
	}
	return marshalledCols{
		constraints: constraintsJSON,
		plan:        planJSON,
		done:        string(doneJSON),
		blocked:     string(blockedJSON),
		metadata:    metaJSON,
	}, nil
}

func marshalOrNil(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return string(b), nil
}
