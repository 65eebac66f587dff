package manager

import (
	"context"

	"github.com/cliair-memcore/memcore/memtypes"
)

// CreateTask delegates to the task store, per spec.md §6.
func (m *Manager) CreateTask(ctx context.Context, input memtypes.TaskInput) (memtypes.TaskState, error) {
	if input.SessionID == "" {
		input.SessionID = m.GetSessionID()
	}
	return m.tasks.Create(ctx, input)
}

// UpdateTask delegates to the task store, per spec.md §6.
func (m *Manager) UpdateTask(ctx context.Context, id string, update memtypes.TaskUpdate) (memtypes.TaskState, error) {
	return m.tasks.Update(ctx, id, update)
}

// GetCurrentTask delegates to the task store, per spec.md §6.
func (m *Manager) GetCurrentTask(ctx context.Context, sessionID string) (memtypes.TaskState, error) {
	if sessionID == "" {
		sessionID = m.GetSessionID()
	}
	return m.tasks.GetCurrent(ctx, sessionID)
}

// RollbackTask delegates to the task store.
func (m *Manager) RollbackTask(ctx context.Context, id string, version int) (memtypes.TaskState, error) {
	return m.tasks.Rollback(ctx, id, version)
}
