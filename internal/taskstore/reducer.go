package taskstore

import "github.com/cliair-memcore/memcore/memtypes"

// ReducerResult is what every StateReducer method returns: the resulting
// state plus the action_id that produced it (spec.md §4.2). Store.Update
// takes no action_id; CompleteStep records it on the completed plan step,
// so it persists with the Plan field.
type ReducerResult struct {
	State    memtypes.TaskState
	ActionID string
}

// StateReducer applies pure, in-memory transformations to a TaskState. It
// never touches the database; Store persists only the resulting fields.
// Grounded on spec.md §4.2's description of a reducer-shaped in-memory
// layer sitting in front of the optimistic-concurrency store.
type StateReducer struct{}

// AddStep appends a new plan step.
func (StateReducer) AddStep(state memtypes.TaskState, step memtypes.PlanStep) ReducerResult {
	if step.ID == "" {
		step.ID = memtypes.NewID()
	}
	if step.Status == "" {
		step.Status = memtypes.TaskPending
	}
	next := state
	next.Plan = append(append([]memtypes.PlanStep{}, state.Plan...), step)
	return ReducerResult{State: next, ActionID: memtypes.NewID()}
}

// CompleteStep marks stepID done, idempotently: repeated calls with the
// same actionID against a state that has already recorded that actionID
// for stepID are no-ops (spec.md §8 law: "complete_step is idempotent on
// the same action_id — done unchanged, version increments at most once").
func (StateReducer) CompleteStep(state memtypes.TaskState, stepID string, result string, actionID string) ReducerResult {
	if actionID == "" {
		actionID = memtypes.NewID()
	}
	for _, step := range state.Plan {
		if step.ID == stepID && step.ActionID == actionID && state.Done.Has(stepID) {
			return ReducerResult{State: state, ActionID: actionID}
		}
	}

	next := state
	next.Done = cloneSet(state.Done)
	next.Done.Add(stepID)
	next.Blocked = cloneSet(state.Blocked)
	next.Blocked.Remove(stepID)
	next.Plan = make([]memtypes.PlanStep, len(state.Plan))
	for i, step := range state.Plan {
		if step.ID == stepID {
			step.Status = memtypes.TaskCompleted
			step.Result = result
			step.ActionID = actionID
		}
		next.Plan[i] = step
	}
	return ReducerResult{State: next, ActionID: actionID}
}

// BlockStep marks stepID blocked, recording the blocking reason.
func (StateReducer) BlockStep(state memtypes.TaskState, stepID string, blockedBy string) ReducerResult {
	next := state
	next.Blocked = cloneSet(state.Blocked)
	next.Blocked.Add(stepID)
	next.Plan = make([]memtypes.PlanStep, len(state.Plan))
	for i, step := range state.Plan {
		if step.ID == stepID {
			step.Status = memtypes.TaskBlocked
			step.BlockedBy = blockedBy
		}
		next.Plan[i] = step
	}
	return ReducerResult{State: next, ActionID: memtypes.NewID()}
}

// UnblockStep clears stepID's blocked status, returning it to pending.
func (StateReducer) UnblockStep(state memtypes.TaskState, stepID string) ReducerResult {
	next := state
	next.Blocked = cloneSet(state.Blocked)
	next.Blocked.Remove(stepID)
	next.Plan = make([]memtypes.PlanStep, len(state.Plan))
	for i, step := range state.Plan {
		if step.ID == stepID {
			step.Status = memtypes.TaskPending
			step.BlockedBy = ""
		}
		next.Plan[i] = step
	}
	return ReducerResult{State: next, ActionID: memtypes.NewID()}
}

// SetStatus transitions the task's overall status.
func (StateReducer) SetStatus(state memtypes.TaskState, status memtypes.TaskStatus) ReducerResult {
	next := state
	next.Status = status
	return ReducerResult{State: next, ActionID: memtypes.NewID()}
}

func cloneSet(s memtypes.StringSet) memtypes.StringSet {
	return memtypes.NewStringSet(s.Slice()...)
}
