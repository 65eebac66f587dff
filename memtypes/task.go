package memtypes

// TaskStatus is the lifecycle state of a TaskState or PlanStep, per
// spec.md §3.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// IsTerminal reports whether the status ends the task's lifecycle.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// ConstraintKind is the severity of a Constraint.
type ConstraintKind string

const (
	ConstraintMust    ConstraintKind = "must"
	ConstraintShould  ConstraintKind = "should"
	ConstraintMustNot ConstraintKind = "must_not"
)

// Constraint is a rule the plan must respect, per spec.md §3.
type Constraint struct {
	ID          string         `json:"id"`
	Kind        ConstraintKind `json:"kind"`
	Description string         `json:"description"`
	Source      string         `json:"source,omitempty"`
}

// PlanStep is one step of a TaskState's plan, per spec.md §3.
type PlanStep struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	Status       TaskStatus `json:"status"`
	Dependencies StringSet  `json:"dependencies,omitempty"`
	Result       string     `json:"result,omitempty"`
	ActionID     string     `json:"action_id,omitempty"`
	BlockedBy    string     `json:"blocked_by,omitempty"`
}

// TaskState is the current working plan, per spec.md §3 and §4.2.
type TaskState struct {
	ID          string            `json:"id"`
	Goal        string            `json:"goal"`
	Status      TaskStatus        `json:"status"`
	Constraints []Constraint      `json:"constraints,omitempty"`
	Plan        []PlanStep        `json:"plan,omitempty"`
	Done        StringSet         `json:"done,omitempty"`
	Blocked     StringSet         `json:"blocked,omitempty"`
	NextAction  string            `json:"next_action,omitempty"`
	UpdatedAt   int64             `json:"updated_at"`
	Version     int               `json:"version"`
	SessionID   string            `json:"session_id,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// TaskInput is the caller-supplied shape for TaskStore.Create.
type TaskInput struct {
	Goal        string
	Constraints []Constraint
	Plan        []PlanStep
	SessionID   string
	Metadata    map[string]any
}

// TaskUpdate is a field-level merge applied by TaskStore.Update. A nil
// pointer field means "leave unchanged"; Version, when non-nil, must match
// the stored version or the update fails with KindConflict (spec.md §4.2).
type TaskUpdate struct {
	Version     *int
	Goal        *string
	Status      *TaskStatus
	Constraints *[]Constraint
	Plan        *[]PlanStep
	Done        *StringSet
	Blocked     *StringSet
	NextAction  *string
	Metadata    *map[string]any
}

// TaskSnapshot is an immutable historical copy of a TaskState, keyed by
// version, for TaskStore.Rollback (spec.md §3, §4.2).
type TaskSnapshot struct {
	TaskID    string
	Version   int
	State     TaskState
	CreatedAt int64
}
