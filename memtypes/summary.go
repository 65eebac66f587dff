package memtypes

// Priority is the urgency of a Todo extracted into a Summary.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Decision is a durable decision captured in a Summary, per spec.md §3.
type Decision struct {
	Description   string `json:"description"`
	Reasoning     string `json:"reasoning,omitempty"`
	Timestamp     int64  `json:"timestamp"`
	SourceEventID string `json:"source_event_id,omitempty"`
}

// Todo is a durable action item captured in a Summary, per spec.md §3.
type Todo struct {
	Description string   `json:"description"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     int64    `json:"due_date,omitempty"`
	Completed   bool     `json:"completed"`
}

// Summary covers a contiguous suffix of a session's event stream, per
// spec.md §3 and §4.3.
type Summary struct {
	ID               string    `json:"id"`
	Timestamp        int64     `json:"timestamp"`
	SessionID        string    `json:"session_id"`
	Short            string    `json:"short"`
	Bullets          []string  `json:"bullets,omitempty"`
	Decisions        []Decision `json:"decisions,omitempty"`
	Todos            []Todo    `json:"todos,omitempty"`
	CoveredEventIDs  StringSet `json:"covered_event_ids,omitempty"`
	TokenCount       int       `json:"token_count,omitempty"`
}

// SummaryInput is the caller-supplied shape for SummaryStore.Add.
type SummaryInput struct {
	SessionID       string
	Short           string
	Bullets         []string
	Decisions       []Decision
	Todos           []Todo
	CoveredEventIDs []string
	TokenCount      int
}

// SummaryQuery filters SummaryStore.List results.
type SummaryQuery struct {
	SessionID string
	Since     int64
	Limit     int
}
