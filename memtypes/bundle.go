package memtypes

// Warning annotates a Bundle with something the packer had to trim or
// skip, per spec.md §4.6 ("emit warnings of kind overflow describing what
// was trimmed").
type Warning struct {
	Kind    string `json:"kind"`
	Section string `json:"section,omitempty"`
	Detail  string `json:"detail"`
}

// Bundle is the materialised context handed to a caller by Retrieve, per
// spec.md §3 and §4.6.
type Bundle struct {
	Profile         []ProfileItem `json:"profile"`
	TaskState       *TaskState    `json:"task_state,omitempty"`
	RecentEvents    []Event       `json:"recent_events"`
	RetrievedChunks []ScoredChunk `json:"retrieved_chunks"`
	Summary         *Summary      `json:"summary,omitempty"`
	Warnings        []Warning     `json:"warnings,omitempty"`
	TotalTokens     int           `json:"total_tokens"`
	Timestamp       int64         `json:"timestamp"`
}

// RetrieveQuery is the caller-supplied shape for Retrieve, per spec.md §4.6.
type RetrieveQuery struct {
	SessionID string
	Query     string
	TaskID    string
}
