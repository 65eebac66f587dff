package manager

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cliair-memcore/memcore/internal/compact"
	"github.com/cliair-memcore/memcore/memtypes"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "memcore.db")
	cfg := DefaultConfig(dbPath)
	cfg.EnableSemantic = false // no embedding provider wired in tests
	m, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestNewOpensEveryStoreAndAssignsSession(t *testing.T) {
	m := newTestManager(t)
	if m.GetSessionID() == "" {
		t.Fatal("expected a non-empty default session id")
	}
}

func TestRecordEventNotifiesObserversAndPersists(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	received := make(chan memtypes.Event, 1)
	unsub := m.OnEvent(func(ev memtypes.Event) { received <- ev })
	defer unsub()

	ev, err := m.RecordEvent(ctx, memtypes.EventInput{
		Type:    memtypes.EventDecision,
		Summary: "chose sqlite for storage",
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("expected a server-assigned event id")
	}

	select {
	case got := <-received:
		if got.ID != ev.ID {
			t.Fatalf("observer got event id %q, want %q", got.ID, ev.ID)
		}
	default:
		t.Fatal("expected observer callback to run synchronously")
	}
}

func TestRecordEventDecisionDerivesSemanticAndSummaryWrites(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	ev, err := m.RecordEvent(ctx, memtypes.EventInput{
		Type:    memtypes.EventDecision,
		Summary: "decided to use WAL mode for concurrent readers",
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	// A decision-type event's write decision targets {semantic, summary}
	// at confidence 0.9, so a per-event summary row should now exist.
	latest, err := m.summaries.GetLatest(ctx, ev.SessionID)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest.Short != ev.Summary {
		t.Fatalf("summary.Short = %q, want %q", latest.Short, ev.Summary)
	}
}

func TestTaskLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	task, err := m.CreateTask(ctx, memtypes.TaskInput{Goal: "ship the retriever"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	current, err := m.GetCurrentTask(ctx, "")
	if err != nil {
		t.Fatalf("GetCurrentTask: %v", err)
	}
	if current.ID != task.ID {
		t.Fatalf("GetCurrentTask returned %q, want %q", current.ID, task.ID)
	}

	status := memtypes.TaskInProgress
	updated, err := m.UpdateTask(ctx, task.ID, memtypes.TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Status != memtypes.TaskInProgress {
		t.Fatalf("Status = %q, want in_progress", updated.Status)
	}
}

func TestProfileSetGetWhitelist(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	m.policy.ProfileWhitelist = map[string]bool{"language": true}

	if _, err := m.SetProfile(ctx, memtypes.ProfileInput{Key: "language", Value: "go", Confidence: 1}); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}

	got, err := m.GetProfile(ctx, "language")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Value != "go" {
		t.Fatalf("Value = %v, want go", got.Value)
	}

	if _, err := m.SetProfile(ctx, memtypes.ProfileInput{Key: "not_whitelisted", Value: "x"}); !memtypes.Is(err, memtypes.KindProfileKeyNotAllowed) {
		t.Fatalf("expected KindProfileKeyNotAllowed, got %v", err)
	}
}

func TestAddChunkAndSearchWithoutEmbedding(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.AddChunk(ctx, memtypes.ChunkInput{Text: "retry with exponential backoff on embedding failure"}); err != nil {
		t.Fatalf("AddChunk: %v", err)
	}

	results, err := m.SearchChunks(ctx, "exponential backoff", memtypes.ChunkSearchOptions{DisableVector: true, Limit: 5})
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one FTS match")
	}
}

func TestTreeCreateAndSearch(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	root, err := m.CreateRoot(ctx, memtypes.TreeCode, "repo", "/", nil)
	if err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}

	node, err := m.CreateNode(ctx, memtypes.NodeInput{
		RootID:   root.ID,
		NodeType: "file",
		Name:     "retriever.go",
		Path:     "/internal/retriever/retriever.go",
	})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	got, err := m.GetNodeByPath(ctx, root.ID, "/internal/retriever/retriever.go")
	if err != nil {
		t.Fatalf("GetNodeByPath: %v", err)
	}
	if got.ID != node.ID {
		t.Fatalf("GetNodeByPath returned %q, want %q", got.ID, node.ID)
	}
}

func TestRetrieveAndInject(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.RecordEvent(ctx, memtypes.EventInput{Type: memtypes.EventUserMsg, Summary: "please always use tabs"}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	bundle, err := m.Retrieve(ctx, memtypes.RetrieveQuery{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(bundle.RecentEvents) == 0 {
		t.Fatal("expected the recorded event to appear in RecentEvents")
	}

	md := Inject(bundle)
	for _, header := range []string{"## Recent Events", "## User Preferences", "## Warnings"} {
		if !strings.Contains(md, header) {
			t.Fatalf("Inject output missing header %q", header)
		}
	}
}

func TestCompactionHealthAndCompact(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	health := m.Health()
	if health.Recommendation != compact.RecommendNone {
		t.Fatalf("Recommendation = %v, want none at zero tokens", health.Recommendation)
	}

	if _, err := m.RecordEvent(ctx, memtypes.EventInput{Type: memtypes.EventDecision, Summary: "decided to cap history at 10 entries"}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	result, err := m.PerformFlush(ctx, true, compact.CompactOptions{
		EventTypes: []memtypes.EventType{memtypes.EventDecision},
	})
	if err != nil {
		t.Fatalf("PerformFlush: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected a successful forced flush, got reason %q", result.Reason)
	}
	if m.GetCompactionState().EventsSinceFlush != 0 {
		t.Fatal("expected EventsSinceFlush to reset after a successful flush")
	}
}
