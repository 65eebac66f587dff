package eventstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cliair-memcore/memcore/memtypes"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	input := memtypes.EventInput{
		Type:      memtypes.EventUserMsg,
		SessionID: "sess-1",
		Summary:   "user asked about deployment",
		Tags:      []string{"deploy", "question"},
		Payload:   map[string]any{"raw": "how do I deploy this?"},
	}

	ev, err := s.Add(ctx, input)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ev.ID == "" || ev.Timestamp == 0 {
		t.Fatalf("expected server-assigned id/timestamp, got %+v", ev)
	}

	got, err := s.Get(ctx, ev.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Summary != input.Summary || got.SessionID != input.SessionID || got.Type != input.Type {
		t.Fatalf("round-trip mismatch: got %+v", got)
	}
	if !got.Tags.Has("deploy") || !got.Tags.Has("question") {
		t.Fatalf("expected tags preserved, got %v", got.Tags)
	}
	if got.Payload["raw"] != "how do I deploy this?" {
		t.Fatalf("expected payload preserved, got %v", got.Payload)
	}
}

func TestAddRejectsEmptyOrOverlongSummary(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if _, err := s.Add(ctx, memtypes.EventInput{Type: memtypes.EventSystem, Summary: ""}); !memtypes.Is(err, memtypes.KindInvalid) {
		t.Fatalf("expected KindInvalid for empty summary, got %v", err)
	}

	overlong := make([]byte, memtypes.MaxSummaryLen+1)
	for i := range overlong {
		overlong[i] = 'a'
	}
	if _, err := s.Add(ctx, memtypes.EventInput{Type: memtypes.EventSystem, Summary: string(overlong)}); !memtypes.Is(err, memtypes.KindInvalid) {
		t.Fatalf("expected KindInvalid for overlong summary, got %v", err)
	}
}

func TestAddBatchAtomic(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	inputs := []memtypes.EventInput{
		{Type: memtypes.EventUserMsg, SessionID: "s1", Summary: "first"},
		{Type: memtypes.EventAssistantMsg, SessionID: "s1", Summary: "second"},
		{Type: memtypes.EventSystem, SessionID: "s1", Summary: ""}, // invalid, should roll back whole batch
	}
	if _, err := s.AddBatch(ctx, inputs); !memtypes.Is(err, memtypes.KindInvalid) {
		t.Fatalf("expected KindInvalid, got %v", err)
	}

	n, err := s.Count(ctx, memtypes.EventQuery{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected atomic rollback leaving 0 rows, got %d", n)
	}
}

func TestQueryAscendingGetRecentDescending(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := s.Add(ctx, memtypes.EventInput{Type: memtypes.EventUserMsg, SessionID: "s1", Summary: "msg"}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	queried, err := s.Query(ctx, memtypes.EventQuery{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(queried) != 5 {
		t.Fatalf("expected 5 events, got %d", len(queried))
	}
	for i := 1; i < len(queried); i++ {
		if queried[i].Timestamp < queried[i-1].Timestamp {
			t.Fatalf("Query results not ascending by timestamp")
		}
	}

	recent, err := s.GetRecent(ctx, 3, "s1")
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 recent events, got %d", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].Timestamp > recent[i-1].Timestamp {
			t.Fatalf("GetRecent results not descending by timestamp")
		}
	}
}

func TestDeleteBySessionAndBefore(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	for _, sess := range []string{"a", "a", "b"} {
		if _, err := s.Add(ctx, memtypes.EventInput{Type: memtypes.EventUserMsg, SessionID: sess, Summary: "msg"}); err != nil {
			t.Fatalf("Add: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	if err := s.DeleteBySession(ctx, "a"); err != nil {
		t.Fatalf("DeleteBySession: %v", err)
	}
	n, err := s.Count(ctx, memtypes.EventQuery{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event remaining after DeleteBySession, got %d", n)
	}

	time.Sleep(2 * time.Millisecond)
	future, err := s.Add(ctx, memtypes.EventInput{Type: memtypes.EventUserMsg, SessionID: "b", Summary: "later"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.DeleteBefore(ctx, future.Timestamp); err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	n, err = s.Count(ctx, memtypes.EventQuery{})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event (the cutoff-timestamp one) remaining, got %d", n)
	}
}

func TestAddRejectsUnknownParentID(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if _, err := s.Add(ctx, memtypes.EventInput{Type: memtypes.EventUserMsg, Summary: "orphan", ParentID: "does-not-exist"}); !memtypes.Is(err, memtypes.KindInvalid) {
		t.Fatalf("expected KindInvalid for unknown parent_id, got %v", err)
	}
}

func TestAddAcceptsParentIDFromEarlierAdd(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	parent, err := s.Add(ctx, memtypes.EventInput{Type: memtypes.EventUserMsg, Summary: "parent"})
	if err != nil {
		t.Fatalf("Add parent: %v", err)
	}
	child, err := s.Add(ctx, memtypes.EventInput{Type: memtypes.EventAssistantMsg, Summary: "child", ParentID: parent.ID})
	if err != nil {
		t.Fatalf("Add child: %v", err)
	}
	if child.ParentID != parent.ID {
		t.Fatalf("expected child.ParentID = %q, got %q", parent.ID, child.ParentID)
	}
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	if _, err := s.Get(ctx, "does-not-exist"); !memtypes.Is(err, memtypes.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}
