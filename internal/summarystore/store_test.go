package summarystore

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
	path := filepath.Join(t.TempDir(), "summaries.db")
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

	sum, err := s.Add(ctx, memtypes.SummaryInput{
		SessionID:       "sess-1",
		Short:           "discussed deployment plan",
		Bullets:         []string{"decided on blue/green"},
		CoveredEventIDs: []string{"e1", "e2"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.Get(ctx, sum.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Short != sum.Short || !got.CoveredEventIDs.Has("e1") || !got.CoveredEventIDs.Has("e2") {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestGetLatestAndList(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.Add(ctx, memtypes.SummaryInput{SessionID: "sess-1", Short: "summary"}); err != nil {
			t.Fatalf("Add: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	latest, err := s.Add(ctx, memtypes.SummaryInput{SessionID: "sess-1", Short: "latest summary"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.GetLatest(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if got.ID != latest.ID {
		t.Fatalf("expected latest summary %s, got %s", latest.ID, got.ID)
	}

	list, err := s.List(ctx, memtypes.SummaryQuery{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 summaries, got %d", len(list))
	}
}

func TestAddRejectsEmptySessionOrShort(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	if _, err := s.Add(ctx, memtypes.SummaryInput{Short: "x"}); !memtypes.Is(err, memtypes.KindInvalid) {
		t.Fatalf("expected KindInvalid for missing session_id, got %v", err)
	}
	if _, err := s.Add(ctx, memtypes.SummaryInput{SessionID: "s1"}); !memtypes.Is(err, memtypes.KindInvalid) {
		t.Fatalf("expected KindInvalid for missing short, got %v", err)
	}
}
