package profilestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cliair-memcore/memcore/memtypes"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profile.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetUpsertsOnKey(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if _, err := s.Set(ctx, memtypes.ProfileInput{Key: "language", Value: "TypeScript", Confidence: 0.8}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	first, err := s.Get(ctx, "language")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if _, err := s.Set(ctx, memtypes.ProfileInput{Key: "language", Value: "Go", Confidence: 0.9}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	second, err := s.Get(ctx, "language")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if second.Value != "Go" {
		t.Fatalf("expected upsert to overwrite value, got %v", second.Value)
	}
	if second.UpdatedAt < first.UpdatedAt {
		t.Fatalf("expected updated_at to advance on upsert")
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one row after upsert (unique key), got %d", len(all))
	}
}

func TestHasDeleteGetBySourceEvent(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	has, err := s.Has(ctx, "tone")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if has {
		t.Fatalf("expected Has=false before Set")
	}

	if _, err := s.Set(ctx, memtypes.ProfileInput{Key: "tone", Value: "concise", SourceEventID: "e1"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	has, err = s.Has(ctx, "tone")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Fatalf("expected Has=true after Set")
	}

	bySource, err := s.GetBySourceEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("GetBySourceEvent: %v", err)
	}
	if len(bySource) != 1 || bySource[0].Key != "tone" {
		t.Fatalf("expected one item sourced from e1, got %+v", bySource)
	}

	if err := s.Delete(ctx, "tone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	has, err = s.Has(ctx, "tone")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if has {
		t.Fatalf("expected Has=false after Delete")
	}
}
