package compact

import (
	"context"
	"sync"
	"testing"

	"github.com/cliair-memcore/memcore/memtypes"
)

func TestHealthRecommendationThresholds(t *testing.T) {
	cfg := Config{MaxContextTokens: 10_000, ReserveTokens: 0}
	c := NewController(cfg)

	c.UpdateTokenCount(5_000)
	if got := c.Health().Recommendation; got != RecommendNone {
		t.Fatalf("expected none at 50%%, got %v", got)
	}

	c.UpdateTokenCount(6_500)
	if got := c.Health().Recommendation; got != RecommendFlushSoon {
		t.Fatalf("expected flush_soon at 65%%, got %v", got)
	}

	c.UpdateTokenCount(8_500)
	if got := c.Health().Recommendation; got != RecommendFlushNow {
		t.Fatalf("expected flush_now at 85%%, got %v", got)
	}

	c.UpdateTokenCount(9_600)
	if got := c.Health().Recommendation; got != RecommendCritical {
		t.Fatalf("expected critical at 96%%, got %v", got)
	}
}

func TestCheckFlushTooFewEvents(t *testing.T) {
	c := NewController(DefaultConfig())
	check := c.CheckFlush(10_000, 1)
	if check.ShouldFlush || check.Reason != ReasonTooFewEvents {
		t.Fatalf("expected too_few_events, got %+v", check)
	}
}

func TestCheckFlushHardThresholdUrgencyIsOne(t *testing.T) {
	c := NewController(DefaultConfig())
	check := c.CheckFlush(9_000, 10)
	if !check.ShouldFlush || check.Reason != ReasonHardThreshold || check.Urgency != 1.0 {
		t.Fatalf("expected hard_threshold_exceeded with urgency 1.0, got %+v", check)
	}
}

func TestCheckFlushSoftThresholdUrgencyBetweenHalfAndOne(t *testing.T) {
	cfg := DefaultConfig() // soft=4000, hard=8000
	c := NewController(cfg)
	check := c.CheckFlush(6_000, 10)
	if !check.ShouldFlush || check.Reason != ReasonSoftThreshold {
		t.Fatalf("expected soft_threshold_exceeded, got %+v", check)
	}
	if check.Urgency <= 0.5 || check.Urgency >= 1.0 {
		t.Fatalf("expected urgency strictly between 0.5 and 1.0, got %v", check.Urgency)
	}
}

func TestExtractFlushContentBucketsEvents(t *testing.T) {
	events := []memtypes.Event{
		{Type: memtypes.EventDecision, Summary: "chose sqlite"},
		{Type: memtypes.EventToolResult, Summary: "ran migration", Payload: map[string]any{"result": string(make([]byte, 250))}},
		{Type: memtypes.EventUserMsg, Summary: "please don't forget to update the changelog"},
	}
	content := ExtractFlushContent(events, nil)
	if len(content.Decisions) != 1 || content.Decisions[0] != "chose sqlite" {
		t.Fatalf("expected one decision, got %+v", content.Decisions)
	}
	if len(content.Facts) != 1 {
		t.Fatalf("expected one fact from the substantial tool_result, got %+v", content.Facts)
	}
	if len(content.Todos) != 1 {
		t.Fatalf("expected one todo extracted from the user message, got %+v", content.Todos)
	}
}

func TestToChunkInputsTagsEveryBucket(t *testing.T) {
	content := FlushContent{Decisions: []string{"chose sqlite"}, Summary: "session summary"}
	inputs := content.ToChunkInputs("sess1")
	if len(inputs) != 2 {
		t.Fatalf("expected 2 chunk inputs (decisions, summary), got %d", len(inputs))
	}
	for _, in := range inputs {
		tags := map[string]bool{}
		for _, tag := range in.Tags {
			tags[tag] = true
		}
		if !tags["auto-flush"] || !tags["compaction"] {
			t.Fatalf("expected every chunk to carry auto-flush and compaction tags, got %v", in.Tags)
		}
	}
}

func TestCompactResetsEventsSinceFlushAndRecordsHistory(t *testing.T) {
	c := NewController(DefaultConfig())
	c.UpdateTokenCount(5000)
	for i := 0; i < 6; i++ {
		c.RecordEvent()
	}

	events := []memtypes.Event{{Type: memtypes.EventDecision, Summary: "chose sqlite", SessionID: "sess1"}}
	result, err := c.Compact(context.Background(), events, CompactOptions{}, func(ctx context.Context, inputs []memtypes.ChunkInput) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.ChunksWritten != 2 {
		t.Fatalf("expected a successful compaction writing a decisions chunk and a summary chunk, got %+v", result)
	}

	state := c.GetState()
	if state.EventsSinceFlush != 0 {
		t.Fatalf("expected events_since_flush reset to 0, got %d", state.EventsSinceFlush)
	}
	if len(state.History) != 1 {
		t.Fatalf("expected one history record, got %d", len(state.History))
	}
}

func TestCompactZeroEventsWithoutForceReturnsNoEvents(t *testing.T) {
	c := NewController(DefaultConfig())
	result, err := c.Compact(context.Background(), nil, CompactOptions{}, func(ctx context.Context, inputs []memtypes.ChunkInput) error {
		t.Fatal("write should not be called for a zero-length event list")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || result.Reason != "no_events" {
		t.Fatalf("expected {success:false, reason:no_events}, got %+v", result)
	}
}

func TestCompactZeroEventsWithForceRuns(t *testing.T) {
	c := NewController(DefaultConfig())
	result, err := c.Compact(context.Background(), nil, CompactOptions{Force: true}, func(ctx context.Context, inputs []memtypes.ChunkInput) error {
		t.Fatal("an empty extraction produces no chunks, so write should not be called")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected a forced compaction over zero events to still succeed, got %+v", result)
	}
}

func TestCompactReentrancyGuardRejectsConcurrentRun(t *testing.T) {
	c := NewController(DefaultConfig())
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	events := []memtypes.Event{{Type: memtypes.EventDecision, Summary: "chose sqlite"}}
	var firstResult CompactResult
	go func() {
		defer wg.Done()
		firstResult, _ = c.Compact(context.Background(), events, CompactOptions{}, func(ctx context.Context, inputs []memtypes.ChunkInput) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	c.mu.Lock()
	alreadyInProgress := c.compactionInProgress
	c.mu.Unlock()
	if !alreadyInProgress {
		t.Fatalf("expected compactionInProgress to be true while the write callback blocks")
	}
	second, err := c.Compact(context.Background(), events, CompactOptions{}, nil)
	if err != nil {
		t.Fatalf("unexpected error from concurrent Compact: %v", err)
	}
	if second.Success || second.Reason != "already_in_progress" {
		t.Fatalf("expected concurrent Compact to return {success:false, reason:already_in_progress}, got %+v", second)
	}
	close(release)
	wg.Wait()
	if !firstResult.Success {
		t.Fatalf("expected the in-flight compaction to succeed, got %+v", firstResult)
	}
}
