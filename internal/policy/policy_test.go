package policy

import (
	"testing"

	"github.com/cliair-memcore/memcore/memtypes"
)

func TestDecideWriteDecisionEventTargetsSemanticAndSummary(t *testing.T) {
	e := NewEngine()
	d := e.DecideWrite(memtypes.Event{Type: memtypes.EventDecision, Summary: "chose postgres"})
	if !d.ShouldWrite || d.Confidence != 0.9 {
		t.Fatalf("expected should_write with confidence 0.9, got %+v", d)
	}
	if len(d.TargetLayers) != 2 || d.TargetLayers[0] != LayerSemantic || d.TargetLayers[1] != LayerSummary {
		t.Fatalf("expected semantic+summary layers, got %v", d.TargetLayers)
	}
}

func TestDecideWriteUserMsgPreferencePhraseAddsProfile(t *testing.T) {
	e := NewEngine()
	d := e.DecideWrite(memtypes.Event{Type: memtypes.EventUserMsg, Summary: "from now on always respond in french"})
	if !d.ShouldWrite {
		t.Fatalf("expected should_write true, got %+v", d)
	}
	found := false
	for _, l := range d.TargetLayers {
		if l == LayerProfile {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected profile layer, got %v", d.TargetLayers)
	}
}

func TestDecideWriteBelowMinConfidenceDoesNotWrite(t *testing.T) {
	e := NewEngine()
	d := e.DecideWrite(memtypes.Event{Type: memtypes.EventToolResult, Payload: nil})
	if d.ShouldWrite {
		t.Fatalf("expected no write for a non-substantial tool_result, got %+v", d)
	}
}

func TestResolveConflictStrategies(t *testing.T) {
	old := memtypes.ProfileItem{Value: "old", Confidence: 0.5, Explicit: false}
	incoming := memtypes.ProfileItem{Value: "new", Confidence: 0.9, Explicit: true}

	e := &Engine{ConflictStrategy: ConflictLatest}
	if r := e.ResolveConflict(old, incoming); r.Winner.Value != "new" {
		t.Fatalf("latest strategy should pick new, got %v", r.Winner.Value)
	}

	e.ConflictStrategy = ConflictConfidence
	if r := e.ResolveConflict(old, incoming); r.Winner.Value != "new" {
		t.Fatalf("confidence strategy should pick higher-confidence item, got %v", r.Winner.Value)
	}

	e.ConflictStrategy = ConflictExplicit
	if r := e.ResolveConflict(old, incoming); r.Winner.Value != "new" {
		t.Fatalf("explicit strategy should pick the explicit item, got %v", r.Winner.Value)
	}

	e.ConflictStrategy = ConflictManual
	r := e.ResolveConflict(old, incoming)
	if r.Winner.Value != "old" || !r.NeedsReview {
		t.Fatalf("manual strategy should keep old and flag for review, got %+v", r)
	}
}

func TestValidateProfileKeyWhitelist(t *testing.T) {
	e := &Engine{ProfileWhitelist: map[string]bool{"language": true}}
	if err := e.ValidateProfileKey("language"); err != nil {
		t.Fatalf("expected whitelisted key to pass, got %v", err)
	}
	err := e.ValidateProfileKey("secret_key")
	if !memtypes.Is(err, memtypes.KindProfileKeyNotAllowed) {
		t.Fatalf("expected KindProfileKeyNotAllowed, got %v", err)
	}
}

func TestExtractPreferencesFormat(t *testing.T) {
	prefs := ExtractPreferences("please use markdown for all replies")
	found := false
	for _, p := range prefs {
		if p.Kind == PreferenceFormat {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a format preference extraction, got %+v", prefs)
	}
}

func TestShouldSummariseThresholds(t *testing.T) {
	e := NewEngine()
	d := e.ShouldSummarise(20, 0)
	if !d.Should {
		t.Fatalf("expected should_summarise true at event threshold, got %+v", d)
	}
	d = e.ShouldSummarise(0, 4000)
	if !d.Should {
		t.Fatalf("expected should_summarise true at token threshold, got %+v", d)
	}
	d = e.ShouldSummarise(1, 1)
	if d.Should {
		t.Fatalf("expected should_summarise false below both thresholds, got %+v", d)
	}
}

func TestShouldSummariseDisabled(t *testing.T) {
	e := NewEngine()
	e.AutoSummarise = false
	d := e.ShouldSummarise(1000, 100000)
	if d.Should {
		t.Fatalf("expected should_summarise false when auto_summarise is disabled, got %+v", d)
	}
}
