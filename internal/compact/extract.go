package compact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cliair-memcore/memcore/internal/policy"
	"github.com/cliair-memcore/memcore/memtypes"
)

// FlushContent is extract_flush_content's structured result, per spec.md
// §4.8.
type FlushContent struct {
	Decisions   []string
	Facts       []string
	Todos       []string
	Preferences []policy.ExtractedPreference
	Summary     string
}

var todoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(please|can you|could you)\b.*`),
	regexp.MustCompile(`(?i)\b(don'?t forget to|remember to)\b.*`),
	regexp.MustCompile(`(?i)\b(todo|task)\s*:\s*.*`),
}

func isToolResultSubstantial(payload map[string]any) bool {
	if payload == nil {
		return false
	}
	if s, ok := payload["result"].(string); ok {
		return len(s) > 200
	}
	return len(payload) > 0
}

func eventText(ev memtypes.Event) string {
	if ev.Payload != nil {
		if s, ok := ev.Payload["text"].(string); ok {
			return s
		}
		if s, ok := ev.Payload["content"].(string); ok {
			return s
		}
	}
	return ev.Summary
}

func toolName(ev memtypes.Event) string {
	if ev.Payload != nil {
		if s, ok := ev.Payload["tool"].(string); ok {
			return s
		}
		if s, ok := ev.Payload["tool_name"].(string); ok {
			return s
		}
	}
	return ""
}

// ExtractFlushContent filters events to configuredTypes (nil/empty means
// every type) and rule-extracts decisions, facts, todos, preferences, and
// a one-paragraph summary, per spec.md §4.8.
func ExtractFlushContent(events []memtypes.Event, configuredTypes []memtypes.EventType) FlushContent {
	allowed := typeSet(configuredTypes)

	var decisions, facts, todos []string
	var userMessages []string
	var toolNames []string

	for _, ev := range events {
		if len(allowed) > 0 && !allowed[ev.Type] {
			continue
		}
		switch ev.Type {
		case memtypes.EventDecision:
			decisions = append(decisions, ev.Summary)
		case memtypes.EventToolResult:
			if isToolResultSubstantial(ev.Payload) {
				facts = append(facts, ev.Summary)
			}
			if name := toolName(ev); name != "" {
				toolNames = append(toolNames, name)
			}
		case memtypes.EventUserMsg:
			text := eventText(ev)
			userMessages = append(userMessages, text)
			for _, pattern := range todoPatterns {
				if pattern.MatchString(text) {
					todos = append(todos, text)
					break
				}
			}
		}
	}

	var preferences []policy.ExtractedPreference
	for _, msg := range userMessages {
		preferences = append(preferences, policy.ExtractPreferences(msg)...)
	}

	return FlushContent{
		Decisions:   decisions,
		Facts:       facts,
		Todos:       todos,
		Preferences: preferences,
		Summary:     buildSummary(userMessages, decisions, toolNames),
	}
}

func typeSet(types []memtypes.EventType) map[memtypes.EventType]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[memtypes.EventType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

func buildSummary(userMessages, decisions, toolNames []string) string {
	var b strings.Builder
	if len(userMessages) > 0 {
		fmt.Fprintf(&b, "Discussed: %s. ", strings.Join(lastN(userMessages, 3), "; "))
	}
	if len(decisions) > 0 {
		fmt.Fprintf(&b, "Decided: %s. ", strings.Join(lastN(decisions, 3), "; "))
	}
	if len(toolNames) > 0 {
		fmt.Fprintf(&b, "Tools used: %s.", strings.Join(dedupe(toolNames), ", "))
	}
	return strings.TrimSpace(b.String())
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

// flushChunkTags are the tags every chunk extract_flush_content produces
// carries, per spec.md §4.8.
var flushChunkTags = []string{"auto-flush", "compaction"}

// ToChunkInputs builds one SemanticChunk input per non-empty bucket,
// tagged with flushChunkTags plus the bucket name, per spec.md §4.8.
func (fc FlushContent) ToChunkInputs(sessionID string) []memtypes.ChunkInput {
	var out []memtypes.ChunkInput
	add := func(bucket, text string) {
		if text == "" {
			return
		}
		out = append(out, memtypes.ChunkInput{
			Text:       text,
			Tags:       append(append([]string{}, flushChunkTags...), bucket),
			SourceType: "compaction",
			SessionID:  sessionID,
		})
	}
	add("decisions", strings.Join(fc.Decisions, "\n"))
	add("facts", strings.Join(fc.Facts, "\n"))
	add("todos", strings.Join(fc.Todos, "\n"))
	add("summary", fc.Summary)
	return out
}
