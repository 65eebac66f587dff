package retriever

import (
	"fmt"
	"strings"

	"github.com/cliair-memcore/memcore/memtypes"
)

// Inject renders bundle as deterministic Markdown with the fixed section
// headers spec.md §4.6 pins, so callers can prepend it to a system prompt.
func Inject(bundle memtypes.Bundle) string {
	var b strings.Builder

	b.WriteString("## User Preferences\n")
	if len(bundle.Profile) == 0 {
		b.WriteString("(none)\n")
	} else {
		for _, it := range bundle.Profile {
			fmt.Fprintf(&b, "- %s: %v\n", it.Key, it.Value)
		}
	}

	b.WriteString("\n## Current Task\n")
	if bundle.TaskState == nil {
		b.WriteString("(none)\n")
	} else {
		t := bundle.TaskState
		fmt.Fprintf(&b, "Goal: %s\nStatus: %s\n", t.Goal, t.Status)
		if t.NextAction != "" {
			fmt.Fprintf(&b, "Next: %s\n", t.NextAction)
		}
		for _, step := range t.Plan {
			fmt.Fprintf(&b, "- [%s] %s\n", step.Status, step.Description)
		}
	}

	b.WriteString("\n## Recent Events\n")
	if len(bundle.RecentEvents) == 0 {
		b.WriteString("(none)\n")
	} else {
		for _, ev := range bundle.RecentEvents {
			fmt.Fprintf(&b, "- [%s] %s\n", ev.Type, ev.Summary)
		}
	}

	b.WriteString("\n## Relevant Context\n")
	if len(bundle.RetrievedChunks) == 0 {
		b.WriteString("(none)\n")
	} else {
		for _, c := range bundle.RetrievedChunks {
			fmt.Fprintf(&b, "- %s\n", c.Chunk.Text)
		}
	}

	b.WriteString("\n## Summary\n")
	if bundle.Summary == nil {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(bundle.Summary.Short)
		b.WriteString("\n")
		for _, bullet := range bundle.Summary.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
	}

	b.WriteString("\n## Warnings\n")
	if len(bundle.Warnings) == 0 {
		b.WriteString("(none)\n")
	} else {
		for _, w := range bundle.Warnings {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", w.Kind, w.Section, w.Detail)
		}
	}

	return b.String()
}
