package retriever

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cliair-memcore/memcore/memtypes"
)

// pack trims bundle sections to fit budget, per spec.md §4.6 step 6:
// greedy per-section trimming of the lowest-ranked items first, then a
// reverse-priority pass if the total still overflows. The priority order
// is profile -> task -> summary -> chunks -> recent_events, so a total
// overflow sheds recent_events first and profile last.
func pack(b *memtypes.Bundle, budget Budget, est Estimator) {
	var warnings []memtypes.Warning

	b.Profile, warnings = trimProfile(b.Profile, budget.Profile, est, warnings)
	b.TaskState, warnings = trimTask(b.TaskState, budget.Task, est, warnings)
	b.Summary, warnings = trimSummary(b.Summary, budget.Summary, est, warnings)
	b.RetrievedChunks, warnings = trimChunks(b.RetrievedChunks, budget.Chunks, est, warnings)
	b.RecentEvents, warnings = trimEvents(b.RecentEvents, budget.RecentEvents, est, warnings)

	for overBudget(b, budget.Total, est) {
		switch {
		case len(b.RecentEvents) > 0:
			b.RecentEvents = b.RecentEvents[:len(b.RecentEvents)-1]
			warnings = append(warnings, overflowWarning("recent_events", "dropped oldest event to fit total budget"))
		case len(b.RetrievedChunks) > 0:
			b.RetrievedChunks = b.RetrievedChunks[:len(b.RetrievedChunks)-1]
			warnings = append(warnings, overflowWarning("chunks", "dropped lowest-scored chunk to fit total budget"))
		case b.Summary != nil:
			b.Summary = nil
			warnings = append(warnings, overflowWarning("summary", "dropped summary to fit total budget"))
		case b.TaskState != nil:
			b.TaskState = nil
			warnings = append(warnings, overflowWarning("task", "dropped task state to fit total budget"))
		case len(b.Profile) > 0:
			lowest := 0
			for i, it := range b.Profile {
				if it.Confidence < b.Profile[lowest].Confidence {
					lowest = i
				}
			}
			b.Profile = append(b.Profile[:lowest], b.Profile[lowest+1:]...)
			warnings = append(warnings, overflowWarning("profile", "dropped lowest-confidence profile item to fit total budget"))
		default:
			// nothing left to trim; accept whatever total remains.
			b.Warnings = warnings
			return
		}
	}

	b.Warnings = warnings
	b.TotalTokens = bundleTokens(b, est)
}

func overBudget(b *memtypes.Bundle, total int, est Estimator) bool {
	return bundleTokens(b, est) > total
}

func bundleTokens(b *memtypes.Bundle, est Estimator) int {
	sum := 0
	for _, it := range b.Profile {
		sum += est(renderProfileItem(it))
	}
	if b.TaskState != nil {
		sum += est(renderTask(*b.TaskState))
	}
	for _, ev := range b.RecentEvents {
		sum += est(renderEvent(ev))
	}
	for _, c := range b.RetrievedChunks {
		sum += est(c.Chunk.Text)
	}
	if b.Summary != nil {
		sum += est(renderSummary(*b.Summary))
	}
	return sum
}

func overflowWarning(section, detail string) memtypes.Warning {
	return memtypes.Warning{Kind: "overflow", Section: section, Detail: detail}
}

func trimProfile(items []memtypes.ProfileItem, budget int, est Estimator, warnings []memtypes.Warning) ([]memtypes.ProfileItem, []memtypes.Warning) {
	kept := append([]memtypes.ProfileItem{}, items...)
	order := append([]memtypes.ProfileItem{}, items...)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Confidence < order[j].Confidence })

	removed := 0
	for sectionTokens(kept, est, renderProfileItem) > budget && len(kept) > 0 {
		lowest := order[removed]
		kept = removeProfileByKey(kept, lowest.Key)
		removed++
	}
	if removed > 0 {
		warnings = append(warnings, overflowWarning("profile", fmt.Sprintf("trimmed %d lowest-confidence profile item(s)", removed)))
	}
	return kept, warnings
}

func removeProfileByKey(items []memtypes.ProfileItem, key string) []memtypes.ProfileItem {
	for i, it := range items {
		if it.Key == key {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}

func trimEvents(events []memtypes.Event, budget int, est Estimator, warnings []memtypes.Warning) ([]memtypes.Event, []memtypes.Warning) {
	kept := append([]memtypes.Event{}, events...)
	removed := 0
	for sectionTokens(kept, est, renderEvent) > budget && len(kept) > 0 {
		kept = kept[:len(kept)-1]
		removed++
	}
	if removed > 0 {
		warnings = append(warnings, overflowWarning("recent_events", fmt.Sprintf("trimmed %d oldest event(s)", removed)))
	}
	return kept, warnings
}

func trimChunks(chunks []memtypes.ScoredChunk, budget int, est Estimator, warnings []memtypes.Warning) ([]memtypes.ScoredChunk, []memtypes.Warning) {
	kept := append([]memtypes.ScoredChunk{}, chunks...)
	removed := 0
	for sectionTokens(kept, est, func(c memtypes.ScoredChunk) string { return c.Chunk.Text }) > budget && len(kept) > 0 {
		worst := 0
		for i, c := range kept {
			if c.Score < kept[worst].Score {
				worst = i
			}
		}
		kept = append(kept[:worst], kept[worst+1:]...)
		removed++
	}
	if removed > 0 {
		warnings = append(warnings, overflowWarning("chunks", fmt.Sprintf("trimmed %d lowest-scored chunk(s)", removed)))
	}
	return kept, warnings
}

func trimTask(task *memtypes.TaskState, budget int, est Estimator, warnings []memtypes.Warning) (*memtypes.TaskState, []memtypes.Warning) {
	if task == nil {
		return nil, warnings
	}
	if est(renderTask(*task)) <= budget {
		return task, warnings
	}
	warnings = append(warnings, overflowWarning("task", "task state exceeded its token budget and was dropped"))
	return nil, warnings
}

func trimSummary(summary *memtypes.Summary, budget int, est Estimator, warnings []memtypes.Warning) (*memtypes.Summary, []memtypes.Warning) {
	if summary == nil {
		return nil, warnings
	}
	trimmed := *summary
	removed := 0
	for est(renderSummary(trimmed)) > budget && len(trimmed.Bullets) > 0 {
		trimmed.Bullets = trimmed.Bullets[:len(trimmed.Bullets)-1]
		removed++
	}
	if removed > 0 {
		warnings = append(warnings, overflowWarning("summary", fmt.Sprintf("trimmed %d bullet(s)", removed)))
	}
	if est(renderSummary(trimmed)) > budget {
		warnings = append(warnings, overflowWarning("summary", "summary short text alone exceeded its token budget and was dropped"))
		return nil, warnings
	}
	return &trimmed, warnings
}

func sectionTokens[T any](items []T, est Estimator, render func(T) string) int {
	sum := 0
	for _, it := range items {
		sum += est(render(it))
	}
	return sum
}

func renderProfileItem(it memtypes.ProfileItem) string {
	return fmt.Sprintf("%s: %v", it.Key, it.Value)
}

func renderEvent(ev memtypes.Event) string {
	return fmt.Sprintf("[%s] %s", ev.Type, ev.Summary)
}

func renderTask(t memtypes.TaskState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "goal: %s\nstatus: %s\n", t.Goal, t.Status)
	if t.NextAction != "" {
		fmt.Fprintf(&b, "next_action: %s\n", t.NextAction)
	}
	for _, step := range t.Plan {
		fmt.Fprintf(&b, "- [%s] %s\n", step.Status, step.Description)
	}
	return b.String()
}

func renderSummary(s memtypes.Summary) string {
	var b strings.Builder
	b.WriteString(s.Short)
	for _, bullet := range s.Bullets {
		b.WriteString("\n- ")
		b.WriteString(bullet)
	}
	return b.String()
}
