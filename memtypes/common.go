package memtypes

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh 128-bit id rendered as text, per spec.md §3.
func NewID() string {
	return uuid.New().String()
}

// NowMillis returns the current time as Unix milliseconds, the timestamp
// unit used throughout the data model (spec.md §3).
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// StringSet is a set of strings that collapses duplicates on construction
// and marshals as a sorted JSON array, matching spec.md's "tags: set" /
// "done: set of step_ids" fields.
type StringSet map[string]struct{}

// NewStringSet builds a StringSet from a slice, deduplicating entries.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, it := range items {
		if it == "" {
			continue
		}
		s[it] = struct{}{}
	}
	return s
}

// Add inserts an item.
func (s StringSet) Add(item string) {
	s[item] = struct{}{}
}

// Remove deletes an item.
func (s StringSet) Remove(item string) {
	delete(s, item)
}

// Has reports membership.
func (s StringSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Slice returns the members in sorted order for deterministic output.
func (s StringSet) Slice() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Intersect returns a new set with only items present in both sets.
func (s StringSet) Intersect(other StringSet) StringSet {
	out := make(StringSet)
	for k := range s {
		if other.Has(k) {
			out.Add(k)
		}
	}
	return out
}

// Union returns a new set with items from either set.
func (s StringSet) Union(other StringSet) StringSet {
	out := make(StringSet, len(s)+len(other))
	for k := range s {
		out.Add(k)
	}
	for k := range other {
		out.Add(k)
	}
	return out
}

// Len returns the member count.
func (s StringSet) Len() int {
	return len(s)
}

// MarshalJSON renders the set as a sorted JSON array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON rebuilds the set from a JSON array.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewStringSet(items...)
	return nil
}

// Entity is a named thing mentioned by an Event (spec.md §3 Event.entities).
type Entity struct {
	Type     string         `json:"type"`
	Value    string         `json:"value"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Link is an external reference attached to an Event (spec.md §3 Event.links).
type Link struct {
	Type  string `json:"type"`
	URI   string `json:"uri"`
	Label string `json:"label,omitempty"`
}
