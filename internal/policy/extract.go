package policy

import "regexp"

// preferenceIndicators are the phrases spec.md §4.7 lists as triggering a
// profile write from a user_msg event.
var preferenceIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\balways use\b`),
	regexp.MustCompile(`(?i)\bprefer\b`),
	regexp.MustCompile(`(?i)\bdon'?t ever\b`),
	regexp.MustCompile(`(?i)\bfrom now on\b`),
	regexp.MustCompile(`(?i)\bremember (that|to)\b`),
	regexp.MustCompile(`(?i)\buse .* (format|style|language)\b`),
	regexp.MustCompile(`(?i)\bi (like|prefer|want|need)\b`),
}

func matchesPreferenceIndicator(text string) bool {
	for _, re := range preferenceIndicators {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// PreferenceKind categorises an extracted preference, per spec.md §4.7
// ("language/format/verbosity/tone/code-style cues").
type PreferenceKind string

const (
	PreferenceLanguage  PreferenceKind = "language"
	PreferenceFormat    PreferenceKind = "format"
	PreferenceVerbosity PreferenceKind = "verbosity"
	PreferenceTone      PreferenceKind = "tone"
	PreferenceCodeStyle PreferenceKind = "code_style"
)

// ExtractedPreference is one advisory extraction from ExtractPreferences.
type ExtractedPreference struct {
	Kind       PreferenceKind
	Value      string
	Confidence float64
	Match      string
}

type preferenceRule struct {
	kind       PreferenceKind
	pattern    *regexp.Regexp
	confidence float64
}

var preferenceRules = []preferenceRule{
	{PreferenceLanguage, regexp.MustCompile(`(?i)\b(respond|reply|speak|write) (in|using) (?P<value>[a-zA-Z]+)\b`), 0.8},
	{PreferenceFormat, regexp.MustCompile(`(?i)\buse (?P<value>markdown|json|yaml|plain text|bullet points|tables)\b`), 0.75},
	{PreferenceVerbosity, regexp.MustCompile(`(?i)\b(be|keep it) (?P<value>concise|brief|terse|verbose|detailed)\b`), 0.7},
	{PreferenceTone, regexp.MustCompile(`(?i)\b(be|sound) (?P<value>formal|casual|friendly|professional)\b`), 0.6},
	{PreferenceCodeStyle, regexp.MustCompile(`(?i)\buse (?P<value>tabs|spaces|camelCase|snake_case|single quotes|double quotes)\b`), 0.7},
}

// ExtractPreferences deterministically extracts preference cues from
// content, per spec.md §4.7. Purely advisory — callers decide whether to
// persist any extraction.
func ExtractPreferences(content string) []ExtractedPreference {
	var out []ExtractedPreference
	for _, rule := range preferenceRules {
		match := rule.pattern.FindStringSubmatch(content)
		if match == nil {
			continue
		}
		value := match[0]
		if idx := rule.pattern.SubexpIndex("value"); idx >= 0 && idx < len(match) && match[idx] != "" {
			value = match[idx]
		}
		out = append(out, ExtractedPreference{
			Kind:       rule.kind,
			Value:      value,
			Confidence: rule.confidence,
			Match:      match[0],
		})
	}
	return out
}
