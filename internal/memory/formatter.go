package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edforge/mentor/internal/types"
)

const (
	contextHeader = "=== USER MEMORY CONTEXT ==="
	contextFooter = "=== END CONTEXT ==="

	maxInterests  = 5
	maxChallenges = 3
	maxApproaches = 3
	maxSnippets   = 3
	snippetLimit  = 100
)

// FormatContext renders a context bundle as the prompt block injected
// ahead of the system prompt. Empty facets are omitted; an entirely
// empty bundle renders to the empty string so callers can skip the
// injection altogether.
func FormatContext(bundle types.ContextBundle) string {
	var lines []string

	if p := bundle.Profile; p != nil {
		if len(p.LearningStyle) > 0 {
			lines = append(lines, fmt.Sprintf("Learning Style: %s", strings.Join(p.LearningStyle, ", ")))
		}
		if len(p.Proficiencies) > 0 {
			pairs := make([]string, 0, len(p.Proficiencies))
			for _, subject := range sortedKeys(p.Proficiencies) {
				pairs = append(pairs, fmt.Sprintf("%s: %s", subject, p.Proficiencies[subject]))
			}
			lines = append(lines, fmt.Sprintf("Subject Proficiencies: %s", strings.Join(pairs, ", ")))
		}
		if len(p.Interests) > 0 {
			lines = append(lines, fmt.Sprintf("Interests: %s", strings.Join(capped(p.Interests, maxInterests), ", ")))
		}
		if len(p.Challenges) > 0 {
			lines = append(lines, fmt.Sprintf("Known Challenges: %s", strings.Join(capped(p.Challenges, maxChallenges), ", ")))
		}
	}

	if bundle.CurrentTopic != "" {
		lines = append(lines, fmt.Sprintf("Current Topic: %s", bundle.CurrentTopic))
	}

	if len(bundle.EffectiveStrategies) > 0 {
		descs := make([]string, 0, maxApproaches)
		for i, s := range bundle.EffectiveStrategies {
			if i == maxApproaches {
				break
			}
			descs = append(descs, s.Description)
		}
		lines = append(lines, fmt.Sprintf("Effective Teaching Approaches: %s", strings.Join(descs, "; ")))
	}

	if len(bundle.RelevantHistory) > 0 {
		snippets := make([]string, 0, maxSnippets)
		for i, ep := range bundle.RelevantHistory {
			if i == maxSnippets {
				break
			}
			snippet := ep.Content
			if len([]rune(snippet)) > snippetLimit {
				snippet = types.Prefix(snippet, snippetLimit) + "..."
			}
			snippets = append(snippets, snippet)
		}
		lines = append(lines, fmt.Sprintf("Relevant Past Interactions: %s", strings.Join(snippets, " | ")))
	}

	if len(lines) == 0 {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n%s", contextHeader, strings.Join(lines, "\n"), contextFooter)
}

func capped(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
