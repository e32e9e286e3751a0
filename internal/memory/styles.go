package memory

import (
	"strings"

	"github.com/edforge/mentor/internal/types"
)

// StyleDirect is the fallback label when no style heuristic matches.
const StyleDirect = "direct-explanation"

// DetectExplanationStyle labels the explanation style of a response using
// a fixed ordered set of substring heuristics. Multiple labels may
// co-occur and are comma-joined; the result feeds the procedural-memory
// explanation_style dimension.
func DetectExplanationStyle(response string) string {
	lower := strings.ToLower(response)
	var styles []string

	if strings.Contains(types.Prefix(response, 200), "?") {
		styles = append(styles, "socratic")
	}
	if strings.Contains(lower, "example") || strings.Contains(lower, "for instance") {
		styles = append(styles, "example-based")
	}
	if strings.Contains(response, "1.") || strings.Contains(response, "•") || strings.Contains(response, "- ") {
		styles = append(styles, "structured-list")
	}
	if strings.Contains(lower, "imagine") || strings.Contains(lower, "think of") {
		styles = append(styles, "analogy")
	}
	if strings.Contains(response, "```") {
		styles = append(styles, "code-example")
	}
	if strings.Contains(response, "![") {
		styles = append(styles, "visual")
	}

	if len(styles) == 0 {
		return StyleDirect
	}
	return strings.Join(styles, ", ")
}
