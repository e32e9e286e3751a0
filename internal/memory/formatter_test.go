package memory

import (
	"strings"
	"testing"
	"time"

	"github.com/edforge/mentor/internal/types"
)

func TestFormatContextFullBundle(t *testing.T) {
	bundle := types.ContextBundle{
		Profile: &types.UserProfile{
			LearningStyle: []string{"visual", "hands-on"},
			Proficiencies: map[string]string{"algebra": "intermediate", "calculus": "beginner"},
			Interests:     []string{"astronomy", "music", "chess", "cooking", "running", "sixth interest"},
			Challenges:    []string{"proofs", "notation", "word problems", "fourth challenge"},
		},
		CurrentTopic: "derivatives",
		EffectiveStrategies: []types.Strategy{
			{Description: "worked examples"},
			{Description: "socratic questioning"},
			{Description: "visual diagrams"},
			{Description: "fourth approach"},
		},
		RelevantHistory: []types.EpisodeSnippet{
			{Content: "discussed limits", CreatedAt: time.Now()},
			{Content: strings.Repeat("y", 150), CreatedAt: time.Now()},
		},
	}

	got := FormatContext(bundle)

	if !strings.HasPrefix(got, "=== USER MEMORY CONTEXT ===\n") {
		t.Fatalf("missing header: %q", got)
	}
	if !strings.HasSuffix(got, "\n=== END CONTEXT ===") {
		t.Fatalf("missing footer: %q", got)
	}
	if !strings.Contains(got, "Learning Style: visual, hands-on") {
		t.Fatalf("learning style line missing: %q", got)
	}
	if !strings.Contains(got, "Subject Proficiencies: algebra: intermediate, calculus: beginner") {
		t.Fatalf("proficiency line missing or unordered: %q", got)
	}
	if strings.Contains(got, "sixth interest") {
		t.Fatalf("interests not capped at five: %q", got)
	}
	if strings.Contains(got, "fourth challenge") {
		t.Fatalf("challenges not capped at three: %q", got)
	}
	if !strings.Contains(got, "Current Topic: derivatives") {
		t.Fatalf("topic line missing: %q", got)
	}
	if !strings.Contains(got, "Effective Teaching Approaches: worked examples; socratic questioning; visual diagrams") {
		t.Fatalf("approaches line missing: %q", got)
	}
	if strings.Contains(got, "fourth approach") {
		t.Fatalf("approaches not capped at three: %q", got)
	}
	if !strings.Contains(got, "Relevant Past Interactions: discussed limits | ") {
		t.Fatalf("history line missing: %q", got)
	}
	if !strings.Contains(got, strings.Repeat("y", 100)+"...") {
		t.Fatalf("long snippet not truncated: %q", got)
	}
	if strings.Contains(got, strings.Repeat("y", 101)) {
		t.Fatalf("snippet exceeds the truncation limit: %q", got)
	}
}

func TestFormatContextEmptyBundle(t *testing.T) {
	if got := FormatContext(types.ContextBundle{}); got != "" {
		t.Fatalf("empty bundle should render to an empty string, got %q", got)
	}
	if got := FormatContext(types.ContextBundle{Profile: types.NewUserProfile()}); got != "" {
		t.Fatalf("bundle with empty profile should render to an empty string, got %q", got)
	}
}

func TestFormatContextSingleFacet(t *testing.T) {
	got := FormatContext(types.ContextBundle{CurrentTopic: "fractions"})
	want := "=== USER MEMORY CONTEXT ===\nCurrent Topic: fractions\n=== END CONTEXT ==="
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
