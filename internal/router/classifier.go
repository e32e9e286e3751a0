// Package router maps a user message onto the persona that should handle
// it. Classification is deterministic keyword matching with a fixed
// precedence order, so routing is reproducible and testable without a
// model call.
package router

import "strings"

// Label identifies a persona.
type Label string

const (
	// LabelTutor is the default Socratic tutor.
	LabelTutor Label = "tutor"
	// LabelDocument answers questions grounded in uploaded material.
	LabelDocument Label = "rag"
	// LabelVisual explains with diagrams and imagery.
	LabelVisual Label = "visual"
	// LabelPresentation produces slide decks and outlines.
	LabelPresentation Label = "presentation"
	// LabelFeynman explains in the plainest possible terms.
	LabelFeynman Label = "feynman"
	// LabelAdvocate argues the opposing side to stress-test understanding.
	LabelAdvocate Label = "advocate"
)

// Keyword tables per label. Matching is case-insensitive substring; a
// message can hit several tables, so Classify applies them in a fixed
// precedence order.
var (
	documentPatterns = []string{
		"my document", "my notes", "my file", "the document", "my pdf",
		"uploaded", "in the text", "according to the document",
		"from my notes", "in my notes",
	}
	presentationPatterns = []string{
		"slide", "presentation", "deck", "powerpoint", "make slides",
	}
	visualPatterns = []string{
		"diagram", "draw", "visualize", "visually", "picture", "sketch",
		"show me a graph", "chart",
	}
	feynmanPatterns = []string{
		"like i'm five", "like im five", "eli5", "simple terms",
		"simply explain", "plain english", "feynman",
	}
	advocatePatterns = []string{
		"devil's advocate", "devils advocate", "counterargument",
		"argue against", "challenge my", "opposing view", "play devil",
	}
)

// Classify returns the persona label for a user message. Precedence:
// document grounding beats presentation, which beats visual, then
// Feynman, then advocate; anything unmatched goes to the tutor.
func Classify(message string) Label {
	lower := strings.ToLower(message)

	switch {
	case matchesAny(lower, documentPatterns):
		return LabelDocument
	case matchesAny(lower, presentationPatterns):
		return LabelPresentation
	case matchesAny(lower, visualPatterns):
		return LabelVisual
	case matchesAny(lower, feynmanPatterns):
		return LabelFeynman
	case matchesAny(lower, advocatePatterns):
		return LabelAdvocate
	default:
		return LabelTutor
	}
}

func matchesAny(lower string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
