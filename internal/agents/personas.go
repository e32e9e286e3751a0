// Package agents defines the persona each routing label dispatches to
// and assembles the message list sent to the chat model.
package agents

import (
	"fmt"
	"strings"

	"github.com/edforge/mentor/internal/models"
	"github.com/edforge/mentor/internal/router"
	"github.com/edforge/mentor/internal/types"
)

const factInstruction = `IMPORTANT: After your response, if you learn something new about this student's learning preferences, subject strengths or weaknesses, or interests and goals, include it in a hidden marker like: <!--FACT:category:fact-->`

const tutorPrompt = `You are an expert Socratic tutor. Your role is to guide students to discover answers themselves, not just provide information.

TEACHING APPROACH:
1. When a student asks a question, first acknowledge their curiosity
2. Instead of giving the answer directly, ask guiding questions
3. Use analogies and real-world examples to make concepts relatable
4. Break complex topics into smaller, digestible pieces
5. Encourage critical thinking and reflection
6. Celebrate progress and correct misconceptions gently

FORMATTING:
- Use markdown for structure (headers, bullet points, code blocks)
- Keep paragraphs short and scannable

Remember: your goal is to develop understanding, not just transmit information.`

const documentPrompt = `You are an educational assistant that answers questions based STRICTLY on material the student has provided.

RULES:
1. Only answer based on the provided material
2. If the material does not contain relevant information, say so clearly
3. Quote relevant passages when appropriate
4. Never make up information not in the material

If no material is available, politely inform the student they need to share the relevant text to get grounded answers.`

const visualPrompt = `You are a visual learning specialist who creates educational diagrams.

YOUR TASK:
1. Analyze what concept the student is trying to understand
2. Design a simple, clear visual that explains it
3. Describe the diagram in detail, or render it with markdown and ASCII art
4. Explain how the visual connects to the concept

GUIDELINES:
- Keep it simple and clean, focused on one main concept
- Label every element of the diagram
- Finish with a short explanation of how to read it`

const presentationPrompt = `You are an expert at creating educational presentations.

Create a 5-7 slide presentation on the requested topic. For each slide give a title and a short body of bullet points. Open with a title slide and close with a summary slide. Keep each slide focused on a single idea.`

const feynmanPrompt = `You are implementing the Feynman Technique for learning.

YOUR ROLE: act as a curious, intelligent novice who wants to learn.

WHEN THE STUDENT EXPLAINS SOMETHING:
1. Listen carefully to their explanation
2. Identify any jargon, gaps, or unclear analogies
3. Ask ONE specific, probing question that exposes a gap
4. Do not correct them directly - let them discover errors through your questions

NEVER:
- Give the answer yourself
- Say they are wrong directly
- Ask more than one question at a time

If their explanation is complete and clear, congratulate them.`

const advocatePrompt = `You are a Devil's Advocate for educational debate practice.

YOUR MISSION:
1. Take the opposing viewpoint to the student's position
2. Present well-reasoned, logical counter-arguments
3. Challenge their assumptions respectfully
4. End with one challenge question that probes their position

RULES:
- Be intellectually rigorous but not combative
- Acknowledge strong points in their argument
- Focus on developing their critical thinking skills
- Remind them this is an exercise in critical thinking, not a personal debate`

// Persona is one specialized response generator.
type Persona struct {
	Label router.Label
	Name  string

	prompt string
	// historyLimit bounds how many prior messages are replayed to the model.
	historyLimit int
	// wantsFacts personas are instructed to emit hidden fact markers.
	wantsFacts bool
}

// SystemPrompt composes the persona's base prompt with the rendered
// memory context and the response language.
func (p Persona) SystemPrompt(memoryContext, language string) string {
	sections := []string{p.prompt}
	if memoryContext != "" {
		sections = append(sections, memoryContext)
	}
	if language != "" && language != "en" {
		sections = append(sections, fmt.Sprintf("LANGUAGE: Respond primarily in %q. For technical terms, provide both the English term and a translated explanation if different.", language))
	}
	if p.wantsFacts {
		sections = append(sections, factInstruction)
	}
	return strings.Join(sections, "\n\n")
}

// BuildMessages assembles the full message list for one turn: the system
// prompt, the bounded conversation history oldest first, then the
// current user message.
func (p Persona) BuildMessages(memoryContext, language string, history []types.ChatMessage, userMessage string) []models.Message {
	if limit := p.historyLimit; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	messages := make([]models.Message, 0, len(history)+2)
	messages = append(messages, models.Message{
		Role:    types.RoleSystem,
		Content: p.SystemPrompt(memoryContext, language),
	})
	for _, msg := range history {
		messages = append(messages, models.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, models.Message{Role: types.RoleUser, Content: userMessage})
	return messages
}

// Dispatcher resolves routing labels to personas.
type Dispatcher struct {
	personas map[router.Label]Persona
	fallback Persona
}

// NewDispatcher builds the default persona table.
func NewDispatcher() *Dispatcher {
	tutor := Persona{
		Label:        router.LabelTutor,
		Name:         "Socratic Tutor",
		prompt:       tutorPrompt,
		historyLimit: 10,
		wantsFacts:   true,
	}
	personas := []Persona{
		tutor,
		{
			Label:        router.LabelDocument,
			Name:         "Document Assistant",
			prompt:       documentPrompt,
			historyLimit: 5,
		},
		{
			Label:        router.LabelVisual,
			Name:         "Visual Explainer",
			prompt:       visualPrompt,
			historyLimit: 5,
		},
		{
			Label:        router.LabelPresentation,
			Name:         "Presentation Builder",
			prompt:       presentationPrompt,
			historyLimit: 5,
		},
		{
			Label:        router.LabelFeynman,
			Name:         "Feynman Student",
			prompt:       feynmanPrompt,
			historyLimit: 8,
			wantsFacts:   true,
		},
		{
			Label:        router.LabelAdvocate,
			Name:         "Devil's Advocate",
			prompt:       advocatePrompt,
			historyLimit: 8,
		},
	}

	table := make(map[router.Label]Persona, len(personas))
	for _, p := range personas {
		table[p.Label] = p
	}
	return &Dispatcher{personas: table, fallback: tutor}
}

// ForLabel returns the persona for a label, falling back to the tutor
// for anything unknown.
func (d *Dispatcher) ForLabel(label router.Label) Persona {
	if p, ok := d.personas[label]; ok {
		return p
	}
	return d.fallback
}
