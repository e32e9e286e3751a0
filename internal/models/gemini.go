package models

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/edforge/mentor/internal/types"
)

type geminiModel struct {
	client *genai.Client
	name   string
}

// NewGeminiModel creates a chat model backed by the Gemini API.
func NewGeminiModel(ctx context.Context, modelName, apiKey string) (ChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiModel{client: client, name: modelName}, nil
}

func (m *geminiModel) Name() string {
	return m.name
}

func (m *geminiModel) Generate(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	contents, config := m.buildRequest(messages, maxTokens)

	resp, err := m.client.Models.GenerateContent(ctx, m.name, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}
	return responseText(resp), nil
}

func (m *geminiModel) Stream(ctx context.Context, messages []Message, maxTokens int, fn func(delta string) error) error {
	contents, config := m.buildRequest(messages, maxTokens)

	for resp, err := range m.client.Models.GenerateContentStream(ctx, m.name, contents, config) {
		if err != nil {
			return fmt.Errorf("failed to stream from Gemini API: %w", err)
		}
		if delta := responseText(resp); delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildRequest splits system messages into the system instruction and
// maps the rest onto Gemini's user/model role vocabulary.
func (m *geminiModel) buildRequest(messages []Message, maxTokens int) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			system = append(system, msg.Content)
		case types.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, config
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
