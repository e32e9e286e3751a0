package models

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/edforge/mentor/internal/types"
)

const grokBaseURL = "https://api.x.ai/v1"

type grokModel struct {
	client *openai.Client
	name   string
}

// NewGrokModel creates a chat model backed by the x.ai OpenAI-compatible
// API.
func NewGrokModel(modelName, apiKey string) (ChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(grokBaseURL),
	)
	return &grokModel{client: &client, name: modelName}, nil
}

func (m *grokModel) Name() string {
	return m.name
}

func (m *grokModel) Generate(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	params := m.buildParams(messages, maxTokens)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to call Grok API: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (m *grokModel) Stream(ctx context.Context, messages []Message, maxTokens int, fn func(delta string) error) error {
	params := m.buildParams(messages, maxTokens)

	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer func() {
		if err := stream.Close(); err != nil {
			slog.Error("failed to close stream", "error", err.Error())
		}
	}()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("failed to stream from Grok API: %w", err)
	}
	return nil
}

func (m *grokModel) buildParams(messages []Message, maxTokens int) openai.ChatCompletionNewParams {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			converted = append(converted, openai.SystemMessage(msg.Content))
		case types.RoleAssistant:
			converted = append(converted, openai.AssistantMessage(msg.Content))
		default:
			converted = append(converted, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.name),
		Messages: converted,
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	return params
}
