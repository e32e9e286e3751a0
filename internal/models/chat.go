// Package models adapts chat-completion providers behind one interface.
package models

import (
	"context"
	"fmt"

	"github.com/edforge/mentor/internal/config"
)

// Message is one turn handed to a provider.
type Message struct {
	Role    string
	Content string
}

// ChatModel is the provider contract the rest of the application sees:
// an ordered message list in, generated text out, blocking or streamed.
type ChatModel interface {
	Name() string
	Generate(ctx context.Context, messages []Message, maxTokens int) (string, error)
	// Stream invokes fn for each text delta; fn returning an error stops
	// the stream and propagates.
	Stream(ctx context.Context, messages []Message, maxTokens int, fn func(delta string) error) error
}

// New builds the chat model selected by configuration.
func New(ctx context.Context, cfg config.Config) (ChatModel, error) {
	apiKey, err := cfg.ProviderAPIKey()
	if err != nil {
		return nil, err
	}
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiModel(ctx, cfg.LLMModel, apiKey)
	case config.ProviderGrok:
		return NewGrokModel(cfg.LLMModel, apiKey)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLMProvider)
	}
}
