// Package main is the console tutoring client: it routes each message to
// a persona, injects memory context into the prompt, streams the reply,
// and feeds the completed turn back into the memory subsystem.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/edforge/mentor/internal/agents"
	"github.com/edforge/mentor/internal/config"
	"github.com/edforge/mentor/internal/extract"
	"github.com/edforge/mentor/internal/memory"
	"github.com/edforge/mentor/internal/models"
	"github.com/edforge/mentor/internal/repository"
	"github.com/edforge/mentor/internal/router"
	"github.com/edforge/mentor/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	userID := os.Getenv("MENTOR_USER")
	if userID == "" {
		userID = "default"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := repository.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	chatModel, err := models.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to create chat model: %v", err)
	}

	sessionID := uuid.NewString()
	manager := memory.NewManager(store.Records, store.Messages, userID, sessionID)
	dispatcher := agents.NewDispatcher()

	// Consolidate the session before exiting, whether by EOF or signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nConsolidating session...")
		manager.Consolidate(context.Background())
		cancel()
		os.Exit(0)
	}()

	fmt.Printf("mentor session %s (model %s). Type your question, '/topic <name>' to set the topic,\n'/helpful yes|no' to rate the last answer, or 'exit' to quit.\n", sessionID, chatModel.Name())

	var lastTurn *memory.Interaction
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		if topic, ok := strings.CutPrefix(input, "/topic "); ok {
			manager.Working.SetCurrentTopic(ctx, strings.TrimSpace(topic))
			fmt.Printf("Topic set to %q.\n", strings.TrimSpace(topic))
			continue
		}
		if rating, ok := strings.CutPrefix(input, "/helpful "); ok {
			recordFeedback(ctx, manager, lastTurn, strings.TrimSpace(rating))
			continue
		}

		turn, err := runTurn(ctx, cfg, manager, dispatcher, chatModel, store, sessionID, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		lastTurn = turn
	}

	fmt.Println("Consolidating session...")
	manager.Consolidate(context.Background())
}

// recordFeedback re-submits the previous turn with a helpfulness signal
// so procedural memory learns which explanation style worked.
func recordFeedback(ctx context.Context, manager *memory.Manager, lastTurn *memory.Interaction, rating string) {
	if lastTurn == nil {
		fmt.Println("Nothing to rate yet.")
		return
	}
	helpful := rating == "yes" || rating == "y"
	style := memory.DetectExplanationStyle(lastTurn.AssistantResponse)
	topic := lastTurn.Topic
	if topic == "" {
		topic = "general"
	}
	manager.Procedural.RecordExplanationOutcome(ctx, topic, style, helpful, rating)
	fmt.Println("Thanks, noted.")
}

func runTurn(
	ctx context.Context,
	cfg config.Config,
	manager *memory.Manager,
	dispatcher *agents.Dispatcher,
	chatModel models.ChatModel,
	store *repository.Store,
	sessionID, input string,
) (*memory.Interaction, error) {
	opts := memory.DefaultBuildOptions()
	opts.MaxEpisodes = cfg.MaxEpisodes
	bundle := manager.BuildContext(ctx, input, opts)
	memoryContext := memory.FormatContext(bundle)

	label := router.Classify(input)
	persona := dispatcher.ForLabel(label)

	history, err := store.Messages.Recent(ctx, sessionID, cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	// Recent is newest first; replay oldest first.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	messages := persona.BuildMessages(memoryContext, cfg.Language, history, input)

	var raw strings.Builder
	err = chatModel.Stream(ctx, messages, cfg.MaxTokens, func(delta string) error {
		raw.WriteString(delta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}

	facts, cleaned := extract.Facts(raw.String())
	fmt.Println(cleaned)
	fmt.Println()

	// Memory writes are fire-and-forget; the turn already succeeded.
	if err := store.Messages.Append(ctx, types.NewChatMessage(sessionID, types.RoleUser, input)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save message: %v\n", err)
	}
	if err := store.Messages.Append(ctx, types.NewChatMessage(sessionID, types.RoleAssistant, cleaned)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save message: %v\n", err)
	}

	turn := memory.Interaction{
		UserMessage:       input,
		AssistantResponse: cleaned,
		Topic:             bundle.CurrentTopic,
		ExtractedFacts:    facts,
	}
	manager.ProcessInteraction(ctx, turn)
	return &turn, nil
}
