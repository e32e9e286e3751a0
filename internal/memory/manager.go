package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/edforge/mentor/internal/types"
)

const (
	crossSessionWindowDays = 30
	previewLimit           = 100
	bundleStrategyLimit    = 5
)

// BuildOptions controls which facets BuildContext assembles.
type BuildOptions struct {
	IncludeProfile    bool
	IncludeHistory    bool
	IncludeStrategies bool
	MaxEpisodes       int
}

// DefaultBuildOptions enables every facet with five episodes.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		IncludeProfile:    true,
		IncludeHistory:    true,
		IncludeStrategies: true,
		MaxEpisodes:       5,
	}
}

// Interaction is one completed user turn handed to ProcessInteraction.
type Interaction struct {
	UserMessage       string
	AssistantResponse string
	Topic             string
	// WasHelpful is nil when no helpfulness signal exists for the turn.
	WasHelpful     *bool
	ExtractedFacts []types.Fact
}

// Manager coordinates the four memory kinds for one (user, session) pair:
// it builds ranked context bundles for a query, records completed
// interactions across all kinds, consolidates working memory at session
// end, and serves cross-session recall.
type Manager struct {
	Episodic   *EpisodicMemory
	Semantic   *SemanticMemory
	Procedural *ProceduralMemory
	Working    *WorkingMemory

	userID    string
	sessionID string
	nowFunc   func() time.Time
}

// NewManager wires the four memory kinds over one injected store handle.
func NewManager(store RecordStore, messages MessageStore, userID, sessionID string) *Manager {
	return &Manager{
		Episodic:   NewEpisodicMemory(store, userID),
		Semantic:   NewSemanticMemory(store, userID),
		Procedural: NewProceduralMemory(store, userID),
		Working:    NewWorkingMemory(store, messages, userID, sessionID),
		userID:     userID,
		sessionID:  sessionID,
		nowFunc:    time.Now,
	}
}

// BuildContext assembles the context bundle for a query. The sub-fetches
// are independent and read-only, so they fan out concurrently; each is
// best-effort and a failure in one kind leaves its facet empty without
// aborting the others. The bundle is a partial-success aggregate, never
// an all-or-nothing transaction.
func (m *Manager) BuildContext(ctx context.Context, query string, opts BuildOptions) types.ContextBundle {
	bundle := types.ContextBundle{
		Query:       query,
		SessionID:   m.sessionID,
		GeneratedAt: m.nowFunc().UTC(),
	}

	var wg sync.WaitGroup

	if opts.IncludeProfile {
		wg.Add(1)
		go func() {
			defer wg.Done()
			profile, err := m.Semantic.UserProfile(ctx)
			if err != nil {
				slog.Error("failed to load user profile", "error", err, "user_id", m.userID)
				return
			}
			bundle.Profile = profile
		}()
	}

	if opts.IncludeHistory {
		wg.Add(1)
		go func() {
			defer wg.Done()
			episodes, err := m.Episodic.RecallEpisodes(ctx, query, opts.MaxEpisodes, 0)
			if err != nil {
				slog.Error("failed to recall episodes", "error", err, "user_id", m.userID)
				return
			}
			snippets := make([]types.EpisodeSnippet, 0, len(episodes))
			for _, ep := range episodes {
				snippets = append(snippets, types.EpisodeSnippet{
					Content:   ep.Content,
					CreatedAt: ep.CreatedAt,
					Context:   ep.Context,
				})
			}
			bundle.RelevantHistory = snippets
		}()
	}

	if opts.IncludeStrategies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			strategies, err := m.Procedural.EffectiveStrategies(ctx, "", 0)
			if err != nil {
				slog.Error("failed to load strategies", "error", err, "user_id", m.userID)
				return
			}
			if len(strategies) > bundleStrategyLimit {
				strategies = strategies[:bundleStrategyLimit]
			}
			bundle.EffectiveStrategies = strategies
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		bundle.CurrentTopic = m.Working.CurrentTopic(ctx)
		bundle.ConversationSummary = m.Working.ConversationSummary(ctx)
	}()

	wg.Wait()
	return bundle
}

// ProcessInteraction updates all memory kinds after a completed turn:
// always one episodic summary record; topic, facts, and a procedural
// outcome when the interaction carries them. Every write is best-effort.
func (m *Manager) ProcessInteraction(ctx context.Context, in Interaction) {
	summary := fmt.Sprintf("User asked about: %s... Response covered: %s...",
		types.Prefix(in.UserMessage, previewLimit),
		types.Prefix(in.AssistantResponse, previewLimit))

	m.Episodic.StoreEpisode(ctx, m.sessionID, summary, map[string]any{
		"topic":           in.Topic,
		"helpful":         helpfulValue(in.WasHelpful),
		"message_length":  len(in.UserMessage),
		"response_length": len(in.AssistantResponse),
	}, types.ImportanceMedium)

	if in.Topic != "" {
		m.Working.SetCurrentTopic(ctx, in.Topic)
	}

	for _, fact := range in.ExtractedFacts {
		category := fact.Category
		if category == "" {
			category = CategoryGeneral
		}
		if fact.Fact == "" {
			continue
		}
		m.Semantic.StoreFact(ctx, category, fact.Fact, 0, m.sessionID)
	}

	if in.WasHelpful != nil {
		topic := in.Topic
		if topic == "" {
			topic = "general"
		}
		style := DetectExplanationStyle(in.AssistantResponse)
		m.Procedural.RecordExplanationOutcome(ctx, topic, style, *in.WasHelpful, "")
	}
}

// Consolidate promotes the session's conversation summary into a
// high-importance episodic record and clears working memory. Safe to call
// with nothing to consolidate: the empty-summary sentinel short-circuits
// the episodic write.
func (m *Manager) Consolidate(ctx context.Context) {
	summary := m.Working.ConversationSummary(ctx)
	if summary != "" && summary != EmptySummary {
		m.Episodic.StoreEpisode(ctx, m.sessionID,
			fmt.Sprintf("Session summary: %s", types.Prefix(summary, 500)),
			map[string]any{"type": "session_summary"},
			types.ImportanceHigh)
	}
	m.Working.ClearSession(ctx)
}

// CrossSessionContext recalls episodes from the last thirty days and
// groups them by session, preserving each session's chronological order.
func (m *Manager) CrossSessionContext(ctx context.Context, topic string, limit int) []types.SessionContext {
	if limit <= 0 {
		limit = 10
	}
	episodes, err := m.Episodic.RecallEpisodes(ctx, topic, limit, crossSessionWindowDays)
	if err != nil {
		slog.Error("failed to recall cross-session episodes", "error", err, "user_id", m.userID)
		return nil
	}

	grouped := make(map[string][]types.MemoryRecord)
	var order []string
	for _, ep := range episodes {
		sid := ep.SessionID
		if sid == "" {
			sid = "unknown"
		}
		if _, ok := grouped[sid]; !ok {
			order = append(order, sid)
		}
		grouped[sid] = append(grouped[sid], ep)
	}

	sessions := make([]types.SessionContext, 0, len(order))
	for _, sid := range order {
		eps := grouped[sid]
		// Recall is newest first; present each session oldest first.
		mostRecent := eps[0].CreatedAt
		for i, j := 0, len(eps)-1; i < j; i, j = i+1, j-1 {
			eps[i], eps[j] = eps[j], eps[i]
		}
		sessions = append(sessions, types.SessionContext{
			SessionID:  sid,
			Episodes:   eps,
			MostRecent: mostRecent,
		})
	}
	return sessions
}

func helpfulValue(helpful *bool) any {
	if helpful == nil {
		return nil
	}
	return *helpful
}
