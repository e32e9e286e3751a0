package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/edforge/mentor/internal/types"
)

func newTestManager(store *mockRecordStore, messages *mockMessageStore, at time.Time) *Manager {
	mgr := NewManager(store, messages, "user-1", "sess-1")
	mgr.nowFunc = fixedClock(at)
	mgr.Episodic.nowFunc = fixedClock(at)
	mgr.Semantic.nowFunc = fixedClock(at)
	mgr.Procedural.nowFunc = fixedClock(at)
	mgr.Working.nowFunc = fixedClock(at)
	return mgr
}

func TestBuildContextAssemblesAllFacets(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newMockRecordStore()
	store.seed(
		types.MemoryRecord{
			ID: "f1", UserID: "user-1", Kind: types.MemorySemantic,
			Content: "visual learner",
			Context: map[string]any{"category": CategoryLearningStyle},
		},
		types.MemoryRecord{
			ID: "e1", UserID: "user-1", Kind: types.MemoryEpisodic,
			Content: "discussed limits", CreatedAt: now.Add(-time.Hour),
		},
		types.MemoryRecord{
			ID: "p1", UserID: "user-1", Kind: types.MemoryProcedural,
			Content: "socratic questioning",
			Context: map[string]any{"procedure_type": ProcedureExplanation, "success_rate": 0.8, "use_count": 3},
		},
	)
	messages := &mockMessageStore{messages: []types.ChatMessage{
		{SessionID: "sess-1", Role: types.RoleUser, Content: "hello", CreatedAt: now.Add(-time.Minute)},
	}}

	mgr := newTestManager(store, messages, now)
	bundle := mgr.BuildContext(context.Background(), "what is a derivative?", DefaultBuildOptions())

	if bundle.Query != "what is a derivative?" || bundle.SessionID != "sess-1" {
		t.Fatalf("bundle metadata wrong: %+v", bundle)
	}
	if bundle.Profile == nil || len(bundle.Profile.LearningStyle) != 1 {
		t.Fatalf("expected profile facet, got %+v", bundle.Profile)
	}
	if len(bundle.RelevantHistory) != 1 || bundle.RelevantHistory[0].Content != "discussed limits" {
		t.Fatalf("expected history facet, got %+v", bundle.RelevantHistory)
	}
	if len(bundle.EffectiveStrategies) != 1 {
		t.Fatalf("expected strategy facet, got %+v", bundle.EffectiveStrategies)
	}
	if bundle.ConversationSummary != "User: hello" {
		t.Fatalf("unexpected summary: %q", bundle.ConversationSummary)
	}
}

func TestBuildContextPartialFailure(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newMockRecordStore()
	store.listErrFor = map[types.MemoryKind]error{
		types.MemorySemantic: errors.New("semantic table offline"),
	}
	store.seed(
		types.MemoryRecord{
			ID: "e1", UserID: "user-1", Kind: types.MemoryEpisodic,
			Content: "discussed limits", CreatedAt: now.Add(-time.Hour),
		},
		types.MemoryRecord{
			ID: "p1", UserID: "user-1", Kind: types.MemoryProcedural,
			Content: "worked examples",
			Context: map[string]any{"procedure_type": ProcedureExplanation, "success_rate": 0.9, "use_count": 2},
		},
	)

	mgr := newTestManager(store, &mockMessageStore{}, now)
	bundle := mgr.BuildContext(context.Background(), "q", DefaultBuildOptions())

	if bundle.Profile != nil {
		t.Fatalf("failed facet should stay empty, got %+v", bundle.Profile)
	}
	if len(bundle.RelevantHistory) != 1 {
		t.Fatalf("healthy episodic facet lost: %+v", bundle.RelevantHistory)
	}
	if len(bundle.EffectiveStrategies) != 1 {
		t.Fatalf("healthy procedural facet lost: %+v", bundle.EffectiveStrategies)
	}
}

func TestBuildContextFacetToggles(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newMockRecordStore()
	store.seed(types.MemoryRecord{
		ID: "e1", UserID: "user-1", Kind: types.MemoryEpisodic,
		Content: "episode", CreatedAt: now.Add(-time.Hour),
	})

	mgr := newTestManager(store, &mockMessageStore{}, now)
	bundle := mgr.BuildContext(context.Background(), "q", BuildOptions{IncludeHistory: true, MaxEpisodes: 5})

	if bundle.Profile != nil || bundle.EffectiveStrategies != nil {
		t.Fatalf("disabled facets should be empty: %+v", bundle)
	}
	if len(bundle.RelevantHistory) != 1 {
		t.Fatalf("enabled facet missing: %+v", bundle.RelevantHistory)
	}
}

func TestProcessInteractionWritesAllKinds(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newMockRecordStore()
	mgr := newTestManager(store, &mockMessageStore{}, now)

	helpful := true
	mgr.ProcessInteraction(context.Background(), Interaction{
		UserMessage:       "explain derivatives please",
		AssistantResponse: "Imagine a curve. For example, the slope...",
		Topic:             "derivatives",
		WasHelpful:        &helpful,
		ExtractedFacts: []types.Fact{
			{Category: CategoryInterest, Fact: "enjoys calculus"},
		},
	})

	episodes := store.insertsOfKind(types.MemoryEpisodic)
	if len(episodes) != 1 {
		t.Fatalf("expected one episodic record, got %d", len(episodes))
	}
	if !strings.HasPrefix(episodes[0].Content, "User asked about: explain derivatives please...") {
		t.Fatalf("unexpected episode summary: %q", episodes[0].Content)
	}
	if contextString(episodes[0].Context, "topic", "") != "derivatives" {
		t.Fatalf("topic missing from episode context: %v", episodes[0].Context)
	}

	facts := store.insertsOfKind(types.MemorySemantic)
	if len(facts) != 1 || facts[0].Content != "enjoys calculus" {
		t.Fatalf("expected one semantic fact, got %+v", facts)
	}

	procedures := store.insertsOfKind(types.MemoryProcedural)
	if len(procedures) != 1 {
		t.Fatalf("expected one procedural outcome, got %d", len(procedures))
	}
	if !strings.HasPrefix(procedures[0].Content, "For derivatives: ") {
		t.Fatalf("unexpected procedure description: %q", procedures[0].Content)
	}

	if topic := mgr.Working.CurrentTopic(context.Background()); topic != "derivatives" {
		t.Fatalf("current topic not set, got %q", topic)
	}
}

func TestProcessInteractionWithoutSignals(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newMockRecordStore()
	mgr := newTestManager(store, &mockMessageStore{}, now)

	mgr.ProcessInteraction(context.Background(), Interaction{
		UserMessage:       "hi",
		AssistantResponse: "hello",
	})

	if len(store.insertsOfKind(types.MemoryEpisodic)) != 1 {
		t.Fatal("episodic record should always be written")
	}
	if len(store.insertsOfKind(types.MemorySemantic)) != 0 {
		t.Fatal("no facts were provided")
	}
	if len(store.insertsOfKind(types.MemoryProcedural)) != 0 {
		t.Fatal("no helpfulness signal was provided")
	}
	if len(store.upserts) != 0 {
		t.Fatal("no topic was provided")
	}
}

func TestConsolidateWritesSummaryAndClears(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newMockRecordStore()
	messages := &mockMessageStore{messages: []types.ChatMessage{
		{SessionID: "sess-1", Role: types.RoleUser, Content: "what is recursion?", CreatedAt: now.Add(-time.Minute)},
	}}

	mgr := newTestManager(store, messages, now)
	mgr.Consolidate(context.Background())

	episodes := store.insertsOfKind(types.MemoryEpisodic)
	if len(episodes) != 1 {
		t.Fatalf("expected one consolidated episode, got %d", len(episodes))
	}
	if !strings.HasPrefix(episodes[0].Content, "Session summary: ") {
		t.Fatalf("unexpected consolidation content: %q", episodes[0].Content)
	}
	if episodes[0].Importance != types.ImportanceHigh {
		t.Fatalf("consolidated episode should be high importance, got %s", episodes[0].Importance)
	}
	if contextString(episodes[0].Context, "type", "") != "session_summary" {
		t.Fatalf("missing session_summary marker: %v", episodes[0].Context)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("working memory not cleared: %v", store.deleted)
	}
}

func TestConsolidateSkipsEmptySession(t *testing.T) {
	store := newMockRecordStore()
	mgr := newTestManager(store, &mockMessageStore{}, time.Now())

	mgr.Consolidate(context.Background())
	mgr.Consolidate(context.Background())

	if len(store.insertsOfKind(types.MemoryEpisodic)) != 0 {
		t.Fatal("empty session must not produce a summary episode")
	}
	if len(store.deleted) != 2 {
		t.Fatalf("clear should still run, got %v", store.deleted)
	}
}

func TestCrossSessionContextGroupsBySession(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	store := newMockRecordStore()
	store.seed(
		types.MemoryRecord{
			ID: "a1", UserID: "user-1", Kind: types.MemoryEpisodic, SessionID: "sess-a",
			Content: "a first", CreatedAt: now.Add(-3 * time.Hour),
		},
		types.MemoryRecord{
			ID: "a2", UserID: "user-1", Kind: types.MemoryEpisodic, SessionID: "sess-a",
			Content: "a second", CreatedAt: now.Add(-2 * time.Hour),
		},
		types.MemoryRecord{
			ID: "b1", UserID: "user-1", Kind: types.MemoryEpisodic, SessionID: "sess-b",
			Content: "b only", CreatedAt: now.Add(-time.Hour),
		},
		types.MemoryRecord{
			ID: "stale", UserID: "user-1", Kind: types.MemoryEpisodic, SessionID: "sess-c",
			Content: "outside window", CreatedAt: now.AddDate(0, 0, -45),
		},
	)

	mgr := newTestManager(store, &mockMessageStore{}, now)
	sessions := mgr.CrossSessionContext(context.Background(), "anything", 10)

	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions inside the window, got %d", len(sessions))
	}
	bySession := make(map[string]types.SessionContext, len(sessions))
	for _, s := range sessions {
		bySession[s.SessionID] = s
	}
	a, ok := bySession["sess-a"]
	if !ok || len(a.Episodes) != 2 {
		t.Fatalf("sess-a not grouped: %+v", sessions)
	}
	if a.Episodes[0].Content != "a first" || a.Episodes[1].Content != "a second" {
		t.Fatalf("sess-a episodes not chronological: %+v", a.Episodes)
	}
	if !a.MostRecent.Equal(now.Add(-2 * time.Hour)) {
		t.Fatalf("sess-a most recent wrong: %v", a.MostRecent)
	}
	if b := bySession["sess-b"]; len(b.Episodes) != 1 {
		t.Fatalf("sess-b not grouped: %+v", sessions)
	}
}
