package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/edforge/mentor/internal/types"
)

const (
	// EmptySummary is the fixed sentinel for a session with no messages.
	EmptySummary = "No previous context in this conversation."

	summaryMessageLimit  = 10
	summaryContentLimit  = 200
	defaultTTLMinutes    = 60
	topicTTLMinutes      = 120
	learningGoalTTL      = 180
	keyCurrentTopic      = "current_topic"
	keyLearningGoal      = "learning_goal"
)

type cacheEntry struct {
	value   any
	expires time.Time
}

// WorkingMemory is the short-lived per-session scratchpad: an in-process
// cache with absolute expiry, backed by persisted upserts so state
// survives process restarts within TTL. The cache is per-instance and
// must not be assumed shared across requests; the persisted fallback
// provides continuity.
type WorkingMemory struct {
	store     RecordStore
	messages  MessageStore
	userID    string
	sessionID string
	nowFunc   func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewWorkingMemory returns working memory for one (user, session) pair.
func NewWorkingMemory(store RecordStore, messages MessageStore, userID, sessionID string) *WorkingMemory {
	return &WorkingMemory{
		store:     store,
		messages:  messages,
		userID:    userID,
		sessionID: sessionID,
		nowFunc:   time.Now,
		cache:     make(map[string]cacheEntry),
	}
}

// Add writes a value under key with the given TTL. The cache holds the
// authoritative expiry; the persisted copy carries ttl_minutes as data so
// reads after a restart can re-derive it. Persistence is best-effort.
func (m *WorkingMemory) Add(ctx context.Context, key string, value any, ttlMinutes int) {
	if ttlMinutes < 0 {
		ttlMinutes = 0
	}
	now := m.nowFunc().UTC()

	m.mu.Lock()
	m.cache[key] = cacheEntry{
		value:   value,
		expires: now.Add(time.Duration(ttlMinutes) * time.Minute),
	}
	m.mu.Unlock()

	rec := types.MemoryRecord{
		ID:        types.WorkingRecordID(m.sessionID, key),
		UserID:    m.userID,
		Kind:      types.MemoryWorking,
		SessionID: m.sessionID,
		Content:   key,
		Context: map[string]any{
			"value":       value,
			"ttl_minutes": ttlMinutes,
		},
		Importance:   types.ImportanceLow,
		CreatedAt:    now,
		LastAccessed: now,
		DecayFactor:  1.0,
	}
	if err := m.store.Upsert(ctx, rec); err != nil {
		slog.Error("failed to persist working memory", "error", err, "session_id", m.sessionID, "key", key)
	}
}

// Get returns the value under key, or ok=false when absent. A cache
// entry whose expiry has been reached counts as absent (now >= expires is
// expired, so a zero TTL expires on arrival) and is evicted before the
// store is consulted. Persisted rows independently honor their recorded
// TTL: created_at + ttl_minutes in the past reads as absent.
func (m *WorkingMemory) Get(ctx context.Context, key string) (any, bool) {
	now := m.nowFunc().UTC()

	m.mu.Lock()
	if entry, ok := m.cache[key]; ok {
		if now.Before(entry.expires) {
			m.mu.Unlock()
			return entry.value, true
		}
		delete(m.cache, key)
	}
	m.mu.Unlock()

	rec, err := m.store.Get(ctx, types.WorkingRecordID(m.sessionID, key))
	if err != nil {
		slog.Error("failed to read working memory", "error", err, "session_id", m.sessionID, "key", key)
		return nil, false
	}
	if rec == nil || rec.Context == nil {
		return nil, false
	}
	ttl := time.Duration(contextInt(rec.Context, "ttl_minutes", defaultTTLMinutes)) * time.Minute
	if !now.Before(rec.CreatedAt.Add(ttl)) {
		return nil, false
	}
	value, ok := rec.Context["value"]
	return value, ok
}

// ConversationSummary formats the session's last ten messages as
// "Role: text" lines, oldest first, message bodies truncated to 200
// characters. Returns the fixed sentinel when the session has no
// messages or the store read fails.
func (m *WorkingMemory) ConversationSummary(ctx context.Context) string {
	messages, err := m.messages.Recent(ctx, m.sessionID, summaryMessageLimit)
	if err != nil {
		slog.Error("failed to read conversation history", "error", err, "session_id", m.sessionID)
		return EmptySummary
	}
	if len(messages) == 0 {
		return EmptySummary
	}

	parts := make([]string, 0, len(messages))
	// Recent returns newest first; display oldest first.
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		role := "Assistant"
		if msg.Role == types.RoleUser {
			role = "User"
		}
		content := msg.Content
		if len([]rune(content)) > summaryContentLimit {
			content = types.Prefix(content, summaryContentLimit) + "..."
		}
		parts = append(parts, fmt.Sprintf("%s: %s", role, content))
	}
	return strings.Join(parts, "\n")
}

// SetCurrentTopic records the topic under discussion.
func (m *WorkingMemory) SetCurrentTopic(ctx context.Context, topic string) {
	m.Add(ctx, keyCurrentTopic, topic, topicTTLMinutes)
}

// CurrentTopic returns the topic under discussion, or "".
func (m *WorkingMemory) CurrentTopic(ctx context.Context) string {
	value, ok := m.Get(ctx, keyCurrentTopic)
	if !ok {
		return ""
	}
	topic, _ := value.(string)
	return topic
}

// SetLearningGoal records the session's learning goal.
func (m *WorkingMemory) SetLearningGoal(ctx context.Context, goal string) {
	m.Add(ctx, keyLearningGoal, goal, learningGoalTTL)
}

// ClearSession drops the in-process cache and deletes all persisted
// working-memory records for the session. Best-effort.
func (m *WorkingMemory) ClearSession(ctx context.Context) {
	m.mu.Lock()
	m.cache = make(map[string]cacheEntry)
	m.mu.Unlock()

	if err := m.store.DeleteWorking(ctx, m.sessionID); err != nil {
		slog.Error("failed to clear working memory", "error", err, "session_id", m.sessionID)
	}
}
