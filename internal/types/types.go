// Package types holds the domain value types shared across the memory
// subsystem, the router, and the personas.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// MemoryKind is a closed tag identifying which memory system owns a record.
type MemoryKind string

const (
	// MemoryEpisodic records specific events and interactions.
	MemoryEpisodic MemoryKind = "episodic"
	// MemorySemantic records facts and knowledge about the user.
	MemorySemantic MemoryKind = "semantic"
	// MemoryProcedural records learned patterns and teaching strategies.
	MemoryProcedural MemoryKind = "procedural"
	// MemoryWorking records current session context.
	MemoryWorking MemoryKind = "working"
)

// Importance is the retention priority of a record.
type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

// MemoryRecord is the one physical entity underlying all four memory kinds.
// Kind-specific structured data lives only in Context.
type MemoryRecord struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Kind      MemoryKind `json:"memory_kind"`
	SessionID string     `json:"session_id,omitempty"`
	Content   string     `json:"content"`
	// Context is an open attribute bag whose schema is kind-specific.
	// It is nil when a persisted record carried unparsable context.
	Context    map[string]any `json:"context,omitempty"`
	Importance Importance     `json:"importance"`
	CreatedAt  time.Time      `json:"created_at"`
	// LastAccessed and AccessCount are bumped on every successful recall.
	LastAccessed time.Time `json:"last_accessed"`
	AccessCount  int       `json:"access_count"`
	// DecayFactor is persisted for forward compatibility; retrieval does
	// not weight by it yet.
	DecayFactor float64   `json:"decay_factor"`
	Embedding   []float32 `json:"-"`
}

// Fact is a single extracted statement about the user.
type Fact struct {
	Category string `json:"category"`
	Fact     string `json:"fact"`
}

// Strategy is a teaching approach with its reinforcement score.
type Strategy struct {
	Description string  `json:"description"`
	SuccessRate float64 `json:"success_rate"`
	UseCount    int     `json:"use_count"`
	Type        string  `json:"type"`
}

// UserProfile is the bucketed view over a user's semantic memory.
type UserProfile struct {
	LearningStyle []string          `json:"learning_style"`
	Proficiencies map[string]string `json:"proficiencies"`
	Interests     []string          `json:"interests"`
	Challenges    []string          `json:"challenges"`
	Preferences   map[string]any    `json:"preferences"`
	RawFacts      []string          `json:"raw_facts"`
}

// NewUserProfile returns a profile with all buckets initialized.
func NewUserProfile() *UserProfile {
	return &UserProfile{
		LearningStyle: []string{},
		Proficiencies: map[string]string{},
		Interests:     []string{},
		Challenges:    []string{},
		Preferences:   map[string]any{},
		RawFacts:      []string{},
	}
}

// IsEmpty reports whether no bucket holds any data.
func (p *UserProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return len(p.LearningStyle) == 0 && len(p.Proficiencies) == 0 &&
		len(p.Interests) == 0 && len(p.Challenges) == 0 &&
		len(p.Preferences) == 0 && len(p.RawFacts) == 0
}

// EpisodeSnippet is one recalled episode inside a context bundle.
type EpisodeSnippet struct {
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	Context   map[string]any `json:"context,omitempty"`
}

// ContextBundle is the aggregated read-result across all memory kinds for
// one query. Each field is best-effort; a failed sub-fetch leaves its field
// empty without invalidating the rest.
type ContextBundle struct {
	Query               string           `json:"query"`
	SessionID           string           `json:"session_id"`
	GeneratedAt         time.Time        `json:"generated_at"`
	Profile             *UserProfile     `json:"user_profile,omitempty"`
	RelevantHistory     []EpisodeSnippet `json:"relevant_history,omitempty"`
	EffectiveStrategies []Strategy       `json:"effective_strategies,omitempty"`
	CurrentTopic        string           `json:"current_topic,omitempty"`
	ConversationSummary string           `json:"conversation_summary,omitempty"`
}

// SessionContext groups recalled episodes by the session that produced them.
type SessionContext struct {
	SessionID  string         `json:"session_id"`
	Episodes   []MemoryRecord `json:"episodes"`
	MostRecent time.Time      `json:"most_recent"`
}

// RecordID derives a stable record identifier from its logical parts, so
// repeated writes for the same logical fact collide intentionally.
func RecordID(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])[:16]
}

// WorkingRecordID is the deterministic id of a working-memory entry,
// supporting overwrite-by-upsert per (session, key).
func WorkingRecordID(sessionID, key string) string {
	return "wm:" + sessionID + ":" + key
}

// Prefix returns the first n runes of s, used by the content-prefix
// dedup heuristic.
func Prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
