package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edforge/mentor/internal/types"
)

const (
	defaultFactConfidence = 0.8
	// factIDPrefixLen and factDedupPrefixLen bound the content prefixes
	// used for id derivation and near-duplicate matching respectively.
	factIDPrefixLen    = 50
	factDedupPrefixLen = 30
)

// Semantic fact categories recognized by profile bucketing. Anything else
// lands in raw facts.
const (
	CategoryLearningStyle = "learning_style"
	CategoryProficiency   = "proficiency"
	CategoryInterest      = "interest"
	CategoryChallenge     = "challenge"
	CategoryPreference    = "preference"
	CategoryGeneral       = "general"
)

// SemanticMemory stores deduplicated facts about one user. Duplicate
// detection is a leading-prefix substring heuristic, preserved for
// behavioral compatibility; embedding similarity is the upgrade path.
type SemanticMemory struct {
	store   RecordStore
	userID  string
	nowFunc func() time.Time
}

// NewSemanticMemory returns semantic memory over the injected store.
func NewSemanticMemory(store RecordStore, userID string) *SemanticMemory {
	return &SemanticMemory{
		store:   store,
		userID:  userID,
		nowFunc: time.Now,
	}
}

// StoreFact persists a fact about the user, deduplicating on the leading
// content prefix: a near-duplicate gets its confidence raised by 0.1
// (capped at 1.0) instead of producing a second record. Store failures
// are logged, never raised; the returned id is best-effort.
func (m *SemanticMemory) StoreFact(ctx context.Context, category, fact string, confidence float64, sourceSession string) string {
	if confidence <= 0 {
		confidence = defaultFactConfidence
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	now := m.nowFunc().UTC()

	existing, err := m.store.FindByContentMatch(ctx, m.userID, types.MemorySemantic, types.Prefix(fact, factDedupPrefixLen))
	if err != nil {
		slog.Error("failed to check for duplicate fact", "error", err, "user_id", m.userID)
	}
	if len(existing) > 0 {
		dup := existing[0]
		updated := map[string]any{
			"category":       category,
			"confidence":     min(contextFloat(dup.Context, "confidence", confidence)+0.1, 1.0),
			"source_session": sourceSession,
			"updated_at":     now.Format(time.RFC3339),
		}
		if err := m.store.PatchContext(ctx, dup.ID, updated, now); err != nil {
			slog.Error("failed to update duplicate fact", "error", err, "id", dup.ID)
		}
		return dup.ID
	}

	id := types.RecordID(m.userID, string(types.MemorySemantic), category, types.Prefix(fact, factIDPrefixLen))
	rec := types.MemoryRecord{
		ID:      id,
		UserID:  m.userID,
		Kind:    types.MemorySemantic,
		Content: fact,
		Context: map[string]any{
			"category":       category,
			"confidence":     confidence,
			"source_session": sourceSession,
		},
		Importance:   types.ImportanceHigh,
		CreatedAt:    now,
		LastAccessed: now,
		DecayFactor:  1.0,
	}
	if err := m.store.Insert(ctx, rec); err != nil {
		slog.Error("failed to store semantic memory", "error", err, "user_id", m.userID)
	}
	return id
}

// UserProfile buckets the user's semantic records by category. Records
// whose context bag is missing or unparsable are skipped; unrecognized
// categories fall into raw facts.
func (m *SemanticMemory) UserProfile(ctx context.Context) (*types.UserProfile, error) {
	records, err := m.store.List(ctx, RecordQuery{
		UserID: m.userID,
		Kind:   types.MemorySemantic,
	})
	if err != nil {
		return nil, err
	}

	profile := types.NewUserProfile()
	for _, rec := range records {
		if rec.Context == nil {
			continue
		}
		switch contextString(rec.Context, "category", CategoryGeneral) {
		case CategoryLearningStyle:
			profile.LearningStyle = append(profile.LearningStyle, rec.Content)
		case CategoryProficiency:
			subject, level, ok := strings.Cut(rec.Content, ":")
			if ok {
				profile.Proficiencies[strings.TrimSpace(subject)] = strings.TrimSpace(level)
			} else {
				profile.RawFacts = append(profile.RawFacts, rec.Content)
			}
		case CategoryInterest:
			profile.Interests = append(profile.Interests, rec.Content)
		case CategoryChallenge:
			profile.Challenges = append(profile.Challenges, rec.Content)
		case CategoryPreference:
			value, ok := rec.Context["value"]
			if !ok {
				value = true
			}
			profile.Preferences[rec.Content] = value
		default:
			profile.RawFacts = append(profile.RawFacts, rec.Content)
		}
	}
	return profile, nil
}

// UpdateProficiency records the user's level in a subject.
func (m *SemanticMemory) UpdateProficiency(ctx context.Context, subject, level, evidence string) {
	m.StoreFact(ctx, CategoryProficiency, fmt.Sprintf("%s: %s", subject, level), 0.85, evidence)
}

// RecordLearningPreference records a named learning preference.
func (m *SemanticMemory) RecordLearningPreference(ctx context.Context, preference string) {
	m.StoreFact(ctx, CategoryPreference, preference, 0.9, "")
}
