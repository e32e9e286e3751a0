package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/edforge/mentor/internal/types"
)

const defaultRecallLimit = 5

// EpisodicMemory is an append-only journal of interaction events for one
// user. Recency is the relevance proxy: recall orders by creation time.
type EpisodicMemory struct {
	store   RecordStore
	userID  string
	nowFunc func() time.Time
}

// NewEpisodicMemory returns episodic memory over the injected store.
func NewEpisodicMemory(store RecordStore, userID string) *EpisodicMemory {
	return &EpisodicMemory{
		store:   store,
		userID:  userID,
		nowFunc: time.Now,
	}
}

// StoreEpisode appends one immutable record. Store failures are logged
// and swallowed: the returned id is best-effort and may not have
// persisted. The tutoring conversation never aborts on a memory write.
func (m *EpisodicMemory) StoreEpisode(ctx context.Context, sessionID, content string, context map[string]any, importance types.Importance) string {
	now := m.nowFunc().UTC()
	id := types.RecordID(m.userID, sessionID, now.Format(time.RFC3339Nano))

	rec := types.MemoryRecord{
		ID:           id,
		UserID:       m.userID,
		Kind:         types.MemoryEpisodic,
		SessionID:    sessionID,
		Content:      content,
		Context:      context,
		Importance:   importance,
		CreatedAt:    now,
		LastAccessed: now,
		DecayFactor:  1.0,
	}
	if err := m.store.Insert(ctx, rec); err != nil {
		slog.Error("failed to store episodic memory", "error", err, "user_id", m.userID)
	}
	return id
}

// RecallEpisodes returns the newest episodes first, optionally limited to
// the last timeRangeDays. The query argument is accepted for interface
// symmetry with a relevance-ranked recall; the recency implementation
// does not filter on it. Returned records get their access statistics
// bumped best-effort.
func (m *EpisodicMemory) RecallEpisodes(ctx context.Context, query string, limit, timeRangeDays int) ([]types.MemoryRecord, error) {
	_ = query
	if limit <= 0 {
		limit = defaultRecallLimit
	}

	q := RecordQuery{
		UserID: m.userID,
		Kind:   types.MemoryEpisodic,
		Limit:  limit,
	}
	if timeRangeDays > 0 {
		cutoff := m.nowFunc().UTC().AddDate(0, 0, -timeRangeDays)
		q.Since = &cutoff
	}

	records, err := m.store.List(ctx, q)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if err := m.store.BumpAccess(ctx, rec.ID, m.nowFunc().UTC()); err != nil {
			// Non-critical bookkeeping.
			slog.Debug("failed to bump episode access", "error", err, "id", rec.ID)
		}
	}
	return records, nil
}

// SessionHistory returns a session's episodes in the order they occurred.
func (m *EpisodicMemory) SessionHistory(ctx context.Context, sessionID string) ([]types.MemoryRecord, error) {
	return m.store.List(ctx, RecordQuery{
		UserID:    m.userID,
		SessionID: sessionID,
		Kind:      types.MemoryEpisodic,
		Ascending: true,
	})
}
