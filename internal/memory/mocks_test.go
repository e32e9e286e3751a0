package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edforge/mentor/internal/types"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

type patchCall struct {
	id      string
	context map[string]any
}

type mockRecordStore struct {
	mu      sync.Mutex
	records map[string]types.MemoryRecord

	inserts []types.MemoryRecord
	upserts []types.MemoryRecord
	patches []patchCall
	bumps   []string
	deleted []string

	insertErr error
	upsertErr error
	getErr    error
	// listErr fails List for every kind; listErrFor fails one kind only.
	listErr    error
	listErrFor map[types.MemoryKind]error
	findErr    error
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{records: make(map[string]types.MemoryRecord)}
}

func (m *mockRecordStore) seed(recs ...types.MemoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.records[rec.ID] = rec
	}
}

func (m *mockRecordStore) Insert(_ context.Context, rec types.MemoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserts = append(m.inserts, rec)
	m.records[rec.ID] = rec
	return nil
}

func (m *mockRecordStore) Upsert(_ context.Context, rec types.MemoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, rec)
	m.records[rec.ID] = rec
	return nil
}

func (m *mockRecordStore) PatchContext(_ context.Context, id string, context map[string]any, lastAccessed time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patches = append(m.patches, patchCall{id: id, context: context})
	if rec, ok := m.records[id]; ok {
		rec.Context = context
		rec.LastAccessed = lastAccessed
		m.records[id] = rec
	}
	return nil
}

func (m *mockRecordStore) BumpAccess(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bumps = append(m.bumps, id)
	if rec, ok := m.records[id]; ok {
		rec.AccessCount++
		rec.LastAccessed = at
		m.records[id] = rec
	}
	return nil
}

func (m *mockRecordStore) Get(_ context.Context, id string) (*types.MemoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	copyValue := rec
	return &copyValue, nil
}

func (m *mockRecordStore) List(_ context.Context, q RecordQuery) ([]types.MemoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	if err := m.listErrFor[q.Kind]; err != nil {
		return nil, err
	}

	var matched []types.MemoryRecord
	for _, rec := range m.records {
		if q.UserID != "" && rec.UserID != q.UserID {
			continue
		}
		if q.Kind != "" && rec.Kind != q.Kind {
			continue
		}
		if q.SessionID != "" && rec.SessionID != q.SessionID {
			continue
		}
		if q.Since != nil && rec.CreatedAt.Before(*q.Since) {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool {
		if q.Ascending {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (m *mockRecordStore) FindByContentMatch(_ context.Context, userID string, kind types.MemoryKind, needle string) ([]types.MemoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	lower := strings.ToLower(needle)
	var matched []types.MemoryRecord
	for _, rec := range m.records {
		if rec.UserID != userID || rec.Kind != kind {
			continue
		}
		if strings.Contains(strings.ToLower(rec.Content), lower) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

func (m *mockRecordStore) DeleteWorking(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, sessionID)
	for id, rec := range m.records {
		if rec.Kind == types.MemoryWorking && rec.SessionID == sessionID {
			delete(m.records, id)
		}
	}
	return nil
}

func (m *mockRecordStore) insertsOfKind(kind types.MemoryKind) []types.MemoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.MemoryRecord
	for _, rec := range m.inserts {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

type mockMessageStore struct {
	messages  []types.ChatMessage
	appended  []types.ChatMessage
	recentErr error
}

func (m *mockMessageStore) Append(_ context.Context, msg types.ChatMessage) error {
	m.appended = append(m.appended, msg)
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockMessageStore) Recent(_ context.Context, sessionID string, limit int) ([]types.ChatMessage, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	var matched []types.ChatMessage
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			matched = append(matched, msg)
		}
	}
	// Newest first, like the real store.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
