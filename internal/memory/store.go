// Package memory implements the four-kind tutoring memory subsystem:
// episodic, semantic, procedural, and working memory, coordinated by a
// Manager that assembles bounded context bundles for generation.
package memory

import (
	"context"
	"time"

	"github.com/edforge/mentor/internal/types"
)

// RecordQuery selects memory records from the store.
type RecordQuery struct {
	UserID    string
	Kind      types.MemoryKind
	SessionID string
	// Since filters on created_at >= Since when non-nil.
	Since *time.Time
	// Ascending orders by created_at ascending; default is newest first.
	Ascending bool
	Limit     int
}

// RecordStore is the persistence contract the memory kinds depend on. A
// single store handle is injected into every kind; the store provides its
// own atomicity for individual upserts (last-writer-wins is acceptable).
type RecordStore interface {
	Insert(ctx context.Context, rec types.MemoryRecord) error
	Upsert(ctx context.Context, rec types.MemoryRecord) error
	// PatchContext replaces a record's context bag and refreshes
	// last_accessed.
	PatchContext(ctx context.Context, id string, context map[string]any, lastAccessed time.Time) error
	// BumpAccess increments access_count and refreshes last_accessed.
	BumpAccess(ctx context.Context, id string, at time.Time) error
	Get(ctx context.Context, id string) (*types.MemoryRecord, error)
	List(ctx context.Context, q RecordQuery) ([]types.MemoryRecord, error)
	// FindByContentMatch returns a user's records of one kind whose
	// content contains needle (case-insensitive substring).
	FindByContentMatch(ctx context.Context, userID string, kind types.MemoryKind, needle string) ([]types.MemoryRecord, error)
	// DeleteWorking removes all working-memory records for a session.
	DeleteWorking(ctx context.Context, sessionID string) error
}

// MessageStore reads and appends conversation messages.
type MessageStore interface {
	Append(ctx context.Context, msg types.ChatMessage) error
	// Recent returns up to limit messages for a session, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]types.ChatMessage, error)
}
