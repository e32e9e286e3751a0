package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edforge/mentor/internal/memory"
	"github.com/edforge/mentor/internal/types"
)

// recordModel maps to the memories table.
type recordModel struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index:idx_memories_user_kind"`
	MemoryKind string `gorm:"index:idx_memories_user_kind"`
	SessionID  string `gorm:"index"`
	Content    string
	// Context holds the kind-specific attribute bag as JSONB.
	Context      json.RawMessage `gorm:"type:jsonb"`
	Importance   string
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int
	DecayFactor  float64
	// Embedding stores an optional vector for relevance-ranked recall.
	Embedding *pgvector.Vector `gorm:"type:vector"`
}

func (recordModel) TableName() string {
	return "memories"
}

// RecordRepo accesses memory records.
type RecordRepo struct {
	db *gorm.DB
}

// NewRecordRepo returns a RecordRepo.
func NewRecordRepo(db *gorm.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

func (r *RecordRepo) Insert(ctx context.Context, rec types.MemoryRecord) error {
	model, err := recordToModel(rec)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to insert memory record: %w", err)
	}
	return nil
}

func (r *RecordRepo) Upsert(ctx context.Context, rec types.MemoryRecord) error {
	model, err := recordToModel(rec)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error; err != nil {
		return fmt.Errorf("failed to upsert memory record: %w", err)
	}
	return nil
}

func (r *RecordRepo) PatchContext(ctx context.Context, id string, context map[string]any, lastAccessed time.Time) error {
	raw, err := marshalJSON(context)
	if err != nil {
		return fmt.Errorf("failed to encode record context: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Model(&recordModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"context":       raw,
			"last_accessed": lastAccessed,
		}).Error; err != nil {
		return fmt.Errorf("failed to patch record context: %w", err)
	}
	return nil
}

func (r *RecordRepo) BumpAccess(ctx context.Context, id string, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&recordModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_count":  gorm.Expr("access_count + 1"),
			"last_accessed": at,
		}).Error; err != nil {
		return fmt.Errorf("failed to bump record access: %w", err)
	}
	return nil
}

func (r *RecordRepo) Get(ctx context.Context, id string) (*types.MemoryRecord, error) {
	var model recordModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory record: %w", err)
	}
	rec := recordFromModel(model)
	return &rec, nil
}

func (r *RecordRepo) List(ctx context.Context, q memory.RecordQuery) ([]types.MemoryRecord, error) {
	query := r.db.WithContext(ctx).Model(&recordModel{})
	if q.UserID != "" {
		query = query.Where("user_id = ?", q.UserID)
	}
	if q.Kind != "" {
		query = query.Where("memory_kind = ?", string(q.Kind))
	}
	if q.SessionID != "" {
		query = query.Where("session_id = ?", q.SessionID)
	}
	if q.Since != nil {
		query = query.Where("created_at >= ?", *q.Since)
	}
	if q.Ascending {
		query = query.Order("created_at ASC")
	} else {
		query = query.Order("created_at DESC")
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var models []recordModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query memory records: %w", err)
	}

	records := make([]types.MemoryRecord, 0, len(models))
	for _, model := range models {
		records = append(records, recordFromModel(model))
	}
	return records, nil
}

func (r *RecordRepo) FindByContentMatch(ctx context.Context, userID string, kind types.MemoryKind, needle string) ([]types.MemoryRecord, error) {
	var models []recordModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("memory_kind = ?", string(kind)).
		Where("content ILIKE ?", "%"+needle+"%").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to match memory records: %w", err)
	}

	records := make([]types.MemoryRecord, 0, len(models))
	for _, model := range models {
		records = append(records, recordFromModel(model))
	}
	return records, nil
}

func (r *RecordRepo) DeleteWorking(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Where("memory_kind = ?", string(types.MemoryWorking)).
		Delete(&recordModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete working records: %w", err)
	}
	return nil
}

// SearchSimilar ranks a user's records of one kind by cosine similarity
// against the query embedding. Recall currently ranks by recency; this is
// the retained upgrade path for relevance-ranked retrieval.
func (r *RecordRepo) SearchSimilar(ctx context.Context, userID string, kind types.MemoryKind, embedding []float32, topK int, threshold float64) ([]types.MemoryRecord, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, user_id, memory_kind, session_id, content, context,
		       importance, created_at, last_accessed, access_count, decay_factor
		FROM memories
		WHERE user_id = $2
		  AND memory_kind = $3
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $4
		ORDER BY 1 - (embedding <=> $1) DESC
		LIMIT $5`

	var models []recordModel
	if err := r.db.WithContext(ctx).
		Raw(query, pgvector.NewVector(embedding), userID, string(kind), threshold, topK).
		Scan(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar records: %w", err)
	}

	records := make([]types.MemoryRecord, 0, len(models))
	for _, model := range models {
		records = append(records, recordFromModel(model))
	}
	return records, nil
}

// recordFromModel converts the database model to the domain struct. An
// unparsable context bag yields a nil Context; aggregation layers skip
// such records instead of failing.
func recordFromModel(model recordModel) types.MemoryRecord {
	var context map[string]any
	if err := unmarshalJSON(model.Context, &context); err != nil {
		context = nil
	}
	return types.MemoryRecord{
		ID:           model.ID,
		UserID:       model.UserID,
		Kind:         types.MemoryKind(model.MemoryKind),
		SessionID:    model.SessionID,
		Content:      model.Content,
		Context:      context,
		Importance:   types.Importance(model.Importance),
		CreatedAt:    model.CreatedAt,
		LastAccessed: model.LastAccessed,
		AccessCount:  model.AccessCount,
		DecayFactor:  model.DecayFactor,
	}
}

func recordToModel(rec types.MemoryRecord) (recordModel, error) {
	raw, err := marshalJSON(rec.Context)
	if err != nil {
		return recordModel{}, fmt.Errorf("failed to encode record context: %w", err)
	}
	var vector *pgvector.Vector
	if len(rec.Embedding) > 0 {
		v := pgvector.NewVector(rec.Embedding)
		vector = &v
	}
	return recordModel{
		ID:           rec.ID,
		UserID:       rec.UserID,
		MemoryKind:   string(rec.Kind),
		SessionID:    rec.SessionID,
		Content:      rec.Content,
		Context:      raw,
		Importance:   string(rec.Importance),
		CreatedAt:    rec.CreatedAt,
		LastAccessed: rec.LastAccessed,
		AccessCount:  rec.AccessCount,
		DecayFactor:  rec.DecayFactor,
		Embedding:    vector,
	}, nil
}

// marshalJSON encodes a value into JSONB, returning nil for empty values.
func marshalJSON(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// unmarshalJSON decodes JSONB into the provided target.
func unmarshalJSON(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
