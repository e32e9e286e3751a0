package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/edforge/mentor/internal/types"
)

type messageModel struct {
	ID        int    `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	Role      string
	Content   string
	CreatedAt time.Time
}

func (messageModel) TableName() string {
	return "messages"
}

// MessageRepo accesses conversation messages.
type MessageRepo struct {
	db *gorm.DB
}

// NewMessageRepo returns a MessageRepo.
func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Append(ctx context.Context, msg types.ChatMessage) error {
	record := messageModel{
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Content:   msg.Content,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Recent returns up to limit messages for a session, newest first.
func (r *MessageRepo) Recent(ctx context.Context, sessionID string, limit int) ([]types.ChatMessage, error) {
	var records []messageModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	results := make([]types.ChatMessage, 0, len(records))
	for _, record := range records {
		results = append(results, types.ChatMessage{
			ID:        record.ID,
			SessionID: record.SessionID,
			Role:      types.NormalizeRole(record.Role),
			Content:   record.Content,
			CreatedAt: record.CreatedAt,
		})
	}
	return results, nil
}
