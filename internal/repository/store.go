// Package repository persists memory records and conversation messages in
// PostgreSQL via gorm.
package repository

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store holds the DB pool and repositories.
type Store struct {
	db       *gorm.DB
	Records  *RecordRepo
	Messages *MessageRepo
}

// NewStore initializes the PostgreSQL pool and repositories. Failing to
// reach the store here is the one fatal error class of the memory
// subsystem; the caller treats it as "memory system unavailable".
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		db:       db,
		Records:  NewRecordRepo(db),
		Messages: NewMessageRepo(db),
	}, nil
}

// AutoMigrate creates or updates the memories and messages tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&recordModel{}, &messageModel{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
