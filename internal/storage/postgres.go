package storage

import (
	"context"
	"fmt"
	"slices"
	"time"

	"chatrelay/backend/internal/models"

	"github.com/samber/lo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MessageRecord is the chat_messages row.
type MessageRecord struct {
	ID        uint      `gorm:"primaryKey"`
	User      string    `gorm:"type:text;not null"`
	Text      string    `gorm:"type:text;not null"`
	Timestamp time.Time `gorm:"not null;index"`
}

func (MessageRecord) TableName() string {
	return "chat_messages"
}

// PostgresStore keeps the log in PostgreSQL through GORM.
type PostgresStore struct {
	DB *gorm.DB
}

// OpenPostgres connects with dsn and migrates the schema.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
	}
	return NewPostgresStore(db)
}

// NewPostgresStore wraps db, creating the chat_messages table if needed.
func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&MessageRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (s *PostgresStore) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	record := MessageRecord{
		User:      msg.User,
		Text:      msg.Text,
		Timestamp: stampIfZero(msg),
	}
	return s.DB.WithContext(ctx).Create(&record).Error
}

func (s *PostgresStore) RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	var records []MessageRecord
	err := s.DB.WithContext(ctx).
		Order("timestamp desc").
		Order("id desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	messages := lo.Map(records, func(r MessageRecord, _ int) models.ChatMessage {
		return r.ToModel()
	})
	slices.Reverse(messages)
	return messages, nil
}

func (s *PostgresStore) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ToModel converts the row into the wire message.
func (r MessageRecord) ToModel() models.ChatMessage {
	return models.ChatMessage{
		User:      r.User,
		Text:      r.Text,
		Timestamp: r.Timestamp.UTC(),
	}
}
