package storage

import (
	"context"
	"slices"
	"sync"

	"chatrelay/backend/internal/models"
)

// MemoryStore keeps the log in process memory. It is lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	messages []models.ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveMessage(_ context.Context, msg *models.ChatMessage) error {
	stored := *msg
	stored.Timestamp = stampIfZero(msg)

	s.mu.Lock()
	s.messages = append(s.messages, stored)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RecentMessages(_ context.Context, limit int) ([]models.ChatMessage, error) {
	s.mu.Lock()
	messages := slices.Clone(s.messages)
	s.mu.Unlock()

	slices.SortStableFunc(messages, func(a, b models.ChatMessage) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}
