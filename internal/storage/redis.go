package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"chatrelay/backend/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisMessage is the sorted-set member. The id keeps two identical messages
// sent in the same millisecond from collapsing into one member.
type redisMessage struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisStore keeps the log in a sorted set scored by timestamp (milliseconds).
// Nothing is ever trimmed from the set.
type RedisStore struct {
	Redis *redis.Client
	Key   string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{Redis: rdb, Key: key}
}

// ConnectRedis creates a client for addr and pings it.
func ConnectRedis(ctx context.Context, addr, password string, db int, key string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect Redis: %w", err)
	}
	return NewRedisStore(rdb, key), nil
}

func (s *RedisStore) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	record := redisMessage{
		ID:        uuid.New().String(),
		User:      msg.User,
		Text:      msg.Text,
		Timestamp: stampIfZero(msg),
	}

	member, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return s.Redis.ZAdd(ctx, s.Key, redis.Z{
		Score:  float64(record.Timestamp.UnixMilli()),
		Member: string(member),
	}).Err()
}

func (s *RedisStore) RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	members, err := s.Redis.ZRevRange(ctx, s.Key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	messages := make([]models.ChatMessage, 0, len(members))
	for _, member := range members {
		var record redisMessage
		if err := json.Unmarshal([]byte(member), &record); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, models.ChatMessage{
			User:      record.User,
			Text:      record.Text,
			Timestamp: record.Timestamp.UTC(),
		})
	}

	// Scores only carry milliseconds; order by the full timestamp.
	slices.Reverse(messages)
	slices.SortStableFunc(messages, func(a, b models.ChatMessage) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return messages, nil
}

func (s *RedisStore) Close(context.Context) error {
	return s.Redis.Close()
}
