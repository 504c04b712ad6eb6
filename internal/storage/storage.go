// Package storage persists the chat message log. The log is append-only: stores
// expose an insert and a "most recent N, oldest first" query and nothing else.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"
)

const connectTimeout = 10 * time.Second

// ErrUnavailable wraps every error returned by a store that could not be reached at
// startup.
var ErrUnavailable = errors.New("storage unavailable")

// Storage is the persistence collaborator used by the chat hub.
type Storage interface {
	// SaveMessage appends msg to the log. A zero Timestamp is replaced with the
	// write time.
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	// RecentMessages returns at most limit messages: the most recent ones by
	// timestamp, in ascending timestamp order.
	RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

// Backend is a Storage that owns a connection.
type Backend interface {
	Storage
	Close(ctx context.Context) error
}

// Open connects the backend selected by cfg. It never fails: when the backend
// cannot be reached the error is logged and an Unavailable store is returned so
// the server keeps running without history.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) Backend {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	backend, err := open(ctx, cfg)
	if err != nil {
		log.Error("storage connection failed, running without message history",
			"backend", cfg.StorageBackend,
			"error", err,
		)
		return Unavailable{Err: err}
	}

	log.Info("storage connected", "backend", cfg.StorageBackend)
	return backend
}

func open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMongo:
		return ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case config.BackendPostgres:
		return OpenPostgres(cfg.DatabaseURL)
	case config.BackendRedis:
		return ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKey)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// Unavailable fails every operation with the error that prevented the connection.
type Unavailable struct {
	Err error
}

func (u Unavailable) SaveMessage(context.Context, *models.ChatMessage) error {
	return u.err()
}

func (u Unavailable) RecentMessages(context.Context, int) ([]models.ChatMessage, error) {
	return nil, u.err()
}

func (u Unavailable) Close(context.Context) error {
	return nil
}

func (u Unavailable) err() error {
	if u.Err == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, u.Err)
}

func stampIfZero(msg *models.ChatMessage) time.Time {
	if msg.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return msg.Timestamp.UTC()
}
