package chathub_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"chatrelay/backend/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStorage) RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

// MockClient is a test double for chathub.Client with a buffered send channel.
type MockClient struct {
	connID string
	send   chan models.Envelope
	closed atomic.Bool
}

func newMockClient(connID string) *MockClient {
	return newMockClientWithBuffer(connID, 32)
}

func newMockClientWithBuffer(connID string, size int) *MockClient {
	return &MockClient{
		connID: connID,
		send:   make(chan models.Envelope, size),
	}
}

func (c *MockClient) GetConnID() string                      { return c.connID }
func (c *MockClient) GetSendChannel() chan<- models.Envelope { return c.send }
func (c *MockClient) Run()                                   {}
func (c *MockClient) Close()                                 { c.closed.Store(true) }

func (c *MockClient) IsClosed() bool {
	return c.closed.Load()
}

// expectEvent waits for the next envelope named event, skipping any other events.
func expectEvent(t *testing.T, c *MockClient, event string) models.Envelope {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case env := <-c.send:
			if env.Event == event {
				return env
			}
		case <-deadline:
			t.Fatalf("client %s did not receive %q", c.connID, event)
			return models.Envelope{}
		}
	}
}

// expectNoEvent fails if an envelope named event arrives within wait.
func expectNoEvent(t *testing.T, c *MockClient, event string, wait time.Duration) {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case env := <-c.send:
			if env.Event == event {
				t.Fatalf("client %s unexpectedly received %q: %s", c.connID, event, env.Data)
			}
		case <-deadline:
			return
		}
	}
}

func decodeData[T any](t *testing.T, env models.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func rawString(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}
