package storage_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RecentMessagesSortedByTimestamp(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	// Saved out of timestamp order, as concurrent writers would.
	for _, offset := range []int{3, 1, 2, 0} {
		msg := models.ChatMessage{User: "alice", Text: fmt.Sprint(offset), Timestamp: base.Add(time.Duration(offset) * time.Minute)}
		require.NoError(t, store.SaveMessage(ctx, &msg))
	}

	messages, err := store.RecentMessages(ctx, 100)
	require.NoError(t, err)

	require.Len(t, messages, 4)
	assert.Equal(t, []string{"0", "1", "2", "3"}, texts(messages))
}

func TestMemoryStore_RecentMessagesKeepsNewest(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 150; i++ {
		msg := models.ChatMessage{User: "bob", Text: fmt.Sprint(i), Timestamp: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, store.SaveMessage(ctx, &msg))
	}

	messages, err := store.RecentMessages(ctx, 100)
	require.NoError(t, err)

	require.Len(t, messages, 100)
	assert.Equal(t, "50", messages[0].Text)
	assert.Equal(t, "149", messages[99].Text)
}

func TestMemoryStore_EmptyLogIsNotNil(t *testing.T) {
	messages, err := storage.NewMemoryStore().RecentMessages(context.Background(), 100)
	require.NoError(t, err)

	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestMemoryStore_StampsZeroTimestamp(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	before := time.Now().UTC()

	require.NoError(t, store.SaveMessage(ctx, &models.ChatMessage{User: "carol", Text: "hi"}))

	messages, err := store.RecentMessages(ctx, 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.False(t, messages[0].Timestamp.Before(before))
}

func TestUnavailable_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	store := storage.Unavailable{Err: cause}

	err := store.SaveMessage(context.Background(), &models.ChatMessage{})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	messages, err := store.RecentMessages(context.Background(), 10)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Nil(t, messages)

	assert.NoError(t, store.Close(context.Background()))
}

func texts(messages []models.ChatMessage) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Text)
	}
	return out
}
