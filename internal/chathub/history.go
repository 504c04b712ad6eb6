package chathub

import (
	"context"

	"chatrelay/backend/internal/models"
)

type historyResult struct {
	connID   string
	messages []models.ChatMessage
	err      error
}

// requestHistory loads the recent log off the event loop. The result comes back
// through historyCh and is emitted by handleHistory.
func (m *ManagerService) requestHistory(connID string) {
	go func() {
		messages, err := m.Storage.RecentMessages(m.ctx, m.historyLimit)

		select {
		case m.historyCh <- historyResult{connID: connID, messages: messages, err: err}:
		case <-m.ctx.Done():
		}
	}()
}

// handleHistory emits loadMessages to the requester. A failed load emits nothing.
func (m *ManagerService) handleHistory(res historyResult) {
	if res.err != nil {
		m.log.Error("failed to load message history", "conn_id", res.connID, "error", res.err)
		return
	}

	messages := res.messages
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	env, err := models.NewEnvelope(models.EventLoadMessages, messages)
	if err != nil {
		m.log.Error("failed to encode message history", "error", err)
		return
	}
	m.sendTo(res.connID, env)
}

// persist saves msg in the background. Failures are logged and never reach the
// sender or the broadcast. Writes are not cancelled by Shutdown, which waits
// for them instead.
func (m *ManagerService) persist(msg models.ChatMessage) {
	m.writes.Add(1)
	go func() {
		defer m.writes.Done()

		if err := m.Storage.SaveMessage(context.WithoutCancel(m.ctx), &msg); err != nil {
			m.log.Error("failed to save message", "user", msg.User, "error", err)
		}
	}()
}
