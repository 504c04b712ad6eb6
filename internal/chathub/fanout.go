package chathub

import "chatrelay/backend/internal/models"

func (m *ManagerService) broadcastPresence() {
	env, err := models.NewEnvelope(m.presenceEvent, m.Presence.List())
	if err != nil {
		m.log.Error("failed to encode presence list", "error", err)
		return
	}
	m.broadcast(env)
}

// broadcast delivers env to every connection.
func (m *ManagerService) broadcast(env models.Envelope) {
	m.deliver(env, "")
}

// broadcastExcept delivers env to every connection but skip.
func (m *ManagerService) broadcastExcept(env models.Envelope, skip string) {
	m.deliver(env, skip)
}

// sendTo delivers env to a single connection, if it is still open.
func (m *ManagerService) sendTo(connID string, env models.Envelope) {
	client, ok := m.Clients[connID]
	if !ok {
		return
	}
	if !trySend(client, env) {
		m.evict(connID)
	}
}

func (m *ManagerService) deliver(env models.Envelope, skip string) {
	var slow []string
	for connID, client := range m.Clients {
		if connID == skip {
			continue
		}
		if !trySend(client, env) {
			slow = append(slow, connID)
		}
	}

	m.log.Debug("broadcast complete", "event", env.Event, "targets", len(m.Clients), "evicted", len(slow))

	for _, connID := range slow {
		m.evict(connID)
	}
}

// evict removes a client whose send buffer is full. Its departure is published
// like a disconnect.
func (m *ManagerService) evict(connID string) {
	if _, ok := m.Clients[connID]; !ok {
		return
	}
	m.remove(connID)
	m.log.Warn("client removed due to full send buffer", "conn_id", connID)
	m.disconnect(connID)
}

func trySend(client Client, env models.Envelope) bool {
	select {
	case client.GetSendChannel() <- env:
		return true
	default:
		return false
	}
}
