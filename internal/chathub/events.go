package chathub

import (
	"encoding/json"

	"chatrelay/backend/internal/models"
)

type eventHandler func(ev models.InboundEvent)

func (m *ManagerService) persistedRoutes() map[string]eventHandler {
	return map[string]eventHandler{
		models.EventUserJoined:  m.handleAnnounce,
		models.EventUserTyping:  m.handleTyping,
		models.EventChatMessage: m.handleChatMessage,
		models.EventGetMessages: m.handleGetMessages,
		models.EventUserLeft:    m.handleLeave,
	}
}

// legacyRoutes serves the deprecated minimal protocol.
func (m *ManagerService) legacyRoutes() map[string]eventHandler {
	return map[string]eventHandler{
		models.EventJoin:        m.handleAnnounce,
		models.EventChatMessage: m.handleLegacyChatMessage,
	}
}

// handleAnnounce records the identifier and republishes presence. An empty
// identifier changes nothing and publishes nothing.
func (m *ManagerService) handleAnnounce(ev models.InboundEvent) {
	identifier := models.DecodeIdentifier(ev.Data)
	if !m.Presence.Set(ev.ConnID, identifier) {
		m.log.Debug("ignoring announce without identifier", "conn_id", ev.ConnID)
		return
	}

	m.log.Info("participant announced", "conn_id", ev.ConnID, "identifier", identifier)
	m.broadcastPresence()
}

func (m *ManagerService) handleTyping(ev models.InboundEvent) {
	identifier := models.DecodeIdentifier(ev.Data)
	if identifier == "" {
		return
	}

	env, err := models.NewEnvelope(models.EventUserTyping, identifier)
	if err != nil {
		m.log.Error("failed to encode typing event", "error", err)
		return
	}
	m.broadcastExcept(env, ev.ConnID)
}

// handleChatMessage builds the message, hands it to storage without waiting and
// broadcasts it to everyone, sender included.
func (m *ManagerService) handleChatMessage(ev models.InboundEvent) {
	var in models.IncomingMessage
	if err := json.Unmarshal(ev.Data, &in); err != nil {
		m.log.Debug("ignoring malformed chat message", "conn_id", ev.ConnID, "error", err)
		return
	}

	msg := in.Build(m.now())
	if msg.User == "" {
		msg.User, _ = m.Presence.Identifier(ev.ConnID)
	}

	m.persist(msg)

	env, err := models.NewEnvelope(models.EventChatMessage, msg)
	if err != nil {
		m.log.Error("failed to encode chat message", "error", err)
		return
	}
	m.broadcast(env)
}

func (m *ManagerService) handleGetMessages(ev models.InboundEvent) {
	m.requestHistory(ev.ConnID)
}

// handleLeave treats an explicit departure like a disconnect while keeping the
// connection open. The payload is informational only.
func (m *ManagerService) handleLeave(ev models.InboundEvent) {
	m.log.Info("participant left", "conn_id", ev.ConnID, "identifier", models.DecodeIdentifier(ev.Data))
	m.disconnect(ev.ConnID)
}

// handleLegacyChatMessage relays the payload verbatim without persisting it.
func (m *ManagerService) handleLegacyChatMessage(ev models.InboundEvent) {
	m.broadcast(models.Envelope{Event: models.EventChatMessage, Data: ev.Data})
}
