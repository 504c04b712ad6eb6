package models

import (
	"encoding/json"
	"strings"
	"time"
)

// ChatMessage is one broadcast message as it is persisted and delivered to clients.
// It is never mutated after Build returns it.
type ChatMessage struct {
	// User is the participant identifier of the author at the time of sending.
	User string `json:"user"`
	// Text is the message body. No size limit is enforced here.
	Text string `json:"text"`
	// Timestamp is supplied by the sender when present, otherwise set on receipt.
	Timestamp time.Time `json:"timestamp"`
}

// IncomingMessage is the payload of an inbound chatMessage event.
// "sender" is the canonical author field; "user" is accepted so clients that echo a
// broadcast payload back keep working.
type IncomingMessage struct {
	Sender    string     `json:"sender"`
	User      string     `json:"user"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Build constructs the ChatMessage for this payload, stamping it with now when the
// client did not provide a timestamp. Timestamps are kept to millisecond precision,
// the coarsest any store persists, so history reads match the broadcast copy.
func (m IncomingMessage) Build(now time.Time) ChatMessage {
	sender := strings.TrimSpace(m.Sender)
	if sender == "" {
		sender = strings.TrimSpace(m.User)
	}

	ts := now
	if m.Timestamp != nil && !m.Timestamp.IsZero() {
		ts = *m.Timestamp
	}

	return ChatMessage{
		User:      sender,
		Text:      m.Text,
		Timestamp: ts.UTC().Truncate(time.Millisecond),
	}
}

// DecodeIdentifier reads a bare JSON string payload (userJoined, userTyping, ...).
// Anything that is not a string decodes to "".
func DecodeIdentifier(data json.RawMessage) string {
	var identifier string
	if err := json.Unmarshal(data, &identifier); err != nil {
		return ""
	}
	return strings.TrimSpace(identifier)
}
