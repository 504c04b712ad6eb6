package models

import "encoding/json"

// Event names of the persisted protocol.
const (
	EventUserJoined   = "userJoined"
	EventUpdateUsers  = "updateUsers"
	EventUserTyping   = "userTyping"
	EventChatMessage  = "chatMessage"
	EventGetMessages  = "getMessages"
	EventLoadMessages = "loadMessages"
	EventUserLeft     = "userLeft"
)

// Event names of the legacy protocol. chatMessage is shared with the persisted one.
const (
	EventJoin     = "join"
	EventUserList = "userList"
)

// Envelope is the JSON frame exchanged with clients in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope encodes payload as the data of a named event.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// InboundEvent is an envelope received from one connection, tagged with its id.
type InboundEvent struct {
	ConnID string
	Event  string
	Data   json.RawMessage
}
