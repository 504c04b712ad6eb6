package chathub

import "chatrelay/backend/internal/models"

// Client is the interface for one transport connection. It abstracts the
// underlying communication mechanism so the hub can manage connections uniformly
// and tests can substitute buffered fakes.
type Client interface {
	// GetConnID returns the transport-assigned connection id. It is unique while
	// the connection is open and never reused.
	GetConnID() string

	// GetSendChannel returns the channel the hub writes outbound envelopes to.
	// The hub never blocks on it: a full channel gets the client evicted.
	GetSendChannel() chan<- models.Envelope

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the outbound side. The hub calls it exactly once, after
	// removing the client.
	Close()
}
