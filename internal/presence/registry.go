// Package presence tracks which open connections have announced an identity.
// The registry is owned by the chat hub; nothing else mutates it.
package presence

import (
	"strings"
	"sync"
)

// Registry maps connection ids to participant identifiers (username or email),
// keeping the order in which connections first announced themselves.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]string),
	}
}

// Set records identifier for connID. An empty identifier is rejected and false is
// returned. Announcing again on the same connection overwrites the previous
// identifier in place (last write wins).
func (r *Registry) Set(connID, identifier string) bool {
	identifier = strings.TrimSpace(identifier)
	if connID == "" || identifier == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[connID]; !ok {
		r.order = append(r.order, connID)
	}
	r.entries[connID] = identifier
	return true
}

// Remove deletes the entry for connID. It reports whether an entry existed;
// removing an unknown id is a no-op.
func (r *Registry) Remove(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[connID]; !ok {
		return false
	}
	delete(r.entries, connID)

	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Identifier returns the identifier announced by connID.
func (r *Registry) Identifier(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identifier, ok := r.entries[connID]
	return identifier, ok
}

// List returns the current identifiers in announce order. The result is never nil
// so it encodes as an empty JSON array.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identifiers := make([]string, 0, len(r.order))
	for _, connID := range r.order {
		identifiers = append(identifiers, r.entries[connID])
	}
	return identifiers
}

// Len returns the number of announced connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
