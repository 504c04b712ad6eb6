package chathub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/presence"
	"chatrelay/backend/internal/storage"
)

// DefaultHistoryLimit caps the loadMessages payload.
const DefaultHistoryLimit = 100

// Options configures a ManagerService.
type Options struct {
	Storage storage.Storage
	Logger  *slog.Logger
	// Legacy selects the deprecated minimal protocol: join/userList and an
	// unpersisted chatMessage passthrough.
	Legacy       bool
	HistoryLimit int
	// Now stamps messages that arrive without a timestamp. Defaults to time.Now.
	Now func() time.Time
}

// ManagerService is the broadcast hub. Every inbound event, lifecycle change and
// history result is handled to completion by the single Run goroutine, which is
// the only writer of Clients and Presence.
type ManagerService struct {
	Clients map[string]Client

	// Channels
	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan models.InboundEvent

	Presence *presence.Registry
	Storage  storage.Storage

	historyCh chan historyResult
	routes    map[string]eventHandler

	log           *slog.Logger
	legacy        bool
	presenceEvent string
	historyLimit  int
	now           func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
	writes  sync.WaitGroup

	clientCount atomic.Int64
}

// NewManagerService creates a hub with an empty presence registry.
func NewManagerService(opts Options) *ManagerService {
	ctx, cancel := context.WithCancel(context.Background())

	m := &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan models.InboundEvent),
		Presence:     presence.NewRegistry(),
		Storage:      opts.Storage,
		historyCh:    make(chan historyResult),
		log:          opts.Logger,
		legacy:       opts.Legacy,
		historyLimit: opts.HistoryLimit,
		now:          opts.Now,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	if m.log == nil {
		m.log = slog.Default()
	}
	if m.Storage == nil {
		m.Storage = storage.Unavailable{}
	}
	if m.historyLimit <= 0 {
		m.historyLimit = DefaultHistoryLimit
	}
	if m.now == nil {
		m.now = time.Now
	}

	if m.legacy {
		m.presenceEvent = models.EventUserList
		m.routes = m.legacyRoutes()
	} else {
		m.presenceEvent = models.EventUpdateUsers
		m.routes = m.persistedRoutes()
	}
	return m
}

// Logger returns the hub's logger so transport clients log alongside it.
func (m *ManagerService) Logger() *slog.Logger {
	return m.log
}

// Run is the hub's event loop. It returns once Shutdown is called.
func (m *ManagerService) Run() {
	m.started.Store(true)
	defer close(m.done)

	m.log.Info("chat hub started", "legacy_protocol", m.legacy, "history_limit", m.historyLimit)

	for {
		select {
		case <-m.ctx.Done():
			m.closeAll()
			return

		case client := <-m.RegisterCh:
			m.handleRegister(client)

		case client := <-m.UnregisterCh:
			m.handleUnregister(client)

		case ev := <-m.IncomingCh:
			m.handleIncoming(ev)

		case res := <-m.historyCh:
			m.handleHistory(res)
		}
	}
}

// Register hands a new connection to the hub. It returns false when the hub has
// stopped.
func (m *ManagerService) Register(client Client) bool {
	select {
	case m.RegisterCh <- client:
		return true
	case <-m.ctx.Done():
		return false
	}
}

// Unregister reports a closed connection. Unknown or already removed clients are
// ignored by the hub.
func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.ctx.Done():
	}
}

// Dispatch queues an inbound event. It returns false when the hub has stopped.
func (m *ManagerService) Dispatch(ev models.InboundEvent) bool {
	select {
	case m.IncomingCh <- ev:
		return true
	case <-m.ctx.Done():
		return false
	}
}

// Shutdown stops the event loop, closes every client and waits up to timeout for
// pending message writes.
func (m *ManagerService) Shutdown(timeout time.Duration) error {
	m.log.Info("stopping chat hub")
	m.cancel()

	if m.started.Load() {
		<-m.done
	}

	flushed := make(chan struct{})
	go func() {
		m.writes.Wait()
		close(flushed)
	}()

	select {
	case <-flushed:
		m.log.Info("chat hub stopped")
		return nil
	case <-time.After(timeout):
		m.log.Warn("chat hub stopped with message writes still pending")
		return context.DeadlineExceeded
	}
}

// ClientCount returns the number of open connections.
func (m *ManagerService) ClientCount() int {
	return int(m.clientCount.Load())
}

// PresenceList returns a snapshot of the announced identifiers.
func (m *ManagerService) PresenceList() []string {
	return m.Presence.List()
}

func (m *ManagerService) handleRegister(client Client) {
	if client == nil {
		m.log.Warn("received nil client registration; skipping")
		return
	}

	connID := client.GetConnID()
	if _, exists := m.Clients[connID]; exists {
		m.log.Warn("client already registered", "conn_id", connID)
		return
	}

	m.Clients[connID] = client
	m.clientCount.Add(1)
	m.log.Info("client connected", "conn_id", connID, "total_clients", len(m.Clients))

	if !m.legacy {
		m.requestHistory(connID)
	}
}

func (m *ManagerService) handleUnregister(client Client) {
	if client == nil {
		return
	}

	connID := client.GetConnID()
	current, ok := m.Clients[connID]
	if !ok || current != client {
		return
	}

	m.remove(connID)
	m.log.Info("client disconnected", "conn_id", connID, "total_clients", len(m.Clients))
	m.disconnect(connID)
}

func (m *ManagerService) handleIncoming(ev models.InboundEvent) {
	if _, ok := m.Clients[ev.ConnID]; !ok {
		m.log.Debug("dropping event from unknown connection", "conn_id", ev.ConnID, "event", ev.Event)
		return
	}

	handler, ok := m.routes[ev.Event]
	if !ok {
		m.log.Debug("no handler for event", "conn_id", ev.ConnID, "event", ev.Event)
		return
	}
	handler(ev)
}

// remove drops the client from the fan-out set and closes its outbound side.
func (m *ManagerService) remove(connID string) {
	client, ok := m.Clients[connID]
	if !ok {
		return
	}
	delete(m.Clients, connID)
	m.clientCount.Add(-1)
	client.Close()
}

// disconnect forgets the connection's identity and publishes the new presence list.
func (m *ManagerService) disconnect(connID string) {
	m.Presence.Remove(connID)
	m.broadcastPresence()
}

func (m *ManagerService) closeAll() {
	for connID := range m.Clients {
		m.remove(connID)
		m.Presence.Remove(connID)
	}
	m.log.Info("closed all client connections")
}
