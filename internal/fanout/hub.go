// Package fanout implements the Client Fanout component (F): one mailbox
// pair per connected glasses client, isolated so a slow reader on one
// connection never backs up another (spec §4.6, §5).
package fanout

import (
	"log/slog"
	"sync"

	"github.com/vxl-labs/glasscore/internal/observability"
	"github.com/vxl-labs/glasscore/pkg/dto"
)

const mailboxCapacity = 64

// Mailbox is the pair of outbound queues a single client connection drains:
// notification messages (agent tool output) and switch messages (person
// changes), kept separate so one stream's backlog can't starve the other.
type Mailbox struct {
	notifications chan dto.OutboundNotification
	switches      chan dto.OutboundSwitch
	closeOnce     sync.Once
}

func newMailbox() *Mailbox {
	return &Mailbox{
		notifications: make(chan dto.OutboundNotification, mailboxCapacity),
		switches:      make(chan dto.OutboundSwitch, mailboxCapacity),
	}
}

// Notifications returns the channel a client's write pump drains for
// agent-originated notification messages.
func (m *Mailbox) Notifications() <-chan dto.OutboundNotification { return m.notifications }

// Switches returns the channel a client's write pump drains for switch
// notifications.
func (m *Mailbox) Switches() <-chan dto.OutboundSwitch { return m.switches }

func (m *Mailbox) close() {
	m.closeOnce.Do(func() {
		close(m.notifications)
		close(m.switches)
	})
}

// Hub owns every connected client's Mailbox, keyed by an opaque client id
// the WebSocket handler assigns at connect time.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Mailbox
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Mailbox)}
}

// Register creates and returns a new Mailbox for clientID. Call Unregister
// on disconnect to release it.
func (h *Hub) Register(clientID string) *Mailbox {
	mb := newMailbox()
	h.mu.Lock()
	h.clients[clientID] = mb
	h.mu.Unlock()
	observability.WSConnections.Inc()
	return mb
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	mb, ok := h.clients[clientID]
	if ok {
		delete(h.clients, clientID)
	}
	h.mu.Unlock()
	if ok {
		mb.close()
		observability.WSConnections.Dec()
	}
}

// Notify delivers a notification to one client's mailbox. A full mailbox
// means the client isn't draining fast enough — the message is dropped
// rather than blocking the caller, same as the teacher hub's broadcast loop.
func (h *Hub) Notify(clientID string, n dto.OutboundNotification) {
	h.mu.RLock()
	mb, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case mb.notifications <- n:
	default:
		slog.Warn("notification mailbox full, dropping", "client_id", clientID)
	}
}

// Switch delivers a switch event to one client's mailbox.
func (h *Hub) Switch(clientID string, s dto.OutboundSwitch) {
	h.mu.RLock()
	mb, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case mb.switches <- s:
	default:
		slog.Warn("switch mailbox full, dropping", "client_id", clientID)
	}
}
