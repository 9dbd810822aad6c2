package conversation

import (
	"context"
	"sync"

	"github.com/vxl-labs/glasscore/internal/models"
)

// Registry holds every connected client's Coordinator so the single
// process-wide SwitchEvent stream can be broadcast to all of them (spec
// §4.6, "its SwitchEvent stream is broadcast to every connected client's
// Coordinator; each client maintains its own independent ConversationState").
type Registry struct {
	mu           sync.RWMutex
	coordinators map[string]*Coordinator
}

func NewRegistry() *Registry {
	return &Registry{coordinators: make(map[string]*Coordinator)}
}

func (r *Registry) Register(c *Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coordinators[c.clientID] = c
}

func (r *Registry) Unregister(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.coordinators, clientID)
}

// Broadcast enqueues ev onto every registered Coordinator's task queue. Each
// enqueue runs on its own goroutine so one client's full queue never delays
// the SwitchEvent reaching another (spec §4.4: "a stuck summary must never
// delay the next switch"); each Coordinator's single Run task is what
// actually serializes HandleSwitch against that client's transcript routing
// (spec §5).
func (r *Registry) Broadcast(ctx context.Context, ev models.SwitchEvent) {
	r.mu.RLock()
	targets := make([]*Coordinator, 0, len(r.coordinators))
	for _, c := range r.coordinators {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		go c.SubmitSwitch(ctx, ev)
	}
}
