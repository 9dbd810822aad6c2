package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vxl-labs/glasscore/internal/agent"
	"github.com/vxl-labs/glasscore/internal/fanout"
	"github.com/vxl-labs/glasscore/internal/models"
	"github.com/vxl-labs/glasscore/internal/queue"
	"github.com/vxl-labs/glasscore/internal/recognition"
	"github.com/vxl-labs/glasscore/internal/storage"
	"github.com/vxl-labs/glasscore/internal/summarizer"
	"github.com/vxl-labs/glasscore/pkg/dto"
)

// inboxCapacity bounds the per-client task queue that serializes SwitchEvent
// handling against transcript routing (spec §5: both must run off the same
// per-client task so a switch always lands before the next transcript it
// should apply to).
const inboxCapacity = 32

// coordinatorJob is one unit of work for a Coordinator's single drain task:
// either a SwitchEvent or a finalized transcript, queued in arrival order.
type coordinatorJob struct {
	isSwitch bool
	ev       models.SwitchEvent
	text     string
	at       time.Time
}

// Coordinator is the Interaction Coordinator (component D): one per
// connected client, owning that client's ConversationState and reacting to
// the shared SwitchEvent stream (spec §4.4).
type Coordinator struct {
	clientID string

	mu    sync.Mutex
	state *models.ConversationState

	db      *storage.PostgresStore
	bus     *queue.Bus
	worker  *recognition.Worker
	summ    *summarizer.Summarizer
	agent   *agent.Agent
	fanout  *fanout.Hub
	recapTO time.Duration

	inbox chan coordinatorJob
}

func NewCoordinator(clientID string, db *storage.PostgresStore, bus *queue.Bus, worker *recognition.Worker, summ *summarizer.Summarizer, ag *agent.Agent, hub *fanout.Hub, recapTimeout time.Duration) *Coordinator {
	return &Coordinator{
		clientID: clientID,
		state:    New(),
		db:       db,
		bus:      bus,
		worker:   worker,
		summ:     summ,
		agent:    ag,
		fanout:   hub,
		recapTO:  recapTimeout,
		inbox:    make(chan coordinatorJob, inboxCapacity),
	}
}

// Run drains this client's task queue until ctx is canceled. It is the one
// and only goroutine allowed to call HandleSwitch or RouteTranscript, which
// is what makes their relative ordering deterministic (spec §5).
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-c.inbox:
			if !ok {
				return
			}
			if job.isSwitch {
				c.HandleSwitch(ctx, job.ev)
			} else {
				c.RouteTranscript(ctx, job.text, job.at)
			}
		}
	}
}

// SubmitSwitch enqueues a SwitchEvent for this client's drain task. Safe to
// call from any goroutine; used by Registry.Broadcast so one client's queue
// never blocks delivery to another.
func (c *Coordinator) SubmitSwitch(ctx context.Context, ev models.SwitchEvent) {
	select {
	case c.inbox <- coordinatorJob{isSwitch: true, ev: ev}:
	case <-ctx.Done():
	}
}

// SubmitTranscript enqueues a finalized transcript for this client's drain
// task, preserving arrival order against any concurrently broadcast
// SwitchEvent.
func (c *Coordinator) SubmitTranscript(ctx context.Context, text string, at time.Time) {
	select {
	case c.inbox <- coordinatorJob{text: text, at: at}:
	case <-ctx.Done():
	}
}

// CurrentPersonID returns the person this coordinator currently considers
// bound to the conversation.
func (c *Coordinator) CurrentPersonID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentPersonID
}

// HandleSwitch implements spec §4.4's five steps for one SwitchEvent. Only
// Run calls this, which is what gives spec §5's ordering guarantee against
// RouteTranscript.
func (c *Coordinator) HandleSwitch(ctx context.Context, ev models.SwitchEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	outgoing := MessagesFor(c.state, ev.From)
	if ev.From != "" && len(outgoing) > 0 {
		go c.summarizeDetached(ev.From, outgoing)
	}

	// At-most-one-writer final fold (spec §8 property 3): must land before
	// the departing notification is enqueued, not before it is delivered.
	if ev.From != "" {
		c.worker.FinalizeDeparture(ctx, ev.From)
	}

	Reset(c.state)
	c.state.CurrentPersonID = ev.To
	c.state.PersonPresent = ev.To != ""

	var recap *string
	personName := dto.NoPersonDisplayName
	if ev.To != "" {
		personName = dto.UnknownPersonDisplayName
		if entry, err := c.db.GetPerson(ctx, ev.To); err == nil && entry != nil && !strings.HasPrefix(entry.PersonID, models.UnnamedPersonIDPrefix) {
			personName = entry.PersonID
		}

		recapCtx, cancel := context.WithTimeout(context.Background(), c.recapTO)
		text, err := c.summ.GenerateRecap(recapCtx, ev.To)
		cancel()
		if err != nil {
			slog.Warn("recap generation failed", "person_id", ev.To, "error", err)
		} else if text != "" {
			recap = &text
		}
	}

	blurb := dto.DefaultBlurb
	c.fanout.Switch(c.clientID, dto.OutboundSwitch{
		Type:       dto.MsgSwitchPerson,
		PersonID:   ev.To,
		PersonName: personName,
		Blurb:      blurb,
		Recap:      recap,
	})
}

// SetConversationID implements the set_interaction_id control message (spec
// §6): the client supplies its own conversation identifier to correlate
// with its own logs.
func (c *Coordinator) SetConversationID(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ConversationID = id
}

// ChangeName implements the change_name control message (spec §6): renames
// the currently bound person (falling back to personName when no person is
// bound) to newName, invalidating the gallery cache entry on both ends of
// the rename. Returns false if no matching person could be resolved.
func (c *Coordinator) ChangeName(ctx context.Context, newName, personName string) bool {
	c.mu.Lock()
	targetID := c.state.CurrentPersonID
	c.mu.Unlock()
	if targetID == "" {
		targetID = personName
	}

	if targetID == "" || newName == "" {
		return false
	}

	resolved, err := c.db.FindByName(ctx, targetID)
	if err != nil {
		slog.Warn("change_name lookup failed", "person_name", targetID, "error", err)
		return false
	}
	if resolved == "" {
		return false
	}

	if err := c.db.RenamePerson(ctx, targetID, newName); err != nil {
		slog.Warn("change_name rename failed", "person_name", targetID, "new_name", newName, "error", err)
		return false
	}
	if c.bus != nil {
		_ = c.bus.PublishInvalidate(targetID)
		_ = c.bus.PublishInvalidate(newName)
	}

	c.mu.Lock()
	if c.state.CurrentPersonID == targetID {
		c.state.CurrentPersonID = newName
	}
	c.mu.Unlock()
	return true
}

func (c *Coordinator) summarizeDetached(personID string, messages []models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := c.summ.GenerateAndSave(ctx, personID, messages); err != nil {
		slog.Warn("background summary failed", "person_id", personID, "error", err)
	}
}

// RouteTranscript implements the Transcript Router (component E, spec
// §4.5) for one finalized transcript.
func (c *Coordinator) RouteTranscript(ctx context.Context, text string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	AddMessage(c.state, models.RoleUser, text, c.state.CurrentPersonID)

	tc := &agent.ToolContext{
		PersonID:       c.state.CurrentPersonID,
		ConversationID: c.state.ConversationID,
		DB:             c.db,
		Notify: func(title, message string) {
			c.fanout.Notify(c.clientID, dto.OutboundNotification{
				Type:    dto.MsgNotification,
				Title:   title,
				Message: message,
			})
		},
		UpdateName: func(ctx context.Context, newName string) error {
			personID := c.state.CurrentPersonID
			if personID == "" {
				return nil
			}
			if err := c.db.RenamePerson(ctx, personID, newName); err != nil {
				return err
			}
			if c.bus != nil {
				_ = c.bus.PublishInvalidate(personID)
				_ = c.bus.PublishInvalidate(newName)
			}
			c.state.CurrentPersonID = newName
			return nil
		},
	}

	reply, err := c.agent.Run(ctx, c.state, tc)
	if err != nil {
		slog.Error("agent turn failed", "error", err)
		return
	}
	if reply == agent.NoFurtherResponse {
		return
	}
	AddMessage(c.state, models.RoleAssistant, reply, c.state.CurrentPersonID)
}
