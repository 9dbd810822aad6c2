// Package ws is the glasses-facing WebSocket endpoint (spec §6): it
// upgrades one connection per client, binds a Coordinator and an ASR
// Stream to it, and spawns the per-client tasks named by spec §5
// (coordinator drain, audio-read, notification-drain, switch-drain,
// ASR-response-drain).
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vxl-labs/glasscore/internal/asr"
	"github.com/vxl-labs/glasscore/internal/config"
	"github.com/vxl-labs/glasscore/internal/conversation"
	"github.com/vxl-labs/glasscore/internal/fanout"
	"github.com/vxl-labs/glasscore/internal/queue"
	"github.com/vxl-labs/glasscore/internal/recognition"
	"github.com/vxl-labs/glasscore/internal/storage"
	"github.com/vxl-labs/glasscore/internal/summarizer"
	"github.com/vxl-labs/glasscore/pkg/dto"

	glassagent "github.com/vxl-labs/glasscore/internal/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns the shared, process-wide dependencies every connection binds
// a fresh Coordinator against (spec §9's construction-order wiring: store
// -> recognition worker -> switch detector -> per-client coordinators).
type Server struct {
	db       *storage.PostgresStore
	bus      *queue.Bus
	worker   *recognition.Worker
	summ     *summarizer.Summarizer
	registry *conversation.Registry
	hub      *fanout.Hub
	asrCfg   config.ASRConfig
	agentCfg config.AgentConfig
	recapTO  time.Duration
	newAgent func() *glassagent.Agent
}

func NewServer(db *storage.PostgresStore, bus *queue.Bus, worker *recognition.Worker, summ *summarizer.Summarizer, registry *conversation.Registry, hub *fanout.Hub, asrCfg config.ASRConfig, agentCfg config.AgentConfig, newAgent func() *glassagent.Agent) *Server {
	return &Server{
		db:       db,
		bus:      bus,
		worker:   worker,
		summ:     summ,
		registry: registry,
		hub:      hub,
		asrCfg:   asrCfg,
		agentCfg: agentCfg,
		recapTO:  agentCfg.RecapTimeout,
		newAgent: newAgent,
	}
}

// HandleWS upgrades the request and runs the connection until it closes.
func (s *Server) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	mailbox := s.hub.Register(clientID)
	defer s.hub.Unregister(clientID)

	coord := conversation.NewCoordinator(clientID, s.db, s.bus, s.worker, s.summ, s.newAgent(), s.hub, s.recapTO)
	s.registry.Register(coord)
	defer s.registry.Unregister(clientID)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := asr.Dial(ctx, s.asrCfg)
	if err != nil {
		slog.Error("asr dial failed", "client_id", clientID, "error", err)
		_ = conn.WriteJSON(dto.OutboundError{Type: dto.MsgError, Message: "speech service unavailable"})
		return
	}
	defer stream.Close()

	if err := conn.WriteJSON(dto.OutboundConnected{Type: dto.MsgConnected, Message: "connected"}); err != nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { coord.Run(gctx); return gctx.Err() })
	g.Go(func() error { return s.audioReadLoop(gctx, conn, stream, coord) })
	g.Go(func() error { return s.notificationDrainLoop(gctx, conn, mailbox) })
	g.Go(func() error { return s.switchDrainLoop(gctx, conn, mailbox) })
	g.Go(func() error { return stream.Transcripts(gctx, func(t asr.Transcript) {
		coord.SubmitTranscript(gctx, t.Text, t.At)
	}) })

	if err := g.Wait(); err != nil {
		slog.Debug("ws connection closed", "client_id", clientID, "error", err)
	}
}

// audioReadLoop is the per-connection audio-read task (spec §5): binary
// frames are PCM audio forwarded verbatim to the ASR; text frames are the
// JSON control messages named by spec §6.
func (s *Server) audioReadLoop(ctx context.Context, conn *websocket.Conn, stream *asr.Stream, coord *conversation.Coordinator) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := stream.SendAudio(data); err != nil {
				slog.Warn("forward audio to asr failed", "error", err)
			}
		case websocket.TextMessage:
			s.handleControlMessage(ctx, conn, coord, data)
		}
	}
}

func (s *Server) handleControlMessage(ctx context.Context, conn *websocket.Conn, coord *conversation.Coordinator, data []byte) {
	var env dto.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		_ = conn.WriteJSON(dto.OutboundError{Type: dto.MsgError, Message: "malformed message"})
		return
	}

	switch env.Type {
	case dto.MsgPing:
		_ = conn.WriteJSON(dto.OutboundPong{Type: dto.MsgPong})

	case dto.MsgSetInteractionID:
		var msg dto.InboundSetInteractionID
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.WriteJSON(dto.OutboundError{Type: dto.MsgError, Message: "malformed set_interaction_id"})
			return
		}
		coord.SetConversationID(msg.InteractionID)

	case dto.MsgChangeName:
		var msg dto.InboundChangeName
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.WriteJSON(dto.OutboundError{Type: dto.MsgError, Message: "malformed change_name"})
			return
		}
		success := coord.ChangeName(ctx, msg.NewName, msg.PersonName)
		_ = conn.WriteJSON(dto.OutboundChangeNameResponse{Type: dto.MsgChangeNameResponse, Success: success})

	default:
		_ = conn.WriteJSON(dto.OutboundError{Type: dto.MsgError, Message: "unknown message type"})
	}
}

// notificationDrainLoop and switchDrainLoop are the per-connection drain
// tasks named by spec §5: each serializes one mailbox to JSON and writes
// it to the client, independent of the other's pace.
func (s *Server) notificationDrainLoop(ctx context.Context, conn *websocket.Conn, mailbox *fanout.Mailbox) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-mailbox.Notifications():
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(n); err != nil {
				return err
			}
		}
	}
}

func (s *Server) switchDrainLoop(ctx context.Context, conn *websocket.Conn, mailbox *fanout.Mailbox) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sw, ok := <-mailbox.Switches():
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(sw); err != nil {
				return err
			}
		}
	}
}
