package websocket

import (
	"context"

	"ai-docedit-be/internal/pkg/logger"
	"ai-docedit-be/internal/repository/memory"
	"ai-docedit-be/pkg/store"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Gateway wires an upgraded connection into a full editing session: session
// state, bridge, per-session chunk and resource stores, and both pumps.
type Gateway struct {
	hub         *Hub
	inbound     InboundHandler
	sessionRepo *memory.SessionRepository
	bufferSize  int
	logger      logger.ILogger
}

func NewGateway(hub *Hub, inbound InboundHandler, sessionRepo *memory.SessionRepository, bufferSize int, log logger.ILogger) *Gateway {
	return &Gateway{
		hub:         hub,
		inbound:     inbound,
		sessionRepo: sessionRepo,
		bufferSize:  bufferSize,
		logger:      log,
	}
}

// ServeWs runs a session until the connection drops. It blocks in the read
// pump; the delivery loop runs on its own goroutine.
func (g *Gateway) ServeWs(conn *websocket.Conn, userID string) {
	session := store.NewSession(uuid.New().String(), userID)
	g.sessionRepo.Save(session)

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		Hub:       g.hub,
		Conn:      conn,
		Session:   session,
		Bridge:    NewBridge(g.bufferSize),
		Chunks:    memory.NewChunkRepository(),
		Resources: memory.NewResourceRepository(),
		inbound:   g.inbound,
		logger:    g.logger,
		ctx:       ctx,
		cancel:    cancel,
		touch:     func() { g.sessionRepo.Touch(session.ID) },
	}
	g.hub.register <- client

	defer func() {
		g.sessionRepo.Delete(session.ID)
		client.Resources.Flush()
	}()

	go client.writePump()
	client.readPump()
}
