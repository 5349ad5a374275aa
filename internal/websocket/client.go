package websocket

import (
	"context"
	"encoding/json"
	"time"

	"ai-docedit-be/internal/constant"
	"ai-docedit-be/internal/dto"
	"ai-docedit-be/internal/pkg/logger"
	"ai-docedit-be/internal/repository/memory"
	"ai-docedit-be/pkg/store"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Requests carry base64 uploads inline.
	maxMessageSize = 10 * 1024 * 1024
)

// RequestContext bundles the per-session state a worker needs to serve one
// inbound request.
type RequestContext struct {
	Session   *store.Session
	Bridge    *Bridge
	Chunks    *memory.ChunkRepository
	Resources *memory.ResourceRepository
}

// InboundHandler is the orchestration side of the connection. HandleRequest
// runs on a worker goroutine per request; HandleToolResponse runs on the
// read loop and must only hand the payload off.
type InboundHandler interface {
	HandleRequest(ctx context.Context, rc *RequestContext, raw []byte)
	HandleToolResponse(raw []byte)
}

// Client owns one websocket connection: a read pump dispatching inbound
// messages and a write pump draining the session bridge.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Session   *store.Session
	Bridge    *Bridge
	Chunks    *memory.ChunkRepository
	Resources *memory.ResourceRepository

	inbound InboundHandler
	logger  logger.ILogger
	ctx     context.Context
	cancel  context.CancelFunc

	// touch refreshes the session's idle TTL; called on every inbound message.
	touch func()
}

// readPump pumps messages from the websocket connection into the
// orchestration layer.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.Bridge.Close()
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WsClient", "Unexpected close", map[string]interface{}{
					"session_id": c.Session.ID, "error": err.Error(),
				})
			}
			break
		}
		c.dispatch(raw)
	}
}

func (c *Client) dispatch(raw []byte) {
	if c.touch != nil {
		c.touch()
	}

	var envelope dto.InboundEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Warn("WsClient", "Undecodable inbound message", map[string]interface{}{
			"session_id": c.Session.ID, "error": err.Error(),
		})
		return
	}

	switch envelope.Type {
	case constant.MessageTypeRequest:
		rc := &RequestContext{
			Session:   c.Session,
			Bridge:    c.Bridge,
			Chunks:    c.Chunks,
			Resources: c.Resources,
		}
		// One worker per request; the read loop stays free for tool
		// responses and further requests.
		go c.inbound.HandleRequest(c.ctx, rc, raw)
	case constant.MessageTypeToolResponse:
		c.inbound.HandleToolResponse(raw)
	default:
		c.logger.Warn("WsClient", "Unknown message type", map[string]interface{}{
			"session_id": c.Session.ID, "type": envelope.Type,
		})
	}
}

// writePump is the session's delivery loop: it drains the bridge in FIFO
// order. A transmit failure exits the loop without touching anything else.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Bridge.Queue():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("WsClient", "Transmit failed, delivery loop exiting", map[string]interface{}{
					"session_id": c.Session.ID, "error": err.Error(),
				})
				return
			}
		case <-c.Bridge.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
