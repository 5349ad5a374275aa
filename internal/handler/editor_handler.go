package handler

import (
	"strings"

	"ai-docedit-be/internal/pkg/logger"
	"ai-docedit-be/internal/pkg/serverutils"
	"ai-docedit-be/internal/repository/contract"
	ws "ai-docedit-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EditorHandler exposes the editing websocket endpoint and the revision
// history REST endpoint.
type EditorHandler struct {
	gateway   *ws.Gateway
	revisions contract.RevisionRepository
	logger    logger.ILogger
}

func NewEditorHandler(gateway *ws.Gateway, revisions contract.RevisionRepository, log logger.ILogger) *EditorHandler {
	return &EditorHandler{
		gateway:   gateway,
		revisions: revisions,
		logger:    log,
	}
}

func (h *EditorHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/editor/ws", h.ServeWs)
	router.Get("/editor/sessions/:sessionId/revisions", serverutils.JwtMiddleware, h.GetRevisions)
}

// ServeWs authenticates the handshake and upgrades the connection. Browsers
// cannot set headers on websocket requests, so the query parameter takes
// priority over the Authorization header.
func (h *EditorHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if tokenStr == "" {
		h.logger.Warn("EditorHandler", "Websocket handshake without token", nil)
		return fiber.NewError(fiber.StatusUnauthorized, "missing token")
	}

	userID, err := serverutils.ValidateToken(tokenStr)
	if err != nil {
		h.logger.Warn("EditorHandler", "Websocket handshake with invalid token", map[string]interface{}{
			"error": err.Error(),
		})
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.gateway.ServeWs(conn, userID)
	})(c)
}

// GetRevisions pages through the persisted mutation history of a session,
// newest first.
func (h *EditorHandler) GetRevisions(c *fiber.Ctx) error {
	if h.revisions == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "revision history is disabled")
	}

	sessionID := c.Params("sessionId")
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	revisions, total, err := h.revisions.GetBySession(c.Context(), sessionID, limit, offset)
	if err != nil {
		h.logger.Error("EditorHandler", "Failed to load revisions", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load revisions")
	}

	return c.JSON(fiber.Map{
		"data":   revisions,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
