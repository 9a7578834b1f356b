package server

import (
	"encoding/json"
	"log/slog"

	"fundboard/internal/featureflags"
	"fundboard/internal/middleware"
	"fundboard/internal/models"
	"fundboard/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

var pongMessage = []byte(`{"type":"pong"}`)

// requireRealtime rejects the event stream for callers outside the realtime
// rollout and plain HTTP requests.
func (s *Server) requireRealtime(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.RealtimeEvents, userID(c)) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			&models.AppError{Code: models.CodeNotFound, Message: "Realtime events are not available"})
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// WebsocketHandler streams post events to the authenticated user.
// @Summary Post event stream
// @Description Websocket; pass the token as ?token= when headers cannot be set
// @Tags realtime
// @Security BearerAuth
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		uid, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			slog.Warn("websocket register failed", "user_id", uid, "error", err)
			msg, _ := json.Marshal(models.ErrorResponse{Error: err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, msg)
			_ = conn.Close()
			return
		}
		client.IncomingHandler = handleClientFrame

		go client.WritePump()
		client.ReadPump()
	})
}

// handleClientFrame answers application-level pings; other frames are ignored.
func handleClientFrame(c *notifications.Client, message []byte) {
	var frame struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &frame); err != nil {
		return
	}
	if frame.Type == "ping" {
		c.TrySend(pongMessage)
	}
}
