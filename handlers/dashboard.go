package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"taskflow/middleware"
	"taskflow/models"
)

// WSMessage is the envelope for every dashboard socket frame.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ErrorData struct {
	Error string `json:"error"`
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.svc.Stats.Dashboard(c.UserContext(), middleware.GetUser(c))
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(dashboard)
}

// RequireUpgrade rejects plain HTTP requests on websocket routes
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// DashboardSocket pushes the dashboard on connect and again whenever the
// client sends {"type":"refresh"}. Every push re-reads the store.
func (h *Handler) DashboardSocket(conn *websocket.Conn) {
	user, ok := conn.Locals(middleware.LocalUser).(*models.User)
	if !ok {
		sendWSError(conn, "Unauthorized")
		return
	}

	log.Printf("Dashboard WebSocket connected: user=%d", user.ID)
	defer log.Printf("Dashboard WebSocket closed: user=%d", user.ID)

	if !h.pushDashboard(conn, user) {
		return
	}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if sendWSMessage(conn, "error", ErrorData{Error: "Invalid message"}) != nil {
				return
			}
			continue
		}

		switch msg.Type {
		case "refresh":
			if !h.pushDashboard(conn, user) {
				return
			}
		case "ping":
			err = sendWSMessage(conn, "pong", nil)
		default:
			err = sendWSMessage(conn, "error", ErrorData{Error: "Unknown message type"})
		}
		if err != nil {
			log.Printf("dashboard socket: user=%d: write: %v", user.ID, err)
			return
		}
	}
}

func (h *Handler) pushDashboard(conn *websocket.Conn, user *models.User) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dashboard, err := h.svc.Stats.Dashboard(ctx, user)
	if err != nil {
		log.Printf("dashboard socket: user=%d: %v", user.ID, err)
		sendWSError(conn, "Internal server error")
		return false
	}
	return sendWSMessage(conn, "dashboard", dashboard) == nil
}

func sendWSMessage(conn *websocket.Conn, msgType string, data interface{}) error {
	msg := WSMessage{Type: msgType}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = payload
	}
	out, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, out)
}

func sendWSError(conn *websocket.Conn, errMsg string) {
	if err := sendWSMessage(conn, "error", ErrorData{Error: errMsg}); err != nil {
		log.Printf("dashboard socket: send error: %v", err)
	}
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		log.Printf("dashboard socket: close frame: %v", err)
	}
	conn.Close()
}
