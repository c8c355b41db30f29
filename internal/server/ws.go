package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool, any origin
	},
}

// HandHandler pushes every frame result to WebSocket clients as JSON.
type HandHandler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewHandHandler creates a HandHandler reading from hub.
func NewHandHandler(hub *Hub, logger *slog.Logger) *HandHandler {
	return &HandHandler{hub: hub, logger: logger}
}

// ServeHTTP upgrades the connection and writes messages until the client
// disconnects. The latest state is sent first.
func (h *HandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	sub := h.hub.subscribeHands()
	defer h.hub.unsubscribe(sub)

	// Reads only detect the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, h.hub.State()); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case msg := <-sub.ch:
			if err := h.write(conn, msg); err != nil {
				h.logger.Debug("websocket write", "err", err)
				return
			}
		}
	}
}

func (h *HandHandler) write(conn *websocket.Conn, msg []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, msg)
}
