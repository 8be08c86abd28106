package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is one JSON payload broadcast to every connected operator UI client
// per tick, carrying that tick's action confirmations and force-quits;
// emotion changes are not included. Grounded on the teacher pack's
// websocket broadcast hub (codeready-toolchain-tarsy's pkg/api/websocket.go).
type Frame struct {
	Type  string      `json:"type"`
	Tick  int         `json:"tick"`
	Data  interface{} `json:"data,omitempty"`
}

// wsHub fans out Frames to every connected websocket client. It is the same
// register/unregister/broadcast channel design the teacher pack uses, kept
// unchanged because it already fits an operator-feed broadcaster exactly.
type wsHub struct {
	logger *zap.Logger

	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan Frame
	mu         sync.RWMutex
}

func newWSHub(logger *zap.Logger) *wsHub {
	return &wsHub{
		logger:     logger,
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan Frame, 256),
	}
}

func (h *wsHub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case frame := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				if err := conn.WriteJSON(frame); err != nil {
					h.logger.Warn("ws_write_failed", zap.Error(err))
					go func(c *websocket.Conn) { h.unregister <- c }(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast enqueues frame for delivery to every connected client.
func (h *wsHub) Broadcast(frame Frame) {
	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("ws_broadcast_dropped", zap.String("type", frame.Type))
	}
}

func (h *wsHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}

	h.register <- conn
	conn.WriteJSON(Frame{Type: "connected"})

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
