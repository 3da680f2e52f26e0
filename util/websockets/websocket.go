package websockets

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwise1/trip_planner/internal/logging"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketManager initializes a WebSocketManager
func NewWebSocketManager(logger *slog.Logger) *WebSocketManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketManager{
		clients:    make(map[*Client]bool),
		publish:    make(chan SessionMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client set until Stop is called.
func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client] = true
			manager.mu.Unlock()

		case client := <-manager.unregister:
			manager.mu.Lock()
			if _, exists := manager.clients[client]; exists {
				delete(manager.clients, client)
				close(client.send)
			}
			manager.mu.Unlock()

		case message := <-manager.publish:
			manager.mu.Lock()
			for client := range manager.clients {
				if client.SessionID != message.SessionID {
					continue
				}
				select {
				case client.send <- message.Payload:
				default:
					// slow reader; drop it rather than stall every session
					delete(manager.clients, client)
					close(client.send)
				}
			}
			manager.mu.Unlock()

		case <-manager.done:
			manager.mu.Lock()
			for client := range manager.clients {
				delete(manager.clients, client)
				close(client.send)
			}
			manager.mu.Unlock()
			return
		}
	}
}

func (manager *WebSocketManager) Stop() {
	manager.stopOnce.Do(func() { close(manager.done) })
}

// ClientCount reports how many clients follow sessionID.
func (manager *WebSocketManager) ClientCount(sessionID string) int {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	n := 0
	for client := range manager.clients {
		if client.SessionID == sessionID {
			n++
		}
	}
	return n
}

// Publish queues data for every client of sessionID. It never blocks.
func (manager *WebSocketManager) Publish(sessionID, msgType string, data interface{}) {
	payload, err := json.Marshal(Envelope{Type: msgType, SessionID: sessionID, Data: data})
	if err != nil {
		logging.LogError(manager.logger, "encode websocket message", err, slog.String("session_id", sessionID))
		return
	}
	select {
	case manager.publish <- SessionMessage{SessionID: sessionID, Payload: payload}:
	default:
		manager.logger.Warn("websocket publish queue full, dropping message", slog.String("session_id", sessionID))
	}
}

// HandleConnections upgrades the request and streams sessionID updates,
// starting with initial.
func (manager *WebSocketManager) HandleConnections(w http.ResponseWriter, r *http.Request, sessionID string, initial interface{}) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.LogError(manager.logger, "websocket upgrade failed", err, slog.String("session_id", sessionID))
		return
	}

	client := &Client{Conn: conn, SessionID: sessionID, send: make(chan []byte, clientBuffer)}
	if initial != nil {
		if payload, err := json.Marshal(Envelope{Type: MsgTypeSnapshot, SessionID: sessionID, Data: initial}); err == nil {
			client.send <- payload
		}
	}

	select {
	case manager.register <- client:
	case <-manager.done:
		conn.Close()
		return
	}

	go client.writePump()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

func (c *Client) writePump() {
	defer c.Conn.Close()
	for msg := range c.send {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
