package websockets

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Message types
const (
	MsgTypeSnapshot = "snapshot"
	MsgTypeClosed   = "session_closed"
)

const clientBuffer = 16

// Client is one browser tab following a planner session.
type Client struct {
	Conn      *websocket.Conn
	SessionID string
	send      chan []byte
}

type WebSocketManager struct {
	clients    map[*Client]bool
	publish    chan SessionMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	logger     *slog.Logger
	mu         sync.Mutex
}

// SessionMessage is an encoded envelope addressed to one session's clients.
type SessionMessage struct {
	SessionID string
	Payload   []byte
}

// Envelope is what clients receive.
type Envelope struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
}
