package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one websocket frame sent to subscribers of a session.
type Message struct {
	SessionID string `json:"session_id"`
	Event     string `json:"event"`
	Data      any    `json:"data,omitempty"`
}

type client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub fans session snapshots out to websocket subscribers. All subscriber
// bookkeeping happens on the Run goroutine.
type Hub struct {
	logger     *slog.Logger
	sessions   map[string]map[*client]bool
	broadcast  chan *Message
	register   chan *client
	unregister chan *client
	drop       chan string
	// done is closed when Run returns; sends to the hub give up after that.
	done chan struct{}
}

// NewHub creates a hub; call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		sessions:   make(map[string]map[*client]bool),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		drop:       make(chan string),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for id := range h.sessions {
				h.dropSession(id)
			}
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case id := <-h.drop:
			h.dropSession(id)
		case m := <-h.broadcast:
			h.broadcastMessage(m)
		}
	}
}

// ServeWS upgrades the request and subscribes it to sessionID. A non-nil
// greeting is the first frame the client receives; it is only delivered
// after registration, so any later Publish reaches the client too.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, greeting *Message) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}
	if greeting != nil {
		data, err := json.Marshal(greeting)
		if err != nil {
			h.logger.Error("marshal websocket greeting", slog.Any("error", err))
		} else {
			c.send <- data
		}
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Publish queues an event for every subscriber of sessionID. The event is
// dropped when the hub is backed up.
func (h *Hub) Publish(sessionID, event string, data any) {
	select {
	case h.broadcast <- &Message{SessionID: sessionID, Event: event, Data: data}:
	default:
		h.logger.Warn("websocket broadcast dropped",
			slog.String("session", sessionID),
			slog.String("event", event))
	}
}

// CloseSession disconnects every subscriber of sessionID.
func (h *Hub) CloseSession(sessionID string) {
	select {
	case h.drop <- sessionID:
	case <-h.done:
	}
}

func (h *Hub) registerClient(c *client) {
	if h.sessions[c.sessionID] == nil {
		h.sessions[c.sessionID] = make(map[*client]bool)
	}
	h.sessions[c.sessionID][c] = true
	h.logger.Debug("websocket client registered",
		slog.String("session", c.sessionID),
		slog.Int("clients", len(h.sessions[c.sessionID])))
}

func (h *Hub) unregisterClient(c *client) {
	clients, ok := h.sessions[c.sessionID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.sessions, c.sessionID)
	}
	h.logger.Debug("websocket client unregistered",
		slog.String("session", c.sessionID),
		slog.Int("clients", len(clients)))
}

func (h *Hub) dropSession(id string) {
	for c := range h.sessions[id] {
		h.unregisterClient(c)
	}
}

func (h *Hub) broadcastMessage(m *Message) {
	data, err := json.Marshal(m)
	if err != nil {
		h.logger.Error("marshal websocket message", slog.Any("error", err))
		return
	}
	for c := range h.sessions[m.SessionID] {
		select {
		case c.send <- data:
		default:
			h.unregisterClient(c)
		}
	}
}

// readPump keeps the connection alive; inbound frames are discarded.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read", slog.Any("error", err))
			}
			return
		}
	}
}

// writePump sends one JSON message per websocket frame.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
