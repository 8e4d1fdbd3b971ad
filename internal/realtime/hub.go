package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

const writeWait = 10 * time.Second

// Event is what the hub pushes to a user's open sessions.
type Event struct {
	Kind  string `json:"kind"`
	Score any    `json:"score,omitempty"`
}

const KindScoresUpdated = "scores.updated"

type Client struct {
	UserID string
	Conn   *websocket.Conn
	wmu    sync.Mutex // gorilla allows one concurrent writer
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{UserID: userID, Conn: conn}
}

func (c *Client) write(messageType int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(messageType, data)
}

// Ping sends a keepalive control frame.
func (c *Client) Ping() error {
	return c.write(websocket.PingMessage, nil)
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	closed  bool
	logger  internal.Logger
}

func NewHub(logger internal.Logger) *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{}), logger: logger}
}

// Register returns false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	return true
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// Sessions reports how many connections userID has open.
func (h *Hub) Sessions(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Broadcast sends ev to every session of userID. Write failures drop the
// session; they are never reported to the caller.
func (h *Hub) Broadcast(userID string, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Errorf("realtime: marshal event: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			h.logger.Warnf("realtime: dropping session for user %s: %v", userID, err)
			h.Unregister(c)
		}
	}
}

// Close disconnects every session and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range all {
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = c.Conn.Close()
	}
	return nil
}
