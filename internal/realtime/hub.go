// Package realtime pushes activity events to websocket clients subscribed
// to a project.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yukikurage/kanban-api/internal/dto"
	"github.com/yukikurage/kanban-api/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 4096

	sendBuffer = 32
)

// Message is the envelope of everything sent over the socket
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type envelope struct {
	projectID uint64
	payload   []byte
}

// Client is one websocket connection subscribed to a project
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	projectID uint64
	userID    uint64
}

// NewClient creates a client for conn. Call Hub.Register and start both pumps.
func NewClient(hub *Hub, conn *websocket.Conn, projectID, userID uint64) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		projectID: projectID,
		userID:    userID,
	}
}

// ReadPump discards client messages until the connection closes. Keepalive
// relies on websocket ping/pong control frames.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
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
				slog.Debug("websocket closed unexpectedly", slog.Uint64("user_id", c.userID), slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump writes queued messages and keepalive pings to the connection
func (c *Client) WritePump() {
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

// Hub keeps one room of clients per project and fans activities out to them.
// All room state is owned by the Run goroutine.
type Hub struct {
	rooms      map[uint64]map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	now        func() time.Time
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uint64]map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Register adds a client to its project's room. It reports false when the
// hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from its room
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishActivity sends an activity to every client of its project. It
// never blocks the caller: when the hub is saturated the event is dropped.
func (h *Hub) PublishActivity(a models.Activity) {
	if a.ProjectID == nil {
		return
	}

	payload, err := json.Marshal(Message{Type: "activity", Data: dto.ToActivityDTO(a, h.now())})
	if err != nil {
		slog.Warn("failed to encode activity for broadcast", slog.Uint64("activity_id", a.ID), slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- envelope{projectID: *a.ProjectID, payload: payload}:
	default:
		slog.Warn("realtime hub saturated, dropping activity", slog.Uint64("activity_id", a.ID))
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
			}
			h.rooms = make(map[uint64]map[*Client]bool)
			return
		case client := <-h.register:
			room, ok := h.rooms[client.projectID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.projectID] = room
			}
			room[client] = true
			slog.Debug("websocket client joined", slog.Uint64("project_id", client.projectID), slog.Uint64("user_id", client.userID))
		case client := <-h.unregister:
			h.remove(client)
		case msg := <-h.broadcast:
			for client := range h.rooms[msg.projectID] {
				select {
				case client.send <- msg.payload:
				default:
					slog.Debug("websocket client too slow, disconnecting", slog.Uint64("user_id", client.userID))
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	room, ok := h.rooms[client.projectID]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}

	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.projectID)
	}
}
