package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/scythe504/triplay-backend/internal"
	"github.com/scythe504/triplay-backend/internal/notify"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// =============================================================================
// HUB
// =============================================================================

// Hub keeps the websocket subscribers of every room and relays room updates
// to them. Clients only listen; game actions go through the HTTP API.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

// Client is one websocket subscriber of a room.
type Client struct {
	hub    *Hub
	roomID string
	conn   *websocket.Conn
	send   chan []byte
}

// NewHub accepts upgrades from allowedOrigins. An empty list or "*" allows
// every origin.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 ||
					slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		rooms: make(map[string]map[*Client]bool),
	}
}

// Publish delivers msg to the local subscribers of roomID. It is the
// Notifier used when no Redis is configured.
func (h *Hub) Publish(_ context.Context, roomID string, msg internal.Message[any]) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	h.Broadcast(roomID, data)
	return nil
}

// Broadcast queues an encoded message for every client of the room. Slow
// clients with a full buffer miss the message.
func (h *Hub) Broadcast(roomID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		select {
		case client.send <- data:
		default:
			log.Printf("[Broadcast] room=%s: send buffer full, dropping message", roomID)
		}
	}
}

func (h *Hub) ClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[c.roomID] == nil {
		h.rooms[c.roomID] = make(map[*Client]bool)
	}
	h.rooms[c.roomID][c] = true
	log.Printf("[register] room=%s: subscriber joined (%d connected)", c.roomID, len(h.rooms[c.roomID]))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.roomID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.roomID)
	}
	log.Printf("[unregister] room=%s: subscriber left (%d connected)", c.roomID, len(clients))
}

// ListenRedis relays messages published on any room channel to the local
// subscribers until ctx is cancelled.
func (h *Hub) ListenRedis(ctx context.Context, rdb *redis.Client) error {
	pubsub := rdb.PSubscribe(ctx, notify.ChannelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", notify.ChannelPattern, err)
	}
	log.Printf("[ListenRedis] subscribed to %s", notify.ChannelPattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			roomID, ok := notify.RoomFromChannel(msg.Channel)
			if !ok {
				continue
			}
			h.Broadcast(roomID, []byte(msg.Payload))
		}
	}
}

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

// ServeRoom upgrades the request and subscribes the connection to roomID.
// The caller has already checked that the room exists.
func (h *Hub) ServeRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	// 1. Upgrade connection to WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ServeRoom] room=%s: upgrade failed: %v", roomID, err)
		return
	}

	// 2. Register the subscriber
	client := &Client{
		hub:    h,
		roomID: roomID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(client)

	// 3. Confirm the subscription to the client
	hello, err := json.Marshal(internal.Message[any]{
		Type: "subscribed",
		Data: map[string]any{"room_id": roomID},
	})
	if err == nil {
		client.send <- hello
	}

	// 4. Start pumps
	go client.writePump()
	go client.readPump()
}

// readPump only watches for the connection going away.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[readPump] room=%s: websocket error: %v", c.roomID, err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
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
				log.Printf("[writePump] room=%s: write failed: %v", c.roomID, err)
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
