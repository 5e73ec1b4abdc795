package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType is the type tag of a server-to-client payload.
type MessageType string

const (
	MessageReply    MessageType = "reply"
	MessageActivity MessageType = "activity"
	MessageError    MessageType = "error"
)

// TopicActivity carries one event per handled chat message from any surface.
const TopicActivity = "activity"

type ServerMessage struct {
	Type   MessageType `json:"type"`
	ID     string      `json:"id,omitempty"`
	Text   string      `json:"text,omitempty"`
	Chunks []string    `json:"chunks,omitempty"`
	Source string      `json:"source,omitempty"`
	Query  string      `json:"query,omitempty"`
	At     *time.Time  `json:"at,omitempty"`
}

// BroadcastMessage packages a payload for a topic broadcast.
type BroadcastMessage struct {
	Topic   string
	Payload []byte
}

// Hub tracks connected clients and fans topic broadcasts out to subscribers.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.IsSubscribedToTopic(message.Topic) {
					continue
				}
				if !client.Enqueue(message.Payload) {
					delete(h.clients, client)
					client.close()
				}
			}
		}
	}
}

// BroadcastTopic queues a payload for every client subscribed to topic. It
// drops the payload once the hub has stopped.
func (h *Hub) BroadcastTopic(topic string, payload []byte) {
	select {
	case h.broadcast <- BroadcastMessage{Topic: topic, Payload: payload}:
	case <-h.done:
	}
}

// PublishActivity announces a handled message on the activity topic.
func (h *Hub) PublishActivity(source, query, reply string) {
	now := time.Now().UTC()
	payload, err := json.Marshal(ServerMessage{
		Type:   MessageActivity,
		Source: source,
		Query:  query,
		Text:   reply,
		At:     &now,
	})
	if err != nil {
		log.Printf("ws: encode activity: %v", err)
		return
	}
	h.BroadcastTopic(TopicActivity, payload)
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Client is one websocket connection.
type Client struct {
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte

	mu     sync.RWMutex
	topics map[string]bool
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan []byte, 256),
		topics: make(map[string]bool),
	}
}

// Enqueue queues a payload for the write pump. It returns false when the
// client is closed or its buffer is full.
func (c *Client) Enqueue(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (c *Client) SubscribeTopic(topic string) {
	c.mu.Lock()
	c.topics[topic] = true
	c.mu.Unlock()
}

func (c *Client) UnsubscribeTopic(topic string) {
	c.mu.Lock()
	delete(c.topics, topic)
	c.mu.Unlock()
}

func (c *Client) IsSubscribedToTopic(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}
