package ws

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/samhotchkiss/jirabot/internal/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 << 10
	maxQueryLength = 4000
)

// Replier answers one chat message. *chat.Router satisfies it.
type Replier interface {
	Reply(ctx context.Context, text string) string
}

// ObservedReplier publishes every exchange on the hub's activity topic.
type ObservedReplier struct {
	Next   Replier
	Hub    *Hub
	Source string
}

func (o ObservedReplier) Reply(ctx context.Context, text string) string {
	reply := o.Next.Reply(ctx, text)
	if o.Hub != nil {
		o.Hub.PublishActivity(o.Source, text, reply)
	}
	return reply
}

// Handler upgrades HTTP connections to chat clients.
type Handler struct {
	Hub            *Hub
	Replier        Replier
	AllowedOrigins []string
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isWebSocketOriginAllowed(r, h.AllowedOrigins)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := NewClient(h.Hub, conn)
	h.Hub.Register(client)

	go client.WritePump()
	client.ReadPump(r.Context(), ObservedReplier{Next: h.Replier, Hub: h.Hub, Source: "websocket"})
}

type clientMessage struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Text  string `json:"text,omitempty"`
	Topic string `json:"topic,omitempty"`
}

// ReadPump reads client messages until the connection drops. Queries are
// answered concurrently so a slow one does not stall pongs.
func (c *Client) ReadPump(clientCtx context.Context, replier Replier) {
	ctx, cancel := context.WithCancel(clientCtx)
	defer func() {
		cancel()
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var payload clientMessage
		if err := json.Unmarshal(message, &payload); err != nil {
			c.sendJSON(ServerMessage{Type: MessageError, Text: "invalid message"})
			continue
		}
		processClientMessage(ctx, c, payload, replier)
	}
}

// WritePump drains Send to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) sendJSON(message ServerMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: encode %s message: %v", message.Type, err)
		return
	}
	if !c.Enqueue(payload) {
		log.Printf("ws: dropped %s message for closed or slow client", message.Type)
	}
}

func processClientMessage(ctx context.Context, client *Client, payload clientMessage, replier Replier) {
	if client == nil {
		return
	}

	switch strings.ToLower(strings.TrimSpace(payload.Type)) {
	case "query":
		text := strings.TrimSpace(payload.Text)
		if utf8.RuneCountInString(text) > maxQueryLength {
			client.sendJSON(ServerMessage{Type: MessageError, ID: payload.ID, Text: "query is too long"})
			return
		}
		go func() {
			reply := replier.Reply(ctx, text)
			client.sendJSON(ServerMessage{
				Type:   MessageReply,
				ID:     payload.ID,
				Text:   reply,
				Chunks: chat.Split(reply),
			})
		}()
	case "subscribe":
		if topic := strings.TrimSpace(payload.Topic); topic == TopicActivity {
			client.SubscribeTopic(topic)
		}
	case "unsubscribe":
		client.UnsubscribeTopic(strings.TrimSpace(payload.Topic))
	default:
		client.sendJSON(ServerMessage{Type: MessageError, ID: payload.ID, Text: "unknown message type"})
	}
}

func isWebSocketOriginAllowed(r *http.Request, allowList []string) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	originHost := normalizeOriginHost(originURL.Host)
	if originHost == "" {
		return false
	}

	reqHost := normalizeOriginHost(r.Host)
	if reqHost == originHost || (isLoopback(reqHost) && isLoopback(originHost)) {
		return true
	}

	for _, candidate := range allowList {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		parsed, err := url.Parse(candidate)
		if err != nil || parsed.Host == "" {
			continue
		}
		if parsed.Scheme != "" && parsed.Scheme != originURL.Scheme {
			continue
		}
		if normalizeOriginHost(parsed.Host) == originHost {
			return true
		}
	}
	return false
}

func normalizeOriginHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return ""
	}
	if parsedHost, _, err := net.SplitHostPort(host); err == nil {
		return strings.Trim(parsedHost, "[]")
	}
	return strings.Trim(host, "[]")
}

func isLoopback(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
