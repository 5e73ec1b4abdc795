package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/samhotchkiss/jirabot/internal/chat"
)

const (
	writeWait         = 10 * time.Second
	maxMessageSize    = 1 << 20
	minReconnectDelay = time.Second
	maxReconnectDelay = time.Minute
)

var errReconnectRequested = errors.New("gateway requested reconnect")

// Replier produces the reply for a mention-stripped message.
// *chat.Router satisfies it.
type Replier interface {
	Reply(ctx context.Context, text string) string
}

// Messenger delivers replies and typing indicators. *RESTClient satisfies it.
type Messenger interface {
	Reply(ctx context.Context, channelID, replyTo, content string) error
	TriggerTyping(ctx context.Context, channelID string) error
}

type Config struct {
	Token      string
	GatewayURL string
	Intents    int
}

// Bot keeps a gateway session open and answers messages that mention it.
type Bot struct {
	cfg       Config
	replier   Replier
	messenger Messenger
	dialer    *websocket.Dialer

	mu     sync.RWMutex
	userID string

	handlers sync.WaitGroup
}

func NewBot(cfg Config, replier Replier, messenger Messenger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("discord token is required")
	}
	if cfg.GatewayURL == "" {
		return nil, errors.New("discord gateway url is required")
	}
	if replier == nil || messenger == nil {
		return nil, errors.New("discord replier and messenger are required")
	}
	if cfg.Intents == 0 {
		cfg.Intents = DefaultIntents
	}
	return &Bot{
		cfg:       cfg,
		replier:   replier,
		messenger: messenger,
		dialer:    websocket.DefaultDialer,
	}, nil
}

// UserID is the bot's own user id once READY has been received.
func (b *Bot) UserID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.userID
}

func (b *Bot) setUserID(id string) {
	b.mu.Lock()
	b.userID = id
	b.mu.Unlock()
}

// Run holds a gateway session until ctx is cancelled, reconnecting with
// exponential backoff when the session drops.
func (b *Bot) Run(ctx context.Context) error {
	delay := minReconnectDelay
	for {
		started := time.Now()
		err := b.runSession(ctx)
		if ctx.Err() != nil {
			b.handlers.Wait()
			return nil
		}
		if time.Since(started) > maxReconnectDelay {
			delay = minReconnectDelay
		}
		log.Printf("discord: session ended: %v; reconnecting in %s", err, delay)

		select {
		case <-ctx.Done():
			b.handlers.Wait()
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

type session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	seqMu    sync.Mutex
	sequence *int64
}

func (s *session) send(op int, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(gatewayPayload{Op: op, Data: raw})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *session) lastSequence() *int64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	return s.sequence
}

func (s *session) setSequence(seq *int64) {
	if seq == nil {
		return
	}
	s.seqMu.Lock()
	value := *seq
	s.sequence = &value
	s.seqMu.Unlock()
}

func (b *Bot) runSession(ctx context.Context) error {
	conn, _, err := b.dialer.DialContext(ctx, b.cfg.GatewayURL, http.Header{})
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	sess := &session{conn: conn}
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sessionCtx.Done()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		conn.Close()
	}()

	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var helloBody helloData
	if err := json.Unmarshal(hello.Data, &helloBody); err != nil || helloBody.HeartbeatInterval <= 0 {
		return fmt.Errorf("invalid hello payload")
	}

	go b.heartbeat(sessionCtx, sess, time.Duration(helloBody.HeartbeatInterval)*time.Millisecond)

	if err := sess.send(opIdentify, identifyData{
		Token:   b.cfg.Token,
		Intents: b.cfg.Intents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "jirabot",
			Device:  "jirabot",
		},
	}); err != nil {
		return fmt.Errorf("identify: %w", err)
	}

	for {
		var payload gatewayPayload
		if err := conn.ReadJSON(&payload); err != nil {
			return fmt.Errorf("read gateway: %w", err)
		}
		sess.setSequence(payload.Sequence)

		switch payload.Op {
		case opDispatch:
			b.dispatch(ctx, payload)
		case opHeartbeat:
			if err := sess.send(opHeartbeat, sess.lastSequence()); err != nil {
				return fmt.Errorf("heartbeat: %w", err)
			}
		case opReconnect:
			return errReconnectRequested
		case opInvalidSession:
			return errors.New("gateway invalidated the session")
		case opHeartbeatAck:
		}
	}
}

func (b *Bot) heartbeat(ctx context.Context, sess *session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sess.send(opHeartbeat, sess.lastSequence()); err != nil {
				log.Printf("discord: heartbeat failed: %v", err)
				return
			}
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, payload gatewayPayload) {
	switch payload.Type {
	case "READY":
		var ready readyData
		if err := json.Unmarshal(payload.Data, &ready); err != nil {
			log.Printf("discord: decode READY: %v", err)
			return
		}
		b.setUserID(ready.User.ID)
		log.Printf("discord: logged in as %s (%s)", ready.User.Username, ready.User.ID)
	case "MESSAGE_CREATE":
		var message Message
		if err := json.Unmarshal(payload.Data, &message); err != nil {
			log.Printf("discord: decode MESSAGE_CREATE: %v", err)
			return
		}
		b.handlers.Add(1)
		go func() {
			defer b.handlers.Done()
			b.HandleMessage(ctx, message)
		}()
	}
}

// HandleMessage answers one message when it mentions the bot. Bot authors
// are ignored.
func (b *Bot) HandleMessage(ctx context.Context, message Message) {
	if message.Author.Bot {
		return
	}
	if !message.MentionsUser(b.UserID()) {
		return
	}

	query := StripMentions(message.Content)
	if query != "" {
		if err := b.messenger.TriggerTyping(ctx, message.ChannelID); err != nil {
			log.Printf("discord: typing indicator for %s: %v", message.ChannelID, err)
		}
	}

	reply := b.replier.Reply(ctx, query)
	for _, chunk := range chat.Split(reply) {
		if err := b.messenger.Reply(ctx, message.ChannelID, message.ID, chunk); err != nil {
			log.Printf("discord: reply to %s: %v", message.ID, err)
			if fallbackErr := b.messenger.Reply(ctx, message.ChannelID, message.ID, chat.FailureText); fallbackErr != nil {
				log.Printf("discord: failure notice to %s: %v", message.ID, fallbackErr)
			}
			return
		}
	}
}
