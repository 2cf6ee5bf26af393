package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/seanodera/Datasmith/internal/datasmith/entity"
	"github.com/seanodera/Datasmith/internal/datasmith/session"
	"github.com/seanodera/Datasmith/internal/pkg/pkguid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	clientBuffer    = 32
	broadcastBuffer = 64
)

const (
	MessageConnection   = "connection"
	MessageState        = "state"
	MessageNotification = "notification"
)

var ErrHubStopped = errors.New("hub stopped")

type Message struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type NotificationMessage struct {
	ID      string                   `json:"id"`
	Level   entity.NotificationLevel `json:"level"`
	Message string                   `json:"message"`
}

type outbound struct {
	kind    string
	payload []byte
}

// Hub fans session state and notifications out to websocket clients. New
// clients receive the most recent state right after the connection message.
type Hub struct {
	upgrader websocket.Upgrader
	id       pkguid.StringID

	register   chan *client
	unregister chan *client
	broadcast  chan outbound
	quit       chan struct{}
	done       chan struct{}

	clients   map[*client]struct{}
	lastState []byte

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewHub(id pkguid.StringID) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Any origin may subscribe to the local session.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		id:         id,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan outbound, broadcastBuffer),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

func (h *Hub) Start() {
	h.startOnce.Do(func() {
		go h.run()
	})
}

func (h *Hub) Stop(ctx context.Context) error {
	h.stopOnce.Do(func() {
		close(h.quit)
	})

	h.startOnce.Do(func() { close(h.done) })

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.send(c, h.connectionMessage(c))
			if h.lastState != nil {
				h.send(c, h.lastState)
			}
			slog.Debug("websocket client connected", "client_id", c.id, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				slog.Debug("websocket client disconnected", "client_id", c.id, "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			if msg.kind == MessageState {
				h.lastState = msg.payload
			}
			for c := range h.clients {
				h.send(c, msg.payload)
			}

		case <-h.quit:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		}
	}
}

// send drops a client whose buffer is full.
func (h *Hub) send(c *client, payload []byte) {
	if payload == nil {
		return
	}

	select {
	case c.send <- payload:
	default:
		slog.Warn("websocket client too slow, disconnecting", "client_id", c.id)
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) connectionMessage(c *client) []byte {
	payload, err := encodeMessage(MessageConnection, map[string]string{"client_id": c.id})
	if err != nil {
		return nil
	}
	return payload
}

// Handle forwards a notification to every connected client.
func (h *Hub) Handle(ctx context.Context, n entity.Notification) error {
	payload, err := encodeMessage(MessageNotification, NotificationMessage{
		ID:      n.ID,
		Level:   n.Level,
		Message: n.Message,
	})
	if err != nil {
		return err
	}

	return h.publish(ctx, outbound{kind: MessageNotification, payload: payload})
}

// PublishState forwards a state snapshot to every connected client.
func (h *Hub) PublishState(ctx context.Context, st session.State) error {
	payload, err := encodeMessage(MessageState, toSessionResponse(st))
	if err != nil {
		return err
	}

	return h.publish(ctx, outbound{kind: MessageState, payload: payload})
}

// Watch publishes every state received on states until the channel closes.
func (h *Hub) Watch(states <-chan session.State) {
	for st := range states {
		if err := h.PublishState(context.Background(), st); err != nil {
			if errors.Is(err, ErrHubStopped) {
				return
			}
			slog.Error("failed to publish session state", "error", err)
		}
	}
}

func (h *Hub) publish(ctx context.Context, msg outbound) error {
	select {
	case <-h.quit:
		return ErrHubStopped
	default:
	}

	select {
	case h.broadcast <- msg:
		return nil
	case <-h.quit:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientBuffer),
		id:   h.id.Generate(),
	}

	select {
	case h.register <- c:
	case <-h.quit:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func encodeMessage(kind string, data any) ([]byte, error) {
	return json.Marshal(Message{Type: kind, Data: data, Timestamp: time.Now().UTC()})
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// readPump only keeps the read deadline alive; clients do not send commands.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("unexpected websocket close", "client_id", c.id, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
