// Package canvas bridges a view's canvas to the browsers displaying it.
// Every canvas operation becomes a JSON message sent over WebSocket to all
// connected clients; interaction events flow back the other way.
package canvas

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cicdguard/backend/pkg/graph"
	"github.com/cicdguard/backend/pkg/logger"
	"github.com/cicdguard/backend/pkg/render"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxEventSize = 4096
	sendBuffer   = 64
)

// MessageType names a message sent to the browser.
type MessageType string

const (
	MessageClear   MessageType = "clear"
	MessageLoad    MessageType = "load"
	MessageNode    MessageType = "node"
	MessageInspect MessageType = "inspect"
	MessageLayout  MessageType = "layout"
	MessageRefresh MessageType = "refresh"
	MessageNotice  MessageType = "notice"
)

// Message is one instruction for the browser canvas.
type Message struct {
	Type       MessageType    `json:"type"`
	Graph      *graph.Model   `json:"graph,omitempty"`
	Node       string         `json:"node,omitempty"`
	Size       int            `json:"size,omitempty"`
	Label      *string        `json:"label,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Running    *bool          `json:"running,omitempty"`
	Level      string         `json:"level,omitempty"`
	Text       string         `json:"message,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is the canvas of one view. It implements render.Canvas and
// render.Inspector. Sends never block: a client that cannot keep up is
// disconnected.
type Hub struct {
	viewID string

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates an empty hub for viewID.
func NewHub(viewID string) *Hub {
	return &Hub{
		viewID:  viewID,
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("[Canvas] Failed to encode message", "view", h.viewID, "type", msg.Type, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			logger.Warn("[Canvas] Dropping slow client", "view", h.viewID)
			h.removeLocked(c)
		}
	}
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) Clear() {
	h.broadcast(Message{Type: MessageClear})
}

func (h *Hub) Load(model *graph.Model) {
	h.broadcast(Message{Type: MessageLoad, Graph: model})
}

func (h *Hub) SetNodeAppearance(nodeID string, size int, label string) {
	h.broadcast(Message{Type: MessageNode, Node: nodeID, Size: size, Label: &label})
}

func (h *Hub) Refresh() {
	h.broadcast(Message{Type: MessageRefresh})
}

func (h *Hub) StartLayout() {
	running := true
	h.broadcast(Message{Type: MessageLayout, Running: &running})
}

func (h *Hub) StopLayout() {
	running := false
	h.broadcast(Message{Type: MessageLayout, Running: &running})
}

func (h *Hub) Notify(level, message string) {
	h.broadcast(Message{Type: MessageNotice, Level: level, Text: message})
}

func (h *Hub) Inspect(nodeID string, properties map[string]any) {
	h.broadcast(Message{Type: MessageInspect, Node: nodeID, Properties: properties})
}

// Serve registers conn, then lets greet send the current state to it
// alone and forwards every event it reports to handle. Updates broadcast
// after registration reach the client too, so nothing is lost between the
// greeting and the first broadcast. It blocks until the connection is
// closed. greet may be nil.
func (h *Hub) Serve(conn *websocket.Conn, greet func(send func(Message)), handle func(render.Event)) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	logger.Debug("[Canvas] Client connected", "view", h.viewID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(c)
	}()

	if greet != nil {
		greet(func(msg Message) { h.sendTo(c, msg) })
	}

	h.readPump(c, handle)

	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	<-done

	logger.Debug("[Canvas] Client disconnected", "view", h.viewID)
}

// sendTo queues msg for a single client.
func (h *Hub) sendTo(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("[Canvas] Failed to encode message", "view", h.viewID, "type", msg.Type, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Warn("[Canvas] Dropping slow client", "view", h.viewID)
		h.removeLocked(c)
	}
}

func (h *Hub) readPump(c *client, handle func(render.Event)) {
	c.conn.SetReadLimit(maxEventSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("[Canvas] Connection closed unexpectedly", "view", h.viewID, "err", err)
			}
			return
		}

		var ev render.Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
			logger.Debug("[Canvas] Ignoring invalid event", "view", h.viewID)
			continue
		}
		handle(ev)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}
