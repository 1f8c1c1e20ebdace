package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tonegen/pkg/audio"
	"tonegen/pkg/metrics"
	"tonegen/pkg/tone"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 16
	wsMaxMessage = 1024
)

// ClientMessage is a UI event sent by the page.
type ClientMessage struct {
	Type     string   `json:"type"` // "toggle", "gain", "waveform"
	Value    *float64 `json:"value,omitempty"`
	Waveform string   `json:"waveform,omitempty"`
}

// ServerMessage is pushed to every page.
type ServerMessage struct {
	Type    string       `json:"type"` // "state", "error"
	Status  *tone.Status `json:"status,omitempty"`
	Message string       `json:"message,omitempty"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps one WebSocket per open control page. Events from any page are
// applied to the controller and the resulting state is pushed to all pages.
type Hub struct {
	ctrl     Controls
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*wsClient
}

// NewHub creates a Hub for ctrl.
func NewHub(ctrl Controls) *Hub {
	return &Hub{
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[string]*wsClient),
	}
}

// HandleWS handles GET /api/ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
	}
	h.register(c)

	st := h.ctrl.Status()
	h.sendTo(c, ServerMessage{Type: "state", Status: &st})

	go h.writeLoop(c)
	h.readLoop(c)
}

// Broadcast pushes st to every connected page.
func (h *Hub) Broadcast(st tone.Status) {
	data, err := json.Marshal(ServerMessage{Type: "state", Status: &st})
	if err != nil {
		slog.Error("Failed to encode state message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("WebSocket client too slow, dropping state update", "client", c.id)
		}
	}
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every page.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

// Apply runs one UI event against the controller. It returns false with a
// reason when the event is rejected, which is what the UI layer is for.
func (h *Hub) Apply(msg ClientMessage) (ok bool, reason string) {
	switch msg.Type {
	case "toggle":
		h.ctrl.TogglePlayback()
	case "gain":
		if msg.Value == nil {
			return false, "gain requires a value"
		}
		if err := validateDb(*msg.Value); err != nil {
			return false, err.Error()
		}
		h.ctrl.UpdateVolume(*msg.Value)
	case "waveform":
		kind, err := audio.ParseWaveform(msg.Waveform)
		if err != nil {
			return false, err.Error()
		}
		h.ctrl.UpdateWaveform(kind)
	default:
		return false, "unknown message type"
	}
	return true, ""
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(n))
	slog.Debug("WebSocket client connected", "client", c.id, "clients", n)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(n))
	slog.Debug("WebSocket client disconnected", "client", c.id, "clients", n)
}

func (h *Hub) sendTo(c *wsClient, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to encode message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) readLoop(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket read failed", "client", c.id, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendTo(c, ServerMessage{Type: "error", Message: "invalid message"})
			continue
		}
		if ok, reason := h.Apply(msg); !ok {
			h.sendTo(c, ServerMessage{Type: "error", Message: reason})
			continue
		}
		h.Broadcast(h.ctrl.Status())
	}
}

func (h *Hub) writeLoop(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
