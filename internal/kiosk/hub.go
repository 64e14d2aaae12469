package kiosk

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second
	// pongWait is how long a connection may stay silent before the read
	// side gives up on it.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait so the peer always has a
	// ping to answer.
	pingPeriod = (pongWait * 9) / 10
	// sendBuffer is the per-client outbound queue. Preview frames are
	// dropped once it fills; a client that cannot even keep up with
	// events gets disconnected.
	sendBuffer = 16
)

type message struct {
	kind int
	data []byte
}

// Client is one connected kiosk page. All writes to the underlying
// connection happen on the client's writer goroutine.
type Client struct {
	conn *websocket.Conn
	send chan message
}

// SendEvent queues a JSON event for this client only. Used for the
// snapshot a page receives right after connecting.
func (c *Client) SendEvent(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- message{kind: websocket.TextMessage, data: data}:
	default:
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
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

// Hub fans events and preview frames out to every connected kiosk page.
type Hub struct {
	logger  *zap.Logger
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger.Named("kiosk"),
		clients: make(map[*Client]struct{}),
	}
}

// Attach wraps a freshly upgraded connection, starts its writer and
// registers it for broadcasts.
func (h *Hub) Attach(conn *websocket.Conn) *Client {
	client := &Client{
		conn: conn,
		send: make(chan message, sendBuffer),
	}
	go client.writeLoop()

	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("kiosk client connected", zap.Int("total", total))
	return client
}

// Detach removes the client and closes its outbound queue, which stops
// the writer goroutine. Safe to call more than once.
func (h *Hub) Detach(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("kiosk client disconnected", zap.Int("total", total))
	}
}

// BroadcastEvent sends a JSON event to every client. A client whose
// queue is full is too far behind to render a coherent UI, so it gets
// disconnected and may reconnect for a fresh snapshot.
func (h *Hub) BroadcastEvent(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to encode kiosk event", zap.Error(err))
		return
	}

	var stalled []*Client
	h.mu.Lock()
	for client := range h.clients {
		select {
		case client.send <- message{kind: websocket.TextMessage, data: data}:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.Unlock()

	for _, client := range stalled {
		h.logger.Warn("dropping stalled kiosk client")
		h.Detach(client)
	}
}

// BroadcastFrame pushes one JPEG preview frame as a binary message.
// Slow clients simply miss frames; the next one replaces it anyway.
func (h *Hub) BroadcastFrame(jpegData []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- message{kind: websocket.BinaryMessage, data: jpegData}:
		default:
		}
	}
}

// ClientCount reports how many kiosk pages are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client, for shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		h.Detach(client)
	}
}
