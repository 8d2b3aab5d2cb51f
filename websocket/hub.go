package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	NotificationTypeConnected    = "connected"
	NotificationTypeAuthResponse = "auth_response"

	sendBuffer = 16
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type         string      `json:"type"`
	Message      string      `json:"message"`
	Data         interface{} `json:"data,omitempty"`
	Email        string      `json:"email,omitempty"`
	RequiresAuth bool        `json:"requiresAuth,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	Email string
	Conn  *websocket.Conn
	send  chan Notification
	once  sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{Conn: conn, send: make(chan Notification, sendBuffer)}
}

// reply queues a direct response; it is only called from the client's own read loop,
// before the send channel can be closed.
func (c *Client) reply(n Notification) {
	select {
	case c.send <- n:
	default:
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub tracks connected clients by account email and delivers notifications to them.
// Delivery is best effort: a client whose buffer is full misses the message.
type Hub struct {
	clients         map[string]map[*Client]struct{}
	unauthenticated map[*Client]struct{}
	register        chan *Client
	unregister      chan *Client
	authenticate    chan authRequest
	done            chan struct{}
	mu              sync.RWMutex
	log             *logrus.Entry
}

type authRequest struct {
	client *Client
	email  string
}

// NewHub creates a new Hub instance
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		clients:         make(map[string]map[*Client]struct{}),
		unauthenticated: make(map[*Client]struct{}),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		authenticate:    make(chan authRequest),
		done:            make(chan struct{}),
		log:             logger.WithField("component", "websocket"),
	}
}

// Run starts the hub's event loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.add(client)
			h.mu.Unlock()
		case req := <-h.authenticate:
			h.mu.Lock()
			h.remove(req.client)
			req.client.Email = req.email
			h.add(req.client)
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			client.close()
		}
	}
}

// add and remove expect h.mu to be held.
func (h *Hub) add(client *Client) {
	if client.Email == "" {
		h.unauthenticated[client] = struct{}{}
		return
	}
	set, ok := h.clients[client.Email]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.Email] = set
	}
	set[client] = struct{}{}
}

func (h *Hub) remove(client *Client) {
	delete(h.unauthenticated, client)
	if set, ok := h.clients[client.Email]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, client.Email)
		}
	}
}

// closeAll drops every connection; the pumps notice and exit on their own.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			client.Conn.Close()
		}
	}
	for client := range h.unauthenticated {
		client.Conn.Close()
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.unauthenticated = make(map[*Client]struct{})
}

// submit hands a client event to the Run loop unless the hub has stopped.
func submit[T any](h *Hub, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.done:
		return false
	}
}

// SendToUser queues notification for every connection of email and reports how
// many connections it was queued on.
func (h *Hub) SendToUser(email string, notification Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients[email] {
		select {
		case client.send <- notification:
			sent++
		default:
			h.log.WithField("email", email).Warn("notification dropped, client buffer full")
		}
	}
	return sent
}

// NotifyUser delivers a workflow event to the user's open connections.
func (h *Hub) NotifyUser(email, kind, message string, data interface{}) {
	h.SendToUser(email, Notification{Type: kind, Message: message, Data: data, Email: email})
}

// Connected reports how many open connections email has.
func (h *Hub) Connected(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[email])
}
