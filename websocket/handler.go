package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4096
)

// Authenticator resolves a bearer credential to the account email it was issued for.
type Authenticator interface {
	AuthenticateEmail(token string) (string, error)
}

// Handler upgrades requests to WebSocket connections registered with a Hub
type Handler struct {
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
}

// NewHandler accepts connections from allowedOrigins, or from anywhere when the list
// is empty.
func NewHandler(hub *Hub, auth Authenticator, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimSpace(o)] = true
	}
	return &Handler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// HandleWebSocket handles GET /ws. A client may pass its token as ?token= or send
// "AUTH:<token>" after connecting; only authenticated clients receive notifications.
func (h *Handler) HandleWebSocket(c echo.Context) error {
	email := ""
	if token := c.QueryParam("token"); token != "" {
		resolved, err := h.auth.AuthenticateEmail(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		}
		email = resolved
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(conn)
	client.Email = email
	if !submit(h.hub, h.hub.register, client) {
		conn.Close()
		return nil
	}

	welcome := Notification{Type: NotificationTypeConnected, Message: "WebSocket connection established", Email: email}
	if email == "" {
		welcome.Message = "WebSocket connection established. Please authenticate to receive notifications."
		welcome.RequiresAuth = true
	}
	client.reply(welcome)

	go h.writePump(client)
	go h.readPump(client)
	return nil
}

func (h *Handler) readPump(client *Client) {
	defer submit(h.hub, h.hub.unregister, client)

	client.Conn.SetReadLimit(maxMessage)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage || !strings.HasPrefix(string(message), "AUTH:") {
			continue
		}
		email, err := h.auth.AuthenticateEmail(strings.TrimPrefix(string(message), "AUTH:"))
		if err != nil {
			client.reply(Notification{Type: NotificationTypeAuthResponse, Message: "Authentication failed", RequiresAuth: true})
			continue
		}
		if !submit(h.hub, h.hub.authenticate, authRequest{client: client, email: email}) {
			return
		}
		client.reply(Notification{Type: NotificationTypeAuthResponse, Message: "Authenticated", Email: email})
	}
}

func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case n, ok := <-client.send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
