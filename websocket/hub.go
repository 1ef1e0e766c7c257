package websocket

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"campusflow/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	role string
}

type connectionHub struct {
	clients map[*client]bool
	mutex   sync.Mutex
}

var hub = &connectionHub{clients: make(map[*client]bool)}

// authenticateUpgrade resolves the caller for a websocket handshake.
// Browsers cannot set an Authorization header on the upgrade request,
// so the token travels in a `token` query parameter or in the
// Sec-WebSocket-Protocol field as `bearer, <token>`.
func authenticateUpgrade(r *http.Request) (*utils.Claims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if protocols := websocket.Subprotocols(r); len(protocols) == 2 && protocols[0] == "bearer" {
			token = protocols[1]
		}
	}
	if token == "" {
		return nil, errors.New("missing websocket token")
	}

	claims, err := utils.ValidateJWT(token)
	if err != nil {
		return nil, err
	}
	if claims == nil || claims.UserID == "" {
		return nil, errors.New("invalid websocket token")
	}
	return claims, nil
}

// ServeWS authenticates the handshake, upgrades the connection and
// registers the client with the hub. Dashboards subscribe here for live
// request-status and tally updates.
func ServeWS(w http.ResponseWriter, r *http.Request) {
	claims, err := authenticateUpgrade(r)
	if err != nil {
		log.Printf("WebSocket handshake rejected: %v", err)
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64), role: claims.Role}

	hub.mutex.Lock()
	hub.clients[c] = true
	hub.mutex.Unlock()

	log.Printf("WebSocket client connected (%d total)", clientCount())

	go c.writePump()
	go c.readPump()
}

func clientCount() int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.clients)
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs are processed, and unregisters
// on disconnect.
func (c *client) readPump() {
	defer func() {
		hub.mutex.Lock()
		delete(hub.clients, c)
		hub.mutex.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
