package socket

import (
	"net/http"
	"time"

	"collablist/pkg/logger"
	"collablist/store"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser front ends are served from other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and subscribes the connection to the
// collection named by the "collection" query parameter.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	raw := r.URL.Query().Get("collection")
	path, err := store.ParseCollectionPath(raw)
	if err != nil {
		logger.Sugar.Warnf("Connection rejected: %v", err)
		reject(conn, raw, "Invalid collection path.")
		return
	}
	if _, ok := store.LookupSchema(path.Collection); !ok {
		logger.Sugar.Warnf("Connection rejected: collection %s not found", path.Collection)
		reject(conn, raw, "Unknown collection.")
		return
	}

	client := &Client{
		Hub:        hub,
		Conn:       conn,
		Collection: path.String(),
		UserID:     userID,
		Send:       make(chan []byte, 256),
	}

	select {
	case hub.Register <- client:
	case <-hub.done:
		reject(conn, raw, "Server is shutting down.")
		return
	}

	go client.writePump()
	go client.readPump()
}

func reject(conn *websocket.Conn, path, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, errorMessage(path, message))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message))
	conn.Close()
}

// readPump only watches the connection: subscribers never send data, but
// reading is needed to process pongs and notice the peer going away.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection is dead
			}
		}
	}
}
