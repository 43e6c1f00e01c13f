package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB
)

// Client is one live realtime connection bound to an authenticated
// identity. The same identity may own several clients (multi-device).
type Client struct {
	UserID   uint
	UserName string

	conn    *websocket.Conn
	send    chan []byte
	gateway *Gateway

	// rooms this connection has joined; guarded by the hub mutex.
	rooms map[string]struct{}
}

func newClient(gateway *Gateway, conn *websocket.Conn, userID uint, userName string) *Client {
	return &Client{
		UserID:   userID,
		UserName: userName,
		conn:     conn,
		send:     make(chan []byte, 256),
		gateway:  gateway,
		rooms:    make(map[string]struct{}),
	}
}

// enqueue queues a frame without blocking. Only the hub calls this, under
// its lock, so the send channel is never closed concurrently.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump reads frames from the connection and dispatches them in order.
// Dispatching stays on this goroutine so a sender's messages are relayed
// in the order they were sent.
func (c *Client) readPump() {
	defer func() {
		c.gateway.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.gateway.log.Warn("websocket read failed", "user_id", c.UserID, "error", err.Error())
			}
			break
		}
		c.gateway.dispatch(c, data)
	}
}

// writePump writes queued frames to the connection and keeps it alive
// with periodic pings. Exits when the hub closes the send channel or a
// write fails; the connection close then unblocks readPump.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			// Drain any frames queued behind this one.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
