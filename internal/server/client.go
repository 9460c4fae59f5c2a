package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 8 << 10

	// sendQueueSize bounds the per-connection outbound buffer. A full
	// queue means the connection is too slow to keep; it gets closed.
	sendQueueSize = 64
)

// client is one authenticated WebSocket connection.
type client struct {
	server   *Server
	conn     *websocket.Conn
	identity string

	// mu guards send, seq, and closed. Anyone holding a room snapshot
	// may call enqueue, so the channel is only ever closed under mu and
	// enqueue never touches a closed channel.
	mu     sync.Mutex
	send   chan Frame
	seq    int64
	closed bool

	// gameID is the room the client currently sits in. Guarded by the
	// hub's mutex.
	gameID string
}

func newClient(s *Server, conn *websocket.Conn, identity string) *client {
	return &client{
		server:   s,
		conn:     conn,
		identity: identity,
		send:     make(chan Frame, sendQueueSize),
	}
}

// enqueue queues an outbound payload, assigning the connection's next
// sequence number. A full queue shuts the client down rather than block
// the game for everyone else. Frames for an already-closed client are
// dropped.
func (c *client) enqueue(typ string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.seq++
	frame, err := newFrame(typ, c.seq, payload)
	if err != nil {
		log.Errorf("client %s: encoding %s: %v", c.identity, typ, err)
		return
	}

	select {
	case c.send <- frame:
	default:
		log.Warningf("client %s: send queue full, dropping connection", c.identity)
		c.closed = true
		close(c.send)
	}
}

// shutdown closes the send channel exactly once. writePump drains the
// channel, writes the close frame, and tears the connection down.
func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump reads frames until the connection dies and dispatches them.
func (c *client) readPump() {
	defer func() {
		c.server.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("client %s: read: %v", c.identity, err)
			}
			return
		}
		c.server.handleFrame(c, frame)
	}
}

// writePump drains the send queue and keeps the connection pinged.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
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
