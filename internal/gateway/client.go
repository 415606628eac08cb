package gateway

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ybarkan/wagate/internal/host"
	"github.com/ybarkan/wagate/internal/logging"
)

// sendQueueDepth bounds per-client buffering. A reader that falls this far
// behind starts losing events rather than stalling the broadcast path.
const sendQueueDepth = 64

type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	log    *logging.Logger

	mu      sync.Mutex
	closed  bool
	dropped int
}

func newClient(conn *websocket.Conn, log *logging.Logger) *client {
	return &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendQueueDepth),
		log:  log,
	}
}

// enqueue queues one serialized event for delivery, dropping it if the
// client's queue is full.
func (c *client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.dropped++
		if c.dropped == 1 || c.dropped%100 == 0 {
			c.log.Warn().Str("connId", c.id).Int("dropped", c.dropped).Msg("slow client, dropping events")
		}
	}
}

// writeLoop drains the send queue to the socket. It exits when close()
// closes the channel.
func (c *client) writeLoop() {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.log.Debug().Err(err).Str("connId", c.id).Msg("write failed")
			return
		}
	}
}

// readLoop parses incoming command lines until the socket closes.
// Malformed frames are skipped, matching the stdin command reader.
func (c *client) readLoop(handle func(host.Command)) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Str("connId", c.id).Msg("client closed connection")
			}
			return
		}

		var cmd host.Command
		if err := json.Unmarshal(msg, &cmd); err != nil || cmd.Type == "" {
			c.log.Warn().Str("connId", c.id).Msg("ignoring malformed command frame")
			continue
		}

		c.log.Debug().Str("connId", c.id).Str("type", cmd.Type).Msg("command received")
		if handle != nil {
			handle(cmd)
		}
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.conn.Close()
}
