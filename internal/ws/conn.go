// ABOUTME: Connection wraps a websocket with a buffered outbound write pump
// ABOUTME: Send never blocks; a saturated client is closed to bound backpressure

package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 128
)

// ErrConnClosed is returned by Send after the connection has shut down.
var ErrConnClosed = errors.New("connection closed")

// Connection is one live websocket session. It implements room.Conn: the
// registry and broadcaster address it only through ID and Send.
type Connection struct {
	id     string
	userID string

	ws     *websocket.Conn
	send   chan []byte
	once   sync.Once
	closed chan struct{}
	logger *slog.Logger
}

func newConnection(userID string, ws *websocket.Conn, logger *slog.Logger) *Connection {
	return &Connection{
		id:     uuid.New().String(),
		userID: userID,
		ws:     ws,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
		logger: logger,
	}
}

// ID uniquely identifies this transport session.
func (c *Connection) ID() string { return c.id }

// UserID is the employee id authenticated at the handshake.
func (c *Connection) UserID() string { return c.userID }

// Send enqueues an event envelope for delivery. It never blocks: if the
// client has fallen far enough behind to fill the buffer, the connection is
// closed instead - the client rejoins and recovers from the snapshot.
func (c *Connection) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encoding %s envelope: %w", event, err)
	}

	select {
	case <-c.closed:
		return ErrConnClosed
	case c.send <- frame:
		return nil
	default:
		c.close(websocket.CloseGoingAway, "send buffer full")
		return fmt.Errorf("%w: send buffer full", ErrConnClosed)
	}
}

// close shuts the connection down exactly once.
func (c *Connection) close(code int, reason string) {
	c.once.Do(func() {
		close(c.closed)
		deadline := time.Now().Add(writeWait)
		_ = c.ws.SetWriteDeadline(deadline)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
		c.logger.Debug("connection closed", "conn_id", c.id, "reason", reason)
	})
}

// writeLoop drains the send buffer onto the socket and keeps the client
// alive with pings. Runs until the connection closes.
func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case frame := <-c.send:
			if err := c.writeFrame(frame); err != nil {
				c.close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				c.close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) writeFrame(frame []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
