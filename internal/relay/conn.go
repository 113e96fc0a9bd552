package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the duplex-socket handle the hub owns. Implementations must allow
// concurrent sends; the hub fans out to many conns in parallel.
type Conn interface {
	ID() string
	SendText(data []byte) error
	SendBinary(data []byte) error
	Close() error
}

// wsConn wraps a gorilla websocket connection with write serialization and a
// per-write deadline. Reads stay with the endpoint's read loop.
type wsConn struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu sync.Mutex
}

func newWSConn(conn *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{
		id:           uuid.New().String(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) SendText(data []byte) error {
	return c.write(websocket.TextMessage, data)
}

func (c *wsConn) SendBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *wsConn) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
