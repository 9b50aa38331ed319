package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// clientConn wraps a websocket connection with a write lock so the reader
// loop, room fan-out and pinger never interleave frames.
type clientConn struct {
	id      string
	rawConn *websocket.Conn
	mu      sync.Mutex
}

func (c *clientConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteJSON(v)
}

func (c *clientConn) writeEvent(event string, body any) error {
	return c.writeJSON(map[string]any{"event": event, "body": body})
}

func (c *clientConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *clientConn) close() {
	_ = c.rawConn.Close()
}
