package ws

import (
	"sync"

	"go.uber.org/zap"
)

// room is the live connection set for one room key. The conns map is
// guarded by the Hub mutex; seq serializes "mutate store, then fan out"
// sequences so every member observes forwards for this room in server
// receipt order.
type room struct {
	seq   sync.Mutex
	conns map[string]*clientConn // connID -> conn
}

func newRoom() *room { return &room{conns: map[string]*clientConn{}} }

// broadcast sends one envelope to each connection. At-most-once: a failed
// write is logged and skipped; the failing connection's own reader loop
// handles its teardown.
func broadcast(conns []*clientConn, event string, body any) {
	for _, c := range conns {
		if err := c.writeEvent(event, body); err != nil {
			zap.L().Debug("ws.broadcast_drop", zap.String("conn", c.id), zap.Error(err))
		}
	}
}
