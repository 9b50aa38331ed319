package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"codecollab/internal/roomstore"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 25 * time.Second // must be < pongWait
	maxFrameSize = 1 << 20          // full document snapshots ride every edit
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dev-only
}

type WsServer struct {
	hub    *Hub
	store  *roomstore.Store
	router *Router
}

func NewWsServer(h *Hub, store *roomstore.Store) *WsServer {
	srv := &WsServer{
		hub:    h,
		store:  store,
		router: NewRouter(),
	}
	srv.registerHandlers() // ← all WS endpoints configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxFrameSize)

	// ─────────────────── Client connected ────────────────────────
	conn := &clientConn{id: uuid.NewString(), rawConn: rawConn}
	s.hub.Track(conn)

	// The connection learns its relay address first.
	if err := conn.writeEvent(EvtHello, HelloBody{ID: conn.id}); err != nil {
		zap.L().Warn("ws.hello", zap.Error(err))
	}

	go s.reader(conn)
	go s.pinger(conn)
}

// ---------------------------------------------------------------------------
//  Event handlers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 rooms/join -----------------------------------------------------------
	Register(
		s.router,
		EvtJoin,
		func(ctx context.Context, cc *ConnContext, req JoinRequest) (AckBody, error) {
			if req.Room == "" {
				return AckBody{}, errors.New("missing_room")
			}

			// Membership first, then the lazy create: once the joiner is a
			// member the room cannot hit zero count and be reaped underneath.
			prev, hadPrev := s.hub.Join(cc.ConnID, req.Room)
			if hadPrev && prev != req.Room {
				s.afterLeave(cc.ConnID, prev)
			}
			snap := s.store.GetOrCreate(req.Room)

			if conn, ok := s.hub.Conn(cc.ConnID); ok {
				_ = conn.writeEvent(EvtSync, snap)
			}
			s.hub.ForwardOrdered(req.Room, "", nil,
				EvtCount, CountBody{Count: s.hub.Count(req.Room)})
			return AckBody{}, nil
		},
	)

	// 🔹 rooms/edit -----------------------------------------------------------
	Register(
		s.router,
		EvtEdit,
		func(ctx context.Context, cc *ConnContext, req EditRequest) (AckBody, error) {
			// Authoritative snapshot is refreshed whether or not a delta came
			// along; the delta itself is forwarded verbatim, uninspected.
			s.hub.ForwardOrdered(req.Room, cc.ConnID,
				func() { s.store.SetContent(req.Room, req.Content) },
				EvtEdit, EditForward{Delta: req.Delta, Content: req.Content})
			return AckBody{}, nil
		},
	)

	// 🔹 rooms/language -------------------------------------------------------
	Register(
		s.router,
		EvtLanguage,
		func(ctx context.Context, cc *ConnContext, req LanguageRequest) (AckBody, error) {
			lang := roomstore.Language(req.Language)
			if !lang.Valid() {
				return AckBody{}, errors.New("unknown_language")
			}
			s.hub.ForwardOrdered(req.Room, cc.ConnID,
				func() { s.store.SetLanguage(req.Room, lang) },
				EvtLanguage, LanguageForward{Language: req.Language})
			return AckBody{}, nil
		},
	)

	// 🔹 rooms/output ---------------------------------------------------------
	Register(
		s.router,
		EvtOutput,
		func(ctx context.Context, cc *ConnContext, req OutputRequest) (AckBody, error) {
			if req.Output == nil {
				req.Output = []string{}
			}
			s.hub.ForwardOrdered(req.Room, cc.ConnID,
				func() { s.store.SetOutput(req.Room, req.Output) },
				EvtOutput, OutputForward{Output: req.Output})
			return AckBody{}, nil
		},
	)

	// 🔹 peers/list -----------------------------------------------------------
	Register(
		s.router,
		EvtPeers,
		func(ctx context.Context, cc *ConnContext, req PeersRequest) (PeerListBody, error) {
			return PeerListBody{Peers: s.hub.OtherMembers(req.Room, cc.ConnID)}, nil
		},
	)

	// 🔹 peers/offer ----------------------------------------------------------
	Register(
		s.router,
		EvtOffer,
		func(ctx context.Context, cc *ConnContext, req OfferRequest) (AckBody, error) {
			s.relay(req.Target, EvtOffer, OfferForward{Sender: cc.ConnID, Payload: req.Payload})
			return AckBody{}, nil
		},
	)

	// 🔹 peers/answer ---------------------------------------------------------
	Register(
		s.router,
		EvtAnswer,
		func(ctx context.Context, cc *ConnContext, req AnswerRequest) (AckBody, error) {
			s.relay(req.Target, EvtAnswer, AnswerForward{Responder: cc.ConnID, Payload: req.Payload})
			return AckBody{}, nil
		},
	)
}

// relay forwards an opaque handshake payload to one target connection. A
// target that disconnected before the handshake completed is dropped
// silently; the sender is not told.
func (s *WsServer) relay(target, event string, body any) {
	conn, ok := s.hub.Conn(target)
	if !ok {
		zap.L().Debug("ws.relay_target_gone", zap.String("target", target))
		return
	}
	if err := conn.writeEvent(event, body); err != nil {
		zap.L().Debug("ws.relay_write", zap.String("target", target), zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
//  Connection lifecycle
// ---------------------------------------------------------------------------

func (s *WsServer) reader(conn *clientConn) {
	defer func() {
		s.disconnect(conn)
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{ConnID: conn.id, Server: s}

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1900*time.Millisecond)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			_ = conn.writeJSON(map[string]any{
				"event": "error",
				"body":  ErrorBody{Error: err.Error()},
			})
			continue
		}

		// ---- success -> {"event":"<evt>-ack", "body":{...}} --------
		reply := map[string]any{"event": env.Event + "-ack"}
		if res != nil {
			reply["body"] = res
		}
		_ = conn.writeJSON(reply)
	}
}

// disconnect runs synchronously on the close event so no stale membership
// entry outlives the connection.
func (s *WsServer) disconnect(conn *clientConn) {
	roomKey, wasMember := s.hub.Untrack(conn.id)
	conn.close()
	if !wasMember {
		return // never joined a room: nothing to broadcast
	}
	s.afterLeave(conn.id, roomKey)
}

// afterLeave notifies a vacated room's remaining members and reaps the room
// state at zero membership.
func (s *WsServer) afterLeave(connID, roomKey string) {
	n := s.hub.Count(roomKey)
	if n == 0 {
		s.store.Remove(roomKey)
		return
	}
	s.hub.ForwardOrdered(roomKey, "", nil, EvtCount, CountBody{Count: n})
	// Count alone is not enough for the audio layer: it needs the concrete
	// identifier to tear its channel state down.
	s.hub.ForwardOrdered(roomKey, "", nil, EvtPeerLeft, PeerLeftBody{Peer: connID})
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.ping(); err != nil {
			conn.close()
			return
		}
	}
}
