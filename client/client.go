// Package client implements the endpoint half of the room replication
// protocol: it keeps a local buffer converged with the server's
// authoritative snapshot and exposes the signaling endpoints needed to set
// up direct peer channels.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"codecollab/internal/ws"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var ErrClosed = errors.New("connection closed")

// Handlers receive server-initiated events. All callbacks are optional and
// are invoked from the client's single read loop.
type Handlers struct {
	OnLanguage func(language string)
	OnOutput   func(lines []string)
	OnCount    func(count int)
	OnOffer    func(sender string, payload json.RawMessage)
	OnAnswer   func(responder string, payload json.RawMessage)
	OnPeerLeft func(peer string)
	OnError    func(msg string)
	OnClose    func(err error)
}

type Client struct {
	conn     *websocket.Conn
	editor   Editor
	handlers Handlers

	// suppress marks the scope of a single remote buffer mutation so the
	// editor's resulting change event is not re-emitted as a local edit.
	// It is set and cleared synchronously around that one call, never
	// across an asynchronous boundary.
	suppress atomic.Bool

	mu       sync.Mutex
	id       string
	room     string
	language string
	output   []string

	pendMu  sync.Mutex
	pending map[string]chan json.RawMessage

	writeMu sync.Mutex
	post    func(event string, body any) error // swapped out in unit tests

	helloCh chan struct{}
	closed  chan struct{}
}

// Dial connects, waits for the server's hello frame (which carries this
// connection's relay identifier) and starts the read loop.
func Dial(ctx context.Context, url string, editor Editor, h Handlers) (*Client, error) {
	if editor == nil {
		editor = NewBuffer()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:     conn,
		editor:   editor,
		handlers: h,
		pending:  make(map[string]chan json.RawMessage),
		helloCh:  make(chan struct{}),
		closed:   make(chan struct{}),
	}
	c.post = c.send

	go c.readLoop()

	select {
	case <-c.helloCh:
		return c, nil
	case <-c.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		_ = conn.Close()
		return nil, ctx.Err()
	}
}

// ID is the connection identifier assigned by the server; peers address
// handshake messages to it.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) Content() string { return c.editor.Content() }

func (c *Client) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

func (c *Client) Output() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.output...)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// ─────────────────────────────── operations ─────────────────────────────────

// Join enters the room and blocks until the server's snapshot sync lands in
// the local buffer.
func (c *Client) Join(ctx context.Context, room string) error {
	ch := c.await(ws.EvtSync)
	if err := c.post(ws.EvtJoin, ws.JoinRequest{Room: room}); err != nil {
		return err
	}
	select {
	case <-ch:
		c.mu.Lock()
		c.room = room
		c.mu.Unlock()
		return nil
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EmitEdit publishes a locally produced mutation together with the full
// resulting content. Calls made while a remote mutation is being applied
// are discarded: they are the editor echoing the remote change back.
func (c *Client) EmitEdit(d Delta) error {
	if c.suppress.Load() {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	return c.post(ws.EvtEdit, ws.EditRequest{Room: room, Delta: raw, Content: c.editor.Content()})
}

// Edit applies a mutation to the local buffer and publishes it.
func (c *Client) Edit(d Delta) error {
	if !c.editor.ApplyDelta(d) {
		return errors.New("delta out of bounds")
	}
	return c.EmitEdit(d)
}

// SetLanguage switches the room's language for every member.
func (c *Client) SetLanguage(language string) error {
	c.mu.Lock()
	c.language = language
	room := c.room
	c.mu.Unlock()
	return c.post(ws.EvtLanguage, ws.LanguageRequest{Room: room, Language: language})
}

// SetOutput replaces the room's output lines for every member.
func (c *Client) SetOutput(lines []string) error {
	if lines == nil {
		lines = []string{}
	}
	c.mu.Lock()
	c.output = append([]string(nil), lines...)
	room := c.room
	c.mu.Unlock()
	return c.post(ws.EvtOutput, ws.OutputRequest{Room: room, Output: lines})
}

// ClearOutput is SetOutput(nil); repeated calls converge to the same empty
// output everywhere.
func (c *Client) ClearOutput() error { return c.SetOutput(nil) }

// RequestPeers asks for the other members of the current room, the first
// step of per-peer handshake initiation.
func (c *Client) RequestPeers(ctx context.Context) ([]string, error) {
	ch := c.await(ws.EvtPeers + "-ack")
	c.mu.Lock()
	room := c.room
	c.mu.Unlock()
	if err := c.post(ws.EvtPeers, ws.PeersRequest{Room: room}); err != nil {
		return nil, err
	}
	select {
	case body := <-ch:
		var res ws.PeerListBody
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, err
		}
		return res.Peers, nil
	case <-c.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendOffer relays an opaque handshake payload to one peer. Fire and
// forget: a vanished target is dropped server-side without an error.
func (c *Client) SendOffer(target string, payload json.RawMessage) error {
	return c.post(ws.EvtOffer, ws.OfferRequest{Target: target, Payload: payload})
}

// SendAnswer returns the handshake to the initiating peer.
func (c *Client) SendAnswer(target string, payload json.RawMessage) error {
	return c.post(ws.EvtAnswer, ws.AnswerRequest{Target: target, Payload: payload})
}

// ─────────────────────────────── read loop ──────────────────────────────────

func (c *Client) readLoop() {
	var readErr error
	defer func() {
		close(c.closed)
		_ = c.conn.Close()
		if c.handlers.OnClose != nil {
			c.handlers.OnClose(readErr)
		}
	}()

	for {
		var env ws.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			readErr = err
			return
		}
		c.handleEvent(env)
	}
}

func (c *Client) handleEvent(env ws.Envelope) {
	switch env.Event {
	case ws.EvtHello:
		var body ws.HelloBody
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return
		}
		c.mu.Lock()
		first := c.id == ""
		c.id = body.ID
		c.mu.Unlock()
		if first {
			close(c.helloCh)
		}

	case ws.EvtSync:
		var body ws.SyncBody
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return
		}
		c.applyRemote(func() { c.editor.ReplaceContent(body.Content) })
		c.mu.Lock()
		c.language = string(body.Language)
		c.output = body.Output
		c.mu.Unlock()
		c.deliver(env.Event, env.Body)

	case ws.EvtEdit:
		var body ws.EditForward
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return
		}
		c.mergeEdit(body)

	case ws.EvtLanguage:
		var body ws.LanguageForward
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return
		}
		c.mu.Lock()
		c.language = body.Language
		c.mu.Unlock()
		if c.handlers.OnLanguage != nil {
			c.handlers.OnLanguage(body.Language)
		}

	case ws.EvtOutput:
		var body ws.OutputForward
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return
		}
		c.mu.Lock()
		c.output = body.Output
		c.mu.Unlock()
		if c.handlers.OnOutput != nil {
			c.handlers.OnOutput(body.Output)
		}

	case ws.EvtCount:
		var body ws.CountBody
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return
		}
		if c.handlers.OnCount != nil {
			c.handlers.OnCount(body.Count)
		}

	case ws.EvtOffer:
		var body ws.OfferForward
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return
		}
		if c.handlers.OnOffer != nil {
			c.handlers.OnOffer(body.Sender, body.Payload)
		}

	case ws.EvtAnswer:
		var body ws.AnswerForward
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return
		}
		if c.handlers.OnAnswer != nil {
			c.handlers.OnAnswer(body.Responder, body.Payload)
		}

	case ws.EvtPeerLeft:
		var body ws.PeerLeftBody
		if err := json.Unmarshal(env.Body, &body); err != nil {
			return
		}
		if c.handlers.OnPeerLeft != nil {
			c.handlers.OnPeerLeft(body.Peer)
		}

	case "error":
		var body ws.ErrorBody
		_ = json.Unmarshal(env.Body, &body)
		if c.handlers.OnError != nil {
			c.handlers.OnError(body.Error)
		} else {
			zap.L().Warn("client.server_error", zap.String("error", body.Error))
		}

	default:
		// Acks for our own requests; anything unrecognized is ignored.
		c.deliver(env.Event, env.Body)
	}
}

// mergeEdit merges a forwarded edit into the local buffer: delta preferred,
// full content only when the delta is absent or does not fit.
func (c *Client) mergeEdit(f ws.EditForward) {
	applied := false
	if len(f.Delta) > 0 {
		var d Delta
		if err := json.Unmarshal(f.Delta, &d); err == nil {
			c.applyRemote(func() { applied = c.editor.ApplyDelta(d) })
		}
	}
	if !applied {
		c.applyRemote(func() { c.editor.ReplaceContent(f.Content) })
	}
}

// applyRemote runs a single buffer mutation with local-edit emission
// suppressed for exactly its duration.
func (c *Client) applyRemote(mutate func()) {
	c.suppress.Store(true)
	defer c.suppress.Store(false)
	mutate()
}

// ─────────────────────────────── plumbing ───────────────────────────────────

func (c *Client) send(event string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(ws.Envelope{Event: event, Body: raw})
}

func (c *Client) await(event string) chan json.RawMessage {
	ch := make(chan json.RawMessage, 1)
	c.pendMu.Lock()
	c.pending[event] = ch
	c.pendMu.Unlock()
	return ch
}

func (c *Client) deliver(event string, body json.RawMessage) {
	c.pendMu.Lock()
	ch, ok := c.pending[event]
	if ok {
		delete(c.pending, event)
	}
	c.pendMu.Unlock()
	if ok {
		ch <- body
	}
}
