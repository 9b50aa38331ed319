package ws

import (
	"encoding/json"

	"codecollab/internal/roomstore"
)

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "rooms/edit"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// Client-initiated events.
const (
	EvtJoin     = "rooms/join"
	EvtEdit     = "rooms/edit"
	EvtLanguage = "rooms/language"
	EvtOutput   = "rooms/output"
	EvtPeers    = "peers/list"
	EvtOffer    = "peers/offer"
	EvtAnswer   = "peers/answer"
)

// Server-initiated events. Edits, language and output changes are forwarded
// under the same event name the client sent them with.
const (
	EvtHello    = "hello"
	EvtSync     = "rooms/sync"
	EvtCount    = "rooms/count"
	EvtPeerLeft = "peers/left"
)

// ──────────────────────────── Request / Response DTOs ─────────────────────────

// HelloBody tells a freshly accepted connection its identifier.
type HelloBody struct {
	ID string `json:"id"`
}

// JoinRequest is the body for "rooms/join".
type JoinRequest struct {
	Room string `json:"room"`
}

// SyncBody is the full room snapshot pushed on join. It is the sole
// recovery mechanism for a connection that missed earlier forwards.
type SyncBody = roomstore.Snapshot

// EditRequest carries a localized mutation plus the sender's full resulting
// content. The delta is opaque to the server; it is forwarded verbatim.
type EditRequest struct {
	Room    string          `json:"room"`
	Delta   json.RawMessage `json:"delta,omitempty"`
	Content string          `json:"content"`
}

// EditForward is the fan-out for "rooms/edit".
type EditForward struct {
	Delta   json.RawMessage `json:"delta,omitempty"`
	Content string          `json:"content"`
}

type LanguageRequest struct {
	Room     string `json:"room"`
	Language string `json:"language"`
}

type LanguageForward struct {
	Language string `json:"language"`
}

type OutputRequest struct {
	Room   string   `json:"room"`
	Output []string `json:"output"`
}

type OutputForward struct {
	Output []string `json:"output"`
}

type CountBody struct {
	Count int `json:"count"`
}

type PeersRequest struct {
	Room string `json:"room"`
}

// PeerListBody answers "peers/list" with every other member of the room.
type PeerListBody struct {
	Peers []string `json:"peers"`
}

// OfferRequest asks the relay to forward an opaque handshake payload to one
// target connection.
type OfferRequest struct {
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// OfferForward is what the target receives: the payload tagged with the
// initiating connection's identifier.
type OfferForward struct {
	Sender  string          `json:"sender"`
	Payload json.RawMessage `json:"payload"`
}

type AnswerRequest struct {
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

type AnswerForward struct {
	Responder string          `json:"responder"`
	Payload   json.RawMessage `json:"payload"`
}

// PeerLeftBody names a departed connection so endpoints can tear down any
// handshake or media-channel state held for it.
type PeerLeftBody struct {
	Peer string `json:"peer"`
}

// Empty ACK body (useful for many handlers).
type AckBody struct{}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
