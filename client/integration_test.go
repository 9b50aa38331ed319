package client

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codecollab/internal/roomstore"
	"codecollab/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	srv := ws.NewWsServer(hub, roomstore.New())
	engine := gin.New()
	engine.GET("/ws", srv.Handle)

	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestTwoClientsConverge(t *testing.T) {
	url := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts := make(chan int, 8)
	langs := make(chan string, 8)
	outputs := make(chan []string, 8)
	offers := make(chan string, 1)
	answers := make(chan string, 1)
	lefts := make(chan string, 1)

	a, err := Dial(ctx, url, nil, Handlers{
		OnAnswer: func(responder string, _ json.RawMessage) { answers <- responder },
	})
	require.NoError(t, err)
	defer a.Close()
	require.NotEmpty(t, a.ID())

	require.NoError(t, a.Join(ctx, "abc123"))
	assert.Equal(t, string(roomstore.DefaultLanguage), a.Language())
	assert.Equal(t, roomstore.DefaultLanguage.Template(), a.Content())

	b, err := Dial(ctx, url, nil, Handlers{
		OnCount:    func(n int) { counts <- n },
		OnLanguage: func(l string) { langs <- l },
		OnOutput:   func(lines []string) { outputs <- lines },
		OnOffer:    func(sender string, _ json.RawMessage) { offers <- sender },
		OnPeerLeft: func(peer string) { lefts <- peer },
	})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Join(ctx, "abc123"))
	assert.Equal(t, a.Content(), b.Content(), "joiner gets the room's current snapshot")

	// A rewrites the document; B's buffer must converge via the forward.
	require.NoError(t, a.Edit(Delta{Start: 0, End: len(a.Content()), Text: "print(1)\n"}))
	require.Eventually(t, func() bool { return b.Content() == "print(1)\n" },
		2*time.Second, 10*time.Millisecond)

	// Language and output ride the same path.
	require.NoError(t, a.SetLanguage("python"))
	assert.Equal(t, "python", recv(t, langs))

	require.NoError(t, a.SetOutput([]string{"1"}))
	assert.Equal(t, []string{"1"}, recv(t, outputs))
	require.NoError(t, a.ClearOutput())
	assert.Empty(t, recv(t, outputs))

	// Handshake round trip through the relay.
	peers, err := a.RequestPeers(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{b.ID()}, peers)

	require.NoError(t, a.SendOffer(b.ID(), json.RawMessage(`{"sdp":"offer"}`)))
	assert.Equal(t, a.ID(), recv(t, offers))
	require.NoError(t, b.SendAnswer(a.ID(), json.RawMessage(`{"sdp":"answer"}`)))
	assert.Equal(t, b.ID(), recv(t, answers))

	// A drops; B hears about it by identifier and by count.
	require.NoError(t, a.Close())
	assert.Equal(t, a.ID(), recv(t, lefts))
	require.Eventually(t, func() bool {
		for {
			select {
			case n := <-counts:
				if n == 1 {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func recv[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		panic("unreachable")
	}
}
