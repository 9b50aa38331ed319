package roomhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codecollab/internal/roomstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter map[string]int

func (f fixedCounter) Count(roomKey string) int { return f[roomKey] }

type fakeRunner struct {
	lines []string
	lang  roomstore.Language
	code  string
}

func (f *fakeRunner) Run(_ context.Context, lang roomstore.Language, content string) []string {
	f.lang = lang
	f.code = content
	return f.lines
}

func newTestRouter(store *roomstore.Store, counter MemberCounter, r *fakeRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	New(store, counter, r).Register(engine)
	return engine
}

func TestRoomInfo(t *testing.T) {
	store := roomstore.New()
	store.GetOrCreate("abc123")
	store.SetContent("abc123", "print(1)\n")
	store.SetLanguage("abc123", roomstore.LangPython)

	engine := newTestRouter(store, fixedCounter{"abc123": 2}, &fakeRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms/abc123", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res RoomInfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "print(1)\n", res.Content)
	assert.Equal(t, "python", res.Language)
	assert.Equal(t, 2, res.Members)
}

func TestRoomInfoUnknown(t *testing.T) {
	engine := newTestRouter(roomstore.New(), fixedCounter{}, &fakeRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms/nope", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecute(t *testing.T) {
	runner := &fakeRunner{lines: []string{"1", "2"}}
	engine := newTestRouter(roomstore.New(), fixedCounter{}, runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/execute",
		strings.NewReader(`{"language":"python","content":"print(1)"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res ExecuteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"1", "2"}, res.Output)
	assert.Equal(t, roomstore.LangPython, runner.lang)
	assert.Equal(t, "print(1)", runner.code)
}

func TestExecuteRejectsUnknownLanguage(t *testing.T) {
	engine := newTestRouter(roomstore.New(), fixedCounter{}, &fakeRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/execute",
		strings.NewReader(`{"language":"cobol","content":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
