package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"PokerSync/internal/events"
	"PokerSync/internal/game/engine"
	"PokerSync/internal/game/table"
	"PokerSync/internal/leaderboard"
	"PokerSync/internal/sim"
	"PokerSync/internal/websocket"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmitter struct {
	mu   sync.Mutex
	sent []events.Outgoing
}

func (m *mockEmitter) Emit(msg events.Outgoing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockEmitter) last() events.Outgoing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func newServer(t *testing.T, em events.Emitter) (*engine.Engine, *gin.Engine) {
	t.Helper()
	eng := engine.New(engine.Options{
		Username: "Alice",
		Avatar:   "avatar1",
		Clock:    clockwork.NewFakeClock(),
		Stats:    leaderboard.NewMemoryStore(),
	}, em)
	return eng, NewRouter(eng, nil, []string{rendererOrigin}, nil)
}

const rendererOrigin = "http://127.0.0.1:7070"

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func playDefault(t *testing.T, eng *engine.Engine) {
	t.Helper()
	envs, err := sim.Play(sim.DefaultScript())
	require.NoError(t, err)
	for _, env := range envs {
		eng.Handle(env)
	}
}

func aliceTurn(t *testing.T, eng *engine.Engine) {
	t.Helper()
	env, err := events.NewEnvelope(events.GameUpdate, map[string]any{
		"room_id":        "123456",
		"status":         "flop",
		"current_player": "Alice",
		"pot":            60,
		"players": []map[string]any{
			{"username": "Alice", "chips": 980},
			{"username": "Bob", "chips": 980},
		},
	})
	require.NoError(t, err)
	eng.Handle(env)
}

func TestHealth(t *testing.T) {
	_, r := newServer(t, &mockEmitter{})
	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestReadViewsAfterHand(t *testing.T) {
	eng, r := newServer(t, &mockEmitter{})
	playDefault(t, eng)

	w := do(t, r, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st StateResponse
	decode(t, w, &st)
	assert.Equal(t, "Alice", st.Username)
	assert.Equal(t, "123456", st.RoomID)
	assert.Equal(t, table.PhaseFinished, st.Snapshot.Phase)
	// 一手结束后底牌清空，快照里仍保留本手的牌
	assert.Empty(t, st.HoleCards)
	me, ok := st.Snapshot.Player("Alice")
	require.True(t, ok)
	assert.Len(t, me.Cards, 2)

	w = do(t, r, http.MethodGet, "/leaderboard/room", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var room struct {
		Entries []leaderboard.RoomEntry `json:"entries"`
	}
	decode(t, w, &room)
	require.NotEmpty(t, room.Entries)
	assert.Equal(t, "Alice", room.Entries[0].Username)
	assert.Equal(t, int64(1340), room.Entries[0].Chips)

	w = do(t, r, http.MethodGet, "/leaderboard/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		Entries []leaderboard.HistoryEntry `json:"entries"`
	}
	decode(t, w, &hist)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, int64(1340), hist.Entries[0].HighestChips)

	w = do(t, r, http.MethodGet, "/result", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res events.Result
	decode(t, w, &res)
	require.Len(t, res.Winners, 1)
	assert.Equal(t, "Alice", res.Winners[0].Username)

	w = do(t, r, http.MethodGet, "/timer", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"idle"`)
}

func TestResultNotFoundBeforeAnyHand(t *testing.T) {
	_, r := newServer(t, &mockEmitter{})
	w := do(t, r, http.MethodGet, "/result", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryCursorRoutes(t *testing.T) {
	eng, r := newServer(t, &mockEmitter{})
	playDefault(t, eng)

	var v engine.HistoryView
	w := do(t, r, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &v)
	assert.Len(t, v.Frames, 5)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, "Pre-flop", v.Stage)

	w = do(t, r, http.MethodPost, "/history/next", nil)
	decode(t, w, &v)
	assert.Equal(t, 1, v.Index)
	assert.Equal(t, "Flop", v.Stage)

	w = do(t, r, http.MethodPost, "/history/seek", gin.H{"index": 4})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &v)
	assert.Equal(t, 4, v.Index)
	assert.Equal(t, 1.0, v.Progress)
	assert.Equal(t, "Showdown", v.Stage)

	w = do(t, r, http.MethodPost, "/history/prev", nil)
	decode(t, w, &v)
	assert.Equal(t, 3, v.Index)

	// index 缺失
	w = do(t, r, http.MethodPost, "/history/seek", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/history/hands", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestActRoute(t *testing.T) {
	em := &mockEmitter{}
	eng, r := newServer(t, em)

	// 还没轮到自己
	w := do(t, r, http.MethodPost, "/actions", gin.H{"action": "call"})
	assert.Equal(t, http.StatusConflict, w.Code)

	aliceTurn(t, eng)
	w = do(t, r, http.MethodPost, "/actions", gin.H{"action": "raise"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "raise needs an amount")

	w = do(t, r, http.MethodPost, "/actions", gin.H{"action": "dance"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/actions", gin.H{"action": "raise", "amount": 40})
	require.Equal(t, http.StatusOK, w.Code)
	msg := em.last()
	assert.Equal(t, events.PlayerAction, msg.Event)
	p, ok := msg.Data.(events.ActionPayload)
	require.True(t, ok)
	assert.Equal(t, events.Raise, p.Action)
	assert.Equal(t, int64(40), p.Amount)
}

func TestRoomRoutes(t *testing.T) {
	em := &mockEmitter{}
	_, r := newServer(t, em)

	w := do(t, r, http.MethodPost, "/start-game", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "no room yet")

	w = do(t, r, http.MethodPost, "/rooms", gin.H{"roomId": "654321", "settings": gin.H{"small_blind": 5, "big_blind": 10}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "654321")
	join, ok := em.last().Data.(events.JoinPayload)
	require.True(t, ok)
	assert.True(t, join.IsHost)
	assert.Equal(t, int64(10), join.BigBlind)

	w = do(t, r, http.MethodPost, "/start-game", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, events.StartGame, em.last().Event)

	w = do(t, r, http.MethodPost, "/next-game", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, events.NextGame, em.last().Event)

	w = do(t, r, http.MethodPost, "/rooms/join", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/rooms/join", gin.H{"roomId": "111111"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "111111", em.last().Data.(events.JoinPayload).Room)

	w = do(t, r, http.MethodPost, "/chat", gin.H{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodPost, "/chat", gin.H{"message": "gg"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, events.Chat, em.last().Event)
}

func TestNoTransportIsUnavailable(t *testing.T) {
	_, r := newServer(t, nil)
	w := do(t, r, http.MethodPost, "/rooms", gin.H{})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBridgePushesSnapshots(t *testing.T) {
	em := &mockEmitter{}
	eng := engine.New(engine.Options{Username: "Alice", Clock: clockwork.NewFakeClock()}, em)
	hub := websocket.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	var seen int
	eng.OnSnapshot = func(table.RoomSnapshot) { seen++ }
	Bridge(eng, hub)

	srv := httptest.NewServer(NewRouter(eng, hub, []string{rendererOrigin}, nil))
	defer srv.Close()
	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	aliceTurn(t, eng)
	assert.Equal(t, 1, seen, "existing hook still runs")

	got := map[string]bool{}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for !got[PushSnapshot] {
		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		got[msg.Event] = true
	}
}

func TestForeignOriginRefused(t *testing.T) {
	em := &mockEmitter{}
	eng, r := newServer(t, em)
	aliceTurn(t, eng)

	pre := httptest.NewRequest(http.MethodOptions, "/actions", nil)
	pre.Header.Set("Origin", "https://evil.example")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, pre)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// 不走预检的简单请求也要拒绝
	req := httptest.NewRequest(http.MethodPost, "/actions", strings.NewReader(`{"action":"all-in"}`))
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	em.mu.Lock()
	assert.Empty(t, em.sent, "nothing may reach the server")
	em.mu.Unlock()
}

func TestRendererOriginAllowed(t *testing.T) {
	em := &mockEmitter{}
	eng, r := newServer(t, em)
	aliceTurn(t, eng)

	pre := httptest.NewRequest(http.MethodOptions, "/actions", nil)
	pre.Header.Set("Origin", rendererOrigin)
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, pre)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, rendererOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))

	req := httptest.NewRequest(http.MethodPost, "/actions", strings.NewReader(`{"action":"check"}`))
	req.Header.Set("Origin", rendererOrigin)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, events.PlayerAction, em.last().Event)
}

func TestNoAllowedOriginsMeansSameOriginOnly(t *testing.T) {
	eng := engine.New(engine.Options{Username: "Alice", Clock: clockwork.NewFakeClock()}, &mockEmitter{})
	r := NewRouter(eng, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Origin", rendererOrigin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 同源请求（Origin 与 Host 一致）放行
	req = httptest.NewRequest(http.MethodGet, "http://127.0.0.1:7070/state", nil)
	req.Header.Set("Origin", "http://127.0.0.1:7070")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
