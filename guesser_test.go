package main

import (
	"io"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FuYoshi/lol-guesser/games/guesser"
)

// serverMessage is the union of every message the hub sends.
type serverMessage struct {
	Type          string   `json:"type"`
	GameID        string   `json:"game_id"`
	IsPlayer      bool     `json:"is_player"`
	State         string   `json:"state"`
	Score         int      `json:"score"`
	Difficulty    int      `json:"difficulty"`
	MaxDifficulty int      `json:"max_difficulty"`
	Slots         []string `json:"slots"`
	Question      string   `json:"question"`
	Size          int      `json:"size"`
	Icons         []string `json:"icons"`
	Index         int      `json:"index"`
	Correct       bool     `json:"correct"`
	Message       string   `json:"message"`
}

func seededConfig() *Config {
	cfg := validConfig()
	cfg.seed = 42
	return cfg
}

func dialGame(t *testing.T, baseURL, gameID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/guesser/" + gameID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(msg))
}

func icons(level guesser.Level) []string {
	out := make([]string, len(level.Spells))
	for i, s := range level.Spells {
		out[i] = s.Icon
	}
	return out
}

// expectedLevels replays the boards a seeded game deals.
func expectedLevels(t *testing.T, cfg *Config, gameID string, size int, slots []guesser.Slot, n int) []guesser.Level {
	t.Helper()

	rng := newRNG(cfg, gameID)
	data := testChampionData(16)

	levels := make([]guesser.Level, n)
	for i := range levels {
		level, err := guesser.GenerateLevel(rng, data, size, slots)
		require.NoError(t, err)
		levels[i] = level
	}

	return levels
}

func TestNewGameRedirect(t *testing.T) {
	srv := newTestServer(t, validConfig())

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(srv.URL + "/guesser")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Regexp(t, regexp.MustCompile(`^/guesser/[A-Za-z0-9]{8}$`), resp.Header.Get("Location"))
}

func TestQRCode(t *testing.T) {
	srv := newTestServer(t, validConfig())

	resp, err := http.Get(srv.URL + "/guesser/AbCd1234/qr")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	magic := make([]byte, 4)
	_, err = io.ReadFull(resp.Body, magic)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(magic))
}

func TestInvalidGameID(t *testing.T) {
	srv := newTestServer(t, validConfig())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/guesser/not-valid/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGameFlow(t *testing.T) {
	cfg := seededConfig()
	srv := newTestServer(t, cfg)
	expected := expectedLevels(t, cfg, "Game0001", 2, []guesser.Slot{guesser.SlotQ}, 2)

	conn := dialGame(t, srv.URL, "Game0001")

	info := readMessage(t, conn)
	assert.Equal(t, "session_info", info.Type)
	assert.Equal(t, "Game0001", info.GameID)
	assert.True(t, info.IsPlayer)
	assert.Equal(t, "inactive", info.State)
	assert.Equal(t, 3, info.Difficulty)
	assert.Equal(t, 7, info.MaxDifficulty)
	assert.Len(t, info.Slots, 5)

	send(t, conn, map[string]any{"type": "start", "difficulty": 2, "slots": []string{"q"}})

	level := readMessage(t, conn)
	require.Equal(t, "level", level.Type)
	assert.Equal(t, 2, level.Size)
	assert.Equal(t, 0, level.Score)
	assert.Equal(t, expected[0].Question(), level.Question)
	assert.Equal(t, icons(expected[0]), level.Icons)
	for _, icon := range level.Icons {
		assert.Contains(t, icon, "/img/spell/")
	}

	// A hit is marked, then a fresh board follows.
	send(t, conn, map[string]any{"type": "guess", "index": expected[0].AnswerIndex})

	mark := readMessage(t, conn)
	assert.Equal(t, "mark", mark.Type)
	assert.Equal(t, expected[0].AnswerIndex, mark.Index)
	assert.True(t, mark.Correct)

	level = readMessage(t, conn)
	require.Equal(t, "level", level.Type)
	assert.Equal(t, 1, level.Score)
	assert.Equal(t, icons(expected[1]), level.Icons)

	// A miss ends the run.
	wrong := (expected[1].AnswerIndex + 1) % 4
	send(t, conn, map[string]any{"type": "guess", "index": wrong})

	mark = readMessage(t, conn)
	assert.Equal(t, "mark", mark.Type)
	assert.Equal(t, wrong, mark.Index)
	assert.False(t, mark.Correct)

	restart := readMessage(t, conn)
	assert.Equal(t, "restart", restart.Type)
	assert.Equal(t, 1, restart.Score)

	// Once over, the right cell is still marked but nothing is dealt.
	send(t, conn, map[string]any{"type": "guess", "index": expected[1].AnswerIndex})

	mark = readMessage(t, conn)
	assert.Equal(t, "mark", mark.Type)
	assert.True(t, mark.Correct)

	send(t, conn, map[string]any{"type": "guess", "index": 99})

	bad := readMessage(t, conn)
	assert.Equal(t, "error", bad.Type)
	assert.Contains(t, bad.Message, "not on the board")
}

func TestStartRejectsBadSettings(t *testing.T) {
	srv := newTestServer(t, seededConfig())
	conn := dialGame(t, srv.URL, "Game0002")
	_ = readMessage(t, conn)

	send(t, conn, map[string]any{"type": "start", "difficulty": 8})

	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "between 1 and 7")

	send(t, conn, map[string]any{"type": "start", "difficulty": 2, "slots": []string{"X"}})

	msg = readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "Unknown ability slot")

	send(t, conn, map[string]any{"type": "guess"})

	msg = readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "cell index")
}

func TestMalformedMessageKeepsConnection(t *testing.T) {
	srv := newTestServer(t, seededConfig())
	conn := dialGame(t, srv.URL, "Game0009")
	_ = readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"guess","index":"x"}`)))

	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "Unable to read")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

	msg = readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)

	// Still connected and playable.
	send(t, conn, map[string]any{"type": "start", "difficulty": 1})

	level := readMessage(t, conn)
	assert.Equal(t, "level", level.Type)
	assert.Equal(t, 1, level.Size)
}

func TestStartUsesDefaultDifficulty(t *testing.T) {
	srv := newTestServer(t, seededConfig())
	conn := dialGame(t, srv.URL, "Game0003")
	_ = readMessage(t, conn)

	send(t, conn, map[string]any{"type": "start"})

	level := readMessage(t, conn)
	require.Equal(t, "level", level.Type)
	assert.Equal(t, 3, level.Size)
	assert.Len(t, level.Icons, 9)
}

func TestWatcherSeesBoardButCannotPlay(t *testing.T) {
	cfg := seededConfig()
	srv := newTestServer(t, cfg)
	expected := expectedLevels(t, cfg, "Game0004", 2, nil, 2)

	player := dialGame(t, srv.URL, "Game0004")
	_ = readMessage(t, player)

	send(t, player, map[string]any{"type": "start", "difficulty": 2})
	_ = readMessage(t, player)

	watcher := dialGame(t, srv.URL, "Game0004")

	info := readMessage(t, watcher)
	assert.Equal(t, "session_info", info.Type)
	assert.False(t, info.IsPlayer)
	assert.Equal(t, "active", info.State)
	assert.Equal(t, 2, info.Difficulty)

	// A late joiner gets the board in play.
	level := readMessage(t, watcher)
	require.Equal(t, "level", level.Type)
	assert.Equal(t, icons(expected[0]), level.Icons)

	send(t, watcher, map[string]any{"type": "start", "difficulty": 1})

	msg := readMessage(t, watcher)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Message, "watching")

	send(t, player, map[string]any{"type": "guess", "index": expected[0].AnswerIndex})

	for _, conn := range []*websocket.Conn{player, watcher} {
		mark := readMessage(t, conn)
		assert.Equal(t, "mark", mark.Type)
		assert.True(t, mark.Correct)

		level := readMessage(t, conn)
		assert.Equal(t, "level", level.Type)
		assert.Equal(t, 1, level.Score)
		assert.Equal(t, icons(expected[1]), level.Icons)
	}
}

func TestGameManager(t *testing.T) {
	cfg := validConfig()
	gm := newGameManager(0, testChampionData(4))

	hub := gm.getHub(cfg, "Game0005")
	assert.Same(t, hub, gm.getHub(cfg, "Game0005"))
	assert.NotSame(t, hub, gm.getHub(cfg, "Game0006"))

	id := gm.newGameID()
	assert.Len(t, id, 8)
	assert.True(t, validGameID(id))

	hub.closeAll()

	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub not stopped")
	}
}

func TestReaperRemovesIdleGames(t *testing.T) {
	cfg := validConfig()
	gm := newGameManager(20*time.Millisecond, testChampionData(4))

	hub := gm.getHub(cfg, "Game0007")

	assert.Eventually(t, func() bool {
		gm.mu.Lock()
		defer gm.mu.Unlock()
		_, ok := gm.hubs["Game0007"]
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("reaped hub not stopped")
	}
}

func TestValidGameID(t *testing.T) {
	assert.True(t, validGameID("AbCd1234"))
	assert.True(t, validGameID("x"))
	assert.False(t, validGameID(""))
	assert.False(t, validGameID("not-valid"))
	assert.False(t, validGameID(strings.Repeat("a", 33)))
}

func TestSeededGamesRepeat(t *testing.T) {
	cfg := seededConfig()

	a, b := newRNG(cfg, "Game0008"), newRNG(cfg, "Game0008")
	for range 10 {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}
