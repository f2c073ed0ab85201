// LoL Guesser
//
// The player is shown a square board of ability icons and the name of one
// ability, and has to click the matching icon. A hit scores a point and deals
// a new board; a miss ends the run until the player starts over.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - First connection to a game becomes the player; later ones watch along
// - Players identified by cookie (playerID), so a reload keeps control
// - Difficulty (grid side length) and mode (enabled ability slots) per run
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current game, backed by go-qrcode

package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	mrand "math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/FuYoshi/lol-guesser/games/guesser"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Messages coming from clients
type ClientMessage struct {
	Type       string   `json:"type"`                 // "start", "guess"
	Difficulty int      `json:"difficulty,omitempty"` // start
	Slots      []string `json:"slots,omitempty"`      // start
	Index      *int     `json:"index,omitempty"`      // guess
}

// SessionInfoMessage is sent immediately on connect so the client can fill
// in its settings page and knows whether it may play.
type SessionInfoMessage struct {
	Type          string   `json:"type"` // "session_info"
	GameID        string   `json:"game_id"`
	IsPlayer      bool     `json:"is_player"`
	State         string   `json:"state"`
	Score         int      `json:"score"`
	Difficulty    int      `json:"difficulty"`
	MaxDifficulty int      `json:"max_difficulty"`
	Slots         []string `json:"slots"`
}

// LevelMessage carries a new board. Names stay server-side; only the answer
// is named, in the question.
type LevelMessage struct {
	Type     string   `json:"type"` // "level"
	Question string   `json:"question"`
	Size     int      `json:"size"`
	Icons    []string `json:"icons"`
	Score    int      `json:"score"`
}

// MarkMessage tells clients to colour a clicked cell.
type MarkMessage struct {
	Type    string `json:"type"` // "mark"
	Index   int    `json:"index"`
	Correct bool   `json:"correct"`
}

// RestartMessage reveals the restart control after a miss.
type RestartMessage struct {
	Type  string `json:"type"` // "restart"
	Score int    `json:"score"`
}

// SimpleMessage is for errors and notices sent to a single client.
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type clientRequest struct {
	client *Client
	msg    ClientMessage
	err    error // set when the frame could not be decoded
}

type Hub struct {
	id      string
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	requests chan clientRequest
	done     chan struct{}

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
	playerID   string // cookie of the first connection; the only one allowed to play

	session *guesser.Session
	level   guesser.Level // last board shown, used to map guesses back to cells
}

func newHub(cfg *Config, gameID string, data guesser.ChampionData) *Hub {
	now := time.Now()
	h := &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		requests:   make(chan clientRequest),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
	h.session = guesser.NewSession(data, newRNG(cfg, gameID), h)

	return h
}

// newRNG seeds each game independently. With --seed set, a game ID always
// deals the same sequence of boards.
func newRNG(cfg *Config, gameID string) *mrand.Rand {
	if cfg.seed == 0 {
		return mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64()))
	}

	sum := fnv.New64a()
	_, _ = sum.Write([]byte(gameID))

	return mrand.New(mrand.NewPCG(cfg.seed, sum.Sum64()))
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()

			if h.playerID == "" {
				h.playerID = c.playerID
			}

			h.clients[c] = true

			c.send <- h.sessionInfoLocked(cfg, c)
			if h.level.Spells != nil {
				c.send <- h.levelMessageLocked(h.level, h.session.Score())
			}

			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.requests:
			if req.err != nil {
				h.handleMalformed(cfg, req)
				continue
			}

			switch req.msg.Type {
			case "start":
				h.handleStart(cfg, req)
			case "guess":
				h.handleGuess(cfg, req)
			}

		case <-h.done:
			return
		}
	}
}

func (h *Hub) sessionInfoLocked(cfg *Config, c *Client) SessionInfoMessage {
	difficulty := h.session.Difficulty()
	if difficulty == 0 {
		difficulty = cfg.difficulty
	}

	slots := h.session.Slots()
	if len(slots) == 0 {
		slots = guesser.AllSlots
	}
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = string(s)
	}

	return SessionInfoMessage{
		Type:          "session_info",
		GameID:        h.id,
		IsPlayer:      c.playerID == h.playerID,
		State:         h.session.State().String(),
		Score:         h.session.Score(),
		Difficulty:    difficulty,
		MaxDifficulty: cfg.maxDifficulty,
		Slots:         names,
	}
}

func (h *Hub) levelMessageLocked(level guesser.Level, score int) LevelMessage {
	icons := make([]string, len(level.Spells))
	for i, s := range level.Spells {
		icons[i] = s.Icon
	}

	return LevelMessage{
		Type:     "level",
		Question: level.Question(),
		Size:     level.Size,
		Icons:    icons,
		Score:    score,
	}
}

// broadcastLocked sends msg to every client, dropping the ones that can't
// keep up. h.mu must be held.
func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// replyLocked sends msg to a single client. h.mu must be held.
func (h *Hub) replyLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// The Presenter methods are only ever called by h.session from inside
// handleStart and handleGuess, with h.mu held.

func (h *Hub) ShowLevel(level guesser.Level, score int) {
	h.level = level
	h.broadcastLocked(h.levelMessageLocked(level, score))
}

func (h *Hub) MarkGuess(spell guesser.Spell, correct bool) {
	for i, s := range h.level.Spells {
		if s.Champion == spell.Champion && s.Slot == spell.Slot {
			h.broadcastLocked(MarkMessage{
				Type:    "mark",
				Index:   i,
				Correct: correct,
			})
			return
		}
	}
}

func (h *Hub) ShowRestart(score int) {
	h.broadcastLocked(RestartMessage{
		Type:  "restart",
		Score: score,
	})
}

// handleMalformed answers frames that are not a valid ClientMessage.
func (h *Hub) handleMalformed(cfg *Config, req clientRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	logf(cfg, "GAMES: Malformed message in %s: %v", h.id, req.err)
	h.replyLocked(req.client, SimpleMessage{
		Type:    "error",
		Message: "Unable to read that message.",
	})
}

// handleStart processes "start" messages.
func (h *Hub) handleStart(cfg *Config, req clientRequest) {
	c := req.client
	msg := req.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if c.playerID != h.playerID {
		h.replyLocked(c, SimpleMessage{
			Type:    "error",
			Message: "You are watching this game; only its player can start it.",
		})
		return
	}

	difficulty := msg.Difficulty
	if difficulty == 0 {
		difficulty = cfg.difficulty
	}
	if difficulty < 1 || difficulty > cfg.maxDifficulty {
		h.replyLocked(c, SimpleMessage{
			Type:    "error",
			Message: fmt.Sprintf("Difficulty must be between 1 and %d.", cfg.maxDifficulty),
		})
		return
	}

	slots, err := guesser.ParseSlots(msg.Slots)
	if err != nil {
		h.replyLocked(c, SimpleMessage{
			Type:    "error",
			Message: "Unknown ability slot; pick from Q, W, E, R and P.",
		})
		return
	}

	if err := h.session.Start(difficulty, slots); err != nil {
		logf(cfg, "GAMES: Unable to start %s: %v", h.id, err)
		h.replyLocked(c, SimpleMessage{
			Type:    "error",
			Message: "Unable to deal a board with these settings.",
		})
		return
	}

	logf(cfg, "GAMES: Started %s at %dx%d with slots %v", h.id, difficulty, difficulty, slots)
}

// handleGuess processes a click on a board cell.
func (h *Hub) handleGuess(cfg *Config, req clientRequest) {
	c := req.client
	msg := req.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	if c.playerID != h.playerID {
		return
	}

	if msg.Index == nil {
		h.replyLocked(c, SimpleMessage{
			Type:    "error",
			Message: "A guess needs a cell index.",
		})
		return
	}

	correct, err := h.session.GuessAt(*msg.Index)
	switch {
	case errors.Is(err, guesser.ErrInvalidGuess):
		h.replyLocked(c, SimpleMessage{
			Type:    "error",
			Message: "That cell is not on the board.",
		})
		return
	case err != nil:
		logf(cfg, "GAMES: Unable to deal next board for %s: %v", h.id, err)
		h.broadcastLocked(SimpleMessage{
			Type:    "error",
			Message: "Unable to deal the next board.",
		})
		return
	}

	if correct {
		logf(cfg, "GAMES: Correct guess in %s, score %d", h.id, h.session.Score())
	} else {
		logf(cfg, "GAMES: Incorrect guess in %s (%s)", h.id, h.session.State())
	}
}

// closeAll disconnects all clients of this hub and stops it (used by reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}

	close(h.done)
}

var upgrader = websocket.Upgrader{
	HandshakeTimeout: timeout,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "lolguesser_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated game.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	data        guesser.ChampionData
}

func newGameManager(idleTimeout time.Duration, data guesser.ChampionData) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		data:        data,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gameID, gm.data)
	gm.hubs[gameID] = hub
	go hub.run(cfg)
	return hub
}

const gameIDLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = gameIDLetters[int(buf[i])%len(gameIDLetters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// validGameID keeps hand-typed IDs to the alphabet and length range the
// server would generate itself.
func validGameID(id string) bool {
	if id == "" || len(id) > 32 {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(gameIDLetters, r) {
			return false
		}
	}
	return true
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(gm.hubs, id)
				go hub.closeAll()
			}
		}
		gm.mu.Unlock()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: websocket upgrade for %s: %v", gameID, err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req clientRequest
		req.client = c
		if err := json.Unmarshal(frame, &req.msg); err != nil {
			req.err = err
		} else if req.msg.Type != "start" && req.msg.Type != "guess" {
			// ignore unknown types
			continue
		}

		select {
		case h.requests <- req:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveQR generates a PNG QR code for the current game URL using go-qrcode.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validGameID(ps.ByName("gameid")) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := cfg.scheme()
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validGameID(ps.ByName("gameid")) {
			http.NotFound(w, r)
			return
		}

		page, err := assets.ReadFile("assets/guesser/index.html")
		if err != nil {
			panic(err)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)
		cspGame(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write(page)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerGuesserGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerGuesserGame(cfg *Config, path string, data guesser.ChampionData, mux *httprouter.Router) *GameManager {
	gm := newGameManager(cfg.sessionTimeout, data)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", serveQR(cfg))

	return gm
}
