// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Message types for WebSocket communication
const (
	MsgTypeHello   = "HELLO"
	MsgTypeWeigh   = "WEIGH"
	MsgTypeResult  = "RESULT"
	MsgTypeGuess   = "GUESS"
	MsgTypeVerdict = "VERDICT"
	MsgTypeError   = "ERROR"
	MsgTypeReset   = "RESET"
)

// Message represents a WebSocket message
type Message struct {
	Type     string `json:"type"`
	PuzzleID string `json:"puzzleId,omitempty"`
	Coins    int    `json:"coins,omitempty"`
	Left     []int  `json:"left,omitempty"`
	Right    []int  `json:"right,omitempty"`
	Coin     *int   `json:"coin,omitempty"`
	Record   string `json:"record,omitempty"`
	Message  string `json:"message,omitempty"`
	Correct  bool   `json:"correct,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Hub fans out the messages of one puzzle to the player and any watchers.
type Hub struct {
	puzzleID string

	mu      sync.Mutex
	clients map[*wsClient]bool
}

// HubManager owns one Hub per puzzle with connected clients.
type HubManager struct {
	mu   sync.Mutex
	hubs map[string]*Hub
}

func NewHubManager() *HubManager {
	return &HubManager{hubs: make(map[string]*Hub)}
}

func (hm *HubManager) join(c *wsClient) *Hub {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	h, ok := hm.hubs[c.puzzleID]
	if !ok {
		h = &Hub{puzzleID: c.puzzleID, clients: make(map[*wsClient]bool)}
		hm.hubs[c.puzzleID] = h
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return h
}

func (hm *HubManager) leave(c *wsClient) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	h, ok := hm.hubs[c.puzzleID]
	if !ok {
		return
	}
	h.mu.Lock()
	delete(h.clients, c)
	empty := len(h.clients) == 0
	h.mu.Unlock()
	if empty {
		delete(hm.hubs, c.puzzleID)
	}
}

// Watchers returns the number of clients connected to the puzzle.
func (hm *HubManager) Watchers(puzzleID string) int {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	h, ok := hm.hubs[puzzleID]
	if !ok {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg Message) {
	h.broadcastExcept(nil, msg)
}

func (h *Hub) broadcastExcept(sender *wsClient, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c != sender {
			c.sendJSON(msg)
		}
	}
}

// wsClient is a middleman between the websocket connection and the hub.
type wsClient struct {
	hub       *Hub
	hm        *HubManager
	store     *PuzzleStore
	logger    *zap.Logger
	delay     time.Duration
	watchOnly bool

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan Message
	done chan struct{}

	puzzleID string
}

// serveWS upgrades the request and attaches the connection to a puzzle. A
// "puzzle" query parameter joins an existing puzzle as a watcher; without it
// a new puzzle is created and the connection plays it.
func serveWS(opts Options, store *PuzzleStore, hm *HubManager, w http.ResponseWriter, r *http.Request) {
	logger := opts.Logger
	puzzleID := r.URL.Query().Get("puzzle")
	watchOnly := puzzleID != ""
	var coins int
	if watchOnly {
		p, err := store.Get(puzzleID)
		if err != nil {
			http.Error(w, "Puzzle not found", http.StatusNotFound)
			return
		}
		coins = p.Coins
	} else {
		p, err := store.Create(opts.coins(), opts.FakeCoin)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		puzzleID = p.ID
		coins = p.Coins
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsClient{
		hm:        hm,
		store:     store,
		logger:    logger.With(zap.String("puzzle", puzzleID)),
		delay:     opts.WeighDelay,
		watchOnly: watchOnly,
		conn:      conn,
		send:      make(chan Message, 32),
		done:      make(chan struct{}),
		puzzleID:  puzzleID,
	}
	c.hub = hm.join(c)
	c.sendJSON(Message{Type: MsgTypeHello, PuzzleID: puzzleID, Coins: coins})

	go c.writePump()
	go c.readPump()
}

// readPump pumps messages from the websocket connection to the puzzle.
func (c *wsClient) readPump() {
	defer func() {
		c.hm.leave(c)
		close(c.done)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read", zap.Error(err))
			}
			break
		}
		if c.watchOnly {
			c.sendJSON(Message{Type: MsgTypeError, Error: "Watchers cannot play"})
			continue
		}

		switch msg.Type {
		case MsgTypeWeigh:
			c.handleWeigh(msg)
		case MsgTypeGuess:
			c.handleGuess(msg)
		case MsgTypeReset:
			// The player already cleared its own pans.
			c.hub.broadcastExcept(c, Message{Type: MsgTypeReset, PuzzleID: c.puzzleID})
		case "PING":
			c.sendJSON(Message{Type: "PONG"})
		default:
			c.logger.Warn("unknown message type", zap.String("type", msg.Type))
			c.sendJSON(Message{Type: MsgTypeError, Error: "Unknown message type"})
		}
	}
}

func (c *wsClient) handleWeigh(msg Message) {
	if c.delay > 0 {
		t := time.NewTimer(c.delay)
		select {
		case <-t.C:
		case <-c.done:
			t.Stop()
			return
		}
	}
	var rec string
	err := c.store.Update(c.puzzleID, func(p *Puzzle) error {
		var err error
		rec, err = p.Weigh(msg.Left, msg.Right)
		return err
	})
	if err != nil {
		c.logger.Info("weighing rejected", zap.Error(err))
		c.sendJSON(Message{Type: MsgTypeError, Error: err.Error()})
		return
	}
	c.logger.Debug("weighing", zap.String("record", rec))
	c.hub.broadcast(Message{Type: MsgTypeResult, PuzzleID: c.puzzleID, Record: rec})
}

func (c *wsClient) handleGuess(msg Message) {
	if msg.Coin == nil {
		c.sendJSON(Message{Type: MsgTypeError, Error: "Missing coin"})
		return
	}
	var correct bool
	var text string
	err := c.store.Update(c.puzzleID, func(p *Puzzle) error {
		var err error
		correct, text, err = p.Guess(*msg.Coin)
		return err
	})
	if err != nil {
		c.sendJSON(Message{Type: MsgTypeError, Error: err.Error()})
		return
	}
	c.logger.Info("guess", zap.Int("coin", *msg.Coin), zap.Bool("correct", correct))
	c.hub.broadcast(Message{Type: MsgTypeVerdict, PuzzleID: c.puzzleID, Coin: msg.Coin, Correct: correct, Message: text})
}

// writePump pumps messages from the hub to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) sendJSON(msg Message) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("send buffer full, dropping message", zap.String("type", msg.Type))
	}
}
