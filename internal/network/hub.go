// Package network is the shell transport: it streams engine snapshots to
// WebSocket clients and feeds their commands back into the engine.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pythagorasdungeon/server/internal/engine"
	"github.com/pythagorasdungeon/server/internal/platform/config"
	"github.com/pythagorasdungeon/server/internal/platform/logger"
	"github.com/pythagorasdungeon/server/internal/platform/metrics"
)

// GameEngine is the part of *engine.Engine the transport drives.
type GameEngine interface {
	Snapshot() engine.Snapshot
	StartGame()
	SubmitAnswer(value int) bool
	BuyItem(id string) bool
	LeaveMerchant()
	ResetGame()
	SetPlayerName(name string)
}

// ServerMessage is every frame the server sends.
type ServerMessage struct {
	Type   string           `json:"type"` // "state" or "result"
	State  *engine.Snapshot `json:"state,omitempty"`
	Result *CommandResult   `json:"result,omitempty"`
}

// Hub maintains the set of active clients and broadcasts snapshots to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns
	mu         sync.Mutex

	engine       GameEngine
	pollInterval time.Duration
	sendBuffer   int
	maxMessage   int64
	upgrader     websocket.Upgrader
	logger       *logger.Logger
}

// NewHub initializes a new WebSocket Hub over eng.
func NewHub(eng GameEngine, cfg *config.Config, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:    make(chan []byte),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		clients:      make(map[*Client]bool),
		engine:       eng,
		pollInterval: cfg.PollInterval,
		sendBuffer:   cfg.ClientSendBuffer,
		maxMessage:   cfg.MaxMessageSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // the views are served from a dev server on another port
			},
		},
		logger: log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.conn.Close()
				metrics.Get().RecordWSConnection(-1)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client: it misses this frame and catches up on the next revision.
					metrics.Get().RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// StartStatePoller samples the engine every poll interval and broadcasts a
// snapshot whenever its revision moved. Ticks, pacing callbacks and commands
// from any client all surface this way.
func (h *Hub) StartStatePoller(ctx context.Context) {
	go func() {
		poll := time.NewTicker(h.pollInterval)
		defer poll.Stop()

		var lastRevision uint64
		first := true

		for {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
				snap := h.engine.Snapshot()
				if !first && snap.Revision == lastRevision {
					continue
				}
				first = false
				lastRevision = snap.Revision

				payload, err := encodeState(snap)
				if err != nil {
					h.logger.Errorf("Failed to serialize snapshot for broadcast: %v", err)
					continue
				}
				select {
				case h.broadcast <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.Get().RecordWSError()
		h.logger.Error("Failed to upgrade websocket connection: " + err.Error())
		return
	}

	client := NewClient(h, conn)

	// New clients render immediately instead of waiting for the next revision.
	if payload, err := encodeState(h.engine.Snapshot()); err == nil {
		client.send <- payload
	}
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}

// encodeState frames a snapshot for the views. The answer stays on the server.
func encodeState(snap engine.Snapshot) ([]byte, error) {
	view := snap.Redacted()
	return json.Marshal(ServerMessage{Type: "state", State: &view})
}
