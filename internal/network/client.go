package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pythagorasdungeon/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Used when the config leaves the limit unset.
	defaultMaxMessageSize = 512
)

// Command types accepted from the views.
const (
	CommandStart         = "start"
	CommandAnswer        = "answer"
	CommandBuy           = "buy"
	CommandLeaveMerchant = "leave_merchant"
	CommandReset         = "reset"
	CommandSetName       = "set_name"
	CommandNewGame       = "new_game" // reset, then start
)

// Command represents an incoming message from the views.
type Command struct {
	Type   string `json:"type"`
	Value  *int   `json:"value,omitempty"`  // answer
	ItemID string `json:"itemId,omitempty"` // buy
	Name   string `json:"name,omitempty"`   // set_name
}

// CommandResult is the reply to one Command.
type CommandResult struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
	Correct *bool  `json:"correct,omitempty"` // answer only
	Error   string `json:"error,omitempty"`
}

// Client is one WebSocket connection attached to the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, max(1, hub.sendBuffer)),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
	}
}

// ReadPump pumps commands from the websocket connection into the engine.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	limit := c.hub.maxMessage
	if limit <= 0 {
		limit = defaultMaxMessageSize
	}
	c.conn.SetReadLimit(limit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.Get().RecordWSError()
				c.hub.logger.Warn("WebSocket read error: " + err.Error())
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn("Failed to parse Command from WebSocket: " + err.Error())
			c.reply(CommandResult{Command: "", OK: false, Error: "malformed command"})
			continue
		}

		c.reply(c.handleCommand(cmd))
	}
}

// handleCommand routes one command to the engine.
func (c *Client) handleCommand(cmd Command) CommandResult {
	eng := c.hub.engine
	res := CommandResult{Command: cmd.Type, OK: true}

	switch cmd.Type {
	case CommandStart:
		eng.StartGame()
	case CommandAnswer:
		if cmd.Value == nil {
			return CommandResult{Command: cmd.Type, Error: "missing value"}
		}
		correct := eng.SubmitAnswer(*cmd.Value)
		res.Correct = &correct
	case CommandBuy:
		res.OK = eng.BuyItem(cmd.ItemID)
	case CommandLeaveMerchant:
		eng.LeaveMerchant()
	case CommandReset:
		eng.ResetGame()
	case CommandNewGame:
		eng.ResetGame()
		eng.StartGame()
	case CommandSetName:
		eng.SetPlayerName(cmd.Name)
	default:
		c.hub.logger.Warn("Unknown command type: " + cmd.Type)
		return CommandResult{Command: cmd.Type, Error: "unknown command"}
	}

	c.hub.logger.Event("PLAYER_COMMAND", "PLAYER", cmd.Type)
	return res
}

// reply queues a result for this client only, followed by the state it produced.
func (c *Client) reply(res CommandResult) {
	payload, err := json.Marshal(ServerMessage{Type: "result", Result: &res})
	if err != nil {
		c.hub.logger.Error("Failed to serialize CommandResult: " + err.Error())
		return
	}
	c.enqueue(payload)

	if state, err := encodeState(c.hub.engine.Snapshot()); err == nil {
		c.enqueue(state)
	}
}

func (c *Client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
		metrics.Get().RecordWSError()
		c.hub.logger.Warn("Client send buffer full, dropping frame")
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// Each message is its own frame.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			metrics.Get().RecordWSMessage(false)
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.hub.done:
			return
		}
	}
}
