package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/nightfall/internal/protocol"
)

// Client is a WebSocket client for the nightfall gateway
type Client struct {
	serverURL        string
	conn             *websocket.Conn
	send             chan *protocol.Message
	receive          chan *protocol.Message
	logger           *log.Logger
	ctx              context.Context
	cancel           context.CancelFunc
	mu               sync.RWMutex
	connected        bool
	playerID         string
	name             string
	group            string
	closeOnce        sync.Once
	handshakeTimeout time.Duration

	// Event handlers
	eventHandlers map[protocol.MessageType][]EventHandler
}

// EventHandler is a function that handles incoming messages
type EventHandler func(*protocol.Message)

// NewClient creates a new WebSocket client
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:        serverURL,
		send:             make(chan *protocol.Message, 256),
		receive:          make(chan *protocol.Message, 256),
		logger:           logger.WithPrefix("client"),
		ctx:              ctx,
		cancel:           cancel,
		handshakeTimeout: 10 * time.Second,
		eventHandlers:    make(map[protocol.MessageType][]EventHandler),
	}
}

// SetHandshakeTimeout overrides the dial handshake timeout
func (c *Client) SetHandshakeTimeout(d time.Duration) {
	c.handshakeTimeout = d
}

// Connect establishes a WebSocket connection to the gateway
func (c *Client) Connect() error {
	c.logger.Info("Connecting to gateway", "url", c.serverURL)

	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	// Convert http/https to ws/wss
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	// Add WebSocket path
	u.Path = "/ws"

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = c.handshakeTimeout

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	c.logger.Info("Connected to gateway")
	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close() // Ignore close errors during shutdown
			c.connected = false
		}

		close(c.send)
		close(c.receive)

		c.logger.Info("Disconnected from gateway")
	})
	return nil
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SendMessage sends a message to the gateway
func (c *Client) SendMessage(msg *protocol.Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

// readPump handles incoming messages from the gateway
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg protocol.Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.logger.Debug("Received message", "type", msg.Type)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the gateway
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second) // Ping interval
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// eventProcessor processes incoming messages and dispatches to handlers
func (c *Client) eventProcessor() {
	for {
		select {
		case msg := <-c.receive:
			c.handleMessage(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches messages to registered handlers
func (c *Client) handleMessage(msg *protocol.Message) {
	c.mu.RLock()
	handlers, exists := c.eventHandlers[msg.Type]
	c.mu.RUnlock()

	if exists {
		for _, handler := range handlers {
			go handler(msg) // Handle asynchronously
		}
	} else {
		c.logger.Debug("No handler for message type", "type", msg.Type)
	}
}

// AddEventHandler adds an event handler for a specific message type
func (c *Client) AddEventHandler(messageType protocol.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

// Hello introduces this client to the gateway. An empty playerID asks the
// gateway to mint one; passing a previous id resumes that identity.
func (c *Client) Hello(name, playerID string) error {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()

	msg, err := protocol.NewMessage(protocol.MessageTypeHello, protocol.HelloData{
		Name:     name,
		PlayerID: playerID,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// NewGame asks the gateway to open a lobby. An empty group lets the gateway
// mint a shareable handle.
func (c *Client) NewGame(group string) error {
	msg, err := protocol.NewMessage(protocol.MessageTypeNewGame, protocol.NewGameData{
		Group: group,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// JoinGame joins the lobby in the given group
func (c *Client) JoinGame(group string) error {
	msg, err := protocol.NewMessage(protocol.MessageTypeJoinGame, protocol.JoinGameData{
		Group: group,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// ListPlayers requests the player list for a group
func (c *Client) ListPlayers(group string) error {
	msg, err := protocol.NewMessage(protocol.MessageTypeListPlayers, protocol.ListPlayersData{
		Group: group,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// GameStatus requests the current status of a group's game
func (c *Client) GameStatus(group string) error {
	msg, err := protocol.NewMessage(protocol.MessageTypeGameStatus, protocol.GameStatusData{
		Group: group,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// BeginGame deals roles and opens the first night
func (c *Client) BeginGame(group string) error {
	msg, err := protocol.NewMessage(protocol.MessageTypeBeginGame, protocol.BeginGameData{
		Group: group,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// StartNight opens the next night after a concluded day
func (c *Client) StartNight(group string) error {
	msg, err := protocol.NewMessage(protocol.MessageTypeStartNight, protocol.StartNightData{
		Group: group,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// EndNight resolves the night with the actions submitted so far
func (c *Client) EndNight(group string) error {
	msg, err := protocol.NewMessage(protocol.MessageTypeEndNight, protocol.EndNightData{
		Group: group,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// NightAction submits a night choice for the role this player holds. The
// target is a player id taken from the night menu.
func (c *Client) NightAction(role, target string) error {
	msg, err := protocol.NewMessage(protocol.MessageTypeNightAction, protocol.NightActionData{
		Role:   role,
		Target: target,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// Vote casts a day vote against the named player
func (c *Client) Vote(group, target string) error {
	msg, err := protocol.NewMessage(protocol.MessageTypeVote, protocol.VoteData{
		Group:  group,
		Target: target,
	})
	if err != nil {
		return err
	}

	return c.SendMessage(msg)
}

// SetIdentity records the identity acknowledged by the gateway's welcome
func (c *Client) SetIdentity(playerID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.name = name
}

// PlayerID returns the identity acknowledged by the gateway
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// Name returns the display name
func (c *Client) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetGroup sets the group this client is playing in
func (c *Client) SetGroup(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.group = group
}

// Group returns the group this client is playing in
func (c *Client) Group() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group
}

// WaitForMessage waits for a specific message type with timeout
func (c *Client) WaitForMessage(messageType protocol.MessageType, timeout time.Duration) (*protocol.Message, error) {
	responseChan := make(chan *protocol.Message, 1)

	// Add temporary handler
	handler := func(msg *protocol.Message) {
		select {
		case responseChan <- msg:
		default:
		}
	}

	c.AddEventHandler(messageType, handler)

	// Wait for response or timeout
	select {
	case msg := <-responseChan:
		return msg, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for %s", messageType)
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}
