package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/nightfall/internal/game"
	"github.com/lox/nightfall/internal/groupid"
	"github.com/lox/nightfall/internal/protocol"
)

// Connection represents a WebSocket connection to a client. A connection is
// anonymous until the hello handshake sets its player identity; group
// commands then associate it with the group whose broadcasts it receives.
type Connection struct {
	conn      *websocket.Conn
	server    *Server
	send      chan *protocol.Message
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	playerID  string
	name      string
	group     string
}

// newConnection creates a new connection wrapper
func newConnection(conn *websocket.Conn, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		server: server,
		send:   make(chan *protocol.Message, 256),
		logger: server.baseLogger.With().Str("component", "conn").Str("remote", conn.RemoteAddr().String()).Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// start begins handling the connection
func (c *Connection) start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *protocol.Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug().Interface("recovered", r).Msg("attempted to send on closed connection")
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn().Msg("connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// PlayerID returns the identity set by the hello handshake.
func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// Name returns the display name set by the hello handshake.
func (c *Connection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Group returns the group whose broadcasts this connection receives.
func (c *Connection) Group() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group
}

// SetGroup associates this connection with a group.
func (c *Connection) SetGroup(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.group = group
}

func (c *Connection) setIdentity(playerID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.name = name
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

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
				c.logger.Error().Err(err).Msg("websocket error")
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error().Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *protocol.Message) {
	c.logger.Debug().Str("type", msg.Type.String()).Str("player", c.PlayerID()).Msg("received message")

	if msg.Type == protocol.MessageTypeHello {
		var data protocol.HelloData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse hello data")
			return
		}
		c.handleHello(data)
		return
	}

	if c.PlayerID() == "" {
		c.sendError("not_identified", "Must send hello first")
		return
	}

	if c.server.registry == nil {
		c.sendError("service_unavailable", "Game registry not available")
		return
	}

	switch msg.Type {
	case protocol.MessageTypeNewGame:
		var data protocol.NewGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse new game data")
			return
		}
		c.handleNewGame(data)

	case protocol.MessageTypeJoinGame:
		var data protocol.JoinGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join game data")
			return
		}
		c.handleJoinGame(data)

	case protocol.MessageTypeListPlayers:
		var data protocol.ListPlayersData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse list players data")
			return
		}
		c.handleListPlayers(data)

	case protocol.MessageTypeGameStatus:
		var data protocol.GameStatusData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse game status data")
			return
		}
		c.handleGameStatus(data)

	case protocol.MessageTypeBeginGame:
		var data protocol.BeginGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse begin game data")
			return
		}
		c.handleBeginGame(data)

	case protocol.MessageTypeStartNight:
		var data protocol.StartNightData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse start night data")
			return
		}
		c.handleStartNight(data)

	case protocol.MessageTypeEndNight:
		var data protocol.EndNightData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse end night data")
			return
		}
		c.handleEndNight(data)

	case protocol.MessageTypeNightAction:
		var data protocol.NightActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse night action data")
			return
		}
		c.handleNightAction(data)

	case protocol.MessageTypeVote:
		var data protocol.VoteData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse vote data")
			return
		}
		c.handleVote(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := protocol.NewMessage(protocol.MessageTypeError, protocol.ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to create error message")
		return
	}

	_ = c.SendMessage(errorMsg) // Ignore send errors during error handling
}

// sendGameError maps an engine error to its wire code and sends it.
func (c *Connection) sendGameError(err error) {
	c.sendError(errorCode(err), err.Error())
}

// errorCode maps engine errors to stable wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNoSuchGame):
		return "no_such_game"
	case errors.Is(err, game.ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, game.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, game.ErrInAnotherGame):
		return "in_another_game"
	case errors.Is(err, game.ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, game.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, game.ErrWrongRole):
		return "wrong_role"
	case errors.Is(err, game.ErrNotAlive):
		return "not_alive"
	case errors.Is(err, game.ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, game.ErrNoSuchPlayer):
		return "no_such_player"
	case errors.Is(err, game.ErrNotInAnyGame):
		return "not_in_any_game"
	default:
		return "internal_error"
	}
}

func (c *Connection) handleHello(data protocol.HelloData) {
	name := strings.TrimSpace(data.Name)
	if name == "" {
		c.sendError("invalid_hello", "Display name required")
		return
	}

	playerID := strings.TrimSpace(data.PlayerID)
	if playerID == "" {
		playerID = uuid.NewString()
	}

	c.setIdentity(playerID, name)

	// A reconnecting player resumes watching the group they are playing in.
	if c.server.registry != nil {
		if group, ok := c.server.registry.GroupOf(playerID); ok {
			c.SetGroup(group)
		}
	}

	c.logger.Info().Str("player", playerID).Str("name", name).Msg("client identified")

	response, _ := protocol.NewMessage(protocol.MessageTypeWelcome, protocol.WelcomeData{
		PlayerID: playerID,
		Name:     name,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleNewGame(data protocol.NewGameData) {
	group := strings.TrimSpace(data.Group)
	if group == "" {
		group = groupid.Generate()
	} else if err := groupid.Validate(group); err != nil {
		c.sendError("invalid_group", err.Error())
		return
	}

	c.logger.Info().Str("group", group).Str("player", c.PlayerID()).Msg("new game request")

	// Watch the group before creating, so the creator sees the creation
	// broadcast.
	c.SetGroup(group)
	c.server.registry.NewGame(group)
}

func (c *Connection) handleJoinGame(data protocol.JoinGameData) {
	group := strings.TrimSpace(data.Group)
	c.logger.Info().Str("group", group).Str("player", c.PlayerID()).Msg("join game request")

	previous := c.Group()
	c.SetGroup(group)
	if err := c.server.registry.Join(group, c.PlayerID(), c.Name()); err != nil {
		c.SetGroup(previous)
		c.sendGameError(err)
		return
	}
	// No direct response; the joiner receives the player_joined broadcast.
}

func (c *Connection) handleListPlayers(data protocol.ListPlayersData) {
	group := c.resolveGroup(data.Group)

	players, err := c.server.registry.ListPlayers(group)
	if err != nil {
		c.sendGameError(err)
		return
	}

	response, _ := protocol.NewMessage(protocol.MessageTypePlayerList, protocol.PlayerListData{
		Group:   group,
		Players: players,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleGameStatus(data protocol.GameStatusData) {
	group := c.resolveGroup(data.Group)

	status, err := c.server.registry.Status(group)
	if err != nil {
		c.sendGameError(err)
		return
	}

	response, _ := protocol.NewMessage(protocol.MessageTypeStatus, protocol.StatusData{
		Group:   status.Group,
		Phase:   status.Phase.String(),
		Started: status.Started,
		Round:   status.Round,
		Alive:   status.Alive,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleBeginGame(data protocol.BeginGameData) {
	group := c.resolveGroup(data.Group)
	c.logger.Info().Str("group", group).Str("player", c.PlayerID()).Msg("begin game request")

	if err := c.server.registry.Begin(group); err != nil {
		c.sendGameError(err)
	}
}

func (c *Connection) handleStartNight(data protocol.StartNightData) {
	group := c.resolveGroup(data.Group)

	if err := c.server.registry.StartNight(group); err != nil {
		c.sendGameError(err)
	}
}

func (c *Connection) handleEndNight(data protocol.EndNightData) {
	group := c.resolveGroup(data.Group)

	if err := c.server.registry.EndNight(group); err != nil {
		c.sendGameError(err)
	}
}

func (c *Connection) handleNightAction(data protocol.NightActionData) {
	act := game.NightAction{Slot: game.Role(data.Role), Target: data.Target}
	if !act.Slot.Acts() {
		c.sendError("wrong_role", "No night action for role: "+data.Role)
		return
	}

	if err := c.server.registry.SubmitNightAction(c.PlayerID(), act); err != nil {
		c.sendGameError(err)
	}
	// Confirmation arrives as a private night_confirmed message.
}

func (c *Connection) handleVote(data protocol.VoteData) {
	group := c.resolveGroup(data.Group)

	if err := c.server.registry.SubmitVote(group, c.PlayerID(), data.Target); err != nil {
		c.sendGameError(err)
	}
}

// resolveGroup falls back to the connection's watched group when a command
// does not name one.
func (c *Connection) resolveGroup(group string) string {
	if g := strings.TrimSpace(group); g != "" {
		return g
	}
	return c.Group()
}
