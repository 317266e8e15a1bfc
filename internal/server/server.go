package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/nightfall/internal/game"
	"github.com/lox/nightfall/internal/protocol"
)

// Server is the WebSocket gateway standing in for the chat platform. Clients
// connect, identify themselves once, then exchange group commands and
// private night actions with the game registry. Each connection watches one
// group at a time and receives that group's broadcasts.
type Server struct {
	baseLogger  zerolog.Logger
	logger      zerolog.Logger
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
	registry    *game.Registry
}

// NewServer creates a new WebSocket gateway. Call SetRegistry before Start.
func NewServer(logger zerolog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		baseLogger: logger,
		logger:     logger.With().Str("component", "gateway").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				// In production, implement proper origin checking
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetRegistry wires the game registry the gateway dispatches into.
func (s *Server) SetRegistry(registry *game.Registry) {
	s.registry = registry
}

// Notifier returns the game.Notifier that routes session events to the
// connected clients.
func (s *Server) Notifier() game.Notifier {
	return &eventNotifier{server: s}
}

// Start runs the connection manager and serves WebSocket upgrades on addr
// until Shutdown is called.
func (s *Server) Start(addr string) error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.mu.Lock()
	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info().Str("addr", addr).Msg("gateway listening")
	return srv.ListenAndServe()
}

// Shutdown closes every client connection, stops the registry and stops the
// listener. Connections are torn down concurrently so a slow peer cannot
// stall the rest.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	srv := s.httpServer
	s.mu.Unlock()

	var g errgroup.Group
	for _, conn := range conns {
		g.Go(conn.Close)
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Msg("error closing client connection")
	}

	if s.registry != nil {
		s.registry.Stop()
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info().Int("total", total).Msg("client connected")

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close() // Ignore close errors during unregistration
			}
			total := len(s.connections)
			s.mu.Unlock()

			// The player stays in their game; a dropped connection can come
			// back with the same player id and resume.
			s.logger.Info().Str("player", conn.PlayerID()).Int("total", total).Msg("client disconnected")

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := newConnection(conn, s)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = client.Close()
		return
	}
	client.start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

// BroadcastToGroup sends a message to every connection watching the group.
func (s *Server) BroadcastToGroup(group string, msg *protocol.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.Group() == group {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error().Err(err).Str("player", conn.PlayerID()).Msg("failed to send message to client")
			} else {
				count++
			}
		}
	}

	s.logger.Debug().Str("group", group).Str("type", msg.Type.String()).Int("recipients", count).Msg("broadcast to group")
}

// SendToPlayer sends a message to a specific player's connection.
func (s *Server) SendToPlayer(playerID string, msg *protocol.Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.PlayerID() == playerID {
			return conn.SendMessage(msg)
		}
	}

	return fmt.Errorf("player not connected: %s", playerID)
}

// ConnectedPlayers returns the ids of every identified connection.
func (s *Server) ConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []string
	for conn := range s.connections {
		if playerID := conn.PlayerID(); playerID != "" {
			players = append(players, playerID)
		}
	}

	return players
}
