package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lox/nightfall/cmd/nightfall/shared"
	"github.com/lox/nightfall/internal/game"
	"github.com/lox/nightfall/internal/server"
)

// ServeCmd runs the websocket gateway
type ServeCmd struct {
	Config        string        `kong:"short='c',default='nightfall.hcl',help='Path to HCL configuration file'"`
	Addr          string        `kong:"short='a',help='Listen address (overrides config)'"`
	Debug         bool          `kong:"help='Enable debug logging'"`
	LogJSON       bool          `kong:"name='log-json',help='Structured JSON logs instead of console output'"`
	MinPlayers    int           `kong:"help='Minimum lobby size (overrides config)'"`
	NightDeadline time.Duration `kong:"help='Forced night resolution deadline (overrides config)'"`
	DayDeadline   time.Duration `kong:"help='Forced vote tally deadline (overrides config)'"`
	Seed          *int64        `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServeCmd) Run() error {
	logger := shared.SetupLogger(c.Debug, c.LogJSON)

	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	gameCfg, err := cfg.GameConfig()
	if err != nil {
		return err
	}

	// Apply command line overrides
	if c.MinPlayers > 0 {
		gameCfg.MinPlayers = c.MinPlayers
	}
	if c.NightDeadline > 0 {
		gameCfg.NightDeadline = c.NightDeadline
	}
	if c.DayDeadline > 0 {
		gameCfg.DayDeadline = c.DayDeadline
	}

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	opts := []game.Option{game.WithConfig(gameCfg)}
	if c.Seed != nil {
		logger.Info().Int64("seed", *c.Seed).Msg("using deterministic seed")
		opts = append(opts, game.WithSeed(*c.Seed))
	}

	srv := server.NewServer(logger)
	registry := game.NewRegistry(logger, srv.Notifier(), opts...)
	srv.SetRegistry(registry)

	logger.Info().
		Str("address", addr).
		Int("min_players", gameCfg.MinPlayers).
		Dur("night_deadline", gameCfg.NightDeadline).
		Dur("day_deadline", gameCfg.DayDeadline).
		Msg("starting nightfall gateway")

	// Setup graceful shutdown
	ctx := shared.SetupSignalHandler(logger)

	// Start gateway in background
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown or error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
