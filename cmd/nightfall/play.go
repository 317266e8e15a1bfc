package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/nightfall/internal/client"
	"github.com/lox/nightfall/internal/protocol"
	"github.com/lox/nightfall/internal/tui"
)

// PlayCmd connects to a gateway and plays through the TUI
type PlayCmd struct {
	Config   string `kong:"short='c',default='nightfall-client.hcl',help='Path to HCL configuration file'"`
	Server   string `kong:"short='s',help='Gateway URL (overrides config)'"`
	Name     string `kong:"short='n',help='Display name (defaults to $USER or Player)'"`
	Group    string `kong:"short='g',help='Group to join on connect (overrides config)'"`
	PlayerID string `kong:"name='player-id',help='Resume a previous identity'"`
	LogLevel string `kong:"name='log-level',help='Log level (overrides config)'"`
	LogFile  string `kong:"name='log-file',help='Log file path (overrides config)'"`
}

func (c *PlayCmd) Run() error {
	cfg, err := client.LoadClientConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Apply command line overrides
	if c.Server != "" {
		cfg.Server.URL = c.Server
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if c.Group != "" {
		cfg.Player.Group = c.Group
	}
	if c.LogLevel != "" {
		cfg.UI.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.UI.LogFile = c.LogFile
	}

	name := strings.TrimSpace(cfg.Player.Name)
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "Player"
	}
	cfg.Player.Name = name

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Log to a file so the TUI owns the terminal
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logger := log.New(logFile)
	switch cfg.UI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.WarnLevel) // Default to warn to reduce noise
	}

	logger.Info("Starting nightfall client",
		"server", cfg.Server.URL,
		"player", name,
		"group", cfg.Player.Group)

	wsClient := client.NewClient(cfg.Server.URL, logger)
	wsClient.SetHandshakeTimeout(time.Duration(cfg.Server.ConnectTimeout) * time.Second)

	if err := wsClient.Connect(); err != nil {
		return err
	}
	defer func() { _ = wsClient.Disconnect() }()

	// Create TUI model and wire it to the client
	tuiModel := tui.NewTUIModel(logger)
	tui.SetupNetworkHandlers(wsClient, tuiModel)

	if err := wsClient.Hello(name, c.PlayerID); err != nil {
		return fmt.Errorf("failed to identify: %w", err)
	}
	if _, err := wsClient.WaitForMessage(protocol.MessageTypeWelcome, 5*time.Second); err != nil {
		return err
	}

	// Join the configured group straight away, if any
	if group := strings.TrimSpace(cfg.Player.Group); group != "" {
		wsClient.SetGroup(group)
		tuiModel.SetGroup(group)
		if err := wsClient.JoinGame(group); err != nil {
			return fmt.Errorf("failed to join %s: %w", group, err)
		}
	}

	program := tea.NewProgram(tuiModel, tea.WithAltScreen())

	// Start command handler in TUI package
	tui.StartCommandHandler(wsClient, tuiModel)

	// Run TUI
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
