package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/nightfall/internal/game"
)

// ServerConfig represents the complete gateway configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains gateway-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings tunes the sessions the registry creates. The deadlines are
// duration strings like "90s" or "2m"; empty disables the deadline and the
// phase waits for an explicit command.
type GameSettings struct {
	MinPlayers    int    `hcl:"min_players,optional"`
	NightDeadline string `hcl:"night_deadline,optional"`
	DayDeadline   string `hcl:"day_deadline,optional"`
}

// DefaultServerConfig returns default gateway configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			MinPlayers: game.MinPlayers,
		},
	}
}

// LoadServerConfig loads gateway configuration from an HCL file, falling
// back to defaults when the file does not exist.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	// Check if file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Game.MinPlayers == 0 {
		config.Game.MinPlayers = game.MinPlayers
	}

	return &config, nil
}

// Validate validates the gateway configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if c.Game.MinPlayers < game.MinPlayers {
		return fmt.Errorf("min_players must be at least %d, got %d", game.MinPlayers, c.Game.MinPlayers)
	}

	if _, err := c.GameConfig(); err != nil {
		return err
	}

	return nil
}

// GameConfig converts the decoded settings into the registry's game config.
func (c *ServerConfig) GameConfig() (game.Config, error) {
	cfg := game.Config{MinPlayers: c.Game.MinPlayers}

	var err error
	if cfg.NightDeadline, err = parseDeadline(c.Game.NightDeadline); err != nil {
		return cfg, fmt.Errorf("night_deadline: %w", err)
	}
	if cfg.DayDeadline, err = parseDeadline(c.Game.DayDeadline); err != nil {
		return cfg, fmt.Errorf("day_deadline: %w", err)
	}

	return cfg, nil
}

// GetServerAddress returns the full listen address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

func parseDeadline(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative: %s", raw)
	}
	return d, nil
}
