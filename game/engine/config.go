package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate grid dimensions
	if config.Width < MinGridSize || config.Width > MaxGridSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Width)
	}
	if config.Height < MinGridSize || config.Height > MaxGridSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Height)
	}

	// Validate start layout: head plus the trailing body must fit on the grid
	if !config.StartDirection.Valid() {
		return fmt.Errorf("config validation: start_direction must be one of up, down, left, right, got %q", config.StartDirection)
	}
	pos := Position{X: config.StartX, Y: config.StartY}
	tail := config.StartDirection.Opposite()
	for i := 0; i < StartLength; i++ {
		if pos.X < 0 || pos.X >= config.Width || pos.Y < 0 || pos.Y >= config.Height {
			return fmt.Errorf("config validation: start segment %d at %s is outside the %dx%d grid",
				i+1, pos, config.Width, config.Height)
		}
		pos = pos.Add(tail)
	}

	// Validate tick period
	if err := ValidateTickPeriod(config.TickPeriodMs); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.GameOver == "" {
		return fmt.Errorf("config validation: messages.game_over is required")
	}
	if config.Messages.FoodEaten != "" && !strings.Contains(config.Messages.FoodEaten, "%d") {
		return fmt.Errorf("config validation: messages.food_eaten must contain %%d for score")
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		// If filename starts with "configs/", replace with CONFIG_DIR
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// Validate the loaded configuration
	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the classic 20x20 board: a 600px canvas with 30px cells,
// snake head at (10,10) heading right.
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:           "classic",
		Description:    "Classic 20x20 board, walls are deadly",
		Width:          20,
		Height:         20,
		StartX:         10,
		StartY:         10,
		StartDirection: Right,
		TickPeriodMs:   DefaultTickPeriodMs,
		Messages: Messages{
			Welcome:   "Use the arrow keys to steer. Eat the apples!",
			FoodEaten: "Yum! Score: %d",
			GameOver:  "Oops! Try again!",
			HitWall:   "Oops! You hit the wall. Try again!",
			HitSelf:   "Oops! You bit your tail. Try again!",
		},
	}
}
