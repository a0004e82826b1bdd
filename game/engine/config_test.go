package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:           "Test Config",
		Description:    "A valid test configuration",
		Width:          10,
		Height:         10,
		StartX:         5,
		StartY:         5,
		StartDirection: Right,
		TickPeriodMs:   300,
		Messages: Messages{
			Welcome:   "Welcome to the test game!",
			FoodEaten: "Yum! Score: %d",
			GameOver:  "Oops!",
		},
	}
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	config := createValidConfig()
	err := ValidateGameConfig(config)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}
}

func TestValidateGameConfig_DefaultConfig(t *testing.T) {
	if err := ValidateGameConfig(DefaultConfig()); err != nil {
		t.Errorf("Expected default config to be valid, got: %v", err)
	}
}

func TestValidateGameConfig_Nil(t *testing.T) {
	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestValidateGameConfig_MissingName(t *testing.T) {
	config := createValidConfig()
	config.Name = ""
	err := ValidateGameConfig(config)
	if err == nil {
		t.Fatal("Expected error for missing name")
	}
	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("Expected name validation error, got: %v", err)
	}
}

func TestValidateGameConfig_MissingDescription(t *testing.T) {
	config := createValidConfig()
	config.Description = ""
	err := ValidateGameConfig(config)
	if err == nil {
		t.Fatal("Expected error for missing description")
	}
	if !strings.Contains(err.Error(), "description is required") {
		t.Errorf("Expected description validation error, got: %v", err)
	}
}

func TestValidateGameConfig_InvalidGridSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		field         string
	}{
		{"width too small", 4, 10, "width"},
		{"width too large", 101, 10, "width"},
		{"height too small", 10, 4, "height"},
		{"height too large", 10, 101, "height"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createValidConfig()
			config.Width = test.width
			config.Height = test.height
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatalf("Expected error for %s", test.name)
			}
			if !strings.Contains(err.Error(), test.field+" must be between") {
				t.Errorf("Expected %s validation error, got: %v", test.field, err)
			}
		})
	}
}

func TestValidateGameConfig_StartLayout(t *testing.T) {
	tests := []struct {
		name  string
		x, y  int
		dir   Direction
		valid bool
	}{
		{"centered heading right", 5, 5, Right, true},
		{"head at left edge heading right", 0, 5, Right, false},
		{"tail just fits heading right", 2, 5, Right, true},
		{"head at right edge heading left", 9, 5, Left, false},
		{"tail just fits heading left", 7, 5, Left, true},
		{"heading up near bottom", 5, 9, Up, false},
		{"heading down near top", 5, 1, Down, false},
		{"head off the grid", 12, 5, Right, false},
		{"invalid direction", 5, 5, Direction("diagonal"), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createValidConfig()
			config.StartX = test.x
			config.StartY = test.y
			config.StartDirection = test.dir
			err := ValidateGameConfig(config)
			if test.valid && err != nil {
				t.Errorf("Expected valid start layout, got: %v", err)
			}
			if !test.valid && err == nil {
				t.Error("Expected start layout error")
			}
		})
	}
}

func TestValidateGameConfig_TickPeriod(t *testing.T) {
	for _, period := range []int{0, 99, 601, 1000} {
		config := createValidConfig()
		config.TickPeriodMs = period
		err := ValidateGameConfig(config)
		if !errors.Is(err, ErrInvalidTickPeriod) {
			t.Errorf("Period %d: expected ErrInvalidTickPeriod, got %v", period, err)
		}
	}
	for _, period := range []int{100, 350, 600} {
		config := createValidConfig()
		config.TickPeriodMs = period
		if err := ValidateGameConfig(config); err != nil {
			t.Errorf("Period %d: expected valid, got %v", period, err)
		}
	}
}

func TestValidateGameConfig_MissingMessages(t *testing.T) {
	config := createValidConfig()
	config.Messages.Welcome = ""
	if err := ValidateGameConfig(config); err == nil || !strings.Contains(err.Error(), "messages.welcome") {
		t.Errorf("Expected welcome message error, got: %v", err)
	}

	config = createValidConfig()
	config.Messages.GameOver = ""
	if err := ValidateGameConfig(config); err == nil || !strings.Contains(err.Error(), "messages.game_over") {
		t.Errorf("Expected game_over message error, got: %v", err)
	}
}

func TestValidateGameConfig_FormatStrings(t *testing.T) {
	config := createValidConfig()
	config.Messages.FoodEaten = "Yum!"
	err := ValidateGameConfig(config)
	if err == nil || !strings.Contains(err.Error(), "%d") {
		t.Errorf("Expected format string error, got: %v", err)
	}

	config.Messages.FoodEaten = ""
	if err := ValidateGameConfig(config); err != nil {
		t.Errorf("Expected empty food_eaten to be allowed, got: %v", err)
	}
}

func TestLoadGameConfig(t *testing.T) {
	// Create a temporary config file
	tempFile := filepath.Join(t.TempDir(), "test_config.json")

	configContent := `{
		"name": "Test Config",
		"description": "Test description",
		"width": 12,
		"height": 8,
		"start_x": 6,
		"start_y": 4,
		"start_direction": "right",
		"tick_period_ms": 250,
		"messages": {
			"welcome": "Welcome!",
			"food_eaten": "Score: %d",
			"game_over": "Game over!"
		}
	}`

	if err := os.WriteFile(tempFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadGameConfig(tempFile)
	if err != nil {
		t.Fatalf("Failed to load game config: %v", err)
	}

	if config.Name != "Test Config" {
		t.Errorf("Expected config name 'Test Config', got '%s'", config.Name)
	}
	if config.Width != 12 || config.Height != 8 {
		t.Errorf("Expected 12x8 grid, got %dx%d", config.Width, config.Height)
	}
	if config.StartDirection != Right {
		t.Errorf("Expected start direction right, got %s", config.StartDirection)
	}
	if config.TickPeriodMs != 250 {
		t.Errorf("Expected tick period 250, got %d", config.TickPeriodMs)
	}

	// Test loading non-existent file
	if _, err := LoadGameConfig("nonexistent.json"); err == nil {
		t.Error("Expected error for non-existent file")
	}

	// Test loading invalid JSON
	invalidFile := filepath.Join(t.TempDir(), "invalid.json")
	os.WriteFile(invalidFile, []byte("invalid json"), 0644)
	if _, err := LoadGameConfig(invalidFile); err == nil {
		t.Error("Expected error for invalid JSON")
	}

	// Test loading a structurally valid but unplayable config
	badFile := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(badFile, []byte(`{"name":"bad","description":"bad","width":3,"height":3}`), 0644)
	if _, err := LoadGameConfig(badFile); err == nil {
		t.Error("Expected validation error for 3x3 grid")
	}
}

func TestLoadGameConfig_ConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	data := `{"name":"env","description":"from CONFIG_DIR","width":10,"height":10,"start_x":5,"start_y":5,
		"start_direction":"up","tick_period_ms":300,"messages":{"welcome":"hi","game_over":"bye"}}`
	if err := os.WriteFile(filepath.Join(dir, "env.json"), []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("CONFIG_DIR", dir)
	config, err := LoadGameConfig("configs/env.json")
	if err != nil {
		t.Fatalf("Expected CONFIG_DIR override to find the file, got: %v", err)
	}
	if config.Name != "env" {
		t.Errorf("Expected config 'env', got '%s'", config.Name)
	}
}

func TestSpeedLabel(t *testing.T) {
	tests := []struct {
		period   int
		expected string
	}{
		{600, "Very Slow"},
		{501, "Very Slow"},
		{500, "Slow"},
		{401, "Slow"},
		{400, "Normal"},
		{350, "Normal"},
		{300, "Fast"},
		{201, "Fast"},
		{200, "Super Fast!"},
		{100, "Super Fast!"},
	}

	for _, test := range tests {
		if got := SpeedLabel(test.period); got != test.expected {
			t.Errorf("SpeedLabel(%d) = %q, expected %q", test.period, got, test.expected)
		}
	}
}
