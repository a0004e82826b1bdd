package service

import (
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Snapshot       *engine.Snapshot   `json:"snapshot"`
	GameConfig     *engine.GameConfig `json:"game_config"`
	TickPeriodMs   int                `json:"tick_period_ms"`
	SpeedLabel     string             `json:"speed_label"`
	Running        bool               `json:"running"` // scheduler is ticking
}

// TurnResult reports whether a direction request was latched
type TurnResult struct {
	Accepted  bool             `json:"accepted"`
	Requested engine.Direction `json:"requested"`
	Direction engine.Direction `json:"direction"`         // heading used by the last step
	Pending   engine.Direction `json:"pending,omitempty"` // applied on the next step
	Snapshot  *engine.Snapshot `json:"snapshot"`
}

// SpeedResult reports the tick period after a speed change
type SpeedResult struct {
	PeriodMs int    `json:"period_ms"`
	Label    string `json:"label"`
	Running  bool   `json:"running"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename     string `json:"filename"`
	ConfigID     string `json:"config_id"` // The identifier to use for session creation
	Name         string `json:"name"`      // Display name
	Description  string `json:"description"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	TickPeriodMs int    `json:"tick_period_ms"`
}
