package service

import (
	"context"
	"errors"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

var ErrInvalidSpeed = errors.New("invalid speed")

// GameService is what every front end talks to
type GameService interface {
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	Turn(ctx context.Context, sessionID, direction string) (*TurnResult, error)
	Restart(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	SetSpeed(ctx context.Context, sessionID string, periodMs int) (*SpeedResult, error)

	GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager stores live sessions by ID
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager resolves preset names to board configs
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Renderer receives the snapshot produced by every tick and restart
type Renderer interface {
	Render(sessionID string, snap *engine.Snapshot)
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(sessionID string, snap *engine.Snapshot)

func (f RendererFunc) Render(sessionID string, snap *engine.Snapshot) {
	f(sessionID, snap)
}
