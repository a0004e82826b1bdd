package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session and starts its first run
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configError(configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	info := s.sessionInfo(sess)
	info.ConfigName = configID
	return info, nil
}

// configError lists the available presets when a name is unknown
func (s *gameServiceImpl) configError(configName string, err error) error {
	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr != nil || len(availableConfigs) == 0 {
		return fmt.Errorf("failed to load config '%s': %w", configName, err)
	}
	var configIDs []string
	for _, cfg := range availableConfigs {
		configIDs = append(configIDs, cfg.ConfigID)
	}
	return fmt.Errorf("failed to load config '%s' (available: %v): %w", configName, configIDs, err)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession stops and removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Turn latches a direction for the session's next tick.
// A rejected turn is not an error; TurnResult.Accepted reports it.
func (s *gameServiceImpl) Turn(ctx context.Context, sessionID, direction string) (*TurnResult, error) {
	d, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	result := sess.Turn(d)
	if result.Accepted {
		log.Printf("[TURN] Session %s: %s -> %s", sess.ID, result.Direction, d)
	}
	return result, nil
}

// Restart discards the current run and starts a new one at the current speed
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	snap, err := sess.Start()
	if err != nil {
		return nil, fmt.Errorf("failed to restart session %s: %w", sess.ID, err)
	}
	log.Printf("[RESTART] Session %s restarted at %dms", sess.ID, sess.TickPeriodMs())
	return snap, nil
}

// SetSpeed changes a session's tick period in milliseconds
func (s *gameServiceImpl) SetSpeed(ctx context.Context, sessionID string, periodMs int) (*SpeedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.SetSpeed(periodMs); err != nil {
		if errors.Is(err, engine.ErrInvalidTickPeriod) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSpeed, err)
		}
		return nil, err
	}

	label := engine.SpeedLabel(periodMs)
	log.Printf("[SPEED] Session %s: %dms (%s)", sess.ID, periodMs, label)
	return &SpeedResult{
		PeriodMs: periodMs,
		Label:    label,
		Running:  sess.Running(),
	}, nil
}

// GetSnapshot returns the current game state of a session
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

// ListConfigs returns available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// session looks up a session and marks it as accessed
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	period := sess.TickPeriodMs()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		Snapshot:       sess.Snapshot(),
		GameConfig:     sess.Config,
		TickPeriodMs:   period,
		SpeedLabel:     engine.SpeedLabel(period),
		Running:        sess.Running(),
	}
}
