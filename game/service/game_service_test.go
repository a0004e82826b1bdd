package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/scheduler/schedulertest"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// recordingRenderer collects rendered snapshots
type recordingRenderer struct {
	mu    sync.Mutex
	snaps []*engine.Snapshot
}

func (r *recordingRenderer) Render(sessionID string, snap *engine.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recordingRenderer) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recordingRenderer) Last() *engine.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil
	}
	return r.snaps[len(r.snaps)-1]
}

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	clock    *schedulertest.Clock
	renderer *recordingRenderer
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		clock:    schedulertest.NewClock(),
		renderer: &recordingRenderer{},
	}
}

func (m *MockSessionManager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	sess, err := service.NewSession(id, config,
		service.WithClock(m.clock),
		service.WithRenderer(m.renderer),
		service.WithEngineOptions(engine.WithRand(rand.New(rand.NewSource(1)))),
	)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Start(); err != nil {
		return nil, err
	}

	m.sessions[id] = sess
	return sess, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	sess, exists := m.sessions[id]
	if !exists {
		return errors.New("session not found")
	}
	sess.Stop()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.Touch(time.Now())
		return nil
	}
	return errors.New("session not found")
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	defaultConfig := &engine.GameConfig{
		Name:           "test",
		Description:    "Test configuration",
		Width:          10,
		Height:         10,
		StartX:         5,
		StartY:         5,
		StartDirection: engine.Right,
		TickPeriodMs:   300,
		Messages: engine.Messages{
			Welcome:   "Welcome to test!",
			FoodEaten: "Score: %d",
			GameOver:  "Game over!",
		},
	}

	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"test":    defaultConfig,
			"default": defaultConfig,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, errors.New("config not found")
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:     name + ".json",
			ConfigID:     name,
			Name:         config.Name,
			Description:  config.Description,
			Width:        config.Width,
			Height:       config.Height,
			TickPeriodMs: config.TickPeriodMs,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["default"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager, *service.SessionInfo) {
	t.Helper()
	sessions := NewMockSessionManager()
	svc := service.NewGameService(sessions, NewMockConfigManager())

	info, err := svc.CreateSession(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, sessions, info
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	tests := []struct {
		name       string
		configName string
		wantErr    bool
	}{
		{"default config", "", false},
		{"named config", "test", false},
		{"unknown config", "nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.configName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if info.ID == "" {
				t.Error("CreateSession() returned empty ID")
			}
			if info.Snapshot == nil || info.Snapshot.State != engine.Running {
				t.Errorf("Expected a running game, got %+v", info.Snapshot)
			}
			if info.TickPeriodMs != 300 {
				t.Errorf("Expected tick period 300, got %d", info.TickPeriodMs)
			}
			if info.SpeedLabel != "Fast" {
				t.Errorf("Expected speed label Fast, got %q", info.SpeedLabel)
			}
			if !info.Running {
				t.Error("Expected scheduler to be running")
			}
		})
	}
}

func TestGameService_TicksAdvanceTheGame(t *testing.T) {
	ctx := context.Background()
	svc, sessions, info := newTestService(t)

	rendered := sessions.renderer.Count()
	sessions.clock.Advance(300 * time.Millisecond)

	snap, err := svc.GetSnapshot(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if snap.Tick != 1 {
		t.Errorf("Expected 1 tick, got %d", snap.Tick)
	}
	if snap.Head() != (engine.Position{X: 6, Y: 5}) {
		t.Errorf("Expected head at (6,5), got %s", snap.Head())
	}
	if sessions.renderer.Count() != rendered+1 {
		t.Errorf("Expected one render per tick, got %d", sessions.renderer.Count()-rendered)
	}
}

func TestGameService_Turn(t *testing.T) {
	ctx := context.Background()
	svc, sessions, info := newTestService(t)

	tests := []struct {
		direction string
		accepted  bool
	}{
		{"left", false}, // reversal
		{"right", false},
		{"UP", true},
		{"down", true}, // still perpendicular to the current heading
	}

	for _, tt := range tests {
		result, err := svc.Turn(ctx, info.ID, tt.direction)
		if err != nil {
			t.Fatalf("Turn(%s) error = %v", tt.direction, err)
		}
		if result.Accepted != tt.accepted {
			t.Errorf("Turn(%s) accepted = %v, want %v", tt.direction, result.Accepted, tt.accepted)
		}
	}

	sessions.clock.Advance(300 * time.Millisecond)
	snap, _ := svc.GetSnapshot(ctx, info.ID)
	if snap.Direction != engine.Down {
		t.Errorf("Expected the last accepted turn to apply, got %s", snap.Direction)
	}

	if _, err := svc.Turn(ctx, info.ID, "north"); !errors.Is(err, engine.ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}
	if _, err := svc.Turn(ctx, "missing", "up"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_GameOverStopsScheduler(t *testing.T) {
	ctx := context.Background()
	svc, sessions, info := newTestService(t)

	sess, _ := sessions.Get(info.ID)
	if err := sess.Engine.Restore([]engine.Position{{X: 9, Y: 5}, {X: 8, Y: 5}, {X: 7, Y: 5}}, engine.Right, engine.Position{X: 0, Y: 0}, 3); err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}

	sessions.clock.Advance(time.Second)

	snap, _ := svc.GetSnapshot(ctx, info.ID)
	if snap.State != engine.GameOver || snap.Cause != engine.CauseWall {
		t.Errorf("Expected wall game over, got %s/%s", snap.State, snap.Cause)
	}
	if snap.Score != 3 {
		t.Errorf("Expected score unchanged at 3, got %d", snap.Score)
	}
	if sess.Running() {
		t.Error("Expected scheduler to stop on game over")
	}
	if sessions.clock.Armed() != 0 {
		t.Errorf("Expected no armed timers, got %d", sessions.clock.Armed())
	}
	if last := sessions.renderer.Last(); last == nil || !last.GameOver() {
		t.Error("Expected the terminal snapshot to be rendered")
	}

	result, err := svc.Turn(ctx, info.ID, "up")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	if result.Accepted {
		t.Error("Expected turn to be ignored after game over")
	}
}

func TestGameService_Restart(t *testing.T) {
	ctx := context.Background()
	svc, sessions, info := newTestService(t)

	sess, _ := sessions.Get(info.ID)
	sess.Engine.Restore([]engine.Position{{X: 9, Y: 5}, {X: 8, Y: 5}, {X: 7, Y: 5}}, engine.Right, engine.Position{X: 0, Y: 0}, 5)
	sessions.clock.Advance(300 * time.Millisecond)

	snap, err := svc.Restart(ctx, info.ID)
	if err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if snap.State != engine.Running {
		t.Errorf("Expected Running after restart, got %s", snap.State)
	}
	if snap.Score != 0 || snap.Length != engine.StartLength {
		t.Errorf("Expected a fresh run, got score %d length %d", snap.Score, snap.Length)
	}
	if !sess.Running() {
		t.Error("Expected scheduler to run after restart")
	}
	if sessions.clock.Armed() != 1 {
		t.Errorf("Expected exactly one armed timer, got %d", sessions.clock.Armed())
	}

	// Restarting a running game does not double the timers.
	if _, err := svc.Restart(ctx, info.ID); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if sessions.clock.Armed() != 1 {
		t.Errorf("Expected exactly one armed timer after second restart, got %d", sessions.clock.Armed())
	}
}

func TestGameService_SetSpeed(t *testing.T) {
	ctx := context.Background()
	svc, sessions, info := newTestService(t)

	result, err := svc.SetSpeed(ctx, info.ID, 150)
	if err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if result.PeriodMs != 150 || result.Label != "Super Fast!" || !result.Running {
		t.Errorf("Unexpected speed result: %+v", result)
	}

	sessions.clock.Advance(150 * time.Millisecond)
	snap, _ := svc.GetSnapshot(ctx, info.ID)
	if snap.Tick != 1 {
		t.Errorf("Expected the new period to apply immediately, got %d ticks", snap.Tick)
	}

	for _, bad := range []int{0, 99, 601} {
		if _, err := svc.SetSpeed(ctx, info.ID, bad); !errors.Is(err, service.ErrInvalidSpeed) {
			t.Errorf("SetSpeed(%d): expected ErrInvalidSpeed, got %v", bad, err)
		}
	}

	// The chosen speed survives a restart.
	svc.SetSpeed(ctx, info.ID, 500)
	svc.Restart(ctx, info.ID)
	got, _ := svc.GetSession(ctx, info.ID)
	if got.TickPeriodMs != 500 || got.SpeedLabel != "Slow" {
		t.Errorf("Expected 500ms Slow after restart, got %d %s", got.TickPeriodMs, got.SpeedLabel)
	}
}

func TestGameService_SetSpeedWhileStopped(t *testing.T) {
	ctx := context.Background()
	svc, sessions, info := newTestService(t)

	sess, _ := sessions.Get(info.ID)
	sess.Stop()

	result, err := svc.SetSpeed(ctx, info.ID, 400)
	if err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if result.Running {
		t.Error("Expected SetSpeed not to start a stopped session")
	}
	if sessions.clock.Armed() != 0 {
		t.Errorf("Expected no armed timers, got %d", sessions.clock.Armed())
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	sessions := NewMockSessionManager()
	svc := service.NewGameService(sessions, NewMockConfigManager())

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateSession(ctx, "test"); err != nil {
			t.Fatalf("Failed to create session %d: %v", i, err)
		}
	}

	list, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(list) != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(list))
	}

	if err := svc.DeleteSession(ctx, list[0].ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := svc.GetSession(ctx, list[0].ID); err == nil {
		t.Error("Expected deleted session to be gone")
	}
	if sessions.clock.Armed() != 2 {
		t.Errorf("Expected the deleted session's timer to be cancelled, got %d armed", sessions.clock.Armed())
	}
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	configs, err := svc.ListConfigs(ctx)
	if err != nil {
		t.Fatalf("ListConfigs() error = %v", err)
	}
	if len(configs) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(configs))
	}

	config, err := svc.LoadConfig(ctx, "test")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	wide := *config
	wide.Name = "wide"
	wide.Width = 30
	if err := svc.SaveConfig(ctx, "wide", &wide); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	info, err := svc.CreateSession(ctx, "wide")
	if err != nil {
		t.Fatalf("CreateSession(wide) error = %v", err)
	}
	if info.Snapshot.Width != 30 {
		t.Errorf("Expected 30-wide board, got %d", info.Snapshot.Width)
	}

	bad := *config
	bad.Width = 2
	if err := svc.SaveConfig(ctx, "bad", &bad); err == nil {
		t.Error("Expected SaveConfig to reject an invalid config")
	}
}
