package session

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

func createTestConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:           "Test Config",
		Description:    "Test configuration",
		Width:          8,
		Height:         8,
		StartX:         4,
		StartY:         4,
		StartDirection: engine.Right,
		TickPeriodMs:   200,
		Messages: engine.Messages{
			Welcome:   "Welcome!",
			FoodEaten: "Score: %d",
			GameOver:  "Game over!",
		},
	}
}

// newTestManager returns a manager on a manual clock with seeded food placement
func newTestManager(opts ...Option) (*Manager, *schedulertest.Clock) {
	clock := schedulertest.NewClock()
	opts = append([]Option{
		WithClock(clock),
		WithEngineOptions(engine.WithRand(rand.New(rand.NewSource(9)))),
	}, opts...)
	return NewManager(opts...), clock
}

func TestManager_Create(t *testing.T) {
	manager, clock := newTestManager()
	config := createTestConfig()

	t.Run("create with ID", func(t *testing.T) {
		session, err := manager.Create("test-session", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		if session.ID != "test-session" {
			t.Errorf("Expected ID 'test-session', got '%s'", session.ID)
		}
		if session.Engine == nil || session.Scheduler == nil {
			t.Fatal("Expected engine and scheduler to be initialized")
		}
		if session.Engine.State() != engine.Running {
			t.Errorf("Expected the game to be running, got %s", session.Engine.State())
		}
		if !session.Running() {
			t.Error("Expected the scheduler to be running")
		}
		if session.TickPeriodMs() != 200 {
			t.Errorf("Expected tick period 200, got %d", session.TickPeriodMs())
		}
		if clock.Armed() != 1 {
			t.Errorf("Expected one armed timer, got %d", clock.Armed())
		}
	})

	t.Run("create with empty ID", func(t *testing.T) {
		session, err := manager.Create("", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected generated 4-character ID, got '%s'", session.ID)
		}
	})

	t.Run("duplicate ID", func(t *testing.T) {
		if _, err := manager.Create("TEST-SESSION", config); !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		for _, id := range []string{" padded", "a/b", "x?y"} {
			if _, err := manager.Create(id, config); !errors.Is(err, ErrInvalidSessionID) {
				t.Errorf("Create(%q): expected ErrInvalidSessionID, got %v", id, err)
			}
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := createTestConfig()
		bad.Width = 1
		if _, err := manager.Create("bad-config", bad); err == nil {
			t.Error("Expected error for invalid config")
		}
		if _, err := manager.Get("bad-config"); !errors.Is(err, ErrSessionNotFound) {
			t.Error("Expected failed session not to be stored")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager, _ := newTestManager()
	manager.Create("get-test", createTestConfig())

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"existing session", "get-test", nil},
		{"case-insensitive", "GET-TEST", nil},
		{"missing session", "non-existent", ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := manager.Get(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get(%s) error = %v, want %v", tt.id, err, tt.wantErr)
			}
			if tt.wantErr == nil && session.ID != "get-test" {
				t.Errorf("Expected session 'get-test', got '%s'", session.ID)
			}
		})
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	first, err := manager.GetOrCreate("goc", config)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	second, err := manager.GetOrCreate("goc", config)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if first != second {
		t.Error("Expected GetOrCreate to return the existing session")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", manager.Count())
	}
}

func TestManager_Delete(t *testing.T) {
	manager, clock := newTestManager()
	session, _ := manager.Create("delete-test", createTestConfig())

	if err := manager.Delete("DELETE-TEST"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if session.Running() {
		t.Error("Expected the deleted session's scheduler to stop")
	}
	if clock.Armed() != 0 {
		t.Errorf("Expected no armed timers, got %d", clock.Armed())
	}
	if err := manager.Delete("delete-test"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	for i := 0; i < 3; i++ {
		if _, err := manager.Create(fmt.Sprintf("list-%d", i), config); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
	}

	sessions := manager.List()
	if len(sessions) != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(sessions))
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager, clock := newTestManager()
	config := createTestConfig()

	old, _ := manager.Create("old", config)
	manager.Create("fresh", config)
	old.Touch(time.Now().Add(-2 * time.Hour))

	removed := manager.CleanupExpiredSessions(time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 session removed, got %d", removed)
	}
	if old.Running() {
		t.Error("Expected the expired session to be stopped")
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Errorf("Expected fresh session to remain: %v", err)
	}
	if clock.Armed() != 1 {
		t.Errorf("Expected one armed timer left, got %d", clock.Armed())
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager, _ := newTestManager()
	session, _ := manager.Create("access", createTestConfig())
	before := session.LastAccessed()

	time.Sleep(time.Millisecond)
	if err := manager.UpdateLastAccessed("ACCESS"); err != nil {
		t.Fatalf("UpdateLastAccessed() error = %v", err)
	}
	if !session.LastAccessed().After(before) {
		t.Error("Expected LastAccessedAt to move forward")
	}
	if err := manager.UpdateLastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_TicksRenderAndStopOnGameOver(t *testing.T) {
	var mu sync.Mutex
	var rendered []*engine.Snapshot
	renderer := service.RendererFunc(func(id string, snap *engine.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		rendered = append(rendered, snap)
	})

	manager, clock := newTestManager(WithRenderer(renderer))
	session, err := manager.Create("ticker", createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	// Heading right from (4,4) on an 8-wide board: the wall is four steps away.
	clock.Advance(time.Second)

	snap := session.Snapshot()
	if snap.State != engine.GameOver || snap.Cause != engine.CauseWall {
		t.Fatalf("Expected wall game over, got %s/%s", snap.State, snap.Cause)
	}
	if session.Running() {
		t.Error("Expected scheduler to stop after game over")
	}

	mu.Lock()
	count := len(rendered)
	mu.Unlock()
	// One render for the start, one per tick including the terminal one.
	if count != 1+snap.Tick {
		t.Errorf("Expected %d renders, got %d", 1+snap.Tick, count)
	}

	clock.Advance(time.Second)
	if session.Snapshot().Tick != snap.Tick {
		t.Error("Expected no further ticks after game over")
	}
}

func TestManager_StopAll(t *testing.T) {
	manager, clock := newTestManager()
	config := createTestConfig()
	for i := 0; i < 3; i++ {
		manager.Create(fmt.Sprintf("stop-%d", i), config)
	}

	manager.StopAll()
	if clock.Armed() != 0 {
		t.Errorf("Expected no armed timers, got %d", clock.Armed())
	}
	if manager.Count() != 3 {
		t.Errorf("Expected sessions to stay listed, got %d", manager.Count())
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()
	defer manager.StopAll()

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			session, err := manager.Create("", config)
			if err != nil {
				errs <- err
				return
			}
			session.Turn(engine.Up)
			session.Snapshot()
			manager.Get(session.ID)
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() != 50 {
		t.Errorf("Expected 50 sessions, got %d", manager.Count())
	}
}

// noConfigs is a ConfigManager with nothing on disk
type noConfigs struct{}

func (noConfigs) LoadConfig(name string) (*engine.GameConfig, error) {
	return nil, fmt.Errorf("no config %s", name)
}

func (noConfigs) ListConfigs() ([]*service.ConfigInfo, error) {
	return nil, nil
}

func (noConfigs) GetDefault() *engine.GameConfig {
	return createTestConfig()
}

func (noConfigs) SaveConfig(name string, config *engine.GameConfig) error {
	return nil
}

func TestManager_ConcurrentServiceReads(t *testing.T) {
	manager, _ := newTestManager()
	defer manager.StopAll()
	sess, err := manager.Create("busy", createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	svc := service.NewGameService(manager, noConfigs{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := svc.GetSession(ctx, sess.ID); err != nil {
					t.Errorf("GetSession() error = %v", err)
					return
				}
				if _, err := svc.ListSessions(ctx); err != nil {
					t.Errorf("ListSessions() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			manager.CleanupExpiredSessions(time.Hour)
		}
	}()
	wg.Wait()

	info, err := svc.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if info.LastAccessedAt.Before(info.CreatedAt) {
		t.Errorf("Expected last access %v after creation %v", info.LastAccessedAt, info.CreatedAt)
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	session1, _ := manager.Create("iso-1", config)
	session2, _ := manager.Create("iso-2", config)

	session1.Turn(engine.Up)

	if session2.Engine.GetPendingDirection() != "" {
		t.Error("Session 2 should not be affected by session 1 input")
	}
	if session1.Engine == session2.Engine || session1.Scheduler == session2.Scheduler {
		t.Error("Sessions should have independent engines and schedulers")
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager, _ := newTestManager()
	config := createTestConfig()

	generatedIDs := make(map[string]bool)

	for i := 0; i < 50; i++ {
		session, err := manager.Create("", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		if generatedIDs[session.ID] {
			t.Errorf("Duplicate session ID generated: %s", session.ID)
		}
		generatedIDs[session.ID] = true

		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %d", len(session.ID))
		}
	}
}
