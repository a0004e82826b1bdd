package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/scheduler"
)

// Session represents an active game session: one engine driven by one scheduler.
//
// The scheduler's lock is always taken before the session's. Methods that touch
// the scheduler never hold mu while doing so.
type Session struct {
	ID             string
	Engine         *engine.Engine
	Scheduler      *scheduler.Scheduler
	Config         *engine.GameConfig
	CreatedAt time.Time

	renderer     Renderer
	lastAccessed time.Time
	mu           sync.Mutex
}

// SessionOption customizes a Session at construction
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	renderer   Renderer
	clock      scheduler.Clock
	engineOpts []engine.Option
}

// WithRenderer sets where snapshots are sent after each tick and restart
func WithRenderer(r Renderer) SessionOption {
	return func(o *sessionOptions) {
		o.renderer = r
	}
}

// WithClock sets the scheduler's time source
func WithClock(c scheduler.Clock) SessionOption {
	return func(o *sessionOptions) {
		o.clock = c
	}
}

// WithEngineOptions passes options through to engine.NewEngine
func WithEngineOptions(opts ...engine.Option) SessionOption {
	return func(o *sessionOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// NewSession builds a stopped session. Call Start to begin the first run.
func NewSession(id string, config *engine.GameConfig, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{clock: scheduler.SystemClock}
	for _, opt := range opts {
		opt(&o)
	}

	eng, err := engine.NewEngine(config, o.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	s := &Session{
		ID:           id,
		Engine:       eng,
		Config:       config,
		CreatedAt:    now,
		lastAccessed: now,
		renderer:     o.renderer,
	}
	s.Scheduler = scheduler.New(s.tick,
		scheduler.WithClock(o.clock),
		scheduler.WithPeriod(time.Duration(config.TickPeriodMs)*time.Millisecond),
	)
	return s, nil
}

// Start stops any current run, initializes a new one and starts ticking at the
// current period. It serves both the first start and every restart.
func (s *Session) Start() (*engine.Snapshot, error) {
	s.Scheduler.Stop()

	s.mu.Lock()
	snap := s.Engine.Init()
	s.mu.Unlock()

	s.render(snap)

	if snap.State != engine.Running {
		log.Printf("[GAMEOVER] Session %s ended on init: %s", s.ID, snap.Cause)
		return snap, nil
	}
	if err := s.Scheduler.Start(s.Scheduler.Period()); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	return snap, nil
}

// Stop halts the scheduler without touching the game state
func (s *Session) Stop() {
	s.Scheduler.Stop()
}

// Turn latches a direction for the next step
func (s *Session) Turn(d engine.Direction) *TurnResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := s.Engine.SetPendingDirection(d)
	return &TurnResult{
		Accepted:  accepted,
		Requested: d,
		Direction: s.Engine.GetDirection(),
		Pending:   s.Engine.GetPendingDirection(),
		Snapshot:  s.Engine.Snapshot(),
	}
}

// SetSpeed changes the tick period. The change applies immediately if running.
func (s *Session) SetSpeed(periodMs int) error {
	if err := engine.ValidateTickPeriod(periodMs); err != nil {
		return err
	}
	return s.Scheduler.SetPeriod(time.Duration(periodMs) * time.Millisecond)
}

// Snapshot returns a copy of the current game state
func (s *Session) Snapshot() *engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Engine.Snapshot()
}

// Touch records at as the last time the session was used
func (s *Session) Touch(at time.Time) {
	s.mu.Lock()
	s.lastAccessed = at
	s.mu.Unlock()
}

// LastAccessed returns the time recorded by the latest Touch
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessed
}

// TickPeriodMs returns the scheduler period in milliseconds
func (s *Session) TickPeriodMs() int {
	return int(s.Scheduler.Period() / time.Millisecond)
}

// Running reports whether the scheduler is ticking
func (s *Session) Running() bool {
	return s.Scheduler.Running()
}

// tick runs on the scheduler with its lock held
func (s *Session) tick() bool {
	s.mu.Lock()
	result := s.Engine.Step()
	s.mu.Unlock()

	s.render(result.Snapshot)

	if result.Terminal {
		log.Printf("[GAMEOVER] Session %s: %s after %d ticks, score %d",
			s.ID, result.Snapshot.Cause, result.Snapshot.Tick, result.Snapshot.Score)
		return false
	}
	return true
}

func (s *Session) render(snap *engine.Snapshot) {
	if s.renderer != nil {
		s.renderer.Render(s.ID, snap)
	}
}
