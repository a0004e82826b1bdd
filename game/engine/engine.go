package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// Option customizes an Engine at construction
type Option func(*Engine)

// WithRand sets the random source used for food placement
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// Engine owns the complete state of one snake game and advances it one tick at a time.
// Engine is not safe for concurrent use; callers serialize access.
type Engine struct {
	config *GameConfig
	rng    *rand.Rand

	snake   []Position // head is snake[0]
	dir     Direction
	pending Direction // latched input, empty when none
	food    Position
	score   int
	state   RunState
	cause   CollisionCause
	crashAt *Position
	tick    int
	message string
}

// NewEngine creates a new game engine with the provided configuration.
// The engine starts Idle; call Init to begin a run.
func NewEngine(config *GameConfig, opts ...Option) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &Engine{
		config: config,
		state:  Idle,
		dir:    config.StartDirection,
		food:   NoFood,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the default configuration
func NewEngineWithDefaults(opts ...Option) *Engine {
	e, err := NewEngine(DefaultConfig(), opts...)
	if err != nil {
		// DefaultConfig is validated by tests; reaching this is a programming error.
		panic(err)
	}
	return e
}

// Init discards any previous run and starts a fresh one
func (e *Engine) Init() *Snapshot {
	cfg := e.config
	head := Position{X: cfg.StartX, Y: cfg.StartY}
	tail := cfg.StartDirection.Opposite()

	e.snake = make([]Position, 0, StartLength)
	for i := 0; i < StartLength; i++ {
		e.snake = append(e.snake, head)
		head = head.Add(tail)
	}

	e.dir = cfg.StartDirection
	e.pending = ""
	e.score = 0
	e.tick = 0
	e.cause = CauseNone
	e.crashAt = nil
	e.state = Running
	e.message = cfg.Messages.Welcome

	food, ok := e.placeFood()
	if !ok {
		e.food = NoFood
		e.endRun(CauseBoardFull, nil)
		return e.Snapshot()
	}
	e.food = food

	return e.Snapshot()
}

// Restore replaces the current run with an arbitrary Running state.
// The snake must be non-empty, in bounds and self-disjoint, and food must be free.
func (e *Engine) Restore(snake []Position, dir Direction, food Position, score int) error {
	if len(snake) == 0 {
		return fmt.Errorf("snake cannot be empty")
	}
	if !dir.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	if score < 0 {
		return fmt.Errorf("score cannot be negative, got %d", score)
	}
	seen := make(map[Position]struct{}, len(snake))
	for _, p := range snake {
		if !e.InBounds(p) {
			return fmt.Errorf("segment %s is outside the %dx%d grid", p, e.config.Width, e.config.Height)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("segment %s appears twice", p)
		}
		seen[p] = struct{}{}
	}
	if !e.InBounds(food) {
		return fmt.Errorf("food %s is outside the grid", food)
	}
	if _, onSnake := seen[food]; onSnake {
		return fmt.Errorf("food %s overlaps the snake", food)
	}

	e.snake = append([]Position(nil), snake...)
	e.dir = dir
	e.pending = ""
	e.food = food
	e.score = score
	e.tick = 0
	e.state = Running
	e.cause = CauseNone
	e.crashAt = nil
	e.message = ""
	return nil
}

// SetPendingDirection latches d for the next Step.
// It returns false when the game is not running or d is parallel to the current heading.
func (e *Engine) SetPendingDirection(d Direction) bool {
	if e.state != Running {
		return false
	}
	if !e.dir.Perpendicular(d) {
		return false
	}
	e.pending = d
	return true
}

// Snapshot returns a deep copy of the current state
func (e *Engine) Snapshot() *Snapshot {
	snap := &Snapshot{
		Snake:      append([]Position(nil), e.snake...),
		Food:       e.food,
		Score:      e.score,
		State:      e.state,
		Direction:  e.dir,
		Width:      e.config.Width,
		Height:     e.config.Height,
		Length:     len(e.snake),
		Tick:       e.tick,
		Cause:      e.cause,
		Message:    e.message,
		ConfigName: e.config.Name,
	}
	if e.crashAt != nil {
		crash := *e.crashAt
		snap.CrashAt = &crash
	}
	return snap
}

// State returns the run state
func (e *Engine) State() RunState {
	return e.state
}

// IsGameOver returns whether the run has ended
func (e *Engine) IsGameOver() bool {
	return e.state == GameOver
}

// GetScore returns the current score
func (e *Engine) GetScore() int {
	return e.score
}

// GetDirection returns the heading used by the last step
func (e *Engine) GetDirection() Direction {
	return e.dir
}

// GetPendingDirection returns the latched direction, or "" when none
func (e *Engine) GetPendingDirection() Direction {
	return e.pending
}

// GetConfig returns the current game configuration
func (e *Engine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and returns the engine to Idle
func (e *Engine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.snake = nil
	e.pending = ""
	e.dir = config.StartDirection
	e.food = NoFood
	e.score = 0
	e.tick = 0
	e.message = ""
	e.state = Idle
	e.cause = CauseNone
	e.crashAt = nil
	return nil
}

// InBounds reports whether p lies on the grid
func (e *Engine) InBounds(p Position) bool {
	return p.X >= 0 && p.X < e.config.Width && p.Y >= 0 && p.Y < e.config.Height
}
