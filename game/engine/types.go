package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Direction is one of the four cardinal headings
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// RunState is the lifecycle state of a game
type RunState string

const (
	Idle     RunState = "idle"
	Running  RunState = "running"
	GameOver RunState = "game_over"
)

// CollisionCause explains why a run ended
type CollisionCause string

const (
	CauseNone      CollisionCause = ""
	CauseWall      CollisionCause = "wall"
	CauseSelf      CollisionCause = "self"
	CauseBoardFull CollisionCause = "board_full"
)

const (
	// Validation constants
	MinGridSize         = 5
	MaxGridSize         = 100
	StartLength         = 3
	MinTickPeriodMs     = 100
	MaxTickPeriodMs     = 600
	DefaultTickPeriodMs = 350
	WebSocketBufferSize = 256
)

var (
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidTickPeriod = errors.New("invalid tick period")
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection converts user input such as "UP" or " left " into a Direction
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q (use up, down, left or right)", ErrInvalidDirection, s)
	}
	return d, nil
}

// Valid reports whether d is one of the four cardinal directions
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Delta returns the unit step for the direction
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Horizontal reports whether the direction moves along the x axis
func (d Direction) Horizontal() bool {
	return d == Left || d == Right
}

// Perpendicular reports whether o lies on the other axis than d
func (d Direction) Perpendicular(o Direction) bool {
	if !d.Valid() || !o.Valid() {
		return false
	}
	return d.Horizontal() != o.Horizontal()
}

// Opposite returns the reverse heading
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return d
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the position one step in direction d
func (p Position) Add(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Messages holds the text shown to the player on lifecycle events
type Messages struct {
	Welcome   string `json:"welcome"`
	FoodEaten string `json:"food_eaten"` // must contain %d for the score
	GameOver  string `json:"game_over"`
	HitWall   string `json:"hit_wall,omitempty"`
	HitSelf   string `json:"hit_self,omitempty"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	StartX         int       `json:"start_x"`
	StartY         int       `json:"start_y"`
	StartDirection Direction `json:"start_direction"`
	TickPeriodMs   int       `json:"tick_period_ms"`
	Messages       Messages  `json:"messages"`
}

// Snapshot is a read-only copy of the game handed to renderers
type Snapshot struct {
	Snake      []Position     `json:"snake"` // head first
	Food       Position       `json:"food"`
	Score      int            `json:"score"`
	State      RunState       `json:"state"`
	Direction  Direction      `json:"direction"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Length     int            `json:"length"`
	Tick       int            `json:"tick"`
	Cause      CollisionCause `json:"cause,omitempty"`
	CrashAt    *Position      `json:"crash_at,omitempty"`
	Message    string         `json:"message"`
	ConfigName string         `json:"config_name"`
}

// NoFood is the food position once the board has no free cell left
var NoFood = Position{X: -1, Y: -1}

// HasFood reports whether the food lies on the grid
func (s *Snapshot) HasFood() bool {
	return s.Food.X >= 0 && s.Food.X < s.Width && s.Food.Y >= 0 && s.Food.Y < s.Height
}

// GameOver reports whether the snapshot is terminal
func (s *Snapshot) GameOver() bool {
	return s.State == GameOver
}

// Head returns the head segment
func (s *Snapshot) Head() Position {
	if len(s.Snake) == 0 {
		return Position{}
	}
	return s.Snake[0]
}

// StepResult is returned by every call to Step
type StepResult struct {
	Terminal bool      `json:"terminal"`
	Ate      bool      `json:"ate"`
	Snapshot *Snapshot `json:"snapshot"`
}
