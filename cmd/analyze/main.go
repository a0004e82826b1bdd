// Command analyze prints quick, human-readable heuristics about board presets
// in the project's configs directory. It summarizes dimensions, starting layout
// and speed, and warns when a preset leaves the player little time to react
// before the first wall.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// reactionTicks is how many ticks a player is expected to need before the first turn
const reactionTicks = 3

// Analysis holds the numbers reported for one preset
type Analysis struct {
	Name         string
	Width        int
	Height       int
	Start        engine.Position
	Heading      engine.Direction
	TickPeriodMs int
	MaxScore     int
	TicksToWall  int
	Preview      []string
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		fmt.Printf("Error listing presets: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		config, err := engine.LoadGameConfig(file)
		if err != nil {
			fmt.Printf("Error loading preset: %v\n", err)
			continue
		}
		report(os.Stdout, analyze(config))
	}
}

// analyze computes the heuristics for a preset. The preview uses a fixed seed so
// repeated runs print the same food position.
func analyze(config *engine.GameConfig) (*Analysis, error) {
	eng, err := engine.NewEngine(config, engine.WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		return nil, err
	}
	snap := eng.Init()

	start := engine.Position{X: config.StartX, Y: config.StartY}
	return &Analysis{
		Name:         config.Name,
		Width:        config.Width,
		Height:       config.Height,
		Start:        start,
		Heading:      config.StartDirection,
		TickPeriodMs: config.TickPeriodMs,
		MaxScore:     config.Width*config.Height - engine.StartLength,
		TicksToWall:  ticksToWall(start, config.StartDirection, config.Width, config.Height),
		Preview:      snap.Rows(),
	}, nil
}

// ticksToWall counts the steps from p along d before the head leaves the grid
func ticksToWall(p engine.Position, d engine.Direction, width, height int) int {
	switch d {
	case engine.Up:
		return p.Y + 1
	case engine.Down:
		return height - p.Y
	case engine.Left:
		return p.X + 1
	case engine.Right:
		return width - p.X
	}
	return 0
}

func report(w io.Writer, a *Analysis, err error) {
	if err != nil {
		fmt.Fprintf(w, "Error analyzing preset: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d (%d cells)\n", a.Width, a.Height, a.Width*a.Height)
	fmt.Fprintf(w, "Start: %s heading %s\n", a.Start, a.Heading)
	fmt.Fprintf(w, "Speed: %dms (%s)\n", a.TickPeriodMs, engine.SpeedLabel(a.TickPeriodMs))
	fmt.Fprintf(w, "Max Score: %d\n", a.MaxScore)

	timeToWall := time.Duration(a.TicksToWall*a.TickPeriodMs) * time.Millisecond
	if a.TicksToWall <= reactionTicks {
		fmt.Fprintf(w, "⚠️  WARNING: the wall is only %d ticks (%s) ahead at start\n", a.TicksToWall, timeToWall)
	} else {
		fmt.Fprintf(w, "✅ %d ticks (%s) before the first wall\n", a.TicksToWall, timeToWall)
	}

	fmt.Fprintln(w, "Initial board:")
	for _, row := range a.Preview {
		fmt.Fprintf(w, "  %s\n", row)
	}
}
