package main

import (
	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// Strategy picks a heading for the next tick: the shortest path to the food
// when it leaves enough room, otherwise the safe turn with the most space.
type Strategy struct{}

// NewStrategy creates a strategy
func NewStrategy() *Strategy {
	return &Strategy{}
}

// NextDirection returns the direction to request for the next step. It returns
// the current heading when no turn is needed and "" when every move is fatal.
func (s *Strategy) NextDirection(snap *engine.Snapshot) engine.Direction {
	safe := snap.SafeTurns()
	if len(safe) == 0 {
		return ""
	}

	blocked := obstacles(snap)
	if first := s.BFS(snap, blocked); first != "" && contains(safe, first) {
		if s.space(snap, blocked, first) >= len(snap.Snake) {
			return first
		}
	}

	best, bestSpace := engine.Direction(""), -1
	for _, d := range safe {
		if space := s.space(snap, blocked, d); space > bestSpace {
			best, bestSpace = d, space
		}
	}
	return best
}

// BFS returns the first step of a shortest path from the head to the food, or
// "" when the food cannot be reached. The first step never reverses the heading.
func (s *Strategy) BFS(snap *engine.Snapshot, blocked map[engine.Position]bool) engine.Direction {
	start := snap.Head()
	if start == snap.Food {
		return snap.Direction
	}

	type queueItem struct {
		pos   engine.Position
		first engine.Direction
	}

	visited := map[engine.Position]bool{start: true}
	var queue []queueItem
	for _, d := range engine.Directions {
		if d == snap.Direction.Opposite() {
			continue
		}
		next := start.Add(d)
		if !s.isValidPosition(next, snap, blocked) {
			continue
		}
		if next == snap.Food {
			return d
		}
		visited[next] = true
		queue = append(queue, queueItem{pos: next, first: d})
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range engine.Directions {
			next := current.pos.Add(d)
			if visited[next] || !s.isValidPosition(next, snap, blocked) {
				continue
			}
			if next == snap.Food {
				return current.first
			}
			visited[next] = true
			queue = append(queue, queueItem{pos: next, first: current.first})
		}
	}
	return ""
}

// space counts the cells reachable after stepping from the head in d
func (s *Strategy) space(snap *engine.Snapshot, blocked map[engine.Position]bool, d engine.Direction) int {
	start := snap.Head().Add(d)
	if !s.isValidPosition(start, snap, blocked) {
		return 0
	}

	visited := map[engine.Position]bool{start: true, snap.Head(): true}
	stack := []engine.Position{start}
	count := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++

		for _, dir := range engine.Directions {
			next := p.Add(dir)
			if visited[next] || !s.isValidPosition(next, snap, blocked) {
				continue
			}
			visited[next] = true
			stack = append(stack, next)
		}
	}
	return count
}

func (s *Strategy) isValidPosition(p engine.Position, snap *engine.Snapshot, blocked map[engine.Position]bool) bool {
	if p.X < 0 || p.X >= snap.Width || p.Y < 0 || p.Y >= snap.Height {
		return false
	}
	return !blocked[p]
}

// obstacles is the body without the head and the tail; the tail moves on
// before the head can reach it.
func obstacles(snap *engine.Snapshot) map[engine.Position]bool {
	blocked := make(map[engine.Position]bool, len(snap.Snake))
	for i := 1; i < len(snap.Snake)-1; i++ {
		blocked[snap.Snake[i]] = true
	}
	return blocked
}

func contains(dirs []engine.Direction, d engine.Direction) bool {
	for _, x := range dirs {
		if x == d {
			return true
		}
	}
	return false
}
