package engine

// Board characters used by Rows
const (
	CharEmpty = '.'
	CharHead  = 'H'
	CharBody  = 'o'
	CharFood  = '*'
	CharCrash = 'X'
)

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FoodDistance returns the Manhattan distance from the head to the food, or -1 when there is none
func (s *Snapshot) FoodDistance() int {
	if !s.HasFood() {
		return -1
	}
	return ManhattanDistance(s.Head(), s.Food)
}

// Rows renders the snapshot as one string per grid row
func (s *Snapshot) Rows() []string {
	grid := make([][]byte, s.Height)
	for y := range grid {
		grid[y] = make([]byte, s.Width)
		for x := range grid[y] {
			grid[y][x] = CharEmpty
		}
	}

	set := func(p Position, c byte) {
		if p.Y >= 0 && p.Y < s.Height && p.X >= 0 && p.X < s.Width {
			grid[p.Y][p.X] = c
		}
	}

	set(s.Food, CharFood)
	for i := len(s.Snake) - 1; i >= 0; i-- {
		if i == 0 {
			set(s.Snake[i], CharHead)
		} else {
			set(s.Snake[i], CharBody)
		}
	}
	if s.CrashAt != nil {
		set(*s.CrashAt, CharCrash)
	}

	rows := make([]string, s.Height)
	for y := range grid {
		rows[y] = string(grid[y])
	}
	return rows
}

// SafeTurns lists the directions that would not end the run on the next step.
// Reversal and the current heading are included only when they are legal inputs,
// so the result is what a player can actually steer into.
func (s *Snapshot) SafeTurns() []Direction {
	if s.GameOver() || len(s.Snake) == 0 {
		return nil
	}

	var safe []Direction
	for _, d := range Directions {
		if d != s.Direction && !s.Direction.Perpendicular(d) {
			continue
		}
		next := s.Head().Add(d)
		if next.X < 0 || next.X >= s.Width || next.Y < 0 || next.Y >= s.Height {
			continue
		}
		hit := false
		// The tail moves away unless the snake eats this tick.
		body := s.Snake[1:]
		if next != s.Food && len(body) > 0 {
			body = body[:len(body)-1]
		}
		for _, seg := range body {
			if seg == next {
				hit = true
				break
			}
		}
		if !hit {
			safe = append(safe, d)
		}
	}
	return safe
}
