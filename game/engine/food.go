package engine

// foodSampleFactor bounds rejection sampling to this many draws per grid cell
// before falling back to a scan of the free cells.
const foodSampleFactor = 4

// placeFood picks a cell not covered by the snake, uniformly at random.
// It returns false only when the snake covers the whole grid.
func (e *Engine) placeFood() (Position, bool) {
	w, h := e.config.Width, e.config.Height
	area := w * h

	occupied := make(map[Position]struct{}, len(e.snake))
	for _, seg := range e.snake {
		occupied[seg] = struct{}{}
	}
	if len(occupied) >= area {
		return Position{}, false
	}

	for i := 0; i < foodSampleFactor*area; i++ {
		p := Position{X: e.rng.Intn(w), Y: e.rng.Intn(h)}
		if _, taken := occupied[p]; !taken {
			return p, true
		}
	}

	free := FreeCells(w, h, e.snake)
	if len(free) == 0 {
		return Position{}, false
	}
	return free[e.rng.Intn(len(free))], true
}

// FreeCells lists every cell of a width x height grid not covered by snake, row by row
func FreeCells(width, height int, snake []Position) []Position {
	occupied := make(map[Position]struct{}, len(snake))
	for _, seg := range snake {
		occupied[seg] = struct{}{}
	}

	free := make([]Position, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := Position{X: x, Y: y}
			if _, taken := occupied[p]; !taken {
				free = append(free, p)
			}
		}
	}
	return free
}
