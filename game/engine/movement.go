package engine

import (
	"fmt"
	"strings"
)

// Step advances the run by one tick.
//
// The latched direction is applied first, then the new head is inserted. Eating keeps
// the tail, otherwise the tail is dropped. Collision is checked against the resulting
// body, so the cell vacated by the tail this tick is a legal destination.
// A colliding step leaves the snake as it was and records the attempted head in CrashAt.
func (e *Engine) Step() StepResult {
	if e.state != Running {
		return StepResult{Terminal: true, Snapshot: e.Snapshot()}
	}

	if e.pending != "" {
		e.dir = e.pending
		e.pending = ""
	}

	head := e.snake[0].Add(e.dir)

	body := make([]Position, 0, len(e.snake)+1)
	body = append(body, head)
	body = append(body, e.snake...)

	ate := head == e.food
	if !ate {
		body = body[:len(body)-1]
	}

	e.tick++

	if cause := e.collision(head, body); cause != CauseNone {
		e.endRun(cause, &head)
		return StepResult{Terminal: true, Snapshot: e.Snapshot()}
	}

	e.snake = body

	if ate {
		e.score++
		e.message = e.foodMessage()

		food, ok := e.placeFood()
		if !ok {
			e.food = NoFood
			e.endRun(CauseBoardFull, nil)
			return StepResult{Terminal: true, Ate: true, Snapshot: e.Snapshot()}
		}
		e.food = food
	}

	return StepResult{Ate: ate, Snapshot: e.Snapshot()}
}

// collision checks the new head against the walls and body[1:]
func (e *Engine) collision(head Position, body []Position) CollisionCause {
	if !e.InBounds(head) {
		return CauseWall
	}
	for _, seg := range body[1:] {
		if seg == head {
			return CauseSelf
		}
	}
	return CauseNone
}

// endRun moves the engine to GameOver
func (e *Engine) endRun(cause CollisionCause, crashAt *Position) {
	e.state = GameOver
	e.cause = cause
	e.pending = ""
	if crashAt != nil {
		crash := *crashAt
		e.crashAt = &crash
	}

	msgs := e.config.Messages
	switch {
	case cause == CauseWall && msgs.HitWall != "":
		e.message = msgs.HitWall
	case cause == CauseSelf && msgs.HitSelf != "":
		e.message = msgs.HitSelf
	case msgs.GameOver != "":
		e.message = msgs.GameOver
	default:
		e.message = fmt.Sprintf("Game over (%s). Score: %d", cause, e.score)
	}
}

func (e *Engine) foodMessage() string {
	if strings.Contains(e.config.Messages.FoodEaten, "%d") {
		return fmt.Sprintf(e.config.Messages.FoodEaten, e.score)
	}
	return fmt.Sprintf("Score: %d", e.score)
}
