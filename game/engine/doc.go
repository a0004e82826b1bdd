// Package engine is the Snake simulation: a fixed grid, a snake that moves
// one cell per Step, and a single piece of food.
//
// An Engine is not safe for concurrent use; the owning session serializes
// access. Init starts a run from the GameConfig start layout and places the
// first food. SetPendingDirection latches the heading for the next Step and
// rejects anything that is not a turn onto the other axis, so the last
// accepted turn before a tick wins.
//
// Step moves the head, then checks the walls and the body. The cell the tail
// is about to leave does not count as body. Eating scores a point and keeps
// the tail in place for that step. A collision ends the run with a cause and
// the attempted head in CrashAt; a board with no free cell left ends it as
// CauseBoardFull.
//
//	eng, err := engine.NewEngine(cfg)
//	if err != nil {
//		return err
//	}
//	eng.Init()
//	eng.SetPendingDirection(engine.Up)
//	if res := eng.Step(); res.Terminal {
//		fmt.Println(res.Snapshot.Message)
//	}
//
// Snapshot is the copy handed out after every step. Renderers and clients only
// ever see snapshots.
package engine
