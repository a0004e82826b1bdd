// Package service holds the game operations shared by the REST, websocket,
// MCP and terminal front ends.
//
// Session ties one engine.Engine to one scheduler.Scheduler. Each tick steps
// the engine under the session lock and passes the snapshot to a Renderer.
// When a step ends the run the scheduler is stopped; Start begins a new run at
// whatever speed the session was last set to.
//
// GameService resolves session IDs and preset names and turns wire strings
// into engine values:
//
//	svc := service.NewGameService(sessions, configs)
//	info, err := svc.CreateSession(ctx, "classic")
//	if err != nil {
//		return err
//	}
//	svc.Turn(ctx, info.ID, "up")
//	svc.SetSpeed(ctx, info.ID, 200)
package service
