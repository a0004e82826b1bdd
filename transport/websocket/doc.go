// Package websocket provides WebSocket transport for the Snake game.
//
// The websocket package implements:
//   - Per-session fan-out of game snapshots
//   - Player input (turn, restart, speed) from connected clients
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub owns all connections. Its Run loop is the only writer of the
// client registry; every client has a read pump and a write pump goroutine.
// Hub implements service.Renderer, so sessions hand it a snapshot on every tick.
// Render never blocks: if the hub falls behind, frames are dropped, and a client
// whose own queue is full is disconnected.
//
// Message Protocol:
//
// Messages are JSON-encoded, one per frame:
//   - Incoming: {"action": "turn", "direction": "up"}
//     {"action": "restart"}
//     {"action": "speed", "period_ms": 200}
//   - Outgoing: {"session_id": "ab12", "event": "state_update", "snapshot": {...}}
//     with event "game_over" for the terminal snapshot, "ack" carrying the
//     handler's result, or "error" carrying a message.
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.SetInputHandler(server)
//	go hub.Run()
//	defer hub.Stop()
//
//	sessionMgr := session.NewManagerWithRenderer(hub)
package websocket
