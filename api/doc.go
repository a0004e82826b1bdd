// Package api provides HTTP REST API handlers for the Snake game.
//
// The api package implements:
//   - Session management endpoints
//   - Steering, restart and speed control for a running session
//   - Configuration listing and creation
//   - WebSocket upgrade handling
//   - Static file serving for the browser client
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create and start a session ({"config_id": "small"})
//   - GET /api/sessions - List sessions (?sort=accessed|created|score&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get session info
//   - DELETE /api/sessions/{id} - Stop and remove a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current snapshot (?format=text adds the grid rows)
//   - POST /api/sessions/{id}/turn - Latch a direction ({"direction": "up"})
//   - POST /api/sessions/{id}/restart - Start a new run at the current speed
//   - POST /api/sessions/{id}/speed - Change the tick period ({"period_ms": 200})
//
// Configuration:
//   - GET /api/configs - List presets
//   - GET /api/configs/{name} - Get one preset
//   - POST /api/configs - Save a preset
//
// Other:
//   - GET /health - Liveness probe
//   - GET /ws?session={id} - WebSocket stream of snapshots
//
// A turn that would reverse the snake, or repeats its heading, is not an error:
// the response carries "accepted": false and the game continues unchanged.
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status derived from the error chain:
// unknown sessions and presets map to 404, invalid directions, speeds and presets
// to 400, anything else to 500.
//
//	{"error": "session zz99: session not found"}
package api
