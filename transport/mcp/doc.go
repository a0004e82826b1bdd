// Package mcp provides a Model Context Protocol server for the Snake game.
//
// The mcp package implements:
//   - MCP tool definitions for game operations
//   - A thin client that proxies every tool to the REST API
//   - Text rendering of snapshots for language models
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - create_session: Create and start a game with config selection
//   - list_sessions: List all active sessions
//   - get_session: Session details including speed
//   - game_state: Board as text with score, food distance and safe turns
//   - turn: Request a direction for the next tick
//   - restart: Start a new run at the current speed
//   - set_speed: Change the tick period
//   - describe_cell: Describe one grid cell
//   - list_configs: List available board presets
//   - game_instructions: Rules and tips
//
// Transport Modes:
//
// The server supports two transport modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp, passing the body to GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
//
// The game keeps ticking between tool calls, so agents usually slow it down
// with set_speed before planning.
package mcp
