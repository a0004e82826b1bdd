package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Snake Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Snake Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The game runs in real time: the snake advances one cell every tick whether or not
you act. Steer it with turn, grow by eating food (*), and avoid the walls and your
own body.

AVAILABLE TOOLS:
- create_session: Start a new game (optionally choose a config)
- list_sessions: List active games
- get_session: Session details including speed
- game_state: Current board as text with safe turns
- turn: Request a direction for the next tick
- restart: Start a new run at the current speed
- set_speed: Change the tick period (100-600 ms, lower is faster)
- describe_cell: What occupies one grid cell
- list_configs: Available board presets
- game_instructions: Full rules and tips

TIP: Slow the game down with set_speed before planning long routes.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create and start a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score and the turns that are safe on the next tick",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn",
		Description: "Request a new direction. Only turns perpendicular to the current heading are accepted; the snake turns on the next tick.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to turn",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this turn (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart",
		Description: "Start a new run, keeping the current speed",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_speed",
		Description: "Set the tick period in milliseconds (100 is fastest, 600 is slowest)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"period_ms": map[string]interface{}{
					"type":        "integer",
					"minimum":     engine.MinTickPeriodMs,
					"maximum":     engine.MaxTickPeriodMs,
					"description": "Milliseconds between ticks",
				},
			},
			Required: []string{"session_id", "period_ms"},
		},
	}, c.handleSetSpeed)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe what occupies a grid cell: empty, head, body, food or outside the board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column), 0-based",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row), 0-based",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the game rules and tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\nSpeed: %dms (%s)\n\n%s",
		session.ID, session.ConfigName, session.TickPeriodMs, session.SpeedLabel,
		formatSnapshot(session.Snapshot))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Active Sessions (%d):\n\n", response.Count))
	for _, s := range response.Sessions {
		score, state := 0, engine.Idle
		if s.Snapshot != nil {
			score, state = s.Snapshot.Score, s.Snapshot.State
		}
		result.WriteString(fmt.Sprintf("- %s (Config: %s, Score: %d, State: %s, Created: %s)\n",
			s.ID, s.ConfigName, score, state, s.CreatedAt.Format("15:04:05")))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+sessionID, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

func (c *Client) handleTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)

	var result service.TurnResult
	body := map[string]string{"direction": direction}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/turn", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTurnResult(&result)), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message  string           `json:"message"`
		Snapshot *engine.Snapshot `json:"snapshot"`
	}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/restart", sessionID), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatSnapshot(response.Snapshot))), nil
}

func (c *Client) handleSetSpeed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	periodMs, ok := intArg(args, "period_ms")
	if !ok {
		return mcp.NewToolResultError("period_ms is required"), nil
	}

	var result service.SpeedResult
	body := map[string]int{"period_ms": periodMs}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/speed", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Speed set to %dms (%s)", result.PeriodMs, result.Label)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required"), nil
	}

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(describeCell(&snap, engine.Position{X: x, Y: y})), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		result.WriteString(fmt.Sprintf("• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Speed: %dms (%s)\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Width, cfg.Height,
			cfg.TickPeriodMs, engine.SpeedLabel(cfg.TickPeriodMs)))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Snake Game - Instructions

GAME OBJECTIVE:
Eat as much food as possible. Every food eaten adds one point and one segment.

GAME MECHANICS:
• The snake moves one cell per tick in its current direction
• A turn takes effect on the next tick; the last accepted turn before a tick wins
• Only perpendicular turns are accepted: you cannot reverse or repeat your heading
• Hitting a wall or your own body ends the run
• Moving into the cell your tail is leaving is safe

GRID LEGEND:
• H = snake head
• o = snake body
• * = food
• . = empty cell
• X = where the snake crashed

SPEED:
• Tick period ranges from 100ms (Super Fast!) to 600ms (Very Slow)
• Use set_speed to slow down while you plan; the speed survives restarts

AI AGENT TIPS:
• Call game_state, then pick a direction from "Safe turns"
• Coordinates are (x,y) with (0,0) in the top-left corner; y grows downward
• Follow the walls in long lanes once the snake gets long
• After a game over, call restart

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatters

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nSpeed: %dms (%s)\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.TickPeriodMs, session.SpeedLabel,
		formatSnapshot(session.Snapshot))
}

func formatSnapshot(snap *engine.Snapshot) string {
	if snap == nil {
		return "No game state available"
	}

	var result strings.Builder

	head := snap.Head()
	result.WriteString(fmt.Sprintf("Score: %d | Length: %d | Tick: %d | Heading: %s | State: %s\n",
		snap.Score, snap.Length, snap.Tick, snap.Direction, snap.State))
	if snap.HasFood() {
		result.WriteString(fmt.Sprintf("Head: (%d,%d) | Food: (%d,%d) | Distance: %d\n",
			head.X, head.Y, snap.Food.X, snap.Food.Y, snap.FoodDistance()))
	} else {
		result.WriteString(fmt.Sprintf("Head: (%d,%d) | Food: none, the board is full\n", head.X, head.Y))
	}

	if !snap.GameOver() {
		result.WriteString(fmt.Sprintf("Safe turns: %s\n", joinDirections(snap.SafeTurns())))
	}
	result.WriteString("\n")

	for _, row := range snap.Rows() {
		result.WriteString(row)
		result.WriteString("\n")
	}

	if snap.GameOver() {
		result.WriteString(fmt.Sprintf("\nGAME OVER (%s)", snap.Cause))
	}
	if snap.Message != "" {
		result.WriteString(fmt.Sprintf("\nMessage: %s", snap.Message))
	}

	return result.String()
}

func formatTurnResult(result *service.TurnResult) string {
	if result.Accepted {
		return fmt.Sprintf("✓ Turn %s accepted, applies on the next tick (heading %s)",
			result.Requested, result.Direction)
	}
	return fmt.Sprintf("✗ Turn %s ignored: only turns perpendicular to the heading %s are accepted",
		result.Requested, result.Direction)
}

func joinDirections(dirs []engine.Direction) string {
	if len(dirs) == 0 {
		return "none"
	}
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

func describeCell(snap *engine.Snapshot, p engine.Position) string {
	if p.X < 0 || p.X >= snap.Width || p.Y < 0 || p.Y >= snap.Height {
		return fmt.Sprintf("(%d,%d) is outside the %dx%d board (wall)", p.X, p.Y, snap.Width, snap.Height)
	}

	switch {
	case snap.CrashAt != nil && *snap.CrashAt == p:
		return fmt.Sprintf("(%d,%d) X - crash site", p.X, p.Y)
	case snap.Head() == p && len(snap.Snake) > 0:
		return fmt.Sprintf("(%d,%d) H - snake head, heading %s", p.X, p.Y, snap.Direction)
	}
	for i, segment := range snap.Snake {
		if i > 0 && segment == p {
			if i == len(snap.Snake)-1 {
				return fmt.Sprintf("(%d,%d) o - snake tail, free after the next move unless food is eaten", p.X, p.Y)
			}
			return fmt.Sprintf("(%d,%d) o - snake body segment %d", p.X, p.Y, i)
		}
	}
	if snap.Food == p {
		return fmt.Sprintf("(%d,%d) * - food", p.X, p.Y)
	}
	return fmt.Sprintf("(%d,%d) . - empty", p.X, p.Y)
}
