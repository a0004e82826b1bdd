package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	headerHeight  = 60
	screenWidth   = 640
	screenHeight  = 700
	boardMargin   = 20
	speedStep     = 50
	minPeriodMs   = 100
	maxPeriodMs   = 600
	crashDuration = 400 * time.Millisecond // Crash flash duration
)

var (
	backgroundColor = color.RGBA{20, 20, 30, 255}
	boardColor      = color.RGBA{135, 206, 235, 255} // #87ceeb
	snakeColor      = color.RGBA{50, 205, 50, 255}   // #32cd32
	snakeHeadColor  = color.RGBA{0, 100, 0, 255}     // #006400
	foodColor       = color.RGBA{255, 0, 0, 255}
	crashColor      = color.RGBA{255, 140, 0, 255}
	overlayColor    = color.RGBA{0, 0, 0, 128}
)

// Position is a grid cell
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot is the board as sent by the server
type Snapshot struct {
	Snake      []Position `json:"snake"` // head first
	Food       Position   `json:"food"`
	Score      int        `json:"score"`
	State      string     `json:"state"`
	Direction  string     `json:"direction"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Tick       int        `json:"tick"`
	Cause      string     `json:"cause,omitempty"`
	CrashAt    *Position  `json:"crash_at,omitempty"`
	Message    string     `json:"message"`
	ConfigName string     `json:"config_name"`
}

// GameOver reports whether the run has ended
func (s *Snapshot) GameOver() bool {
	return s.State == "game_over"
}

// WSMessage represents WebSocket message wrapper
type WSMessage struct {
	SessionID string          `json:"session_id"`
	Snapshot  *Snapshot       `json:"snapshot,omitempty"`
	Event     string          `json:"event,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// InputMessage is a player action sent to the server
type InputMessage struct {
	Action    string `json:"action"`
	Direction string `json:"direction,omitempty"`
	PeriodMs  int    `json:"period_ms,omitempty"`
}

// SessionInfo is the subset of the session resource the client reads
type SessionInfo struct {
	ID           string    `json:"id"`
	ConfigName   string    `json:"config_name"`
	TickPeriodMs int       `json:"tick_period_ms"`
	Snapshot     *Snapshot `json:"snapshot"`
}

// SessionData holds data for a single session
type SessionData struct {
	sessionID  string
	state      *Snapshot
	periodMs   int
	wsConn     *websocket.Conn
	writeMu    sync.Mutex
	lastUpdate time.Time
	crashTime  time.Time // When the run ended
	lastError  string
}

// Game represents the desktop game client
type Game struct {
	baseURL       string
	sessions      []*SessionData
	activeSession int
	configName    string
	stateMutex    sync.RWMutex
}

// NewGame creates a client for the given sessions, creating one when none are given
func NewGame(baseURL, configName string, sessionIDs []string) *Game {
	g := &Game{baseURL: baseURL, configName: configName}

	if len(sessionIDs) == 0 {
		sessionIDs = []string{""}
	}
	for _, sid := range sessionIDs {
		if err := g.addSession(sid); err != nil {
			log.Printf("Failed to add session %q: %v", sid, err)
		}
	}
	return g
}

// addSession creates the session if sid is empty, then subscribes to it
func (g *Game) addSession(sid string) error {
	var info *SessionInfo
	var err error
	if sid == "" {
		info, err = g.createSession()
	} else {
		info, err = g.fetchSession(sid)
	}
	if err != nil {
		return err
	}

	session := &SessionData{
		sessionID:  info.ID,
		state:      info.Snapshot,
		periodMs:   info.TickPeriodMs,
		lastUpdate: time.Now(),
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(g.baseURL, info.ID), nil)
	if err != nil {
		return fmt.Errorf("websocket connect failed: %w", err)
	}
	session.wsConn = conn
	log.Printf("WebSocket connected for session %s", info.ID)

	g.stateMutex.Lock()
	g.sessions = append(g.sessions, session)
	g.activeSession = len(g.sessions) - 1
	g.stateMutex.Unlock()

	go g.listenWebSocket(session)
	return nil
}

// createSession creates a new game session on the server
func (g *Game) createSession() (*SessionInfo, error) {
	payload, _ := json.Marshal(map[string]string{"config_id": g.configName})
	resp, err := http.Post(g.baseURL+"/api/sessions", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	info, err := decodeSession(resp)
	if err != nil {
		return nil, err
	}
	log.Printf("Created new session: %s (config: %s)", info.ID, info.ConfigName)
	return info, nil
}

// fetchSession loads an existing session
func (g *Game) fetchSession(sid string) (*SessionInfo, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/sessions/%s", g.baseURL, url.PathEscape(sid)))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeSession(resp)
}

func decodeSession(resp *http.Response) (*SessionInfo, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}

	var info SessionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %v (body: %s)", err, body)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("session response has no id")
	}
	return &info, nil
}

// wsURL derives the WebSocket endpoint from the HTTP base URL
func wsURL(baseURL, sessionID string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		u = &url.URL{Scheme: "http", Host: "localhost:8080"}
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	ws := url.URL{Scheme: scheme, Host: u.Host, Path: "/ws"}
	q := ws.Query()
	q.Set("session", sessionID)
	ws.RawQuery = q.Encode()
	return ws.String()
}

// listenWebSocket applies pushed snapshots to the session
func (g *Game) listenWebSocket(session *SessionData) {
	defer session.wsConn.Close()

	for {
		_, message, err := session.wsConn.ReadMessage()
		if err != nil {
			log.Printf("WebSocket read error for %s: %v", session.sessionID, err)
			g.stateMutex.Lock()
			session.lastError = "disconnected"
			g.stateMutex.Unlock()
			return
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			log.Printf("WebSocket JSON parse error: %v", err)
			continue
		}

		g.stateMutex.Lock()
		g.applyMessage(session, &wsMsg, time.Now())
		g.stateMutex.Unlock()
	}
}

// applyMessage updates a session from one server message. Caller holds stateMutex.
func (g *Game) applyMessage(session *SessionData, msg *WSMessage, now time.Time) {
	switch msg.Event {
	case "error":
		var text string
		json.Unmarshal(msg.Data, &text)
		session.lastError = text
		return
	case "ack":
		var speed struct {
			PeriodMs int `json:"period_ms"`
		}
		if json.Unmarshal(msg.Data, &speed) == nil && speed.PeriodMs > 0 {
			session.periodMs = speed.PeriodMs
		}
		return
	}

	if msg.Snapshot == nil {
		return
	}
	wasOver := session.state != nil && session.state.GameOver()
	if msg.Snapshot.GameOver() && !wasOver {
		session.crashTime = now
	}
	session.state = msg.Snapshot
	session.lastError = ""
	session.lastUpdate = now
}

// send writes one action to the active session
func (g *Game) send(msg InputMessage) {
	g.stateMutex.RLock()
	if len(g.sessions) == 0 {
		g.stateMutex.RUnlock()
		return
	}
	session := g.sessions[g.activeSession]
	g.stateMutex.RUnlock()

	session.writeMu.Lock()
	defer session.writeMu.Unlock()
	if err := session.wsConn.WriteJSON(msg); err != nil {
		log.Printf("WebSocket write error for %s: %v", session.sessionID, err)
	}
}

// changeSpeed asks for a new period on the active session
func (g *Game) changeSpeed(delta int) {
	g.stateMutex.Lock()
	if len(g.sessions) == 0 {
		g.stateMutex.Unlock()
		return
	}
	session := g.sessions[g.activeSession]
	session.periodMs = clampPeriod(session.periodMs + delta)
	period := session.periodMs
	g.stateMutex.Unlock()

	g.send(InputMessage{Action: "speed", PeriodMs: period})
}

func clampPeriod(ms int) int {
	if ms < minPeriodMs {
		return minPeriodMs
	}
	if ms > maxPeriodMs {
		return maxPeriodMs
	}
	return ms
}

// Update handles input
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.stateMutex.Lock()
		if len(g.sessions) > 0 {
			g.activeSession = (g.activeSession + 1) % len(g.sessions)
		}
		g.stateMutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		go func() {
			if err := g.addSession(""); err != nil {
				log.Printf("Failed to create session: %v", err)
			}
		}()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) || inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.send(InputMessage{Action: "turn", Direction: "up"})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) || inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.send(InputMessage{Action: "turn", Direction: "down"})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) || inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.send(InputMessage{Action: "turn", Direction: "left"})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) || inpututil.IsKeyJustPressed(ebiten.KeyD) {
		g.send(InputMessage{Action: "turn", Direction: "right"})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.send(InputMessage{Action: "restart"})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		g.changeSpeed(-speedStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		g.changeSpeed(speedStep)
	}
	return nil
}

// Draw renders the active session
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()

	if len(g.sessions) == 0 {
		ebitenutil.DebugPrintAt(screen, "No session. Is the server running? Press N to retry.", boardMargin, boardMargin)
		return
	}
	session := g.sessions[g.activeSession]

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("SNAKE  session %s (%d/%d)  Tab: switch  N: new",
		session.sessionID, g.activeSession+1, len(g.sessions)), boardMargin, 8)

	state := session.state
	if state == nil || state.Width == 0 || state.Height == 0 {
		ebitenutil.DebugPrintAt(screen, "Waiting for the first snapshot...", boardMargin, headerHeight)
		return
	}

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Score: %d   Speed: %dms (%s)   +/-: speed  R: restart",
		state.Score, session.periodMs, speedLabel(session.periodMs)), boardMargin, 28)

	cell := cellSize(state.Width, state.Height)
	originX := float64(boardMargin)
	originY := float64(headerHeight)

	ebitenutil.DrawRect(screen, originX, originY, cell*float64(state.Width), cell*float64(state.Height), boardColor)

	drawCell := func(p Position, clr color.Color) {
		if p.X < 0 || p.Y < 0 || p.X >= state.Width || p.Y >= state.Height {
			return
		}
		ebitenutil.DrawRect(screen, originX+float64(p.X)*cell, originY+float64(p.Y)*cell, cell-1, cell-1, clr)
	}

	drawCell(state.Food, foodColor)
	for i := len(state.Snake) - 1; i >= 0; i-- {
		clr := snakeColor
		if i == 0 {
			clr = snakeHeadColor
		}
		drawCell(state.Snake[i], clr)
	}

	if state.GameOver() {
		if state.CrashAt != nil && time.Since(session.crashTime) < crashDuration {
			drawCell(*state.CrashAt, crashColor)
		}
		ebitenutil.DrawRect(screen, originX, originY, cell*float64(state.Width), cell*float64(state.Height), overlayColor)
		ebitenutil.DebugPrintAt(screen, "Oops! Press R to play again", int(originX)+10, int(originY)+10)
	}

	bottom := int(originY + cell*float64(state.Height) + 10)
	if state.Message != "" {
		ebitenutil.DebugPrintAt(screen, state.Message, boardMargin, bottom)
	}
	if session.lastError != "" {
		ebitenutil.DebugPrintAt(screen, "Error: "+session.lastError, boardMargin, bottom+16)
	}
}

// cellSize fits the board into the window below the header
func cellSize(width, height int) float64 {
	availW := float64(screenWidth - 2*boardMargin)
	availH := float64(screenHeight - headerHeight - 2*boardMargin - 30)
	cw := availW / float64(width)
	ch := availH / float64(height)
	if ch < cw {
		return ch
	}
	return cw
}

// speedLabel mirrors the server's description of a tick period
func speedLabel(ms int) string {
	switch {
	case ms > 500:
		return "Very Slow"
	case ms > 400:
		return "Slow"
	case ms > 300:
		return "Normal"
	case ms > 200:
		return "Fast"
	default:
		return "Super Fast!"
	}
}

// Layout returns the logical screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	server := flag.String("server", "http://localhost:8080", "Game server base URL")
	configName := flag.String("config", "", "Board preset for new sessions")
	flag.Parse()

	// Remaining arguments are session IDs to join
	game := NewGame(*server, *configName, flag.Args())

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Snake - Desktop Client")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
