package terminal

import (
	"context"
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/scheduler"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// SpeedStep is how much one +/- key press changes the tick period, in milliseconds
const SpeedStep = 50

// Board origin on screen. Each cell is two columns wide so cells look square.
const (
	boardLeft = 1
	boardTop  = 2
	cellWidth = 2
)

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	styleHead    = tcell.StyleDefault.Background(tcell.ColorDarkGreen)
	styleBody    = tcell.StyleDefault.Background(tcell.ColorLimeGreen)
	styleFood    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleCrash   = tcell.StyleDefault.Background(tcell.ColorRed)
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleOver    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkRed).Bold(true)
)

// action is what a key press asks the game to do
type action int

const (
	actionNone action = iota
	actionTurn
	actionRestart
	actionFaster
	actionSlower
	actionQuit
)

// quitEvent is posted to the screen when the context is cancelled
type quitEvent struct{}

// Option customizes a Game
type Option func(*Game)

// WithChime sets the sound played on every food eaten
func WithChime(c Chime) Option {
	return func(g *Game) {
		g.chime = c
	}
}

// WithClock sets the scheduler's time source
func WithClock(c scheduler.Clock) Option {
	return func(g *Game) {
		g.clock = c
	}
}

// WithEngineOptions passes options to the engine
func WithEngineOptions(opts ...engine.Option) Option {
	return func(g *Game) {
		g.engineOpts = append(g.engineOpts, opts...)
	}
}

// Game hosts one local session on a terminal screen. Snapshots produced by the
// scheduler are posted to the screen's event queue, so all drawing happens on
// the goroutine that runs Run.
type Game struct {
	screen  tcell.Screen
	session *service.Session
	chime   Chime

	clock      scheduler.Clock
	engineOpts []engine.Option

	lastScore int
	width     int
}

// NewGame creates a game for config on an initialized screen
func NewGame(screen tcell.Screen, config *engine.GameConfig, opts ...Option) (*Game, error) {
	g := &Game{
		screen: screen,
		chime:  silentChime{},
		clock:  scheduler.SystemClock,
	}
	for _, opt := range opts {
		opt(g)
	}

	sess, err := service.NewSession("tui", config,
		service.WithRenderer(service.RendererFunc(g.post)),
		service.WithClock(g.clock),
		service.WithEngineOptions(g.engineOpts...),
	)
	if err != nil {
		return nil, err
	}
	g.session = sess
	return g, nil
}

// Session returns the session driven by the game
func (g *Game) Session() *service.Session {
	return g.session
}

// Play opens the terminal, runs a game until the player quits or ctx is done,
// and restores the terminal. Audio failures are logged and the game stays silent.
func Play(ctx context.Context, config *engine.GameConfig, opts ...Option) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	if chime, err := NewSpeakerChime(); err != nil {
		log.Printf("[AUDIO] Sound disabled: %v", err)
	} else {
		opts = append([]Option{WithChime(chime)}, opts...)
	}

	game, err := NewGame(screen, config, opts...)
	if err != nil {
		return err
	}
	return game.Run(ctx)
}

// Run starts the first run and processes events until the player quits or ctx
// is done. It does not initialize or finalize the screen.
func (g *Game) Run(ctx context.Context) error {
	g.screen.HideCursor()

	if _, err := g.session.Start(); err != nil {
		return err
	}
	defer g.session.Stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			g.screen.PostEvent(tcell.NewEventInterrupt(quitEvent{}))
		case <-done:
		}
	}()

	for {
		ev := g.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch ev := ev.(type) {
		case *tcell.EventResize:
			g.screen.Sync()
			g.draw(g.session.Snapshot())

		case *tcell.EventKey:
			if g.handleKey(ev.Key(), ev.Rune()) == actionQuit {
				return nil
			}

		case *tcell.EventInterrupt:
			switch data := ev.Data().(type) {
			case *engine.Snapshot:
				g.onSnapshot(data)
			case quitEvent:
				return ctx.Err()
			}
		}
	}
}

// post is the session's renderer. It runs on the scheduler goroutine and must not block.
func (g *Game) post(_ string, snap *engine.Snapshot) {
	if err := g.screen.PostEvent(tcell.NewEventInterrupt(snap)); err != nil {
		log.Printf("[TUI] Dropped frame %d: %v", snap.Tick, err)
	}
}

// actionFor maps a key press to a game action and, for turns, the direction
func actionFor(key tcell.Key, r rune) (action, engine.Direction) {
	switch key {
	case tcell.KeyUp:
		return actionTurn, engine.Up
	case tcell.KeyDown:
		return actionTurn, engine.Down
	case tcell.KeyLeft:
		return actionTurn, engine.Left
	case tcell.KeyRight:
		return actionTurn, engine.Right
	case tcell.KeyEnter:
		return actionRestart, ""
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit, ""
	case tcell.KeyRune:
	default:
		return actionNone, ""
	}

	switch r {
	case 'w', 'W', 'k':
		return actionTurn, engine.Up
	case 's', 'S', 'j':
		return actionTurn, engine.Down
	case 'a', 'A', 'h':
		return actionTurn, engine.Left
	case 'd', 'D', 'l':
		return actionTurn, engine.Right
	case 'r', 'R', ' ':
		return actionRestart, ""
	case '+', '=':
		return actionFaster, ""
	case '-', '_':
		return actionSlower, ""
	case 'q', 'Q':
		return actionQuit, ""
	}
	return actionNone, ""
}

func (g *Game) handleKey(key tcell.Key, r rune) action {
	act, dir := actionFor(key, r)

	switch act {
	case actionTurn:
		g.session.Turn(dir)
	case actionRestart:
		if _, err := g.session.Start(); err != nil {
			log.Printf("[TUI] Restart failed: %v", err)
		}
	case actionFaster:
		g.changeSpeed(-SpeedStep)
	case actionSlower:
		g.changeSpeed(SpeedStep)
	}
	return act
}

// changeSpeed adjusts the tick period by delta milliseconds, clamped to the valid range
func (g *Game) changeSpeed(delta int) {
	period := g.session.TickPeriodMs() + delta
	if period < engine.MinTickPeriodMs {
		period = engine.MinTickPeriodMs
	}
	if period > engine.MaxTickPeriodMs {
		period = engine.MaxTickPeriodMs
	}
	if err := g.session.SetSpeed(period); err != nil {
		log.Printf("[TUI] Speed change failed: %v", err)
		return
	}
	g.draw(g.session.Snapshot())
}

func (g *Game) onSnapshot(snap *engine.Snapshot) {
	if snap.Score > g.lastScore {
		g.chime.Play()
	}
	g.lastScore = snap.Score
	g.draw(snap)
}

func (g *Game) draw(snap *engine.Snapshot) {
	g.screen.Clear()

	period := g.session.TickPeriodMs()
	drawText(g.screen, 0, 0, styleTitle, fmt.Sprintf("SNAKE  Score: %d  Speed: %dms (%s)",
		snap.Score, period, engine.SpeedLabel(period)))
	drawText(g.screen, 0, 1, styleDefault, "arrows/wasd steer  r restart  +/- speed  q quit")

	g.width = snap.Width
	g.drawBorder(snap.Width, snap.Height)

	if snap.HasFood() {
		g.setCell(snap.Food, '●', styleFood)
	}
	for i := len(snap.Snake) - 1; i >= 0; i-- {
		style := styleBody
		if i == 0 {
			style = styleHead
		}
		g.setCell(snap.Snake[i], ' ', style)
	}

	bottom := boardTop + snap.Height + 2
	if snap.GameOver() {
		if snap.CrashAt != nil {
			g.setCell(*snap.CrashAt, 'X', styleCrash)
		}
		drawText(g.screen, boardLeft, bottom, styleOver, " Oops! Press r to play again ")
		bottom++
	}
	if snap.Message != "" {
		drawText(g.screen, boardLeft, bottom, styleDefault, snap.Message)
	}

	g.screen.Show()
}

// drawBorder frames the board. The frame sits on the cells just outside the
// grid, so a crash into a wall is drawn on the frame.
func (g *Game) drawBorder(width, height int) {
	left, top := boardLeft-1, boardTop
	right := boardLeft + width*cellWidth
	bottom := boardTop + height + 1

	for x := left; x <= right; x++ {
		g.screen.SetContent(x, top, '─', nil, styleBorder)
		g.screen.SetContent(x, bottom, '─', nil, styleBorder)
	}
	for y := top; y <= bottom; y++ {
		g.screen.SetContent(left, y, '│', nil, styleBorder)
		g.screen.SetContent(right, y, '│', nil, styleBorder)
	}
	g.screen.SetContent(left, top, '┌', nil, styleBorder)
	g.screen.SetContent(right, top, '┐', nil, styleBorder)
	g.screen.SetContent(left, bottom, '└', nil, styleBorder)
	g.screen.SetContent(right, bottom, '┘', nil, styleBorder)
}

// setCell draws one board cell; positions just outside the grid land on the frame
func (g *Game) setCell(p engine.Position, r rune, style tcell.Style) {
	x, y := screenPos(p)
	g.screen.SetContent(x, y, r, nil, style)
	if x >= boardLeft && x < boardLeft+g.width*cellWidth {
		g.screen.SetContent(x+1, y, ' ', nil, style)
	}
}

// screenPos returns the left column and row of a board cell
func screenPos(p engine.Position) (int, int) {
	if p.X < 0 {
		return boardLeft - 1, boardTop + 1 + p.Y
	}
	return boardLeft + p.X*cellWidth, boardTop + 1 + p.Y
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
