// Command autopilot plays Snake against a running server through the REST API.
// Each attempt restarts the session and steers with a shortest-path strategy
// until the run ends; the best score is reported at the end.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// Client talks to one session on the game server
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is bound to
func (c *Client) SessionID() string {
	return c.sessionID
}

// CreateSession creates and starts a session, binding the client to it
func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", map[string]string{"config_id": configID}, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

// Join binds the client to an existing session
func (c *Client) Join(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+sessionID, nil, &info); err != nil {
		return nil, fmt.Errorf("join session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

// State returns the current snapshot
func (c *Client) State(ctx context.Context) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &snap); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &snap, nil
}

// Turn requests a direction for the next step
func (c *Client) Turn(ctx context.Context, d engine.Direction) (*service.TurnResult, error) {
	var result service.TurnResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/turn"), map[string]string{"direction": string(d)}, &result); err != nil {
		return nil, fmt.Errorf("turn: %w", err)
	}
	return &result, nil
}

// Restart begins a new run
func (c *Client) Restart(ctx context.Context) (*engine.Snapshot, error) {
	var resp struct {
		Message  string           `json:"message"`
		Snapshot *engine.Snapshot `json:"snapshot"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/restart"), nil, &resp); err != nil {
		return nil, fmt.Errorf("restart: %w", err)
	}
	return resp.Snapshot, nil
}

// SetSpeed changes the tick period
func (c *Client) SetSpeed(ctx context.Context, periodMs int) (*service.SpeedResult, error) {
	var result service.SpeedResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/speed"), map[string]int{"period_ms": periodMs}, &result); err != nil {
		return nil, fmt.Errorf("set speed: %w", err)
	}
	return &result, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s - %s", resp.Status, string(bytes.TrimSpace(data)))
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(data, result)
}

// Pilot plays runs on one session
type Pilot struct {
	client   *Client
	strategy *Strategy
	poll     time.Duration
	verbose  bool
}

// Play steers one run from snap until it ends and returns the final snapshot.
// Decisions are made once per tick; the server latches the turn for the next step.
func (p *Pilot) Play(ctx context.Context, snap *engine.Snapshot) (*engine.Snapshot, error) {
	lastTick := -1
	for !snap.GameOver() {
		if snap.Tick != lastTick {
			lastTick = snap.Tick
			d := p.strategy.NextDirection(snap)
			if d != "" && d != snap.Direction {
				if _, err := p.client.Turn(ctx, d); err != nil {
					return snap, err
				}
			}
			if p.verbose {
				log.Printf("Tick %d: head %s, food %s, score %d, heading %s",
					snap.Tick, snap.Head(), snap.Food, snap.Score, d)
			}
		}

		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-time.After(p.poll):
		}

		next, err := p.client.State(ctx)
		if err != nil {
			return snap, err
		}
		snap = next
	}
	return snap, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "autopilot",
		Usage: "Play Snake automatically against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL"},
			&cli.StringFlag{Name: "config", Usage: "Board preset for a new session"},
			&cli.StringFlag{Name: "continue", Usage: "Play an existing session by ID"},
			&cli.IntFlag{Name: "speed", Value: engine.MaxTickPeriodMs, Usage: "Tick period in milliseconds"},
			&cli.IntFlag{Name: "attempts", Value: 5, Usage: "Number of runs to play"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Connecting to game server at %s", cmd.String("url"))
	client := NewClient(cmd.String("url"))

	var info *service.SessionInfo
	var err error
	if id := cmd.String("continue"); id != "" {
		info, err = client.Join(ctx, id)
	} else {
		info, err = client.CreateSession(ctx, cmd.String("config"))
	}
	if err != nil {
		return err
	}
	log.Printf("Session %s: %dx%d board", client.SessionID(), info.Snapshot.Width, info.Snapshot.Height)

	speed, err := client.SetSpeed(ctx, cmd.Int("speed"))
	if err != nil {
		return err
	}
	log.Printf("Speed: %dms (%s)", speed.PeriodMs, speed.Label)

	pilot := &Pilot{
		client:   client,
		strategy: NewStrategy(),
		poll:     time.Duration(speed.PeriodMs) * time.Millisecond / 4,
		verbose:  cmd.Bool("v"),
	}

	best := 0
	attempts := cmd.Int("attempts")
	for attempt := 1; attempt <= attempts; attempt++ {
		snap, err := client.Restart(ctx)
		if err != nil {
			return err
		}
		log.Printf("=== 🎮 Attempt %d/%d ===", attempt, attempts)

		final, err := pilot.Play(ctx, snap)
		if err != nil {
			return err
		}
		log.Printf("Attempt %d: score %d after %d ticks (%s)", attempt, final.Score, final.Tick, final.Cause)
		if final.Score > best {
			best = final.Score
		}
	}

	log.Printf("🏁 Best score: %d (session %s)", best, client.SessionID())
	return nil
}
