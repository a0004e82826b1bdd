// Command snakegame starts the Snake game server.
//
// It supports four commands:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "tui" – plays a local game in the terminal
//  4. "validate" – checks board presets and reports the problems found
//
// Flags control host/port, config directory, debug logging, and optional
// ngrok tunneling for easy external access during development. Every flag can
// also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/snakegame/api"
	"github.com/wricardo/mcp-training/snakegame/game/config"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/service"
	"github.com/wricardo/mcp-training/snakegame/game/session"
	"github.com/wricardo/mcp-training/snakegame/transport/mcp"
	"github.com/wricardo/mcp-training/snakegame/transport/terminal"
	"github.com/wricardo/mcp-training/snakegame/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Snake Game Server"
)

const (
	sessionMaxAge          = 24 * time.Hour
	sessionCleanupInterval = 1 * time.Hour
	shutdownTimeout        = 10 * time.Second
)

// services holds everything a running server needs
type services struct {
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager
	hub      *websocket.Hub
}

// main loads .env, builds the command tree, and runs it until a signal arrives.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// buildCommand assembles the CLI. Root flags are shared by every command.
func buildCommand() *cli.Command {
	return &cli.Command{
		Name:    "snakegame",
		Usage:   "Snake game with REST, WebSocket, MCP and terminal front ends",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing board presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "static-dir",
				Value:   "static",
				Usage:   "Directory served as the browser client",
				Sources: cli.EnvVars("STATIC_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Action: runHTTPServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runHTTPServer,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCPWithInternalServer,
			},
			{
				Name:    "tui",
				Aliases: []string{"play"},
				Usage:   "Play in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Value: config.DefaultConfigName,
						Usage: "Board preset to play",
					},
					&cli.BoolFlag{
						Name:  "mute",
						Usage: "Disable sound",
					},
				},
				Action: runTerminal,
			},
			{
				Name:      "validate",
				Usage:     "Validate board presets (all presets in --config-dir when no files are given)",
				ArgsUsage: "[file.json ...]",
				Action:    runValidate,
			},
		},
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	svc, err := initializeServices(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	go svc.hub.Run()
	go sessionCleanupRoutine(ctx, svc.sessions)

	apiServer := api.NewServer(svc.game, svc.hub, api.WithStaticDir(cmd.String("static-dir")))

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), mainRouter)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Println("Received shutdown signal. Shutting down...")
	case runErr = <-serverErr:
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	svc.sessions.StopAll()
	svc.hub.Stop()

	wg.Wait()
	log.Println("Server stopped")
	return runErr
}

// mcpHandler serves MCP JSON-RPC messages posted over HTTP
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runNgrokTunnel exposes handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)
	log.Printf("  Game UI (ngrok): %s/", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires the hub, session/config managers and the game service.
// Every session renders to the hub.
func initializeServices(configDir string) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	hub := websocket.NewHub()
	sessionManager := session.NewManagerWithRenderer(hub)

	return &services{
		game:     service.NewGameService(sessionManager, configManager),
		sessions: sessionManager,
		configs:  configManager,
		hub:      hub,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured host and port; if unavailable,
// it starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cmd *cli.Command) error {
	externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if !apiAvailable(ctx, externalURL) {
		log.Printf("No external API server found, starting internal HTTP server")

		svc, err := initializeServices(cmd.String("config-dir"))
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		go svc.hub.Run()
		defer svc.hub.Stop()
		defer svc.sessions.StopAll()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		httpServer := &http.Server{
			Handler: api.NewServer(svc.game, svc.hub, api.WithStaticDir(cmd.String("static-dir"))),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		log.Printf("Internal HTTP server for MCP stdio on %s", baseURL)
	} else {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a game server answers its health check at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runTerminal plays a local game. Logging is silenced while the screen is owned by tcell.
func runTerminal(ctx context.Context, cmd *cli.Command) error {
	gameConfig, err := loadTerminalConfig(cmd.String("config-dir"), cmd.String("config"))
	if err != nil {
		return err
	}

	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	var opts []terminal.Option
	if cmd.Bool("mute") {
		opts = append(opts, terminal.WithChime(terminal.ChimeFunc(func() {})))
	}

	err = terminal.Play(ctx, gameConfig, opts...)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadTerminalConfig loads a preset, falling back to the built-in board when the
// config directory is missing.
func loadTerminalConfig(configDir, name string) (*engine.GameConfig, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if name != config.DefaultConfigName {
			return nil, fmt.Errorf("config directory does not exist: %s", configDir)
		}
		return engine.DefaultConfig(), nil
	}

	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	return configManager.LoadConfig(name)
}

// runValidate checks every named file, or every preset in the config directory
func runValidate(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join(cmd.String("config-dir"), "*.json"))
		if err != nil {
			return fmt.Errorf("failed to list presets: %w", err)
		}
		files = matches
	}
	if len(files) == 0 {
		return cli.Exit("no presets found", 1)
	}

	failed := validateFiles(cmd.Root().Writer, files)
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d presets invalid", failed, len(files)), 1)
	}
	return nil
}

// validateFiles writes one report line per file and returns how many failed
func validateFiles(w io.Writer, files []string) int {
	failed := 0
	for _, file := range files {
		cfg, err := engine.LoadGameConfig(file)
		if err != nil {
			failed++
			fmt.Fprintf(w, "✗ %s: %v\n", file, err)
			continue
		}
		fmt.Fprintf(w, "✓ %s: %s %dx%d, start (%d,%d) heading %s, %dms (%s)\n",
			file, cfg.Name, cfg.Width, cfg.Height, cfg.StartX, cfg.StartY,
			cfg.StartDirection, cfg.TickPeriodMs, engine.SpeedLabel(cfg.TickPeriodMs))
	}
	return failed
}
