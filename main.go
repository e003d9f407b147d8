// Command solaropoly serves Solaropoly boards.
//
// Subcommands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "layouts" lists or validates the board layouts in the layout directory
//  4. "resolve" resolves a move against a layout without starting a server
//
// Flags control host/port, layout directory, logging and optional ngrok
// tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/solaropoly/api"
	"github.com/wricardo/mcp-training/solaropoly/game/layout"
	"github.com/wricardo/mcp-training/solaropoly/game/service"
	"github.com/wricardo/mcp-training/solaropoly/game/session"
	"github.com/wricardo/mcp-training/solaropoly/internal/logging"
	"github.com/wricardo/mcp-training/solaropoly/transport/mcp"
	"github.com/wricardo/mcp-training/solaropoly/transport/websocket"
	"github.com/wricardo/mcp-training/solaropoly/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Solaropoly Board Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the root command; flags declared here are visible to every subcommand
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "solaropoly",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "layout-dir", Value: "layouts", Usage: "Directory containing board layouts", Sources: cli.EnvVars("LAYOUT_DIR")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.StringFlag{Name: "log-format", Value: "text", Usage: "Log format (text, json)", Sources: cli.EnvVars("LOG_FORMAT")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  mcpAction,
			},
			{
				Name:  "layouts",
				Usage: "Inspect board layouts",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List the layouts in the layout directory",
						Action: listLayoutsAction,
					},
					{
						Name:      "validate",
						Usage:     "Validate layout files (defaults to every file in the layout directory)",
						ArgsUsage: "[file...]",
						Action:    validateLayoutsAction,
					},
				},
			},
			{
				Name:      "resolve",
				Usage:     "Resolve a move on a layout without starting a server",
				ArgsUsage: "<steps>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "layout", Usage: "Layout ID (defaults to the default layout)"},
					&cli.IntFlag{Name: "start", Value: 0, Usage: "Starting square index"},
				},
				Action: resolveAction,
			},
		},
	}
}

// newLogger builds the process logger from the log flags
func newLogger(cmd *cli.Command) *slog.Logger {
	return logging.New(cmd.String("log-level"), cmd.String("log-format"), os.Stderr)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd)
	logger.Info("starting", "app", AppName, "version", Version, "mode", "serve")

	boardService, sessions, err := initializeServices(cmd.String("layout-dir"), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	go sessionCleanupRoutine(ctx, sessions, logger)

	return runHTTPServer(ctx, cmd, boardService, logger)
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command, boardService service.BoardService, logger *slog.Logger) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	apiServer := api.NewServer(boardService, hub, logger)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening", "addr", addr)
		logger.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?board=<board_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), mainRouter, logger)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-serveErr:
		logger.Error("HTTP server failed", "error", runErr)
	}
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	logger.Info("server stopped")
	return runErr
}

// mcpHandler exposes the MCP server over a single POST endpoint
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

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, authToken, domain string, handler http.Handler, logger *slog.Logger) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", "domain", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Error("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"websocket", ngrokURL+"/ws?board=<board_id>",
		"mcp", ngrokURL+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// initializeServices wires the layout and session managers into the board service
func initializeServices(layoutDir string, logger *slog.Logger) (service.BoardService, *session.Manager, error) {
	layouts, err := layout.NewManager(layoutDir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create layout manager: %w", err)
	}

	sessions := session.NewManager(logger)
	return service.NewBoardService(sessions, layouts), sessions, nil
}

// sessionCleanupRoutine periodically removes boards that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Info("cleaned up expired boards", "removed", removed)
			}
		}
	}
}

// mcpAction runs an MCP stdio server. It reuses an API already listening on
// the configured port; otherwise it starts an internal HTTP API on a random
// loopback port and targets that.
func mcpAction(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the MCP protocol, logs go to stderr
	logger := newLogger(cmd)

	externalURL := fmt.Sprintf("http://localhost:%d", int(cmd.Int("port")))
	baseURL := externalURL

	logger.Info("checking for external API server", "url", externalURL)
	if !apiAvailable(ctx, externalURL) {
		logger.Info("no external API server found, starting internal HTTP server")

		boardService, sessions, err := initializeServices(cmd.String("layout-dir"), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		go sessionCleanupRoutine(ctx, sessions, logger)

		internalURL, shutdown, err := startInternalServer(ctx, boardService, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether an API server answers at baseURL
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
	return resp.StatusCode < 500
}

// startInternalServer serves the API on a random loopback port and returns its base URL
func startInternalServer(ctx context.Context, boardService service.BoardService, logger *slog.Logger) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	addr := listener.Addr().String()
	logger.Info("starting internal HTTP server", "addr", addr)

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(boardService, hub, logger)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("internal HTTP server error", "error", err)
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}
	return "http://" + addr, shutdown, nil
}

func listLayoutsAction(ctx context.Context, cmd *cli.Command) error {
	manager, err := layout.NewManager(cmd.String("layout-dir"), newLogger(cmd))
	if err != nil {
		return err
	}

	infos, err := manager.ListLayouts()
	if err != nil {
		return err
	}

	out := output(cmd)
	def := manager.GetDefault()
	for _, info := range infos {
		marker := " "
		if def != nil && def.Name == info.Name {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-12s %-24s %2d squares  %d groups  (%s)\n",
			marker, info.LayoutID, info.Name, info.Squares, info.Groups, info.Format)
	}
	if len(infos) == 0 {
		fmt.Fprintln(out, "no layouts found, boards use the built-in minimal layout")
	}
	return nil
}

func validateLayoutsAction(ctx context.Context, cmd *cli.Command) error {
	var results []validate.Result
	if cmd.Args().Len() > 0 {
		for _, file := range cmd.Args().Slice() {
			results = append(results, validate.File(file))
		}
	} else {
		var err error
		results, err = validate.Dir(cmd.String("layout-dir"))
		if err != nil {
			return err
		}
	}

	if !validate.Report(output(cmd), results) {
		return cli.Exit("some layouts have errors", 1)
	}
	return nil
}

func resolveAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return cli.Exit("usage: solaropoly resolve [--layout ID] [--start N] <steps>", 2)
	}
	steps, err := strconv.Atoi(cmd.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("steps must be an integer: %v", err), 2)
	}

	logger := newLogger(cmd)
	manager, err := layout.NewManager(cmd.String("layout-dir"), logger)
	if err != nil {
		return err
	}

	l := manager.GetDefault()
	if id := cmd.String("layout"); id != "" {
		if l, err = manager.LoadLayout(id); err != nil {
			return err
		}
	}

	b, err := l.Build()
	if err != nil {
		return err
	}

	start := int(cmd.Int("start"))
	pos, err := b.ResolvePosition(start, steps)
	if err != nil {
		return err
	}

	fmt.Fprintf(output(cmd), "%s: from %d moving %d lands on %s (%s), %d lap(s) completed\n",
		l.Name, start, steps, pos.Square.ID(), pos.Square.Name(), pos.LapsCompleted)
	return nil
}

// output returns the writer commands print their results to
func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
