package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/cleaningrobot/api"
	"github.com/wricardo/mcp-training/cleaningrobot/logging"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/config"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/runs"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/service"
	"github.com/wricardo/mcp-training/cleaningrobot/transport/mcp"
	"github.com/wricardo/mcp-training/cleaningrobot/transport/websocket"
)

const (
	defaultExternalAPI = "http://localhost:8080"
	cleanupInterval    = time.Hour
)

// getScenarioDirDefault returns the default scenario directory.
// It first honors the SCENARIO_DIR environment variable, then falls back to "scenarios".
func getScenarioDirDefault() string {
	if dir := os.Getenv("SCENARIO_DIR"); dir != "" {
		return dir
	}
	return "scenarios"
}

func scenarioDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "scenario-dir",
		Usage:   "directory containing scenario documents",
		Value:   "scenarios",
		Sources: cli.EnvVars("SCENARIO_DIR"),
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server with REST API, WebSocket, and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host", Value: "localhost", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port", Value: 8080, Sources: cli.EnvVars("PORT")},
			scenarioDirFlag(),
			&cli.DurationFlag{Name: "run-ttl", Usage: "how long finished runs are kept", Value: 24 * time.Hour, Sources: cli.EnvVars("RUN_TTL")},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: serveAction,
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "run an MCP stdio server, with an internal HTTP API if none is running",
		Flags: []cli.Flag{
			scenarioDirFlag(),
			&cli.StringFlag{Name: "api-url", Usage: "external API to reuse when reachable", Value: defaultExternalAPI, Sources: cli.EnvVars("ROBOT_API_URL")},
		},
		Action: mcpAction,
	}
}

// tunnelOptions configures the optional ngrok tunnel
type tunnelOptions struct {
	Enabled   bool
	AuthToken string
	Domain    string
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	robotService, store, manager, err := initializeServices(cmd.String("scenario-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go cleanupRoutine(ctx, store, cleanupInterval, cmd.Duration("run-ttl"))
	go func() {
		err := manager.Watch(ctx, func(id string) {
			logging.Info().Add(logging.Scenario(id)).Msg("Scenario changed on disk")
		})
		if err != nil {
			logging.Warn().Add(logging.ErrorField(err)).Msg("Scenario watch stopped")
		}
	}()

	logging.Info().Add(logging.Str("version", Version), logging.Str("scenario_dir", manager.Dir())).
		Msg("Starting " + AppName + " server")

	return runHTTPServer(ctx, robotService, cmd.String("host"), cmd.Int("port"), tunnelOptions{
		Enabled:   cmd.Bool("ngrok"),
		AuthToken: cmd.String("ngrok-auth"),
		Domain:    cmd.String("ngrok-domain"),
	})
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	robotService, _, _, err := initializeServices(cmd.String("scenario-dir"))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	return runStdioMCPWithInternalServer(ctx, robotService, cmd.String("api-url"))
}

// initializeServices wires the run store, scenario manager and robot service.
func initializeServices(scenarioDir string) (service.RobotService, *runs.Store, *config.Manager, error) {
	manager, err := config.NewManager(scenarioDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create scenario manager: %w", err)
	}

	store := runs.NewStore()
	return service.NewRobotService(store, manager), store, manager, nil
}

// newRouter combines the API server with the /mcp endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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
		if response == nil {
			// Notifications have no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// mcpBaseURL is the address the /mcp tools use to reach the API on this server
func mcpBaseURL(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(port))
}

// runHTTPServer serves REST API, WebSocket hub, and the /mcp endpoint until ctx
// is cancelled. If the tunnel is enabled it also provisions a public ngrok URL.
func runHTTPServer(ctx context.Context, robotService service.RobotService, host string, port int, tunnel tunnelOptions) error {
	addr := fmt.Sprintf("%s:%d", host, port)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	apiServer := api.NewServer(robotService, hub)
	mainRouter := newRouter(apiServer, mcp.NewClient(mcpBaseURL(host, port)))

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

		logging.Info().Add(logging.Str("addr", addr)).Msg("HTTP server listening")
		logging.Info().Add(
			logging.Str("rest", fmt.Sprintf("http://%s/api", addr)),
			logging.Str("websocket", fmt.Sprintf("ws://%s/ws?scenario=<name>", addr)),
			logging.Str("mcp", fmt.Sprintf("http://%s/mcp", addr)),
		).Msg("Endpoints")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if tunnel.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, mainRouter, tunnel)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutting down...")
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Add(logging.ErrorField(err)).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	logging.Info().Msg("Server stopped")
	return runErr
}

// serveNgrok serves the router through an ngrok tunnel until ctx is cancelled
func serveNgrok(ctx context.Context, handler http.Handler, opts tunnelOptions) {
	if opts.AuthToken == "" {
		logging.Warn().Msg("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	logging.Info().Msg("Starting ngrok tunnel...")

	var endpoint ngrokConfig.Tunnel
	if opts.Domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.Domain))
		logging.Info().Add(logging.Str("domain", opts.Domain)).Msg("Using custom ngrok domain")
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(opts.AuthToken))
	if err != nil {
		logging.Error().Add(logging.ErrorField(err)).Msg("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logging.Warn().Add(logging.ErrorField(err)).Msg("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logging.Info().Add(
		logging.Str("url", ngrokURL),
		logging.Str("rest", ngrokURL+"/api"),
		logging.Str("mcp", ngrokURL+"/mcp"),
	).Msg("Ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logging.Error().Add(logging.ErrorField(err)).Msg("Ngrok server error")
	}
	logging.Info().Msg("Ngrok tunnel closed")
}

// cleanupRoutine periodically removes runs older than maxAge until ctx is cancelled
func cleanupRoutine(ctx context.Context, store *runs.Store, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := store.CleanupExpired(maxAge); removed > 0 {
				logging.Info().Add(logging.Count("removed", removed)).Msg("Cleaned up expired runs")
			}
		}
	}
}

// apiAvailable reports whether an API server answers the health check at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns its base URL
func startInternalServer(robotService service.RobotService) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	httpServer := &http.Server{
		Handler: api.NewServer(robotService, hub),
	}
	httpServer.RegisterOnShutdown(hub.Stop)

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Add(logging.ErrorField(err)).Msg("Internal HTTP server error")
		}
	}()

	return "http://" + listener.Addr().String(), httpServer, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an external API at externalURL when one answers; otherwise it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, robotService service.RobotService, externalURL string) error {
	baseURL := externalURL

	logging.Info().Add(logging.Str("url", externalURL)).Msg("Checking for external API server")
	if apiAvailable(externalURL) {
		logging.Info().Add(logging.Str("url", externalURL)).Msg("External API server found, using it for MCP")
	} else {
		logging.Info().Msg("No external API server found, starting internal HTTP server")

		internalURL, httpServer, err := startInternalServer(robotService)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		logging.Info().Add(logging.Str("url", internalURL)).Msg("Internal HTTP server started for MCP stdio")
		baseURL = internalURL
	}

	mcpClient := mcp.NewClient(baseURL)
	logging.Info().Add(logging.Str("api", baseURL)).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
