// Command delivery-deluxe starts the Delivery Deluxe game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from the environment (optionally a .env file) and can be
// overridden by flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/amolgorithm/delivery-deluxe/api"
	"github.com/amolgorithm/delivery-deluxe/game/config"
	"github.com/amolgorithm/delivery-deluxe/game/service"
	"github.com/amolgorithm/delivery-deluxe/game/session"
	"github.com/amolgorithm/delivery-deluxe/transport/mcp"
	"github.com/amolgorithm/delivery-deluxe/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Delivery Deluxe Server"
)

// ServerEnv is the environment-level configuration. Flags override it.
type ServerEnv struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	ConfigDir       string        `env:"CONFIG_DIR" envDefault:"configs"`
	SessionsDir     string        `env:"SESSIONS_DIR" envDefault:"sessions"`
	DefaultConfig   string        `env:"DEFAULT_CONFIG"`
	SessionMaxAge   time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
	SyncInterval    time.Duration `env:"SYNC_INTERVAL" envDefault:"5s"`
	NgrokEnabled    bool          `env:"NGROK_ENABLED"`
	NgrokAuthToken  string        `env:"NGROK_AUTHTOKEN"`
	NgrokDomain     string        `env:"NGROK_DOMAIN"`
}

// Options is the resolved startup configuration.
type Options struct {
	ServerEnv
	Debug   bool
	Version bool
	Mode    string
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s [OPTIONS] [MODE]\n\n", fs.Name())
		fmt.Fprintf(out, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(out, "Available modes:\n")
		fmt.Fprintf(out, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(out, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(out, "  mcp-stdio, mcp   Aliases for stdio-mcp\n")
		fmt.Fprintf(out, "\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s                    # Run HTTP server on default port 8080\n", fs.Name())
		fmt.Fprintf(out, "  %s -port 9090         # Run HTTP server on port 9090\n", fs.Name())
		fmt.Fprintf(out, "  %s stdio-mcp          # Run MCP stdio server\n", fs.Name())
	}
}

// parseOptions layers command-line flags over the environment.
func parseOptions(name string, args []string, base ServerEnv) (*Options, error) {
	opts := &Options{ServerEnv: base, Mode: "server"}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.IntVar(&opts.Port, "port", base.Port, "HTTP server port")
	fs.StringVar(&opts.Host, "host", base.Host, "HTTP server host")
	fs.StringVar(&opts.ConfigDir, "config-dir", base.ConfigDir, "Directory containing game configurations")
	fs.StringVar(&opts.SessionsDir, "sessions-dir", base.SessionsDir, "Directory for persisted sessions")
	fs.StringVar(&opts.DefaultConfig, "default-config", base.DefaultConfig, "Config used when a session names none")
	fs.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&opts.Version, "version", false, "Show version information")
	fs.BoolVar(&opts.NgrokEnabled, "ngrok", base.NgrokEnabled, "Enable ngrok tunnel")
	fs.StringVar(&opts.NgrokAuthToken, "ngrok-auth", base.NgrokAuthToken, "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	fs.StringVar(&opts.NgrokDomain, "ngrok-domain", base.NgrokDomain, "Custom ngrok domain (optional)")
	fs.Usage = usage(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		opts.Mode = fs.Arg(0)
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", opts.Port)
	}
	return opts, nil
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	base, err := env.ParseAs[ServerEnv]()
	if err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	opts, err := parseOptions(os.Args[0], os.Args[1:], base)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	if opts.Version {
		fmt.Printf("%s v%s\n", AppName, Version)
		return
	}

	if opts.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, opts.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initializeServices(opts)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	switch opts.Mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		err = runStdioMCPWithInternalServer(ctx, app)
	case "server", "http":
		err = runHTTPServer(ctx, app, opts)
	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", opts.Mode)
	}

	if saveErr := app.sessions.SaveAllSessions(); saveErr != nil {
		log.Printf("Warning: Failed to save sessions on exit: %v", saveErr)
	}
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

// application holds the wired service graph.
type application struct {
	service     service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	opts        *Options
}

// initializeServices wires session/config managers and the game service.
func initializeServices(opts *Options) (*application, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if opts.DefaultConfig != "" {
		if err := configManager.SetDefault(opts.DefaultConfig); err != nil {
			return nil, fmt.Errorf("failed to select default config %q: %w", opts.DefaultConfig, err)
		}
	}

	persistence, err := session.NewFilePersistence(opts.SessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	return &application{
		service:     service.NewGameService(sessionManager, configManager),
		sessions:    sessionManager,
		persistence: persistence,
		opts:        opts,
	}, nil
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST.
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newHandler combines the REST API, the WebSocket endpoint and /mcp.
func newHandler(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub)
	apiServer.Router().HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return apiServer
}

// runHTTPServer serves until ctx is cancelled. Background maintenance and the
// optional ngrok tunnel share its lifetime.
func runHTTPServer(ctx context.Context, app *application, opts *Options) error {
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	hub := websocket.NewHub()
	handler := newHandler(app.service, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		sessionCleanupRoutine(gctx, app.sessions, opts.CleanupInterval, opts.SessionMaxAge)
		return nil
	})

	g.Go(func() error {
		filesystemSyncRoutine(gctx, app.sessions, app.persistence, opts.SyncInterval)
		return nil
	})

	if opts.NgrokEnabled {
		g.Go(func() error {
			runNgrokTunnel(gctx, opts, handler)
			return nil
		})
	}

	return g.Wait()
}

// runNgrokTunnel exposes handler through ngrok until ctx is cancelled.
// Tunnel failures are logged; the local server keeps running.
func runNgrokTunnel(ctx context.Context, opts *Options, handler http.Handler) {
	authToken := opts.NgrokAuthToken
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// pruneDeletedSessions drops in-memory sessions whose files are gone.
func pruneDeletedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Printf("Pruned session %s from memory (file deleted)", sess.ID)
		}
	}
	return pruned
}

// filesystemSyncRoutine periodically syncs in-memory sessions with the
// sessions directory.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration) {
	if persistence == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneDeletedSessions(manager, persistence); pruned > 0 {
				log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API at http://localhost:8080 when one answers; otherwise it
// serves the API itself on a random loopback port.
func runStdioMCPWithInternalServer(ctx context.Context, app *application) error {
	externalURL := "http://localhost:8080"
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := testClient.Get(externalURL + "/healthz"); err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		return serveStdio(mcp.NewClient(externalURL))
	}

	log.Printf("No external API server found, starting internal HTTP server")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to get available port: %w", err)
	}
	internalAddr := listener.Addr().String()
	log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(app.service, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	defer httpServer.Close()

	return serveStdio(mcp.NewClient("http://" + internalAddr))
}

func serveStdio(client *mcp.Client) error {
	log.Println("MCP stdio server ready")
	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
