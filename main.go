// Command multiplayer-chess starts the multiplayer chess server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the REST API, WebSocket
//     spectating and an /mcp endpoint, plus the gRPC service on its own port
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Configuration comes from the environment (optionally a .env file) and
// flags. Games live in memory, optionally snapshotted to disk, or in Redis.
// Game events can be published to NATS.
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
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/multiplayer-chess/api"
	"github.com/wricardo/multiplayer-chess/game/config"
	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/service"
	"github.com/wricardo/multiplayer-chess/game/session"
	chessgrpc "github.com/wricardo/multiplayer-chess/transport/grpc"
	"github.com/wricardo/multiplayer-chess/transport/mcp"
	chessnats "github.com/wricardo/multiplayer-chess/transport/nats"
	"github.com/wricardo/multiplayer-chess/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Multiplayer Chess Server"
)

// main loads configuration, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	cfg, err := loadConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, cfg.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer app.Close()

	switch cfg.Mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(ctx, cfg, app)

	case "server", "http":
		runServer(ctx, cfg, app)

	default:
		log.Printf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", cfg.Mode)
	}
}

// application bundles the wired services shared by every mode.
type application struct {
	service service.SessionService
	presets *config.Manager
	hub     *websocket.Hub
	closers []func()
}

// newApp wires the oracle, presets, store, notifiers and session service.
// The hub runs until ctx ends.
func newApp(ctx context.Context, cfg Config) (*application, error) {
	app := &application{}
	oracle := engine.NewChessOracle()
	app.presets = config.NewManager(cfg.PresetDir, oracle)

	store, closeStore, err := openStore(ctx, cfg, oracle)
	if err != nil {
		return nil, fmt.Errorf("failed to open game store: %w", err)
	}
	app.closers = append(app.closers, closeStore)

	app.hub = websocket.NewHub()
	go app.hub.Run(ctx)
	notifiers := service.Notifiers{app.hub}

	if cfg.NATSURL != "" {
		nc, err := chessnats.Connect(cfg.NATSURL, AppName)
		if err != nil {
			app.Close()
			return nil, err
		}
		log.Printf("Publishing game events to NATS at %s (prefix %s)", nc.ConnectedUrl(), cfg.NATSPrefix)
		notifiers = append(notifiers, chessnats.NewPublisher(nc, cfg.NATSPrefix))
		app.closers = append(app.closers, func() {
			if err := nc.Drain(); err != nil {
				log.Printf("NATS drain error: %v", err)
			}
		})
	}

	app.service = service.NewSessionService(store, app.presets, oracle, service.WithNotifier(notifiers))
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// openStore returns the configured game store and a function that releases it.
func openStore(ctx context.Context, cfg Config, oracle engine.Oracle) (service.GameStore, func(), error) {
	if cfg.Store == storeRedis {
		rdb, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using Redis game store (prefix %s)", cfg.RedisPrefix)
		return session.NewRedisStore(rdb, oracle, cfg.RedisPrefix), func() { rdb.Close() }, nil
	}

	if cfg.SnapshotDir == "" {
		return session.NewMemoryStore(), func() {}, nil
	}

	persistence, err := session.NewFilePersistence(cfg.SnapshotDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create game persistence: %w", err)
	}
	store := session.NewMemoryStoreWithPersistence(persistence)
	if err := store.LoadPersisted(oracle); err != nil {
		log.Printf("Warning: Failed to load persisted games: %v", err)
	}
	return store, func() {
		if err := store.SaveAll(); err != nil {
			log.Printf("Warning: Failed to save games on shutdown: %v", err)
		}
	}, nil
}

// newRouter mounts the REST API at the root and the MCP proxy at /mcp.
func newRouter(app *application, baseURL string) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(app.service, app.presets, app.hub))
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// mcpHandler serves single JSON-RPC MCP messages over HTTP POST.
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

// runServer starts the HTTP and gRPC servers and blocks until ctx ends.
// If ngrok is enabled, it also provisions a public tunnel for the HTTP side.
func runServer(ctx context.Context, cfg Config, app *application) {
	addr := cfg.httpAddr()
	mainRouter := newRouter(app, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?game=<game_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	stopGRPC := startGRPC(cfg, app, &wg)

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, mainRouter)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	stopGRPC()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// startGRPC serves the chess gRPC service when a port is configured and
// returns a function that stops it gracefully.
func startGRPC(cfg Config, app *application, wg *sync.WaitGroup) func() {
	if cfg.GRPCPort == 0 {
		return func() {}
	}

	lis, err := net.Listen("tcp", cfg.grpcAddr())
	if err != nil {
		log.Fatalf("Failed to listen for gRPC on %s: %v", cfg.grpcAddr(), err)
	}
	grpcServer, healthServer := chessgrpc.NewGRPCServer(app.service)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("gRPC server listening on %s (service %s)", lis.Addr(), chessgrpc.ServiceName)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("gRPC server error: %v", err)
		}
	}()

	return func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
	}
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends.
func runNgrokTunnel(ctx context.Context, cfg Config, handler http.Handler) {
	if cfg.NgrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
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
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?game=<game_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// externalAPIAvailable reports whether a chess server already answers
// /health at baseURL.
func externalAPIAvailable(ctx context.Context, baseURL string) bool {
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

// startInternalServer serves the REST API on a random loopback port and
// returns its base URL.
func startInternalServer(app *application) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	httpServer := &http.Server{
		Handler: api.NewServer(app.service, app.presets, app.hub),
	}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()

	return fmt.Sprintf("http://%s", listener.Addr()), httpServer, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already running at the configured address; otherwise it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cfg Config, app *application) {
	externalURL := fmt.Sprintf("http://%s", cfg.httpAddr())
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if externalAPIAvailable(ctx, externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")
		internalURL, httpServer, err := startInternalServer(app)
		if err != nil {
			log.Fatalf("Failed to start internal HTTP server: %v", err)
		}
		defer httpServer.Close()
		baseURL = internalURL
		log.Printf("Internal HTTP server for MCP stdio on %s", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Printf("MCP stdio server error: %v", err)
	}
}
