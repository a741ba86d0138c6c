// Command mazegrid solves maze scenes and serves the results.
//
// It supports three modes:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "solve" – reads one scene file and writes the solved grid as SVG or PNG
//
// Flags control host/port, scene and run directories, debug logging, and
// optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/mazegrid/api"
	"github.com/wricardo/mcp-training/mazegrid/maze/config"
	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/render"
	"github.com/wricardo/mcp-training/mazegrid/maze/run"
	"github.com/wricardo/mcp-training/mazegrid/maze/scene"
	"github.com/wricardo/mcp-training/mazegrid/maze/service"
	"github.com/wricardo/mcp-training/mazegrid/transport/mcp"
	"github.com/wricardo/mcp-training/mazegrid/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "mazegrid"
)

// Run retention
const (
	runMaxAge       = 24 * time.Hour
	cleanupInterval = 1 * time.Hour
	syncInterval    = 5 * time.Second
)

// serverOptions collects what the serving modes need from the command line
type serverOptions struct {
	host         string
	port         int
	sceneDir     string
	defaultScene string
	runsDir      string
	watch        bool
	ngrok        bool
	ngrokAuth    string
	ngrokDomain  string
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "rasterize maze scenes and find shortest paths",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "scenes-dir",
				Value:   "scenes",
				Usage:   "Directory containing scene files",
				Sources: cli.EnvVars("SCENES_DIR"),
			},
			&cli.StringFlag{
				Name:    "default-scene",
				Usage:   "Scene ID served when a request names no scene",
				Sources: cli.EnvVars("DEFAULT_SCENE"),
			},
			&cli.StringFlag{
				Name:    "runs-dir",
				Value:   "runs",
				Usage:   "Directory where solve runs are persisted",
				Sources: cli.EnvVars("RUNS_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Value: true,
				Usage: "Reload scenes when files in the scene directory change",
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
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serveAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts := optionsFrom(cmd)
					mazeService, _, err := initializeServices(opts)
					if err != nil {
						return fmt.Errorf("failed to initialize services: %w", err)
					}
					return runStdioMCPWithInternalServer(mazeService, opts)
				},
			},
			{
				Name:      "solve",
				Usage:     "Solve one scene file and write the annotated grid",
				ArgsUsage: "[scene-file]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "grid.svg",
						Usage:   "Output image (.svg or .png)",
					},
					&cli.StringFlag{
						Name:  "heuristic",
						Value: string(engine.Manhattan),
						Usage: "Search heuristic: manhattan or signed",
					},
					&cli.FloatFlag{
						Name:  "scale",
						Value: render.DefaultStyle().CellPixels,
						Usage: "PNG pixels per grid cell",
					},
				},
				Action: solveAction,
			},
		},
	}
}

// optionsFrom reads the serving flags
func optionsFrom(cmd *cli.Command) serverOptions {
	return serverOptions{
		host:         cmd.String("host"),
		port:         int(cmd.Int("port")),
		sceneDir:     cmd.String("scenes-dir"),
		defaultScene: cmd.String("default-scene"),
		runsDir:      cmd.String("runs-dir"),
		watch:        cmd.Bool("watch"),
		ngrok:        cmd.Bool("ngrok"),
		ngrokAuth:    cmd.String("ngrok-auth"),
		ngrokDomain:  cmd.String("ngrok-domain"),
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	mazeService, configManager, err := initializeServices(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	return runHTTPServer(ctx, mazeService, configManager, opts)
}

// solveAction is the file-to-file mode: scene in, annotated grid image out
func solveAction(ctx context.Context, cmd *cli.Command) error {
	input := cmd.Args().First()
	if input == "" {
		input = "maze.svg"
	}
	output := cmd.String("output")

	doc, err := scene.LoadFile(input)
	if err != nil {
		return err
	}
	sc := doc.Scene()
	if err := engine.ValidateScene(&sc); err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	kind, err := engine.ParseHeuristic(cmd.String("heuristic"))
	if err != nil {
		return err
	}

	format, err := render.ParseFormat(strings.TrimPrefix(filepath.Ext(output), "."))
	if err != nil {
		return fmt.Errorf("output %s: %w", output, err)
	}

	style := render.DefaultStyle()
	if scale := cmd.Float("scale"); scale > 0 {
		style.CellPixels = scale
	}

	solved := engine.Solve(sc, engine.WithHeuristic(kind))

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := render.Write(f, format, solved, style); err != nil {
		f.Close()
		os.Remove(output)
		return fmt.Errorf("failed to render %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(output)
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	r := solved.Result
	if r.Found {
		fmt.Fprintf(cmd.Root().Writer, "%s: %dx%d grid, path cost %d, %d expanded -> %s\n",
			input, solved.Grid.Width, solved.Grid.Height, r.Cost, r.Expanded, output)
	} else {
		fmt.Fprintf(cmd.Root().Writer, "%s: %dx%d grid, no path, %d expanded -> %s\n",
			input, solved.Grid.Width, solved.Grid.Height, r.Expanded, output)
	}
	return nil
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, mazeService service.MazeService, configManager *config.Manager, opts serverOptions) error {
	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.watch {
		if err := configManager.Watch(ctx); err != nil {
			log.Printf("Warning: scene hot reload disabled: %v", err)
		} else {
			log.Printf("Watching %s for scene changes", configManager.Dir())
		}
	}

	// Create WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	apiServer := api.NewServer(mazeService, hub)

	addr := fmt.Sprintf("%s:%d", opts.host, opts.port)

	// Create MCP client for /mcp endpoint
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient.GetMCPServer()))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?scene=<scene_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter, opts)
		}()
	}

	var result error
	select {
	case sig := <-stop:
		log.Printf("Received signal: %v. Shutting down...", sig)
	case err := <-serveErr:
		result = err
	case <-ctx.Done():
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return result
}

// mcpHandler answers single JSON-RPC messages posted to /mcp
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
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

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts serverOptions) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?scene=<scene_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// initializeServices wires the scene catalog, run store and maze service.
// It also starts background routines that prune stale runs.
func initializeServices(opts serverOptions) (service.MazeService, *config.Manager, error) {
	configManager, err := config.NewManager(opts.sceneDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scene catalog: %w", err)
	}
	if opts.defaultScene != "" {
		if err := configManager.SetDefault(opts.defaultScene); err != nil {
			return nil, nil, fmt.Errorf("failed to set default scene %q: %w", opts.defaultScene, err)
		}
		log.Printf("Default scene: %s", opts.defaultScene)
	}

	persistence, err := run.NewFilePersistence(opts.runsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create run persistence: %w", err)
	}

	runManager := run.NewManagerWithPersistence(persistence)
	if err := runManager.LoadPersistedRuns(); err != nil {
		log.Printf("Warning: Failed to load persisted runs: %v", err)
	}

	mazeService := service.NewMazeService(runManager, configManager)

	go runCleanupRoutine(runManager)
	go filesystemSyncRoutine(runManager, persistence)

	return mazeService, configManager, nil
}

// runCleanupRoutine periodically drops runs from memory that have not been
// accessed within runMaxAge. Their files stay on disk.
func runCleanupRoutine(manager *run.Manager) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		removed := manager.CleanupExpiredRuns(runMaxAge)
		if removed > 0 {
			log.Printf("Cleaned up %d expired runs", removed)
		}
	}
}

// filesystemSyncRoutine removes runs from memory when their files are deleted
func filesystemSyncRoutine(manager *run.Manager, persistence run.RunPersistence) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for range ticker.C {
		pruned := pruneOrphanedRuns(manager, persistence)
		if pruned > 0 {
			log.Printf("Filesystem sync: pruned %d orphaned runs from memory", pruned)
		}
	}
}

func pruneOrphanedRuns(manager *run.Manager, persistence run.RunPersistence) int {
	pruned := 0
	for _, r := range manager.List() {
		if !persistence.Exists(r.ID) {
			if err := manager.DeleteFromMemory(r.ID); err == nil {
				pruned++
				log.Printf("Pruned run %s from memory (file deleted)", r.ID)
			}
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at host:port; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(mazeService service.MazeService, opts serverOptions) error {
	externalURL := fmt.Sprintf("http://%s:%d", opts.host, opts.port)
	baseURL := externalURL
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil {
		resp.Body.Close()
	}
	if err == nil && resp.StatusCode < 500 {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run()

		httpServer := &http.Server{
			Handler: api.NewServer(mazeService, hub),
		}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
