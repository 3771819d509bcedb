package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinabrahms/padchess/internal/chess"
	"github.com/justinabrahms/padchess/internal/config"
	"github.com/justinabrahms/padchess/internal/padlink"
	"github.com/justinabrahms/padchess/internal/table"
	"github.com/justinabrahms/padchess/internal/web"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const observerBuffer = 64

func main() {
	// Parse command line flags
	var showHelp bool
	var configPath string
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	// Setup logging
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load config
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setLogLevel(cfg)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// The table owns the engine; everything else talks to it
	engine := chess.NewEngine(
		chess.WithLogger(log.Logger.With().Str("component", "engine").Logger()),
		chess.WithHistoryLimit(cfg.Table.HistoryLimit),
	)
	tbl := table.New(engine,
		table.WithLogger(log.Logger.With().Str("component", "table").Logger()),
		table.WithQueueSize(cfg.Table.QueueSize),
	)
	tableDone := make(chan struct{})
	go func() {
		defer close(tableDone)
		_ = tbl.Run(ctx)
	}()

	if _, err := tbl.NewGame(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start a game")
	}

	// Observers
	hub := web.NewHub()
	go hub.Run(ctx)
	updates, unsubscribe := tbl.Subscribe(observerBuffer)
	defer unsubscribe()
	go hub.Forward(ctx, updates)

	// Controller bridge
	var controller *padlink.Client
	if cfg.Controller.Enabled {
		controller = padlink.NewClient(tbl,
			padlink.WithURL(cfg.Controller.URL),
			padlink.WithLogger(log.Logger.With().Str("component", "padlink").Logger()),
		)
		if err := controller.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start controller client")
		}
	}

	service := web.NewService(tbl, cfg)
	router := web.NewRouter(service, hub)

	// Create server
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("controller", cfg.Controller.Enabled).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if controller != nil {
		if err := controller.Stop(); err != nil {
			log.Warn().Err(err).Msg("Controller client did not close cleanly")
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	stop()
	<-tableDone

	log.Info().Msg("Server exited")
}

func setLogLevel(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Development.LogLevel)
	if err != nil || cfg.Development.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Development.Debug && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

func showHelpMessage() {
	fmt.Println(`padchess

DESCRIPTION:
    Chess table for an 8x8 pad controller. Keeps the board, turn and
    undo history, and tells displays which pads to light and which
    sounds to play.

USAGE:
    padchess [OPTIONS]

OPTIONS:
    -h, --help       Show this help message
    -config PATH     Read configuration from PATH instead of ./config.yaml

CONFIGURATION:
    Configured via config.yaml in the current directory or ./config.
    Every key can be overridden with a PADCHESS_ environment variable,
    e.g. PADCHESS_SERVER_PORT=9000.

    Example config.yaml:
        server:
          host: localhost
          port: 8080

        controller:
          enabled: true
          url: ws://localhost:9090/pads

        table:
          queue_size: 64
          history_limit: 0     # 0 keeps every move

        development:
          debug: false
          log_level: info

API ENDPOINTS:
    GET  /api/health      - Service health check
    GET  /api/board       - Current board snapshot
    POST /api/input       - Touch a cell: {"rank":1,"file":4,"pressed":false}
    POST /api/promote     - Resolve a promotion: {"choice":"queen"}
    POST /api/undo        - Take back the last move
    POST /api/new-game    - Reset to the starting position
    GET  /ws              - Live updates for displays

BEHAVIOR:
    - Only pad releases act; presses are ignored
    - Moves are not filtered for check; capturing the king ends the game
    - Graceful shutdown on SIGINT/SIGTERM

EXAMPLES:
    # Start with default configuration
    padchess

    # Play e2-e4 from the command line
    curl -X POST http://localhost:8080/api/input -d '{"rank":1,"file":4}'
    curl -X POST http://localhost:8080/api/input -d '{"rank":3,"file":4}'`)
}
