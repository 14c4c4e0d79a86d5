package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmoretti/tictac-server/internal/config"
	"github.com/dmoretti/tictac-server/internal/connection"
	"github.com/dmoretti/tictac-server/internal/hub"
	"github.com/dmoretti/tictac-server/internal/metrics"
	"github.com/dmoretti/tictac-server/internal/session"
	"github.com/dmoretti/tictac-server/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Set up structured logging
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting coordinator",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"port", cfg.Server.Port,
		"grace_delay", cfg.Session.GraceDelay,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Session Registry and hub
	registry := session.NewRegistry(session.Config{
		StrictMoves: cfg.Session.StrictMoves,
	}, logger)

	h := hub.New(hub.Config{
		GraceDelay:  cfg.Session.GraceDelay,
		EventBuffer: hub.DefaultConfig().EventBuffer,
	}, registry, logger)

	// Transport
	wsHandler := connection.NewHandler(connection.ClientConfig{
		PingInterval:    cfg.Connections.PingInterval,
		PongTimeout:     cfg.Connections.PongTimeout,
		WriteTimeout:    cfg.Connections.WriteTimeout,
		SendBuffer:      cfg.Connections.SendBuffer,
		MaxMessageBytes: cfg.Connections.MaxMessageBytes,
	}, h, cfg.Server.AllowedOrigins, logger)

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.WSPath, wsHandler)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintln(w, "tictac-server", version.Version)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(h.Stats())
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return h.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "ws_path", cfg.Server.WSPath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Port, cfg.Metrics.Path, logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("coordinator exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("coordinator stopped")
}
