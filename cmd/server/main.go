package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calcgraph/calcgraph/internal/api"
	"github.com/calcgraph/calcgraph/internal/config"
	"github.com/calcgraph/calcgraph/internal/engine"
	"github.com/calcgraph/calcgraph/internal/graph"
	"github.com/calcgraph/calcgraph/internal/sink"
	"github.com/calcgraph/calcgraph/internal/sink/logsink"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/graph.yaml", "Path to graph YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Build initial graph ───────────────────────────────────────────────────
	g, err := graph.Build(cfg)
	if err != nil {
		slog.Error("failed to build graph", "err", err)
		os.Exit(1)
	}
	slog.Info("graph built",
		"nodes", g.NodeCount(),
		"values", len(cfg.Graph.Values),
		"observers", len(cfg.Graph.Observers),
		"derived", len(cfg.Graph.Derived),
	)

	// ── Sink registry ────────────────────────────────────────────────────────
	reg := sink.NewRegistry()
	reg.Register(logsink.New())

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := engine.New(ctx, g, reg, cfg.Sinks, cfg.Engine)
	if err != nil {
		slog.Error("failed to start engine", "err", err)
		os.Exit(1)
	}

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		newGraph, err := graph.Build(newCfg)
		if err != nil {
			slog.Warn("hot-reload skipped: graph build failed", "err", err)
			return
		}
		if err := eng.SwapGraph(newGraph, newCfg.Sinks); err != nil {
			slog.Warn("hot-reload skipped: sink wiring failed", "err", err)
			return
		}
		slog.Info("graph hot-reloaded", "nodes", newGraph.NodeCount())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop write workers
	eng.Shutdown()
	slog.Info("goodbye")
}
