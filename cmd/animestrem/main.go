package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yorunoma/animestrem/internal/api"
	"github.com/yorunoma/animestrem/internal/config"
	"github.com/yorunoma/animestrem/internal/indexer"
	"github.com/yorunoma/animestrem/internal/metrics"
	"github.com/yorunoma/animestrem/internal/search"
	"github.com/yorunoma/animestrem/internal/stream"
	"github.com/yorunoma/animestrem/internal/subtitle"
	"github.com/yorunoma/animestrem/internal/swarm"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup structured logging
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting animestrem", "config", *configPath)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure required directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("Failed to create directories", "error", err)
		os.Exit(1)
	}

	// Persistent peer identity
	peerID, err := swarm.GetOrCreatePeerID(cfg.PeerIDPath())
	if err != nil {
		slog.Error("Failed to load peer ID", "error", err)
		os.Exit(1)
	}

	// Download storage: payload files on disk, piece completion in BoltDB
	st, pc, err := swarm.InitStorage(cfg.Torrent.MetadataFolder, cfg.Torrent.DownloadsFolder)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer pc.Close()

	// DHT item store backed by Badger
	itemStore, err := swarm.NewItemStore(cfg.ItemStorePath(), time.Duration(cfg.Torrent.ItemsTTL)*time.Hour)
	if err != nil {
		slog.Error("Failed to open DHT item store", "error", err)
		os.Exit(1)
	}
	defer itemStore.Close()

	// Swarm client and session manager
	client, err := swarm.NewClient(&cfg.Torrent, &swarm.ClientConfig{
		Storage:         st,
		ItemStore:       itemStore,
		PeerID:          peerID,
		PieceCompletion: pc,
	})
	if err != nil {
		slog.Error("Failed to create swarm client", "error", err)
		os.Exit(1)
	}

	addTimeout := time.Duration(cfg.Torrent.AddTimeout) * time.Second
	engine := swarm.NewTorrentEngine(client, cfg.Torrent.DownloadsFolder, addTimeout)
	defer engine.Close()
	sessions := swarm.NewManager(engine)

	// Metrics registry and instruments
	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(registry)
	registry.MustRegister(metrics.NewSessionCollector(sessions))

	// Indexer clients
	indexers := []indexer.Client{
		indexer.NewNyaaClient(cfg.Indexers.NyaaURL, time.Duration(cfg.Indexers.NyaaTimeout)*time.Second),
	}
	if torznab := indexer.NewTorznabClient(
		cfg.Indexers.TorznabURL,
		cfg.Indexers.TorznabAPIKey,
		time.Duration(cfg.Indexers.TorznabTimeout)*time.Second,
	); torznab.Configured() {
		indexers = append(indexers, torznab)
		slog.Info("Torznab indexer configured", "endpoint", cfg.Indexers.TorznabURL)
	}

	aggregator := search.NewAggregator(indexers, appMetrics)

	// Subtitle pipeline
	readyTimeout := time.Duration(cfg.Torrent.ReadyTimeout) * time.Second
	subtitles, err := subtitle.NewService(
		cfg.Subtitles.CacheDir,
		subtitle.NewFFprobe(cfg.Subtitles.FFprobePath),
		subtitle.NewFFmpeg(cfg.Subtitles.FFmpegPath),
		readyTimeout,
		appMetrics,
	)
	if err != nil {
		slog.Error("Failed to initialize subtitle service", "error", err)
		os.Exit(1)
	}

	// HTTP surfaces
	apiServer := api.NewServer(aggregator, sessions, stream.NewStreamer(appMetrics), subtitles, readyTimeout)
	metricsServer := metrics.NewServer(cfg.Server.MetricsPort, registry)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: apiServer.Handler(),
	}

	go func() {
		slog.Info("Starting REST API server", "port", cfg.Server.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("REST API server error", "error", err)
		}
	}()

	go func() {
		if err := metricsServer.Start(); err != nil {
			slog.Error("Metrics server error", "error", err)
		}
	}()

	slog.Info("animestrem is ready",
		"api_url", fmt.Sprintf("http://localhost:%d/api", cfg.Server.HTTPPort),
		"metrics_url", fmt.Sprintf("http://localhost:%d/metrics", cfg.Server.MetricsPort),
	)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	slog.Info("Received signal, shutting down", "signal", sig)

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("REST API server shutdown error", "error", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		slog.Error("Metrics server shutdown error", "error", err)
	}

	slog.Info("animestrem stopped")
}
