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

	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/audit"
	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/logger"
	"github.com/dataveil/dataveil/internal/scan"
	"github.com/dataveil/dataveil/internal/server"
	"github.com/dataveil/dataveil/internal/settings"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.Bool("health-check", false, "Perform health check and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("DataVeil %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *healthCheck {
		performHealthCheck()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting DataVeil",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.Int("port", cfg.Server.Port),
	)

	provider, closers, err := buildSettingsProvider(cfg, log)
	if err != nil {
		log.Fatal("Failed to create settings provider", zap.Error(err))
	}
	defer closeAll(closers, log)

	var sink scan.Sink
	var events server.EventsReader
	if cfg.Audit.Enabled {
		store, err := audit.NewStore(cfg.Audit, log.WithComponent("audit").Logger)
		if err != nil {
			log.Fatal("Failed to create audit store", zap.Error(err))
		}
		defer store.Close()
		sink = store
		events = store
	}

	srv := server.New(cfg, log, provider, sink, events)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		serverErrors <- srv.Start()
	}()

	if err := config.Watch(cfg, func(newCfg *config.Config) {
		log.Info("Configuration file changed, restart to apply",
			zap.String("security_mode", newCfg.Security.Mode),
			zap.Float64("min_confidence", newCfg.Scanner.MinConfidence))
	}); err != nil {
		log.Warn("Failed to watch configuration file", zap.Error(err))
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			log.Error("Failed to shutdown server gracefully", zap.Error(err))
			os.Exit(1)
		}

		log.Info("Server shutdown complete")
	}
}

// buildSettingsProvider assembles the configured settings source, with the
// optional Redis read-through cache layered on top.
func buildSettingsProvider(cfg *config.Config, log *logger.Logger) (scan.SettingsProvider, []func() error, error) {
	var closers []func() error
	var provider scan.SettingsProvider

	switch cfg.Settings.Source {
	case "postgres":
		store, err := settings.NewStore(cfg.Settings.DatabaseURL, log.WithComponent("settings").Logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, store.Close)
		provider = store
	default:
		provider = settings.NewStaticProvider(cfg.Settings.Static)
	}

	if cfg.Settings.Cache.Enabled {
		cached, err := settings.NewCachedProvider(provider, cfg.Settings.Cache, log.WithComponent("settings-cache").Logger)
		if err != nil {
			closeAll(closers, log)
			return nil, nil, err
		}
		closers = append(closers, cached.Close)
		provider = cached
	}
	return provider, closers, nil
}

func closeAll(closers []func() error, log *logger.Logger) {
	for _, c := range closers {
		if err := c(); err != nil {
			log.Warn("Failed to close resource", zap.Error(err))
		}
	}
}

// performHealthCheck performs a health check against the running server
func performHealthCheck() {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8080/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}
