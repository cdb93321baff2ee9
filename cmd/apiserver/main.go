// Package main runs the collection manager REST API server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rcharbonnier/allscans/internal/api"
	"github.com/rcharbonnier/allscans/internal/auth"
	"github.com/rcharbonnier/allscans/internal/balancer"
	"github.com/rcharbonnier/allscans/internal/config"
	"github.com/rcharbonnier/allscans/internal/importer"
	"github.com/rcharbonnier/allscans/internal/scryfall"
	"github.com/rcharbonnier/allscans/internal/storage"
	"github.com/rcharbonnier/allscans/internal/version"
)

var (
	port       = flag.Int("port", 0, "API server port (overrides config)")
	dbPath     = flag.String("db-path", "", "Database path (default: ~/.allscans/data.db)")
	configPath = flag.String("config", "", "Path to config.toml (default: ~/.allscans/config.toml)")
)

func main() {
	flag.Parse()

	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := newLogger(cfg.App.DebugMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	finalDBPath := *dbPath
	if finalDBPath == "" {
		finalDBPath = cfg.Database.Path
	}
	if finalDBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Fatal("failed to get home directory", zap.Error(err))
		}
		finalDBPath = filepath.Join(home, ".allscans", "data.db")
	}

	dbConfig := storage.DefaultConfig(finalDBPath)
	dbConfig.AutoMigrate = true
	db, err := storage.Open(dbConfig)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", finalDBPath), zap.Error(err))
	}
	logger.Info("database open", zap.String("path", finalDBPath))

	storageService := storage.NewService(db)
	defer func() {
		if err := storageService.Close(); err != nil {
			logger.Warn("error closing storage", zap.Error(err))
		}
	}()

	var client *scryfall.Client
	if cfg.Scryfall.BaseURL != "" {
		client = scryfall.NewClientWithBaseURL(cfg.Scryfall.BaseURL)
	} else {
		client = scryfall.NewClient()
	}

	services := &api.Services{
		Storage:  storageService,
		Auth:     auth.NewService(storageService.Users(), auth.NewMemorySessionStore(), logger),
		Importer: importer.NewService(storageService, client, logger),
		Balancer: balancer.NewService(storageService, client, logger),
	}

	serverPort := cfg.Server.Port
	if *port != 0 {
		serverPort = *port
	}
	server := api.NewServer(&api.Config{
		Port:           serverPort,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, services, logger)

	if err := server.Start(); err != nil {
		logger.Fatal("failed to start API server", zap.Error(err))
	}
	logger.Info("server running",
		zap.Int("port", server.Port()),
		zap.String("version", version.GetVersion()))

	// Block until interrupted, then drain in-flight requests.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
