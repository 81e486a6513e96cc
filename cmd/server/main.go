package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/logging"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML or TOML config file")
	port := flag.String("port", "", "Server port (overrides config)")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	script := flag.String("script", "", "Page-world script to run against the bridge at startup")
	pageFile := flag.String("page", "", "HTML file to seed the page document (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *pageFile != "" {
		cfg.Bridge.PageFile = *pageFile
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	a, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}

	if *script != "" {
		source, err := os.ReadFile(*script)
		if err != nil {
			logger.Fatal("Failed to read script", zap.String("path", *script), zap.Error(err))
		}
		go a.runScript(context.Background(), *script, string(source))
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- a.server.Run()
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		logger.Info("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.shutdown(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	lc := logging.DefaultConfig()
	if cfg.Development {
		lc = logging.DevelopmentConfig()
	}
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	return logging.New(lc)
}
