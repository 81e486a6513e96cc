package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/worldbridge/internal/bridge"
	"github.com/GriffinCanCode/worldbridge/internal/capability"
	"github.com/GriffinCanCode/worldbridge/internal/capability/clipboard"
	"github.com/GriffinCanCode/worldbridge/internal/capability/netreq"
	"github.com/GriffinCanCode/worldbridge/internal/capability/storage"
	"github.com/GriffinCanCode/worldbridge/internal/capability/style"
	"github.com/GriffinCanCode/worldbridge/internal/client"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/worldbridge/internal/page"
	"github.com/GriffinCanCode/worldbridge/internal/pageworld"
	"github.com/GriffinCanCode/worldbridge/internal/server"
	"github.com/GriffinCanCode/worldbridge/internal/transport"
)

// app holds everything main wires together
type app struct {
	cfg        *config.Config
	logger     *logging.Logger
	registry   *prometheus.Registry
	metrics    *monitoring.Metrics
	window     *page.Window
	transports []transport.Transport
	host       capability.Host
	board      *clipboard.Board
	bridge     *bridge.Bridge
	server     *server.Server
	closers    []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	logger.Info("Initializing worldbridge",
		zap.String("port", cfg.Server.Port),
		zap.String("page_origin", cfg.Bridge.PageOrigin),
		zap.String("storage", cfg.Storage.Backend),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	window, err := loadWindow(cfg.Bridge)
	if err != nil {
		return nil, err
	}
	broadcast, events := transport.Page(window, cfg.Bridge.EventName)
	logger.Info("Page transports ready",
		zap.String("window", broadcast.Window().ID()),
		zap.String("event", events.Event()),
	)

	a := &app{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		metrics:    metrics,
		window:     window,
		transports: []transport.Transport{broadcast, events},
		closers:    []func(){broadcast.Close, events.Close},
	}

	if err := a.buildHost(ctx); err != nil {
		a.close()
		return nil, err
	}

	br, err := bridge.New(bridge.Options{
		Window:         window,
		Transports:     a.transports,
		Host:           a.host,
		HandlerTimeout: cfg.Bridge.HandlerTimeout.Std(),
		DedupeWindow:   cfg.Bridge.DedupeWindow.Std(),
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create bridge: %w", err)
	}
	br.Start()
	a.bridge = br
	logger.Info("Bridge started", zap.Strings("methods", br.Methods()))

	srv, err := server.New(server.Options{
		Config:     cfg,
		Catalog:    br,
		Window:     window,
		Transports: a.transports,
		Gatherer:   registry,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	a.server = srv

	logger.Info("Server initialized successfully")
	return a, nil
}

// loadWindow creates the page window, seeded from PageFile when set
func loadWindow(cfg config.BridgeConfig) (*page.Window, error) {
	if cfg.PageFile == "" {
		return page.NewWindow(cfg.PageOrigin), nil
	}
	markup, err := os.ReadFile(cfg.PageFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read page file: %w", err)
	}
	doc, err := page.ParseDocument(string(markup))
	if err != nil {
		return nil, err
	}
	return page.NewWindowWithDocument(cfg.PageOrigin, doc), nil
}

// buildHost grants the capabilities the configuration enables. Disabled
// members stay nil so handlers report them unavailable.
func (a *app) buildHost(ctx context.Context) error {
	cfg := a.cfg
	log := a.logger

	switch cfg.Storage.Backend {
	case "memory", "":
		a.host.Storage = storage.NewMemory()
	case "redis":
		rdb, err := storage.NewRedis(ctx, cfg.Storage.RedisURL, cfg.Storage.Namespace)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.host.Storage = rdb
		a.closers = append(a.closers, func() {
			if err := rdb.Close(); err != nil {
				log.Warn("Failed to close redis", zap.Error(err))
			}
		})
	case "none":
		log.Info("Storage capability disabled")
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	a.host.Style = style.NewDocumentInjector(a.window.Document())

	if cfg.Net.Enabled {
		opts := netreq.DefaultOptions()
		opts.Timeout = cfg.Net.Timeout.Std()
		opts.RetryMax = cfg.Net.RetryMax
		opts.RateLimit = cfg.Net.RateLimit
		if cfg.Net.UserAgent != "" {
			opts.UserAgent = cfg.Net.UserAgent
		}
		opts.Logger = log
		a.host.HTTP = netreq.New(opts)
	}

	if cfg.Clipboard.Enabled {
		a.board = clipboard.NewBoard(cfg.Clipboard.History, cfg.Clipboard.MaxBytes)
		a.host.Clipboard = a.board
	} else {
		// Without a clipboard capability the bridge falls back to the
		// document copy command; record what it copies.
		a.window.Document().SetCopySink(func(text string) bool {
			log.Debug("Document copy", zap.Int("bytes", len(text)))
			return true
		})
	}
	return nil
}

// runScript executes a page-world script through a fresh client
func (a *app) runScript(ctx context.Context, name, source string) {
	log := a.logger.With(zap.String("script", name))

	c, err := client.New(client.Options{
		Window:           a.window,
		Transports:       a.transports,
		CallTimeout:      a.cfg.Client.CallTimeout.Std(),
		HandshakeTimeout: a.cfg.Client.HandshakeTimeout.Std(),
		Logger:           a.logger,
		Metrics:          a.metrics,
	})
	if err != nil {
		log.Error("Failed to create client", zap.Error(err))
		return
	}
	defer c.Close()

	pcfg := pageworld.DefaultConfig()
	pcfg.Timeout = a.cfg.Client.ScriptTimeout.Std()
	rt, err := pageworld.New(pcfg, c, a.logger)
	if err != nil {
		log.Error("Failed to create runtime", zap.Error(err))
		return
	}
	defer rt.Close()

	result, err := rt.Execute(ctx, source)
	if err != nil {
		if errors.Is(err, pageworld.ErrInterrupted) {
			log.Warn("Script interrupted", zap.Duration("timeout", pcfg.Timeout))
			return
		}
		log.Error("Script failed", zap.Error(err))
		return
	}
	log.Info("Script finished",
		zap.Any("value", result.Value),
		zap.Int("console", len(result.Console)),
		zap.Duration("duration", result.Duration),
	)
}

func (a *app) shutdown(ctx context.Context) {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("Error during shutdown", zap.Error(err))
		}
	}
	a.close()
}

func (a *app) close() {
	if a.bridge != nil {
		a.bridge.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
