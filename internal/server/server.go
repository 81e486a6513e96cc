package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/worldbridge/internal/api/middleware"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/worldbridge/internal/page"
	"github.com/GriffinCanCode/worldbridge/internal/protocol"
	"github.com/GriffinCanCode/worldbridge/internal/transport"
)

// Catalog is the read-only view of a bridge the HTTP surface reports
type Catalog interface {
	Methods() []string
	Capabilities() protocol.Capabilities
}

// Options configures a Server
type Options struct {
	Config     *config.Config
	Catalog    Catalog
	Window     *page.Window
	Transports []transport.Transport
	Gatherer   prometheus.Gatherer
	Metrics    *monitoring.Metrics
	Logger     *logging.Logger
}

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	window  *page.Window
	http    *http.Server
	relay   *relay
	catalog Catalog
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	started time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the router. Nothing listens until Run.
func New(opts Options) (*Server, error) {
	if opts.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	if opts.Window == nil || len(opts.Transports) == 0 {
		return nil, errors.New("server: window and transports are required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := logging.OrNop(opts.Logger).Component("server")

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(opts.Metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:  router,
		window:  opts.Window,
		catalog: opts.Catalog,
		logger:  logger,
		config:  cfg,
		metrics: opts.Metrics,
		started: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}
	router.GET("/", s.root)
	router.GET("/health", s.health)
	router.GET("/capabilities", s.capabilities)
	router.GET("/document", s.document)

	if cfg.Relay.Enabled {
		if cfg.Relay.Secret == "" && len(cfg.Relay.AllowedOrigins) == 0 {
			logger.Warn("Relay enabled without a secret or allowed origins; every peer will be refused")
		}
		s.relay = newRelay(ctx, opts.Transports, cfg.Relay, logger.Component("relay"), opts.Metrics)
		router.GET("/bridge", s.relay.serve)
		logger.Info("WebSocket relay enabled",
			zap.Bool("secret", cfg.Relay.Secret != ""),
			zap.Strings("origins", cfg.Relay.AllowedOrigins))
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and closes relay connections
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.cancel()
	return s.http.Shutdown(ctx)
}
