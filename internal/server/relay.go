package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/worldbridge/internal/api/middleware"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/worldbridge/internal/page"
	"github.com/GriffinCanCode/worldbridge/internal/protocol"
	"github.com/GriffinCanCode/worldbridge/internal/transport"
)

// RelaySecretHeader carries the relay secret. Browsers cannot set headers on
// a websocket upgrade, so the "secret" query parameter is accepted as well.
const RelaySecretHeader = "X-Relay-Secret"

const defaultOutbox = 64

// relay lets remote page-world peers speak the envelope over a websocket.
// Requests are forwarded onto the page transports as if posted by the peer;
// replies travel back only for ids that peer sent, once each.
type relay struct {
	ctx        context.Context
	transports []transport.Transport
	secret     string
	origins    middleware.CORSConfig
	outbox     int
	upgrader   websocket.Upgrader
	log        *logging.Logger
	metrics    *monitoring.Metrics
	active     atomic.Int64
}

func newRelay(ctx context.Context, transports []transport.Transport, cfg config.RelayConfig, log *logging.Logger, metrics *monitoring.Metrics) *relay {
	outbox := cfg.Outbox
	if outbox <= 0 {
		outbox = defaultOutbox
	}
	return &relay{
		ctx:        ctx,
		transports: transports,
		secret:     cfg.Secret,
		origins:    middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins},
		outbox:     outbox,
		upgrader: websocket.Upgrader{
			// admit runs before the upgrade
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     log,
		metrics: metrics,
	}
}

func (r *relay) connections() int64 {
	return r.active.Load()
}

// admit gates the upgrade. With a secret configured the peer must present
// it; otherwise the peer must be a browser page from an allowed origin.
func (r *relay) admit(req *http.Request) bool {
	if r.secret != "" {
		got := req.Header.Get(RelaySecretHeader)
		if got == "" {
			got = req.URL.Query().Get("secret")
		}
		return subtle.ConstantTimeCompare([]byte(got), []byte(r.secret)) == 1
	}
	origin := req.Header.Get("Origin")
	return origin != "" && r.origins.OriginAllowed(origin)
}

func (r *relay) serve(c *gin.Context) {
	if !r.admit(c.Request) {
		r.log.Warn("relay peer refused",
			zap.String("remote", c.Request.RemoteAddr),
			zap.String("origin", c.Request.Header.Get("Origin")))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "relay: forbidden"})
		return
	}

	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	peer := page.NewWindow("ws://" + connID)
	sock := transport.NewSocket(conn, peer)

	log := r.log.With(zap.String("conn", connID))
	log.Debug("relay connected", zap.String("remote", c.Request.RemoteAddr))

	r.active.Add(1)
	r.metrics.IncWSConnections()
	defer func() {
		r.active.Add(-1)
		r.metrics.DecWSConnections()
	}()

	ctx, cancel := context.WithCancel(r.ctx)

	var mu sync.Mutex
	forwarded := make(map[string]struct{})

	// Page listeners run on the page transports' delivery loop, so replies
	// are queued here and written by a separate goroutine.
	outbox := make(chan transport.Message, r.outbox)
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbox:
				if err := sock.Send(ctx, msg); err != nil {
					log.Debug("reply not relayed", zap.Error(err))
					cancel()
					return
				}
				r.metrics.RecordWSMessage("out")
			}
		}
	}()

	stopPage := transport.ListenAll(r.transports, func(msg transport.Message) {
		env, err := protocol.Decode(msg.Data)
		if err != nil {
			return
		}
		reply, ok := env.Reply()
		if !ok {
			return
		}
		mu.Lock()
		_, mine := forwarded[reply.ID]
		delete(forwarded, reply.ID)
		mu.Unlock()
		if !mine {
			return
		}
		select {
		case outbox <- msg:
		default:
			log.Warn("relay peer not reading, closing", zap.Int("outbox", cap(outbox)))
			cancel()
		}
	})

	stopSock := sock.Listen(func(msg transport.Message) {
		r.metrics.RecordWSMessage("in")
		env, err := protocol.Decode(msg.Data)
		if err != nil {
			log.Debug("undecodable frame", zap.Error(err))
			return
		}
		req, ok := env.Request()
		if !ok || req.ID == "" {
			return
		}
		mu.Lock()
		forwarded[req.ID] = struct{}{}
		mu.Unlock()
		if err := transport.SendAll(ctx, r.transports, msg); err != nil {
			mu.Lock()
			delete(forwarded, req.ID)
			mu.Unlock()
			log.Warn("request not forwarded", zap.String("id", req.ID), zap.Error(err))
		}
	})

	err = sock.Run(ctx)
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
		log.Debug("relay closed", zap.Error(err))
	}

	stopPage()
	stopSock()
	cancel()
	sock.Close()
	writer.Wait()
}
