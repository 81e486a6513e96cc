package bridge

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/worldbridge/internal/capability"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/worldbridge/internal/page"
	"github.com/GriffinCanCode/worldbridge/internal/protocol"
	"github.com/GriffinCanCode/worldbridge/internal/shared/id"
	"github.com/GriffinCanCode/worldbridge/internal/transport"
)

// Defaults
const (
	DefaultHandlerTimeout = 60 * time.Second
	DefaultDedupeWindow   = 2 * time.Minute
	replySendTimeout      = 5 * time.Second
)

// Handler serves one method. Params are positional.
type Handler func(ctx context.Context, params protocol.Params) (any, error)

// Options configures a Bridge
type Options struct {
	Window         *page.Window
	Transports     []transport.Transport
	Host           capability.Host
	HandlerTimeout time.Duration
	DedupeWindow   time.Duration
	Logger         *logging.Logger
	Metrics        *monitoring.Metrics
}

// Bridge holds the token and the method table. It is the only component
// that touches the capability host.
type Bridge struct {
	token      string
	window     *page.Window
	doc        *page.Document
	host       capability.Host
	transports []transport.Transport
	handlers   map[string]Handler
	styles     *styleRegistry
	seen       *seenSet

	handlerTimeout time.Duration
	log            *logging.Logger
	pageLog        *logging.Logger
	metrics        *monitoring.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	cancels   []func()
	startOnce sync.Once
	closeOnce sync.Once
}

// New builds a bridge with a fresh token. It does not listen until Start.
func New(opts Options) (*Bridge, error) {
	if opts.Window == nil {
		return nil, fmt.Errorf("bridge: window required")
	}
	if len(opts.Transports) == 0 {
		return nil, fmt.Errorf("bridge: at least one transport required")
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = DefaultHandlerTimeout
	}
	if opts.DedupeWindow <= 0 {
		opts.DedupeWindow = DefaultDedupeWindow
	}

	token, err := id.NewToken()
	if err != nil {
		return nil, fmt.Errorf("bridge: token: %w", err)
	}

	logger := logging.OrNop(opts.Logger)
	ctx, cancel := context.WithCancel(context.Background())

	b := &Bridge{
		token:          token,
		window:         opts.Window,
		doc:            opts.Window.Document(),
		host:           opts.Host,
		transports:     opts.Transports,
		seen:           newSeenSet(opts.DedupeWindow),
		handlerTimeout: opts.HandlerTimeout,
		log:            logger.Component("bridge"),
		pageLog:        logger.Component("page"),
		metrics:        opts.Metrics,
		ctx:            ctx,
		cancel:         cancel,
	}
	b.styles = newStyleRegistry(b.doc, opts.Host.Style, b.log)
	b.handlers = b.methodTable()
	for _, method := range protocol.Catalog() {
		if _, ok := b.handlers[method]; !ok {
			cancel()
			return nil, fmt.Errorf("bridge: no handler for %s", method)
		}
	}
	return b, nil
}

// Start subscribes to every transport. Calling it again is a no-op.
func (b *Bridge) Start() {
	b.startOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed {
			return
		}
		for _, t := range b.transports {
			b.cancels = append(b.cancels, t.Listen(b.onMessage))
		}
		go b.seen.run(b.ctx)
		b.log.Info("bridge started",
			zap.Int("transports", len(b.transports)),
			zap.Int("methods", len(b.handlers)))
	})
}

// Close detaches from the transports, cancels in-flight handlers and waits
// for them to finish.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		for _, cancel := range b.cancels {
			cancel()
		}
		b.cancels = nil
		b.mu.Unlock()

		b.cancel()
		b.wg.Wait()
		b.log.Info("bridge closed")
	})
}

// Methods lists the registered methods, sorted
func (b *Bridge) Methods() []string {
	out := make([]string, 0, len(b.handlers))
	for m := range b.handlers {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Capabilities reports the advisory capability map
func (b *Bridge) Capabilities() protocol.Capabilities {
	return b.host.Describe()
}

func (b *Bridge) onMessage(msg transport.Message) {
	env, err := protocol.Decode(msg.Data)
	if err != nil {
		b.metrics.IncUndecodable()
		return
	}
	req, ok := env.Request()
	if !ok {
		return
	}
	if !b.seen.add(req.ID, time.Now()) {
		b.metrics.IncDuplicate()
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		b.serve(req)
	}()
}

func (b *Bridge) serve(req protocol.Request) {
	b.metrics.BridgeStarted()
	defer b.metrics.BridgeFinished()

	timer := monitoring.NewTimer()
	reply := b.handle(req)
	b.metrics.RecordBridgeRequest(req.Method, string(reply.Code), timer.Elapsed())

	if !reply.OK {
		b.log.Debug("request failed",
			zap.String("id", req.ID),
			zap.String("method", req.Method),
			zap.String("code", string(reply.Code)),
			zap.String("error", reply.Error))
	}
	b.emit(reply)
}

// handle runs the authorization gate and the handler. It never panics.
func (b *Bridge) handle(req protocol.Request) (reply protocol.Reply) {
	if req.Method != protocol.MethodHandshake && !b.authorized(req.Token) {
		return protocol.Failure(req.ID, protocol.ErrUnauthorized)
	}

	h, ok := b.handlers[req.Method]
	if !ok {
		return protocol.Failure(req.ID, fmt.Errorf("%w: %s", protocol.ErrUnknownMethod, req.Method))
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error("handler panic", zap.String("method", req.Method), zap.Any("panic", r))
			reply = protocol.Failure(req.ID, fmt.Errorf("%w: panic: %v", protocol.ErrHandler, r))
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, b.handlerTimeout)
	defer cancel()

	result, err := h(ctx, protocol.Params(req.Params))
	if err != nil {
		return protocol.Failure(req.ID, err)
	}
	return protocol.Success(req.ID, protocol.Sanitize(result))
}

func (b *Bridge) authorized(token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(b.token)) == 1
}

// emit sends a reply on every transport
func (b *Bridge) emit(reply protocol.Reply) {
	data, err := protocol.Encode(reply.Envelope())
	if err != nil {
		b.log.Error("encode reply", zap.String("id", reply.ID), zap.Error(err))
		data, err = protocol.Encode(protocol.Failure(reply.ID, fmt.Errorf("%w: %v", protocol.ErrHandler, err)).Envelope())
		if err != nil {
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), replySendTimeout)
	defer cancel()

	msg := transport.Message{Source: b.window, Data: data}
	for _, t := range b.transports {
		if err := t.Send(ctx, msg); err != nil {
			b.metrics.IncReplyFailure(t.Name())
			b.log.Debug("reply not sent",
				zap.String("id", reply.ID),
				zap.String("transport", t.Name()),
				zap.Error(err))
		}
	}
}
