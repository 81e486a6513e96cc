package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/worldbridge/internal/page"
	"github.com/GriffinCanCode/worldbridge/internal/protocol"
	"github.com/GriffinCanCode/worldbridge/internal/shared/id"
	"github.com/GriffinCanCode/worldbridge/internal/transport"
)

var codec = sonic.ConfigStd

// ErrClosed is returned by calls on, or pending at, a closed client
var ErrClosed = protocol.ErrClosed

// Options configures a Client
type Options struct {
	Window           *page.Window
	Transports       []transport.Transport
	CallTimeout      time.Duration
	HandshakeTimeout time.Duration
	Logger           *logging.Logger
	Metrics          *monitoring.Metrics
}

type pendingCall struct {
	method string
	reply  chan protocol.Reply
}

type initAttempt struct {
	done chan struct{}
	err  error
}

// Client issues correlated calls to a Bridge. It is safe for concurrent use.
type Client struct {
	window           *page.Window
	transports       []transport.Transport
	callTimeout      time.Duration
	handshakeTimeout time.Duration
	log              *logging.Logger
	metrics          *monitoring.Metrics

	mu           sync.Mutex
	pending      map[string]*pendingCall
	token        string
	capabilities protocol.Capabilities
	attempt      *initAttempt
	closed       bool
	done         chan struct{}
	unlisten     func()
	closeOnce    sync.Once
}

// New creates a client and subscribes it to every transport
func New(opts Options) (*Client, error) {
	if opts.Window == nil {
		return nil, errors.New("client: window required")
	}
	if len(opts.Transports) == 0 {
		return nil, errors.New("client: at least one transport required")
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = protocol.DefaultCallTimeout
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = protocol.DefaultHandshakeTimeout
	}

	c := &Client{
		window:           opts.Window,
		transports:       opts.Transports,
		callTimeout:      opts.CallTimeout,
		handshakeTimeout: opts.HandshakeTimeout,
		log:              logging.OrNop(opts.Logger).Component("client"),
		metrics:          opts.Metrics,
		pending:          make(map[string]*pendingCall),
		done:             make(chan struct{}),
	}
	c.unlisten = transport.ListenAll(opts.Transports, c.onMessage)
	return c, nil
}

// Init performs the handshake once. Concurrent callers share one attempt; a
// failed attempt is forgotten so the next call retries. A caller waiting on
// an attempt whose leader's context ended takes over as the new leader.
func (c *Client) Init(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		if c.token != "" {
			c.mu.Unlock()
			return nil
		}
		a := c.attempt
		leader := a == nil
		if leader {
			a = &initAttempt{done: make(chan struct{})}
			c.attempt = a
		}
		c.mu.Unlock()

		if leader {
			return c.handshake(ctx, a)
		}

		select {
		case <-a.done:
			if isContextErr(a.err) && ctx.Err() == nil {
				continue
			}
			return a.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handshake runs attempt a and publishes its outcome
func (c *Client) handshake(ctx context.Context, a *initAttempt) error {
	result, err := c.roundTrip(ctx, protocol.MethodHandshake, "", c.handshakeTimeout, nil)
	var hs protocol.HandshakeResult
	if err == nil {
		err = decodeInto(result, &hs)
	}
	if err == nil && hs.Token == "" {
		err = fmt.Errorf("%s: empty token", protocol.MethodHandshake)
	}

	c.mu.Lock()
	if err == nil {
		c.token = hs.Token
		c.capabilities = hs.Capabilities
	}
	a.err = err
	c.attempt = nil
	c.mu.Unlock()
	close(a.done)

	if err != nil {
		c.log.Warn("handshake failed", zap.Error(err))
	} else {
		c.log.Debug("handshake complete", zap.String("protocolVersion", hs.ProtocolVersion))
	}
	return err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Capabilities returns the map reported at handshake, nil before Init
func (c *Client) Capabilities() protocol.Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capabilities
}

// Call invokes method with the default timeout
func (c *Client) Call(ctx context.Context, method string, params ...any) (any, error) {
	return c.CallWithTimeout(ctx, method, c.callTimeout, params...)
}

// CallWithTimeout invokes method, initializing first if needed. A failed
// reply becomes a *protocol.CallError.
func (c *Client) CallWithTimeout(ctx context.Context, method string, timeout time.Duration, params ...any) (any, error) {
	if timeout <= 0 {
		timeout = c.callTimeout
	}
	if method == protocol.MethodHandshake {
		return c.roundTrip(ctx, method, "", timeout, params)
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	return c.roundTrip(ctx, method, token, timeout, params)
}

// roundTrip registers a pending entry, sends the request on every transport
// and waits for the first of reply, timeout, cancellation or close.
func (c *Client) roundTrip(ctx context.Context, method, token string, timeout time.Duration, params []any) (any, error) {
	callID := id.NewCallID().String()
	p := &pendingCall{method: method, reply: make(chan protocol.Reply, 1)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[callID] = p
	c.metrics.SetClientPending(len(c.pending))
	c.mu.Unlock()

	timer := monitoring.NewTimer()
	result, err := c.await(ctx, callID, p, token, timeout, params)

	code := ""
	if err != nil {
		code = string(protocol.CodeOf(err))
		if isContextErr(err) {
			code = "canceled"
		}
	}
	c.metrics.RecordClientCall(method, code, timer.Elapsed())
	return result, err
}

func (c *Client) await(ctx context.Context, callID string, p *pendingCall, token string, timeout time.Duration, params []any) (any, error) {
	data, err := protocol.Encode(protocol.Request{ID: callID, Token: token, Method: p.method, Params: params}.Envelope())
	if err != nil {
		c.abandon(callID)
		return nil, fmt.Errorf("%s: %w", p.method, err)
	}

	if err := transport.SendAll(ctx, c.transports, transport.Message{Source: c.window, Data: data}); err != nil {
		c.abandon(callID)
		return nil, fmt.Errorf("%s: send: %w", p.method, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var failure error
	select {
	case r := <-p.reply:
		return settle(p.method, r)
	case <-timer.C:
		failure = protocol.TimeoutError(p.method)
	case <-ctx.Done():
		failure = ctx.Err()
	case <-c.done:
		failure = fmt.Errorf("%s: %w", p.method, ErrClosed)
	}

	if c.abandon(callID) {
		if errors.Is(failure, protocol.ErrTimeout) {
			c.log.Debug("call timed out", zap.String("id", callID), zap.String("method", p.method))
		}
		return nil, failure
	}
	// A reply claimed the entry first and is on its way
	return settle(p.method, <-p.reply)
}

// abandon removes a pending entry, reporting whether this caller removed it
func (c *Client) abandon(callID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[callID]; !ok {
		return false
	}
	delete(c.pending, callID)
	c.metrics.SetClientPending(len(c.pending))
	return true
}

func settle(method string, r protocol.Reply) (any, error) {
	if !r.OK {
		return nil, protocol.ReplyError(method, r)
	}
	return r.Result, nil
}

// onMessage claims the pending entry for a reply from a trusted window
func (c *Client) onMessage(msg transport.Message) {
	if !c.window.Trusts(msg.Source) {
		return
	}
	env, err := protocol.Decode(msg.Data)
	if err != nil {
		return
	}
	reply, ok := env.Reply()
	if !ok {
		return
	}

	c.mu.Lock()
	p, ok := c.pending[reply.ID]
	if ok {
		delete(c.pending, reply.ID)
		c.metrics.SetClientPending(len(c.pending))
	}
	c.mu.Unlock()

	if !ok {
		c.metrics.IncUnmatchedReply()
		return
	}
	p.reply <- reply
}

// Pending returns the number of calls awaiting a reply
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close unsubscribes and fails every pending call with ErrClosed
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.unlisten()
		close(c.done)
	})
}

func decodeInto(v any, out any) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return err
	}
	return codec.Unmarshal(data, out)
}
