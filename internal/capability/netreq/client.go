package netreq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/worldbridge/internal/capability"
	"github.com/GriffinCanCode/worldbridge/internal/infrastructure/logging"
)

// ErrUnavailable is returned while the circuit breaker is open
var ErrUnavailable = errors.New("remote unavailable: circuit breaker open")

// Options configures the client
type Options struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second, 0 means unlimited
	UserAgent    string
	Logger       *logging.Logger
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		Timeout:      30 * time.Second,
		RetryMax:     3,
		RetryWaitMin: time.Second,
		RetryWaitMax: 30 * time.Second,
		UserAgent:    "worldbridge/1.0",
	}
}

// Client performs net.request calls. Requests made without credentials go
// through a cookieless client; credentialed requests share one cookie jar.
type Client struct {
	plain       *resty.Client
	credentials *resty.Client
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	log         *logging.Logger
	mu          sync.RWMutex
}

// New creates a client with retries, rate limiting and a circuit breaker
func New(opts Options) *Client {
	log := logging.OrNop(opts.Logger)

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = nil
	retryClient.CheckRetry = idempotentRetryPolicy
	// Hand the last response back instead of an error so callers see the status
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	transport := &retryablehttp.RoundTripper{Client: retryClient}

	build := func() *resty.Client {
		c := resty.New().
			SetTransport(transport).
			SetTimeout(opts.Timeout).
			SetRetryCount(0)
		if opts.UserAgent != "" {
			c.SetHeader("User-Agent", opts.UserAgent)
		}
		return c
	}

	plain := build()
	plain.SetCookieJar(nil)

	credentials := build()
	jar, _ := cookiejar.New(nil)
	credentials.SetCookieJar(jar)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "net.request",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	c := &Client{
		plain:       plain,
		credentials: credentials,
		breaker:     breaker,
		log:         log,
	}
	c.SetRateLimit(opts.RateLimit)
	return c
}

// SetRateLimit configures requests per second; rps <= 0 disables limiting
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// BreakerState reports the circuit breaker state
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Do performs one request. Transport failures count against the breaker;
// HTTP error statuses do not.
func (c *Client) Do(ctx context.Context, req capability.HTTPRequest) (*capability.HTTPResponse, error) {
	if req.URL == "" {
		return nil, errors.New("url required")
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	rc := c.plain
	if req.WithCredentials {
		rc = c.credentials
	}

	r := rc.R().SetContext(withMethod(ctx, method)).SetHeaders(req.Headers)
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return r.Execute(method, req.URL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		return nil, err
	}

	resp := out.(*resty.Response)
	c.log.Debug("net.request",
		zap.String("method", method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()))
	return toResponse(resp, req.URL), nil
}

func toResponse(resp *resty.Response, requested string) *capability.HTTPResponse {
	headers := make(map[string]string, len(resp.Header()))
	for k, v := range resp.Header() {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = strings.Join(v, ", ")
		}
	}

	body := resp.Body()
	if _, ok := headers["content-type"]; !ok && len(body) > 0 {
		headers["content-type"] = DetectContentType(body)
	}

	finalURL := requested
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}

	return &capability.HTTPResponse{
		Status:     resp.StatusCode(),
		StatusText: statusText(resp.StatusCode(), resp.Status()),
		FinalURL:   finalURL,
		Headers:    headers,
		Body:       DecodeBody(body, headers["content-type"]),
	}
}

// statusText strips the numeric code from an HTTP status line
func statusText(code int, status string) string {
	text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	if text == "" {
		return http.StatusText(code)
	}
	return text
}

var _ capability.HTTPRequester = (*Client)(nil)
