// Package netreq implements the cross-origin HTTP capability behind the
// net.request bridge method.
//
// Built on go-resty/resty over a go-retryablehttp round tripper:
//   - retries with exponential backoff on connection errors and 5xx
//   - a token bucket limiter (x/time/rate)
//   - a circuit breaker (sony/gobreaker) that trips on transport failures
//
// Response bodies are always returned as UTF-8 text. The declared charset is
// honored; undeclared non-UTF-8 bodies are detected with chardet.
//
// Example Usage:
//
//	c := netreq.New(netreq.DefaultOptions())
//	resp, err := c.Do(ctx, capability.HTTPRequest{URL: "https://example.com"})
package netreq
