package netreq

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/worldbridge/internal/capability"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.RetryMax = 0
	opts.RetryWaitMin = time.Millisecond
	opts.RetryWaitMax = 5 * time.Millisecond
	opts.Timeout = 5 * time.Second
	return opts
}

func TestDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("X-Method", r.Method)
			w.Header().Set("X-Custom", r.Header.Get("X-Custom"))
			_, _ = w.Write(body)
		case "/redirect":
			http.Redirect(w, r, "/echo", http.StatusFound)
		case "/missing":
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(testOptions())
	ctx := context.Background()

	t.Run("post echoes body and headers", func(t *testing.T) {
		resp, err := c.Do(ctx, capability.HTTPRequest{
			Method:  "post",
			URL:     srv.URL + "/echo",
			Headers: map[string]string{"X-Custom": "yes"},
			Body:    []byte("payload"),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "OK", resp.StatusText)
		assert.Equal(t, "payload", resp.Body)
		assert.Equal(t, "POST", resp.Headers["x-method"])
		assert.Equal(t, "yes", resp.Headers["x-custom"])
	})

	t.Run("method defaults to GET and redirects are followed", func(t *testing.T) {
		resp, err := c.Do(ctx, capability.HTTPRequest{URL: srv.URL + "/redirect"})
		require.NoError(t, err)
		assert.Equal(t, "GET", resp.Headers["x-method"])
		assert.Equal(t, srv.URL+"/echo", resp.FinalURL)
	})

	t.Run("error statuses are responses", func(t *testing.T) {
		resp, err := c.Do(ctx, capability.HTTPRequest{URL: srv.URL + "/missing"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, "Not Found", resp.StatusText)
	})

	t.Run("url required", func(t *testing.T) {
		_, err := c.Do(ctx, capability.HTTPRequest{})
		assert.Error(t, err)
	})
}

func TestDoTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(testOptions())
	start := time.Now()
	_, err := c.Do(context.Background(), capability.HTTPRequest{URL: srv.URL, Timeout: 50 * time.Millisecond})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDoRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.RetryMax = 3
	c := New(opts)

	resp, err := c.Do(context.Background(), capability.HTTPRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Body)
	assert.Equal(t, int32(3), hits.Load())
}

func TestDoDoesNotRetryUnsafeMethods(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.RetryMax = 3
	c := New(opts)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		hits.Store(0)
		resp, err := c.Do(context.Background(), capability.HTTPRequest{
			Method: method,
			URL:    srv.URL,
			Body:   []byte(`{"n":1}`),
		})
		require.NoError(t, err, method)
		assert.Equal(t, http.StatusServiceUnavailable, resp.Status, method)
		assert.Equal(t, int32(1), hits.Load(), "%s delivered more than once", method)
	}

	hits.Store(0)
	resp, err := c.Do(context.Background(), capability.HTTPRequest{Method: http.MethodHead, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, int32(4), hits.Load())
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(http.MethodGet))
	assert.True(t, retryable(http.MethodOptions))
	assert.False(t, retryable(http.MethodPost))
	assert.Equal(t, http.MethodPost, requestMethod(withMethod(context.Background(), http.MethodPost), nil))
	assert.Equal(t, http.MethodGet, requestMethod(context.Background(), nil))
}

func TestCredentialsUseCookieJar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			return
		}
		if c, err := r.Cookie("session"); err == nil {
			_, _ = w.Write([]byte(c.Value))
		}
	}))
	defer srv.Close()

	c := New(testOptions())
	ctx := context.Background()

	_, err := c.Do(ctx, capability.HTTPRequest{URL: srv.URL + "/login", WithCredentials: true})
	require.NoError(t, err)

	resp, err := c.Do(ctx, capability.HTTPRequest{URL: srv.URL + "/me", WithCredentials: true})
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Body)

	resp, err = c.Do(ctx, capability.HTTPRequest{URL: srv.URL + "/me"})
	require.NoError(t, err)
	assert.Empty(t, resp.Body)
}

func TestBreakerOpensOnTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(testOptions())
	for i := 0; i < 10; i++ {
		_, err := c.Do(context.Background(), capability.HTTPRequest{URL: url})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err := c.Do(context.Background(), capability.HTTPRequest{URL: url})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRateLimitHonorsContext(t *testing.T) {
	c := New(testOptions())
	c.SetRateLimit(0.001)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, capability.HTTPRequest{URL: "http://127.0.0.1:1"})
	assert.Error(t, err)
}
