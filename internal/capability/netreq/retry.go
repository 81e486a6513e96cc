package netreq

import (
	"context"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

type methodKey struct{}

// withMethod records the request method for the retry policy, which only
// sees a response and may not get one on transport errors.
func withMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, methodKey{}, method)
}

// idempotentRetryPolicy retries like retryablehttp.DefaultRetryPolicy but
// only for methods that are safe to send twice.
func idempotentRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if !retryable(requestMethod(ctx, resp)) {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func requestMethod(ctx context.Context, resp *http.Response) string {
	if resp != nil && resp.Request != nil {
		return resp.Request.Method
	}
	if m, ok := ctx.Value(methodKey{}).(string); ok && m != "" {
		return m
	}
	return http.MethodGet
}

func retryable(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
