package client

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/worldbridge/internal/protocol"
)

// Storage is the typed view over the storage.* methods
type Storage struct {
	c *Client
}

// Entry is one storage.setMany item
type Entry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Storage returns the storage facade
func (c *Client) Storage() Storage {
	return Storage{c: c}
}

// Get returns the stored value or def when the key is absent
func (s Storage) Get(ctx context.Context, key string, def any) (any, error) {
	return s.c.Call(ctx, protocol.MethodStorageGet, key, def)
}

func (s Storage) Set(ctx context.Context, key string, value any) error {
	_, err := s.c.Call(ctx, protocol.MethodStorageSet, key, value)
	return err
}

func (s Storage) Delete(ctx context.Context, key string) error {
	_, err := s.c.Call(ctx, protocol.MethodStorageDelete, key)
	return err
}

func (s Storage) ListKeys(ctx context.Context) ([]string, error) {
	res, err := s.c.Call(ctx, protocol.MethodStorageListKeys)
	if err != nil {
		return nil, err
	}
	var keys []string
	if err := decodeInto(res, &keys); err != nil {
		return nil, fmt.Errorf("%s: %w", protocol.MethodStorageListKeys, err)
	}
	return keys, nil
}

// GetAllByPrefix returns every key starting with prefix and its value
func (s Storage) GetAllByPrefix(ctx context.Context, prefix string) (map[string]any, error) {
	res, err := s.c.Call(ctx, protocol.MethodStorageGetAllByPrefix, prefix)
	if err != nil {
		return nil, err
	}
	out, ok := res.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return out, nil
}

// SetMany writes entries in order. A failure leaves earlier writes applied.
func (s Storage) SetMany(ctx context.Context, entries []Entry) error {
	items := make([]any, len(entries))
	for i, e := range entries {
		items[i] = map[string]any{"key": e.Key, "value": e.Value}
	}
	_, err := s.c.Call(ctx, protocol.MethodStorageSetMany, items)
	return err
}

// RequestOptions mirrors the net.request options object
type RequestOptions struct {
	URL             string
	Method          string
	Headers         map[string]string
	Data            any
	Timeout         time.Duration
	ResponseType    string
	WithCredentials bool
}

// Response is the normalized net.request result
type Response struct {
	Status       int               `json:"status"`
	StatusText   string            `json:"statusText"`
	FinalURL     string            `json:"finalUrl"`
	Headers      map[string]string `json:"headers"`
	ResponseText string            `json:"responseText"`
	ResponseJSON any               `json:"responseJson,omitempty"`
}

// Request performs net.request. The call deadline is stretched to cover a
// request timeout longer than the client default.
func (c *Client) Request(ctx context.Context, opts RequestOptions) (*Response, error) {
	params := map[string]any{"url": opts.URL}
	if opts.Method != "" {
		params["method"] = opts.Method
	}
	if len(opts.Headers) > 0 {
		headers := make(map[string]any, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		params["headers"] = headers
	}
	if opts.Data != nil {
		params["data"] = opts.Data
	}
	if opts.Timeout > 0 {
		params["timeoutMs"] = opts.Timeout.Milliseconds()
	}
	if opts.ResponseType != "" {
		params["responseType"] = opts.ResponseType
	}
	if opts.WithCredentials {
		params["withCredentials"] = true
	}

	timeout := c.callTimeout
	if opts.Timeout+time.Second > timeout {
		timeout = opts.Timeout + time.Second
	}

	res, err := c.CallWithTimeout(ctx, protocol.MethodNetRequest, timeout, params)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := decodeInto(res, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", protocol.MethodNetRequest, err)
	}
	return &resp, nil
}

// StyleOptions are the style.add options
type StyleOptions struct {
	ID      string
	Replace bool
}

// AddStyle injects css and returns its styleId. With an ID the call is an
// upsert keyed by that ID.
func (c *Client) AddStyle(ctx context.Context, css string, opts StyleOptions) (string, error) {
	o := map[string]any{}
	if opts.ID != "" {
		o["id"] = opts.ID
	}
	if opts.Replace {
		o["replace"] = true
	}
	res, err := c.Call(ctx, protocol.MethodStyleAdd, css, o)
	if err != nil {
		return "", err
	}
	var out struct {
		StyleID string `json:"styleId"`
	}
	if err := decodeInto(res, &out); err != nil {
		return "", fmt.Errorf("%s: %w", protocol.MethodStyleAdd, err)
	}
	return out.StyleID, nil
}

// RemoveStyle removes a style by styleId or metaId
func (c *Client) RemoveStyle(ctx context.Context, key string) (bool, error) {
	res, err := c.Call(ctx, protocol.MethodStyleRemove, key)
	if err != nil {
		return false, err
	}
	ok, _ := res.(bool)
	return ok, nil
}

// ClearStylesByPrefix removes every style whose key starts with prefix
func (c *Client) ClearStylesByPrefix(ctx context.Context, prefix string) (int, error) {
	res, err := c.Call(ctx, protocol.MethodStyleClearByPrefix, prefix)
	if err != nil {
		return 0, err
	}
	n, _ := res.(float64)
	return int(n), nil
}

// SetClipboard writes text, reporting whether any clipboard path took it
func (c *Client) SetClipboard(ctx context.Context, text string) (bool, error) {
	res, err := c.Call(ctx, protocol.MethodClipboardSetText, text)
	if err != nil {
		return false, err
	}
	ok, _ := res.(bool)
	return ok, nil
}

// Log sends a diagnostic entry to the host logger
func (c *Client) Log(ctx context.Context, level, message string, data any) error {
	entry := map[string]any{"level": level, "message": message}
	if data != nil {
		entry["data"] = data
	}
	_, err := c.Call(ctx, protocol.MethodLog, entry)
	return err
}
