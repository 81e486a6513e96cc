package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/worldbridge/internal/capability"
	"github.com/GriffinCanCode/worldbridge/internal/protocol"
)

var codec = sonic.ConfigStd

func (b *Bridge) methodTable() map[string]Handler {
	return map[string]Handler{
		protocol.MethodHandshake: b.handshake,

		protocol.MethodStorageGet:            b.storageGet,
		protocol.MethodStorageSet:            b.storageSet,
		protocol.MethodStorageDelete:         b.storageDelete,
		protocol.MethodStorageListKeys:       b.storageListKeys,
		protocol.MethodStorageGetAllByPrefix: b.storageGetAllByPrefix,
		protocol.MethodStorageSetMany:        b.storageSetMany,

		protocol.MethodNetRequest: b.netRequest,

		protocol.MethodStyleAdd:           b.styleAdd,
		protocol.MethodStyleRemove:        b.styleRemove,
		protocol.MethodStyleClearByPrefix: b.styleClearByPrefix,

		protocol.MethodClipboardSetText: b.clipboardSetText,

		protocol.MethodLog: b.logEntry,
	}
}

func (b *Bridge) handshake(context.Context, protocol.Params) (any, error) {
	return protocol.HandshakeResult{
		Token:           b.token,
		ProtocolVersion: protocol.ProtocolVersion,
		Capabilities:    b.host.Describe(),
	}, nil
}

// Storage

func (b *Bridge) storage() (capability.Storage, error) {
	if b.host.Storage == nil {
		return nil, protocol.Unavailable("storage")
	}
	return b.host.Storage, nil
}

func (b *Bridge) storageGet(ctx context.Context, params protocol.Params) (any, error) {
	st, err := b.storage()
	if err != nil {
		return nil, err
	}
	key, err := params.String(0, "key", true)
	if err != nil {
		return nil, err
	}

	v, err := st.Get(ctx, key)
	if errors.Is(err, capability.ErrNotFound) {
		return params.Value(1), nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (b *Bridge) storageSet(ctx context.Context, params protocol.Params) (any, error) {
	st, err := b.storage()
	if err != nil {
		return nil, err
	}
	key, err := params.String(0, "key", true)
	if err != nil {
		return nil, err
	}
	if err := st.Set(ctx, key, params.Value(1)); err != nil {
		return nil, err
	}
	return true, nil
}

func (b *Bridge) storageDelete(ctx context.Context, params protocol.Params) (any, error) {
	st, err := b.storage()
	if err != nil {
		return nil, err
	}
	key, err := params.String(0, "key", true)
	if err != nil {
		return nil, err
	}
	if err := st.Delete(ctx, key); err != nil {
		return nil, err
	}
	return true, nil
}

func (b *Bridge) storageListKeys(ctx context.Context, _ protocol.Params) (any, error) {
	st, err := b.storage()
	if err != nil {
		return nil, err
	}
	return st.ListKeys(ctx)
}

// storageGetAllByPrefix lists then fetches each match. It is not atomic
// against concurrent writers; keys deleted in between are skipped.
func (b *Bridge) storageGetAllByPrefix(ctx context.Context, params protocol.Params) (any, error) {
	st, err := b.storage()
	if err != nil {
		return nil, err
	}
	prefix, err := params.String(0, "prefix", false)
	if err != nil {
		return nil, err
	}

	keys, err := st.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		v, err := st.Get(ctx, k)
		if errors.Is(err, capability.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// storageSetMany writes in list order and stops at the first failure.
// Earlier writes stay applied.
func (b *Bridge) storageSetMany(ctx context.Context, params protocol.Params) (any, error) {
	st, err := b.storage()
	if err != nil {
		return nil, err
	}
	items, err := params.List(0, "items")
	if err != nil {
		return nil, err
	}

	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("items[%d] must be object", i)
		}
		key := protocol.GetString(entry, "key")
		if key == "" {
			return nil, fmt.Errorf("items[%d].key required", i)
		}
		if err := st.Set(ctx, key, entry["value"]); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return true, nil
}

// Network

func (b *Bridge) netRequest(ctx context.Context, params protocol.Params) (any, error) {
	if b.host.HTTP == nil {
		return nil, protocol.Unavailable("net.request")
	}
	opts, err := params.Map(0, "options")
	if err != nil {
		return nil, err
	}
	req, err := normalizeRequest(opts)
	if err != nil {
		return nil, err
	}

	resp, err := b.host.HTTP.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"status":       resp.Status,
		"statusText":   resp.StatusText,
		"finalUrl":     resp.FinalURL,
		"headers":      resp.Headers,
		"responseText": resp.Body,
	}
	if req.ResponseType == "json" {
		var parsed any
		if err := codec.UnmarshalFromString(resp.Body, &parsed); err == nil {
			out["responseJson"] = parsed
		}
	}
	return out, nil
}

func normalizeRequest(opts map[string]any) (capability.HTTPRequest, error) {
	url := protocol.GetString(opts, "url")
	if url == "" {
		return capability.HTTPRequest{}, errors.New("options.url required")
	}

	method := strings.ToUpper(protocol.GetString(opts, "method"))
	if method == "" {
		method = http.MethodGet
	}

	req := capability.HTTPRequest{
		Method:          method,
		URL:             url,
		Headers:         protocol.GetStringMap(opts, "headers"),
		Timeout:         protocol.GetMillis(opts, "timeoutMs"),
		ResponseType:    protocol.GetString(opts, "responseType"),
		WithCredentials: protocol.GetBool(opts, "withCredentials", false),
	}

	switch data := opts["data"].(type) {
	case nil:
	case string:
		req.Body = []byte(data)
	default:
		body, err := codec.Marshal(data)
		if err != nil {
			return capability.HTTPRequest{}, fmt.Errorf("options.data: %w", err)
		}
		req.Body = body
		if !hasHeader(req.Headers, "Content-Type") {
			if req.Headers == nil {
				req.Headers = map[string]string{}
			}
			req.Headers["Content-Type"] = "application/json"
		}
	}
	return req, nil
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// Style

func (b *Bridge) styleAdd(ctx context.Context, params protocol.Params) (any, error) {
	css, err := params.String(0, "cssText", false)
	if err != nil {
		return nil, err
	}
	opts, err := params.Map(1, "options")
	if err != nil {
		return nil, err
	}

	styleID := b.styles.add(ctx, css, protocol.GetString(opts, "id"), protocol.GetBool(opts, "replace", false))
	return map[string]any{"styleId": styleID}, nil
}

func (b *Bridge) styleRemove(_ context.Context, params protocol.Params) (any, error) {
	key, err := params.String(0, "id", true)
	if err != nil {
		return nil, err
	}
	return b.styles.remove(key), nil
}

func (b *Bridge) styleClearByPrefix(_ context.Context, params protocol.Params) (any, error) {
	prefix, err := params.String(0, "prefix", false)
	if err != nil {
		return nil, err
	}
	return b.styles.clearByPrefix(prefix), nil
}

// Clipboard

// clipboardSetText tries the host clipboard, then the document copy path
func (b *Bridge) clipboardSetText(ctx context.Context, params protocol.Params) (any, error) {
	text, err := params.String(0, "text", false)
	if err != nil {
		return nil, err
	}

	if b.host.Clipboard != nil {
		err := b.host.Clipboard.SetText(ctx, text)
		if err == nil {
			return true, nil
		}
		b.log.Warn("clipboard write failed, using document copy", zap.Error(err))
	}
	return b.doc.ExecCopy(text), nil
}

// Log

func (b *Bridge) logEntry(_ context.Context, params protocol.Params) (any, error) {
	entry, err := params.Map(0, "entry")
	if err != nil {
		return nil, err
	}
	b.pageLog.Page(protocol.GetString(entry, "level"), protocol.GetString(entry, "message"), entry["data"])
	return true, nil
}
