package capability

import (
	"context"
	"errors"
	"time"

	"github.com/GriffinCanCode/worldbridge/internal/protocol"
	"golang.org/x/net/html"
)

// ErrNotFound is returned by Storage.Get for a missing key
var ErrNotFound = errors.New("key not found")

// Storage is the host key/value store. Values are opaque JSON values.
type Storage interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
}

// StyleInjector adds a stylesheet to the page with host privileges
type StyleInjector interface {
	AddStyle(ctx context.Context, css string) (*html.Node, error)
}

// HTTPRequester performs cross-origin requests
type HTTPRequester interface {
	Do(ctx context.Context, req HTTPRequest) (*HTTPResponse, error)
}

// ClipboardWriter writes text to the system clipboard
type ClipboardWriter interface {
	SetText(ctx context.Context, text string) error
}

// HTTPRequest is the normalized form of net.request options
type HTTPRequest struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            []byte
	Timeout         time.Duration
	ResponseType    string
	WithCredentials bool
}

// HTTPResponse is what the requester hands back
type HTTPResponse struct {
	Status     int
	StatusText string
	FinalURL   string
	Headers    map[string]string
	Body       string
}

// Host is the set of capabilities granted to the bridge. Any member may be
// nil; handlers discover absence when they run.
type Host struct {
	Storage   Storage
	Style     StyleInjector
	HTTP      HTTPRequester
	Clipboard ClipboardWriter
}

// Describe reports the advisory capability map sent at handshake
func (h Host) Describe() protocol.Capabilities {
	storage := h.Storage != nil
	return protocol.Capabilities{
		"storage": {
			"get":    storage,
			"set":    storage,
			"delete": storage,
			"list":   storage,
		},
		"style": {
			"add": h.Style != nil,
		},
		"net": {
			"request": h.HTTP != nil,
		},
		"clipboard": {
			"setText": h.Clipboard != nil,
		},
	}
}
