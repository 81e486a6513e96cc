package transport

import (
	"context"

	"github.com/GriffinCanCode/worldbridge/internal/page"
)

// Broadcast is the same-window message channel: anything posted to the
// window reaches every listener registered on it.
type Broadcast struct {
	window *page.Window
	hub    *hub
}

// NewBroadcast binds a message channel to window
func NewBroadcast(window *page.Window) *Broadcast {
	return &Broadcast{window: window, hub: newHub(defaultQueueSize)}
}

func (b *Broadcast) Name() string { return "broadcast" }

// Window returns the window the channel is bound to
func (b *Broadcast) Window() *page.Window { return b.window }

func (b *Broadcast) Send(ctx context.Context, msg Message) error {
	return b.hub.send(ctx, msg)
}

func (b *Broadcast) Listen(fn Listener) func() {
	return b.hub.listen(fn)
}

// Close stops delivery; later sends fail with ErrClosed
func (b *Broadcast) Close() {
	b.hub.close()
}

// DocumentEvents is the document-scoped custom event channel. Only listeners
// of the same event name on the same document see a dispatch.
type DocumentEvents struct {
	document *page.Document
	event    string
	hub      *hub
}

// NewDocumentEvents binds a custom event to document
func NewDocumentEvents(document *page.Document, event string) *DocumentEvents {
	return &DocumentEvents{document: document, event: event, hub: newHub(defaultQueueSize)}
}

func (d *DocumentEvents) Name() string { return "event:" + d.event }

// Event returns the custom event name
func (d *DocumentEvents) Event() string { return d.event }

func (d *DocumentEvents) Send(ctx context.Context, msg Message) error {
	return d.hub.send(ctx, msg)
}

func (d *DocumentEvents) Listen(fn Listener) func() {
	return d.hub.listen(fn)
}

// Close stops delivery; later sends fail with ErrClosed
func (d *DocumentEvents) Close() {
	d.hub.close()
}
