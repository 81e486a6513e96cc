package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/worldbridge/internal/page"
)

var ErrClosed = errors.New("transport closed")

const defaultQueueSize = 256

// Message is one delivery: an encoded envelope plus the window it came from
type Message struct {
	Source *page.Window
	Data   []byte
}

// Listener receives messages in delivery order. Listeners run on the
// transport's single delivery loop and must not block: a slow listener
// delays every other listener of that transport. Hand work that may block
// to another goroutine.
type Listener func(Message)

// Transport is one channel between the worlds. Send never blocks on
// listeners: delivery happens on the transport's own loop.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
	Listen(fn Listener) (cancel func())
}

// hub is the shared event loop behind the in-page transports: a FIFO queue
// drained by one goroutine that fans each message out to all listeners.
type hub struct {
	queue chan Message
	done  chan struct{}

	mu        sync.RWMutex
	listeners map[uint64]Listener
	nextID    uint64
	closeOnce sync.Once
}

func newHub(size int) *hub {
	if size <= 0 {
		size = defaultQueueSize
	}
	h := &hub{
		queue:     make(chan Message, size),
		done:      make(chan struct{}),
		listeners: make(map[uint64]Listener),
	}
	go h.loop()
	return h
}

func (h *hub) loop() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.queue:
			h.mu.RLock()
			fns := make([]Listener, 0, len(h.listeners))
			for _, fn := range h.listeners {
				fns = append(fns, fn)
			}
			h.mu.RUnlock()

			for _, fn := range fns {
				fn(msg)
			}
		}
	}
}

func (h *hub) send(ctx context.Context, msg Message) error {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-h.done:
		return ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrClosed
	case h.queue <- msg:
		return nil
	}
}

func (h *hub) listen(fn Listener) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

func (h *hub) close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}
