package transport

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/worldbridge/internal/page"
	"github.com/gorilla/websocket"
)

const socketWriteTimeout = 10 * time.Second

// Socket carries envelopes over a websocket connection. Inbound frames are
// attributed to source, the window the remote peer is acting for.
type Socket struct {
	conn   *websocket.Conn
	source *page.Window
	hub    *hub

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewSocket wraps an established connection
func NewSocket(conn *websocket.Conn, source *page.Window) *Socket {
	return &Socket{conn: conn, source: source, hub: newHub(defaultQueueSize)}
}

func (s *Socket) Name() string { return "websocket" }

// Send writes one text frame; gorilla connections allow a single writer
func (s *Socket) Send(ctx context.Context, msg Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Now().Add(socketWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, msg.Data)
}

func (s *Socket) Listen(fn Listener) func() {
	return s.hub.listen(fn)
}

// Run reads frames until the connection fails or ctx ends
func (s *Socket) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stop:
		}
	}()

	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			s.Close()
			return err
		}
		if kind != websocket.TextMessage {
			continue
		}
		if err := s.hub.send(ctx, Message{Source: s.source, Data: data}); err != nil {
			return err
		}
	}
}

// Close shuts the connection and stops delivery
func (s *Socket) Close() {
	s.closeOnce.Do(func() {
		s.hub.close()
		_ = s.conn.Close()
	})
}
