package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/worldbridge/internal/page"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu   sync.Mutex
	msgs []Message
}

func (c *collector) listen(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
}

func (c *collector) data() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.msgs))
	for i, m := range c.msgs {
		out[i] = string(m.Data)
	}
	return out
}

func TestBroadcastDeliversInOrder(t *testing.T) {
	win := page.NewWindow("https://example.com")
	b := NewBroadcast(win)
	defer b.Close()

	var c collector
	cancel := b.Listen(c.listen)
	defer cancel()

	ctx := context.Background()
	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, b.Send(ctx, Message{Source: win, Data: []byte(s)}))
	}

	assert.Eventually(t, func() bool { return len(c.data()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, c.data())
}

func TestListenCancel(t *testing.T) {
	win := page.NewWindow("https://example.com")
	events := NewDocumentEvents(win.Document(), "test:event")
	defer events.Close()

	var c collector
	cancel := events.Listen(c.listen)
	cancel()
	cancel()

	require.NoError(t, events.Send(context.Background(), Message{Source: win, Data: []byte("x")}))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, c.data())
	assert.Equal(t, "event:test:event", events.Name())
}

func TestSendAfterClose(t *testing.T) {
	b := NewBroadcast(page.NewWindow("https://example.com"))
	b.Close()
	b.Close()

	err := b.Send(context.Background(), Message{Data: []byte("x")})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSendAllRedundancy(t *testing.T) {
	win := page.NewWindow("https://example.com")
	b, e := Page(win, "test:event")
	defer e.Close()
	b.Close()

	var c collector
	cancel := ListenAll([]Transport{b, e}, c.listen)
	defer cancel()

	err := SendAll(context.Background(), []Transport{b, e}, Message{Source: win, Data: []byte("only-events")})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return len(c.data()) == 1 }, time.Second, 5*time.Millisecond)

	e.Close()
	err = SendAll(context.Background(), []Transport{b, e}, Message{Data: []byte("nowhere")})
	assert.ErrorIs(t, err, ErrClosed)

	assert.Error(t, SendAll(context.Background(), nil, Message{}))
}

func TestSocketRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(kind, append([]byte("echo:"), data...)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	remote := page.NewWindow("https://remote.example")
	sock := NewSocket(conn, remote)
	defer sock.Close()

	var c collector
	sock.Listen(c.listen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sock.Run(ctx)

	require.NoError(t, sock.Send(ctx, Message{Data: []byte("hi")}))

	assert.Eventually(t, func() bool { return len(c.data()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"echo:hi"}, c.data())

	c.mu.Lock()
	assert.Same(t, remote, c.msgs[0].Source)
	c.mu.Unlock()
}
