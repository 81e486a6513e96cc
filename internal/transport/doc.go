// Package transport moves encoded envelopes between the page world and the
// bridge.
//
// Two in-page transports exist and every message is sent on both:
//   - Broadcast: the same-window message channel
//   - DocumentEvents: a document-scoped custom event
//
// Each runs its own delivery loop, so listeners observe messages in send
// order and a sender never waits for a listener. Socket carries the same
// envelopes over a websocket for peers outside the process.
//
// Example Usage:
//
//	bc, ev := transport.Page(window, protocol.DefaultEventName)
//	cancel := transport.ListenAll([]transport.Transport{bc, ev}, onMessage)
//	defer cancel()
//	err := transport.SendAll(ctx, []transport.Transport{bc, ev}, msg)
package transport
