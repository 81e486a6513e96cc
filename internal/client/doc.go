// Package client is the page-world side of the bridge RPC.
//
// A Client turns Call(ctx, method, params...) into a request envelope sent
// on every transport, then waits for the matching reply. Each call owns one
// entry in the pending table; the first of reply, timeout, cancellation or
// Close removes the entry and settles the call. Anything arriving for an id
// no longer in the table is dropped.
//
// Replies are accepted only from the client's own window or its top frame.
//
// The first call performs core.handshake and keeps the returned token.
// Concurrent first calls share the handshake; a failed handshake is retried
// by the next call.
//
// Example Usage:
//
//	c, err := client.New(client.Options{Window: win, Transports: []transport.Transport{b, e}})
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	if err := c.Storage().Set(ctx, "theme", "dark"); err != nil {
//		return err
//	}
//	resp, err := c.Request(ctx, client.RequestOptions{URL: "https://api.example.com", ResponseType: "json"})
package client
