/*
Package bridge implements the privileged side of the page RPC.

A Bridge owns the authorization token, the method table and the style
registry. It listens on every configured transport, decodes request
envelopes, and answers each one with exactly one reply, emitted on all
transports.

# Request flow

 1. Decode the envelope; anything that is not a request is ignored.
 2. Drop ids already seen within the de-duplication window. Clients send
    every request on both transports, so each id usually arrives twice.
 3. Check the token (constant time). core.handshake is the only exempt
    method. A failed check replies unauthorized without running a handler.
 4. Look up the handler by exact method name.
 5. Run it on its own goroutine with a bounded context. Panics become
    handler errors.
 6. Sanitize the result through a JSON round trip and reply.

# Capabilities

Handlers discover a missing capability when they run. Storage and
net.request fail with capability_unavailable; style.add writes the node
into the document head itself; clipboard.setText falls back to the
document copy path and reports whether it worked.

# Usage

	b, e := transport.Page(window, protocol.DefaultEventName)
	br, err := bridge.New(bridge.Options{
		Window:     window,
		Transports: []transport.Transport{b, e},
		Host:       capability.Host{Storage: storage.NewMemory()},
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	br.Start()
	defer br.Close()
*/
package bridge
