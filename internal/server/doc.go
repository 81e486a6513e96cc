// Package server is the HTTP surface of the bridge host.
//
// Routes:
//   - GET /              service banner
//   - GET /health        liveness, page window and a metrics snapshot
//   - GET /capabilities  registered methods and the capability descriptor
//   - GET /document      the rendered page document
//   - GET /metrics       Prometheus exposition
//   - GET /bridge        websocket relay for remote page-world peers (opt-in)
//
// The relay speaks the same envelope as the in-page transports. A remote
// peer handshakes and calls methods exactly like an in-page client, which
// means it receives the page token. The relay is therefore off by default
// and, when enabled, admits only peers presenting the relay secret or
// browser pages from an allowed origin. Replies to a peer are queued on a
// bounded outbox; a peer that stops reading is disconnected instead of
// holding up the page transports.
package server
