// Package config provides 12-factor configuration for the bridge server.
//
// Values are layered: Default(), then an optional YAML or TOML file
// (LoadFile), then environment variables. Durations are written as Go
// duration strings ("15s", "2m").
//
// Configuration Sections:
//   - Server: HTTP listen address (loopback by default) and CORS origins
//   - Relay: /bridge websocket relay, off by default, secret or origin gated
//   - Bridge: page origin, event name, handler timeout, de-duplication window
//   - Client: call, handshake and script deadlines
//   - Storage: memory, redis or none
//   - Net: net.request timeout, retries, rate limit
//   - Clipboard: history size and text limit
//   - Logging: level and output format
//   - RateLimit: per-IP HTTP rate limiting
//
// Example Usage:
//
//	cfg, err := config.LoadFile("worldbridge.yaml")
//	if err != nil {
//		cfg = config.LoadOrDefault()
//	}
//
// Environment Variables:
//   - PORT, HOST, ALLOWED_ORIGINS
//   - RELAY_ENABLED, RELAY_SECRET, RELAY_ALLOWED_ORIGINS, RELAY_OUTBOX
//   - PAGE_ORIGIN, PAGE_FILE, BRIDGE_EVENT, BRIDGE_HANDLER_TIMEOUT, BRIDGE_DEDUPE_WINDOW
//   - CLIENT_CALL_TIMEOUT, CLIENT_HANDSHAKE_TIMEOUT, CLIENT_SCRIPT_TIMEOUT
//   - STORAGE_BACKEND, STORAGE_REDIS_URL, STORAGE_NAMESPACE
//   - NET_ENABLED, NET_TIMEOUT, NET_RETRY_MAX, NET_RATE_LIMIT, NET_USER_AGENT
//   - CLIPBOARD_ENABLED, CLIPBOARD_HISTORY, CLIPBOARD_MAX_BYTES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
