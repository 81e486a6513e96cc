// Package capability defines the host-granted primitives the bridge wraps.
//
// The bridge is the only component allowed to touch a capability. Each one
// is optional: a Host with a nil member still serves the method, which then
// either falls back (style injection, clipboard) or fails with
// protocol.ErrCapabilityUnavailable.
//
// Implementations:
//   - storage.Memory, storage.Redis: key/value engines
//   - netreq.Client: cross-origin HTTP with retry, rate limit and breaker
//   - clipboard.Board: in-memory clipboard with history
//   - style.DocumentInjector: privileged <style> insertion
package capability
