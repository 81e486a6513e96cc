// Package main is the entry point for the worldbridge host.
//
// It wires one page window, its two in-page transports and a capability
// host into a bridge, then serves the bridge over HTTP:
//
//	page-world scripts ─┐
//	                    ├─ broadcast + document events ─→ Bridge ─→ storage, net, style, clipboard
//	/bridge websocket  ─┘
//
// Configuration:
//   - Defaults, then an optional -config file (YAML or TOML)
//   - Environment variables (12-factor) over the file
//   - CLI flags over everything
//
// Usage:
//
//	# Production mode
//	./server -config worldbridge.yaml
//
//	# Development mode (colored logs, debug level) with a startup script
//	./server -dev -script feature.js
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
