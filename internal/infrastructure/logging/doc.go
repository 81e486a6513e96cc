// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Page code reaches the logger only through the bridge's log method, which
// calls Logger.Page. Level names from the page are case-insensitive; any
// name other than debug, info, warn or warning is written at error level.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("bridge started", zap.Int("methods", 12))
//	logger.Page("warn", "quota low", map[string]any{"used": 90})
package logging
