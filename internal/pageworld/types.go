package pageworld

import (
	"context"
	"errors"
	"time"
)

// ErrInterrupted is returned when a script is stopped by timeout or
// cancellation
var ErrInterrupted = errors.New("script interrupted")

// Caller is the bridge call surface exposed to scripts
type Caller interface {
	Call(ctx context.Context, method string, params ...any) (any, error)
}

// Config defines runtime configuration
type Config struct {
	Timeout       time.Duration // Execution timeout, bridge calls included
	EnableConsole bool          // Allow console.log/info/warn/error/debug
}

// Result holds execution result
type Result struct {
	Value    any           // Return value
	Console  []LogEntry    // Console output
	Duration time.Duration // Execution time
	Error    error         // Execution error
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, info, warn, error, debug
	Message string    // Joined arguments
	Time    time.Time // Timestamp
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		EnableConsole: true,
	}
}
