package protocol

import (
	"fmt"
	"time"
)

// Params are the positional arguments of a request
type Params []any

// Len returns the number of arguments supplied
func (p Params) Len() int {
	return len(p)
}

// Value returns argument i, or nil when absent
func (p Params) Value(i int) any {
	if i < 0 || i >= len(p) {
		return nil
	}
	return p[i]
}

// String extracts a string argument
func (p Params) String(i int, name string, required bool) (string, error) {
	val := p.Value(i)
	if val == nil {
		if required {
			return "", fmt.Errorf("%s parameter required", name)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be string", name)
	}
	if required && str == "" {
		return "", fmt.Errorf("%s cannot be empty", name)
	}
	return str, nil
}

// Map extracts an object argument. Absent or null yields an empty map.
func (p Params) Map(i int, name string) (map[string]any, error) {
	val := p.Value(i)
	if val == nil {
		return map[string]any{}, nil
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be object", name)
	}
	return m, nil
}

// List extracts an array argument
func (p Params) List(i int, name string) ([]any, error) {
	val := p.Value(i)
	if val == nil {
		return nil, fmt.Errorf("%s parameter required", name)
	}
	arr, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be array", name)
	}
	return arr, nil
}

// GetString reads an optional string field of an object argument
func GetString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// GetBool reads a boolean field, falling back to defaultVal
func GetBool(m map[string]any, key string, defaultVal bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return defaultVal
}

// GetNumber reads a numeric field
func GetNumber(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// GetMillis reads a millisecond field as a duration
func GetMillis(m map[string]any, key string) time.Duration {
	ms, ok := GetNumber(m, key)
	if !ok || ms <= 0 {
		return 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// GetStringMap reads an object of scalar values as strings
func GetStringMap(m map[string]any, key string) map[string]string {
	raw, ok := m[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
