package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Every payload goes through the std-compatible sonic config so map keys are
// sorted and HTML is escaped the same way encoding/json would.
var codec = sonic.ConfigStd

// Encode serializes an envelope for a transport
func Encode(env Envelope) ([]byte, error) {
	data, err := codec.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses a transport payload. Payloads that are not envelopes fail.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Kind != KindRequest && env.Kind != KindReply {
		return Envelope{}, fmt.Errorf("decode envelope: unknown kind %q", env.Kind)
	}
	return env, nil
}

// Sanitize round-trips a handler result through serialization so only plain
// JSON values leave the bridge. Values that cannot be serialized (cycles,
// channels, funcs) are replaced by a string naming their type.
//
// encoding/json is used here rather than sonic because it reports pointer
// cycles as an error instead of recursing.
func Sanitize(v any) any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fallbackString(v)
	}
	var out any
	if err := codec.Unmarshal(data, &out); err != nil {
		return fallbackString(v)
	}
	return out
}

func fallbackString(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("[unserializable %T]", v)
}
