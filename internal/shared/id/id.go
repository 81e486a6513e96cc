// Package id generates the identifiers that cross the bridge.
//
// Call ids and style ids are prefixed ULIDs: random plus timestamp derived,
// unique per call and sortable by creation time, which keeps logs readable.
// Bridge tokens are opaque crypto-random strings with no structure at all.
package id

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// CallID correlates one request with its reply
type CallID string

// StyleID identifies a style node registered by the bridge
type StyleID string

const (
	CallPrefix  = "req"
	StylePrefix = "style"

	// TokenBytes is the entropy carried by a bridge token
	TokenBytes = 32
)

// Generator produces ULIDs from a shared entropy source
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests use it for deterministic output.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a "prefix_ULID" string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewCallID generates a fresh call id
func NewCallID() CallID {
	return CallID(Default().GenerateWithPrefix(CallPrefix))
}

// NewStyleID generates a fresh style id
func NewStyleID() StyleID {
	return StyleID(Default().GenerateWithPrefix(StylePrefix))
}

func (id CallID) String() string  { return string(id) }
func (id StyleID) String() string { return string(id) }

// NewToken returns an opaque random token, base64url encoded without padding.
func NewToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to read token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IsValid reports whether s is a ULID, optionally behind a known prefix
func IsValid(s string) bool {
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	_, err := ulid.Parse(s)
	return err == nil
}

// Timestamp extracts the creation time of a (possibly prefixed) id
func Timestamp(s string) (time.Time, error) {
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
