package clipboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/worldbridge/internal/capability"
	"github.com/GriffinCanCode/worldbridge/internal/shared/id"
)

// DefaultHistory is the number of entries a board keeps
const DefaultHistory = 50

// ErrTooLarge is returned for text above the board's size limit
var ErrTooLarge = errors.New("clipboard text too large")

// Entry is one clipboard write
type Entry struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	CopiedAt time.Time `json:"copiedAt"`
}

// Board is an in-memory clipboard with bounded history and change
// subscriptions.
type Board struct {
	mu          sync.RWMutex
	history     []Entry
	limit       int
	maxBytes    int
	subscribers map[uint64]func(Entry)
	nextSub     uint64
}

// NewBoard creates a board keeping up to limit entries. maxBytes <= 0 means
// no size limit.
func NewBoard(limit, maxBytes int) *Board {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Board{
		limit:       limit,
		maxBytes:    maxBytes,
		subscribers: make(map[uint64]func(Entry)),
	}
}

// SetText records text as the current clipboard content
func (b *Board) SetText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.maxBytes > 0 && len(text) > b.maxBytes {
		return ErrTooLarge
	}

	entry := Entry{
		ID:       id.Default().GenerateWithPrefix("clip"),
		Text:     text,
		CopiedAt: time.Now(),
	}

	b.mu.Lock()
	b.history = append(b.history, entry)
	if over := len(b.history) - b.limit; over > 0 {
		b.history = append([]Entry(nil), b.history[over:]...)
	}
	subs := make([]func(Entry), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(entry)
	}
	return nil
}

// Current returns the latest entry
func (b *Board) Current() (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.history) == 0 {
		return Entry{}, false
	}
	return b.history[len(b.history)-1], true
}

// History returns up to limit entries, newest first. limit <= 0 returns all.
func (b *Board) History(limit int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, b.history[i])
	}
	return out
}

// Clear drops all history
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}

// Subscribe calls fn after every write until the returned func is called
func (b *Board) Subscribe(fn func(Entry)) func() {
	b.mu.Lock()
	key := b.nextSub
	b.nextSub++
	b.subscribers[key] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, key)
		b.mu.Unlock()
	}
}

var _ capability.ClipboardWriter = (*Board)(nil)
