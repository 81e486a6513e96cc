package clipboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard(t *testing.T) {
	b := NewBoard(2, 0)
	ctx := context.Background()

	_, ok := b.Current()
	assert.False(t, ok)

	var seen []string
	unsubscribe := b.Subscribe(func(e Entry) { seen = append(seen, e.Text) })

	require.NoError(t, b.SetText(ctx, "one"))
	require.NoError(t, b.SetText(ctx, "two"))
	unsubscribe()
	require.NoError(t, b.SetText(ctx, "three"))

	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "three", cur.Text)
	assert.NotEmpty(t, cur.ID)

	history := b.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, "three", history[0].Text)
	assert.Equal(t, "two", history[1].Text)
	assert.Len(t, b.History(1), 1)

	assert.Equal(t, []string{"one", "two"}, seen)

	b.Clear()
	assert.Empty(t, b.History(0))
}

func TestBoardLimits(t *testing.T) {
	b := NewBoard(0, 4)
	assert.ErrorIs(t, b.SetText(context.Background(), "too long"), ErrTooLarge)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, b.SetText(ctx, "x"))
}
