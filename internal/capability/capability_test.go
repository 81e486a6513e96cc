package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type nopClipboard struct{}

func (nopClipboard) SetText(context.Context, string) error { return nil }

func TestDescribe(t *testing.T) {
	empty := Host{}.Describe()
	assert.False(t, empty.Has("storage", "get"))
	assert.False(t, empty.Has("net", "request"))
	assert.False(t, empty.Has("clipboard", "setText"))

	withClipboard := Host{Clipboard: nopClipboard{}}.Describe()
	assert.True(t, withClipboard.Has("clipboard", "setText"))
	assert.False(t, withClipboard.Has("style", "add"))
	assert.Len(t, withClipboard, 4)
}
