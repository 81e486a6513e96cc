package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowTrust(t *testing.T) {
	top := NewWindow("https://example.com")
	frame := NewFrame(top, "https://example.com")
	nested := NewFrame(frame, "https://ads.example.net")
	other := NewWindow("https://evil.example")

	assert.True(t, top.IsTop())
	assert.False(t, frame.IsTop())
	assert.Same(t, top, nested.Top())

	assert.True(t, frame.Trusts(frame))
	assert.True(t, frame.Trusts(top))
	assert.False(t, frame.Trusts(nested))
	assert.False(t, frame.Trusts(other))
	assert.False(t, frame.Trusts(nil))
	assert.NotEqual(t, top.ID(), frame.ID())
}

func TestDocumentStyleLifecycle(t *testing.T) {
	doc := NewDocument()

	node := doc.AppendStyle("body { color: red }", map[string]string{"id": "style_1"})
	assert.True(t, doc.Contains(node))
	assert.Equal(t, []string{"body { color: red }"}, doc.Styles())
	assert.Same(t, node, doc.FindByID("style_1"))

	doc.SetText(node, "body { color: blue }")
	assert.Equal(t, "body { color: blue }", doc.Text(node))
	assert.Contains(t, doc.Render(), "<style id=\"style_1\">body { color: blue }</style>")

	doc.SetAttr(node, "data-meta-id", "theme")
	assert.Contains(t, doc.Render(), `data-meta-id="theme"`)

	assert.True(t, doc.Detach(node))
	assert.False(t, doc.Contains(node))
	assert.Nil(t, doc.FindByID("style_1"))
	assert.False(t, doc.Detach(node))
	assert.Empty(t, doc.Styles())
}

func TestExecCopy(t *testing.T) {
	doc := NewDocument()
	assert.False(t, doc.ExecCopy("no sink"))

	var copied string
	doc.SetCopySink(func(text string) bool {
		copied = text
		return true
	})

	assert.True(t, doc.ExecCopy("hello"))
	assert.Equal(t, "hello", copied)
	assert.NotContains(t, doc.Render(), "textarea")
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument("<html><head><style>p{}</style></head><body><p id=a>x</p></body></html>")
	require.NoError(t, err)

	assert.Equal(t, []string{"p{}"}, doc.Styles())
	assert.NotNil(t, doc.FindByID("a"))
}

func TestNewWindowWithDocument(t *testing.T) {
	doc, err := ParseDocument("<html><body><p id=a>x</p></body></html>")
	require.NoError(t, err)

	w := NewWindowWithDocument("https://app.example", doc)
	assert.True(t, w.IsTop())
	assert.Same(t, doc, w.Document())
	assert.Equal(t, "https://app.example", w.Origin())
}
