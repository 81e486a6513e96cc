package style

import (
	"context"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/worldbridge/internal/page"
)

func TestAddStyle(t *testing.T) {
	doc := page.NewDocument()
	inj := NewDocumentInjector(doc)

	node, err := inj.AddStyle(context.Background(), "body{color:red}")
	require.NoError(t, err)
	assert.True(t, doc.Contains(node))
	assert.Equal(t, "true", htmlquery.SelectAttr(node, InjectedAttr))
	assert.Equal(t, []string{"body{color:red}"}, doc.Styles())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = inj.AddStyle(ctx, "x")
	assert.Error(t, err)
	assert.Len(t, doc.Styles(), 1)
}
