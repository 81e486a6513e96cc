package style

import (
	"context"

	"golang.org/x/net/html"

	"github.com/GriffinCanCode/worldbridge/internal/capability"
	"github.com/GriffinCanCode/worldbridge/internal/page"
)

// InjectedAttr marks style nodes inserted with host privileges
const InjectedAttr = "data-host-injected"

// DocumentInjector inserts styles into a page document with host
// privileges, bypassing the page's own content policy.
type DocumentInjector struct {
	doc *page.Document
}

// NewDocumentInjector binds an injector to doc
func NewDocumentInjector(doc *page.Document) *DocumentInjector {
	return &DocumentInjector{doc: doc}
}

func (i *DocumentInjector) AddStyle(ctx context.Context, css string) (*html.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return i.doc.AppendStyle(css, map[string]string{InjectedAttr: "true"}), nil
}

var _ capability.StyleInjector = (*DocumentInjector)(nil)
