package page

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const blankPage = "<!DOCTYPE html><html><head></head><body></body></html>"

// CopySink receives text copied through the document fallback path. It
// reports whether the copy took effect.
type CopySink func(text string) bool

// Document is the html tree of a window. All mutations go through its
// methods so the tree can be shared between both worlds.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
	sink CopySink
}

// NewDocument creates a blank document with empty head and body
func NewDocument() *Document {
	root, err := html.Parse(strings.NewReader(blankPage))
	if err != nil {
		// blankPage is constant; html.Parse only fails on reader errors
		panic(fmt.Sprintf("page: parse blank document: %v", err))
	}
	return &Document{root: root}
}

// ParseDocument creates a document from markup
func ParseDocument(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// head returns the head element; html.Parse always synthesizes one
func (d *Document) head() *html.Node {
	return htmlquery.FindOne(d.root, "//head")
}

func (d *Document) body() *html.Node {
	return htmlquery.FindOne(d.root, "//body")
}

// AppendStyle inserts a <style> element with css into the head and returns it
func (d *Document) AppendStyle(css string, attrs map[string]string) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	node := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
	}
	for k, v := range attrs {
		node.Attr = append(node.Attr, html.Attribute{Key: k, Val: v})
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	d.head().AppendChild(node)
	return node
}

// SetText replaces the text content of node
func (d *Document) SetText(node *html.Node, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		node.RemoveChild(c)
		c = next
	}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Text returns the text content of node
func (d *Document) Text(node *html.Node) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return htmlquery.InnerText(node)
}

// SetAttr sets or replaces an attribute on node
func (d *Document) SetAttr(node *html.Node, key, val string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range node.Attr {
		if node.Attr[i].Key == key {
			node.Attr[i].Val = val
			return
		}
	}
	node.Attr = append(node.Attr, html.Attribute{Key: key, Val: val})
}

// Detach removes node from the tree. It reports false when the node was not
// attached.
func (d *Document) Detach(node *html.Node) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if node == nil || node.Parent == nil {
		return false
	}
	node.Parent.RemoveChild(node)
	return true
}

// Contains reports whether node is attached to this document
func (d *Document) Contains(node *html.Node) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for n := node; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

// FindByID returns the element with the given id attribute, or nil
func (d *Document) FindByID(id string) *html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sel := goquery.NewDocumentFromNode(d.root).Find(fmt.Sprintf("[id=%q]", id))
	if sel.Length() == 0 {
		return nil
	}
	return sel.Nodes[0]
}

// Styles returns the text of every <style> element in the head, in order
func (d *Document) Styles() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []string
	goquery.NewDocumentFromNode(d.root).Find("head style").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

// SetCopySink installs the receiver for ExecCopy
func (d *Document) SetCopySink(sink CopySink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sink = sink
}

// ExecCopy copies text through a transient textarea, the way a page copies
// without clipboard permission. It reports whether the copy took effect.
func (d *Document) ExecCopy(text string) bool {
	d.mu.Lock()
	area := &html.Node{
		Type:     html.ElementNode,
		Data:     "textarea",
		DataAtom: atom.Textarea,
		Attr:     []html.Attribute{{Key: "readonly", Val: ""}},
	}
	area.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	body := d.body()
	body.AppendChild(area)
	sink := d.sink
	d.mu.Unlock()

	ok := false
	if sink != nil {
		ok = sink(text)
	}

	d.mu.Lock()
	body.RemoveChild(area)
	d.mu.Unlock()
	return ok
}

// Render serializes the document
func (d *Document) Render() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return ""
	}
	return buf.String()
}
