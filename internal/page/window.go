package page

import (
	"github.com/google/uuid"
)

// Window is one browsing context. Frames point at their top window.
type Window struct {
	id       string
	origin   string
	top      *Window
	document *Document
}

// NewWindow creates a top-level window with an empty document
func NewWindow(origin string) *Window {
	return NewWindowWithDocument(origin, NewDocument())
}

// NewWindowWithDocument creates a top-level window around an existing
// document, typically one built with ParseDocument.
func NewWindowWithDocument(origin string, doc *Document) *Window {
	w := &Window{
		id:       uuid.NewString(),
		origin:   origin,
		document: doc,
	}
	w.top = w
	return w
}

// NewFrame creates a child browsing context of parent
func NewFrame(parent *Window, origin string) *Window {
	return &Window{
		id:       uuid.NewString(),
		origin:   origin,
		top:      parent.Top(),
		document: NewDocument(),
	}
}

// ID returns the window identifier
func (w *Window) ID() string { return w.id }

// Origin returns the window origin
func (w *Window) Origin() string { return w.origin }

// Top returns the top-level window of this context
func (w *Window) Top() *Window { return w.top }

// Document returns the window document
func (w *Window) Document() *Document { return w.document }

// IsTop reports whether w is a top-level window
func (w *Window) IsTop() bool { return w.top == w }

// Trusts reports whether messages from source are accepted by w: only its own
// window and its top frame qualify.
func (w *Window) Trusts(source *Window) bool {
	if source == nil {
		return false
	}
	return source == w || source == w.top
}
