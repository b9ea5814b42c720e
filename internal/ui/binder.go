// Package ui defines the binding surface the blog widgets are written against,
// along with Page, a headless in-memory implementation of it.
package ui

import (
	"context"
	"errors"
)

// ErrMissingElement is returned when a selector does not resolve to an element.
var ErrMissingElement = errors.New("missing element")

// KeyEvent carries the parts of a keyboard event the widgets care about.
type KeyEvent struct {
	Key   string
	Shift bool
}

// Binder registers event handlers on elements.
// Binding to a selector that does not exist returns ErrMissingElement.
type Binder interface {
	OnClick(selector string, fn func(ctx context.Context)) error
	// OnKeydown handlers return true to prevent the default action.
	OnKeydown(selector string, fn func(ctx context.Context, ev KeyEvent) bool) error
	OnInput(selector string, fn func(ctx context.Context)) error
	OnScroll(fn func(ctx context.Context))
}

// Element is a single node of the page.
type Element interface {
	AddClass(name string)
	RemoveClass(name string)
	// ToggleClass flips the class and reports whether it is now present.
	ToggleClass(name string) bool
	HasClass(name string) bool

	Style(prop string) string
	SetStyle(prop, value string)

	Value() string
	SetValue(v string)
	Disabled() bool
	SetDisabled(disabled bool)
	Focus()

	InnerHTML() string
	SetInnerHTML(html string)
	AppendHTML(html string)
	ScrollToBottom()
	// ScrollHeight is the natural content height in pixels, 0 if unknown.
	ScrollHeight() int

	// Child returns the i-th child element or nil.
	Child(i int) Element
}

// Viewport holds the document scroll metrics reported by the browser.
type Viewport struct {
	ScrollTop        float64 `json:"scroll_top"`
	PageYOffset      float64 `json:"page_y_offset"`
	BodyScrollHeight float64 `json:"body_scroll_height"`
	DocScrollHeight  float64 `json:"doc_scroll_height"`
	BodyOffsetHeight float64 `json:"body_offset_height"`
	DocOffsetHeight  float64 `json:"doc_offset_height"`
	BodyClientHeight float64 `json:"body_client_height"`
	DocClientHeight  float64 `json:"doc_client_height"`
}

// Document is the full capability set handed to a widget.
type Document interface {
	Binder
	// Query returns the element matching selector, or nil.
	Query(selector string) Element
	// Meta returns the content of the named meta tag.
	Meta(name string) (string, bool)
	Viewport() Viewport
}
