package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownEvent is returned by Dispatch for an unsupported event type.
var ErrUnknownEvent = errors.New("unknown event type")

// PatchOp names a mutation applied to a page element.
type PatchOp string

const (
	OpAddClass     PatchOp = "add_class"
	OpRemoveClass  PatchOp = "remove_class"
	OpStyle        PatchOp = "style"
	OpValue        PatchOp = "value"
	OpDisabled     PatchOp = "disabled"
	OpFocus        PatchOp = "focus"
	OpInnerHTML    PatchOp = "inner_html"
	OpAppendHTML   PatchOp = "append_html"
	OpScrollBottom PatchOp = "scroll_bottom"
)

// Patch is one recorded mutation, in a form a browser client can replay.
type Patch struct {
	Op     PatchOp `json:"op"`
	Target string  `json:"target"`
	Name   string  `json:"name,omitempty"`
	Value  string  `json:"value,omitempty"`
	Flag   bool    `json:"flag,omitempty"`
}

// EventType names an event forwarded by the browser.
type EventType string

const (
	EventClick   EventType = "click"
	EventKeydown EventType = "keydown"
	EventInput   EventType = "input"
	EventScroll  EventType = "scroll"
)

// Event is a browser event plus the client state observed when it fired.
type Event struct {
	Type         EventType `json:"type"`
	Target       string    `json:"target,omitempty"`
	Key          string    `json:"key,omitempty"`
	Shift        bool      `json:"shift,omitempty"`
	Value        *string   `json:"value,omitempty"`
	ScrollHeight int       `json:"scroll_height,omitempty"`
	Viewport     *Viewport `json:"viewport,omitempty"`
}

// Page is a headless Document. It is safe for concurrent use.
//
// Every mutation made through an Element is queued as a Patch; Drain hands
// them to whoever mirrors the page into a real browser.
type Page struct {
	mu       sync.Mutex
	nodes    map[string]*node
	meta     map[string]string
	viewport Viewport
	focused  string

	click   map[string][]func(context.Context)
	input   map[string][]func(context.Context)
	keydown map[string][]func(context.Context, KeyEvent) bool
	scroll  []func(context.Context)

	patches []Patch
	changed chan struct{}
}

// NewPage creates an empty page.
func NewPage() *Page {
	return &Page{
		nodes:   make(map[string]*node),
		meta:    make(map[string]string),
		click:   make(map[string][]func(context.Context)),
		input:   make(map[string][]func(context.Context)),
		keydown: make(map[string][]func(context.Context, KeyEvent) bool),
		changed: make(chan struct{}, 1),
	}
}

// Add registers an element under selector and returns it.
// Adding an existing selector returns the existing element.
func (p *Page) Add(selector string) Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.nodes[selector]; ok {
		return n
	}
	n := p.newNode(selector)
	p.nodes[selector] = n
	return n
}

// AddChild appends a child to the element at parent. The child is also
// queryable as "<parent> > :nth-child(n)".
func (p *Page) AddChild(parent string) (Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pn, ok := p.nodes[parent]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingElement, parent)
	}
	sel := fmt.Sprintf("%s > :nth-child(%d)", parent, len(pn.children)+1)
	n := p.newNode(sel)
	pn.children = append(pn.children, n)
	p.nodes[sel] = n
	return n, nil
}

// SetMeta sets the content of the named meta tag.
func (p *Page) SetMeta(name, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meta[name] = content
}

// Query implements Document.
func (p *Page) Query(selector string) Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[selector]
	if !ok {
		return nil
	}
	return n
}

// Meta implements Document.
func (p *Page) Meta(name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.meta[name]
	return v, ok
}

// Viewport implements Document.
func (p *Page) Viewport() Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport
}

// Focused returns the selector of the focused element, if any.
func (p *Page) Focused() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

// OnClick implements Binder.
func (p *Page) OnClick(selector string, fn func(ctx context.Context)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.nodes[selector]; !ok {
		return fmt.Errorf("bind click: %w: %s", ErrMissingElement, selector)
	}
	p.click[selector] = append(p.click[selector], fn)
	return nil
}

// OnKeydown implements Binder.
func (p *Page) OnKeydown(selector string, fn func(ctx context.Context, ev KeyEvent) bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.nodes[selector]; !ok {
		return fmt.Errorf("bind keydown: %w: %s", ErrMissingElement, selector)
	}
	p.keydown[selector] = append(p.keydown[selector], fn)
	return nil
}

// OnInput implements Binder.
func (p *Page) OnInput(selector string, fn func(ctx context.Context)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.nodes[selector]; !ok {
		return fmt.Errorf("bind input: %w: %s", ErrMissingElement, selector)
	}
	p.input[selector] = append(p.input[selector], fn)
	return nil
}

// OnScroll implements Binder.
func (p *Page) OnScroll(fn func(ctx context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scroll = append(p.scroll, fn)
}

// Dispatch records the client state carried by ev and runs the matching
// handlers synchronously. It reports whether a keydown handler asked to
// prevent the default action. Disabled targets receive no events.
func (p *Page) Dispatch(ctx context.Context, ev Event) (bool, error) {
	p.mu.Lock()
	if ev.Viewport != nil {
		p.viewport = *ev.Viewport
	}

	var target *node
	if ev.Target != "" {
		n, ok := p.nodes[ev.Target]
		if !ok {
			p.mu.Unlock()
			return false, fmt.Errorf("dispatch %s: %w: %s", ev.Type, ErrMissingElement, ev.Target)
		}
		if ev.Value != nil {
			n.value = *ev.Value
		}
		if ev.ScrollHeight > 0 {
			n.scrollHeight = ev.ScrollHeight
		}
		target = n
	}

	var (
		simple []func(context.Context)
		keys   []func(context.Context, KeyEvent) bool
	)
	switch ev.Type {
	case EventClick:
		simple = p.click[ev.Target]
	case EventInput:
		simple = p.input[ev.Target]
	case EventKeydown:
		keys = p.keydown[ev.Target]
	case EventScroll:
		simple = p.scroll
	default:
		p.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	disabled := target != nil && target.disabled
	p.mu.Unlock()

	if disabled {
		return false, nil
	}

	for _, fn := range simple {
		fn(ctx)
	}
	prevented := false
	for _, fn := range keys {
		if fn(ctx, KeyEvent{Key: ev.Key, Shift: ev.Shift}) {
			prevented = true
		}
	}
	return prevented, nil
}

// Drain returns and clears the queued patches.
func (p *Page) Drain() []Patch {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.patches
	p.patches = nil
	return out
}

// Changed is signalled whenever new patches are queued.
func (p *Page) Changed() <-chan struct{} {
	return p.changed
}

// Notify signals Changed without queueing a patch, so a new reader picks up
// patches left behind by a previous one.
func (p *Page) Notify() {
	select {
	case p.changed <- struct{}{}:
	default:
	}
}

// record must be called with p.mu held.
func (p *Page) record(patch Patch) {
	p.patches = append(p.patches, patch)
	p.Notify()
}

func (p *Page) newNode(selector string) *node {
	return &node{
		page:     p,
		selector: selector,
		classes:  make(map[string]bool),
		style:    make(map[string]string),
	}
}

type node struct {
	page         *Page
	selector     string
	classes      map[string]bool
	style        map[string]string
	value        string
	disabled     bool
	html         string
	scrollHeight int
	children     []*node
}

func (n *node) AddClass(name string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.classes[name] = true
	n.page.record(Patch{Op: OpAddClass, Target: n.selector, Name: name})
}

func (n *node) RemoveClass(name string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	delete(n.classes, name)
	n.page.record(Patch{Op: OpRemoveClass, Target: n.selector, Name: name})
}

func (n *node) ToggleClass(name string) bool {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	if n.classes[name] {
		delete(n.classes, name)
		n.page.record(Patch{Op: OpRemoveClass, Target: n.selector, Name: name})
		return false
	}
	n.classes[name] = true
	n.page.record(Patch{Op: OpAddClass, Target: n.selector, Name: name})
	return true
}

func (n *node) HasClass(name string) bool {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.classes[name]
}

func (n *node) Style(prop string) string {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.style[prop]
}

func (n *node) SetStyle(prop, value string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.style[prop] = value
	n.page.record(Patch{Op: OpStyle, Target: n.selector, Name: prop, Value: value})
}

func (n *node) Value() string {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.value
}

// SetValue also forgets the reported scroll height when the value is
// cleared, since the client's measurement no longer applies.
func (n *node) SetValue(v string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.value = v
	if v == "" {
		n.scrollHeight = 0
	}
	n.page.record(Patch{Op: OpValue, Target: n.selector, Value: v})
}

func (n *node) Disabled() bool {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.disabled
}

func (n *node) SetDisabled(disabled bool) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.disabled = disabled
	n.page.record(Patch{Op: OpDisabled, Target: n.selector, Flag: disabled})
}

func (n *node) Focus() {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.page.focused = n.selector
	n.page.record(Patch{Op: OpFocus, Target: n.selector})
}

func (n *node) InnerHTML() string {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.html
}

func (n *node) SetInnerHTML(html string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.html = html
	n.page.record(Patch{Op: OpInnerHTML, Target: n.selector, Value: html})
}

func (n *node) AppendHTML(html string) {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.html += html
	n.page.record(Patch{Op: OpAppendHTML, Target: n.selector, Value: html})
}

func (n *node) ScrollToBottom() {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	n.page.record(Patch{Op: OpScrollBottom, Target: n.selector})
}

func (n *node) ScrollHeight() int {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	return n.scrollHeight
}

func (n *node) Child(i int) Element {
	n.page.mu.Lock()
	defer n.page.mu.Unlock()
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}
