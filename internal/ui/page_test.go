package ui

import (
	"context"
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestPage_QueryMissing(t *testing.T) {
	p := NewPage()
	p.Add(".present")

	if p.Query(".present") == nil {
		t.Error("Query(.present) = nil, want element")
	}
	if p.Query(".absent") != nil {
		t.Error("Query(.absent) should be nil")
	}
}

func TestPage_AddReturnsExisting(t *testing.T) {
	p := NewPage()
	a := p.Add(".x")
	a.SetValue("kept")

	if got := p.Add(".x").Value(); got != "kept" {
		t.Errorf("Add() on existing selector Value() = %q, want %q", got, "kept")
	}
}

func TestPage_AddChild(t *testing.T) {
	p := NewPage()
	p.Add("#go-up")

	first, err := p.AddChild("#go-up")
	if err != nil {
		t.Fatalf("AddChild() unexpected error: %v", err)
	}
	second, err := p.AddChild("#go-up")
	if err != nil {
		t.Fatalf("AddChild() unexpected error: %v", err)
	}

	parent := p.Query("#go-up")
	if parent.Child(0) != first || parent.Child(1) != second {
		t.Error("Child() does not return children in insertion order")
	}
	if parent.Child(2) != nil || parent.Child(-1) != nil {
		t.Error("Child() out of range should be nil")
	}
	if p.Query("#go-up > :nth-child(2)") != second {
		t.Error("second child not queryable by nth-child selector")
	}

	if _, err := p.AddChild("#nope"); !errors.Is(err, ErrMissingElement) {
		t.Errorf("AddChild(#nope) error = %v, want ErrMissingElement", err)
	}
}

func TestPage_BindMissingElement(t *testing.T) {
	p := NewPage()
	noop := func(context.Context) {}

	tests := []struct {
		name string
		bind func() error
	}{
		{name: "click", bind: func() error { return p.OnClick(".missing", noop) }},
		{name: "input", bind: func() error { return p.OnInput(".missing", noop) }},
		{name: "keydown", bind: func() error {
			return p.OnKeydown(".missing", func(context.Context, KeyEvent) bool { return false })
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.bind(); !errors.Is(err, ErrMissingElement) {
				t.Errorf("bind error = %v, want ErrMissingElement", err)
			}
		})
	}
}

func TestPage_PatchesAndDrain(t *testing.T) {
	p := NewPage()
	el := p.Add(".box")

	el.AddClass("open")
	el.SetStyle("display", "flex")
	el.SetDisabled(true)
	el.AppendHTML("<p>a</p>")
	el.ScrollToBottom()
	el.Focus()

	select {
	case <-p.Changed():
	default:
		t.Fatal("Changed() not signalled")
	}

	want := []Patch{
		{Op: OpAddClass, Target: ".box", Name: "open"},
		{Op: OpStyle, Target: ".box", Name: "display", Value: "flex"},
		{Op: OpDisabled, Target: ".box", Flag: true},
		{Op: OpAppendHTML, Target: ".box", Value: "<p>a</p>"},
		{Op: OpScrollBottom, Target: ".box"},
		{Op: OpFocus, Target: ".box"},
	}
	patches := p.Drain()
	if len(patches) != len(want) {
		t.Fatalf("Drain() len = %d, want %d: %+v", len(patches), len(want), patches)
	}
	for i := range want {
		if patches[i] != want[i] {
			t.Errorf("patch %d = %+v, want %+v", i, patches[i], want[i])
		}
	}
	if p.Focused() != ".box" {
		t.Errorf("Focused() = %q, want .box", p.Focused())
	}
	if rest := p.Drain(); len(rest) != 0 {
		t.Errorf("second Drain() = %+v, want empty", rest)
	}
}

func TestPage_ToggleClass(t *testing.T) {
	p := NewPage()
	el := p.Add("#c")

	if !el.ToggleClass("chat-open") || !el.HasClass("chat-open") {
		t.Error("first ToggleClass() should add the class")
	}
	if el.ToggleClass("chat-open") || el.HasClass("chat-open") {
		t.Error("second ToggleClass() should remove the class")
	}

	patches := p.Drain()
	if len(patches) != 2 || patches[0].Op != OpAddClass || patches[1].Op != OpRemoveClass {
		t.Errorf("patches = %+v, want add then remove", patches)
	}
}

func TestPage_SetValueClearsScrollHeight(t *testing.T) {
	p := NewPage()
	p.Add(".in")
	if _, err := p.Dispatch(context.Background(), Event{Type: EventInput, Target: ".in", Value: strPtr("abc"), ScrollHeight: 60}); err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}

	el := p.Query(".in")
	if el.Value() != "abc" || el.ScrollHeight() != 60 {
		t.Errorf("client state = (%q, %d), want (abc, 60)", el.Value(), el.ScrollHeight())
	}

	el.SetValue("")
	if el.ScrollHeight() != 0 {
		t.Errorf("ScrollHeight() after clear = %d, want 0", el.ScrollHeight())
	}
}

func TestPage_Dispatch(t *testing.T) {
	ctx := context.Background()
	p := NewPage()
	p.Add(".btn")
	p.Add(".in")

	var clicks, inputs, scrolls int
	var lastKey KeyEvent
	if err := p.OnClick(".btn", func(context.Context) { clicks++ }); err != nil {
		t.Fatalf("OnClick() error: %v", err)
	}
	if err := p.OnInput(".in", func(context.Context) { inputs++ }); err != nil {
		t.Fatalf("OnInput() error: %v", err)
	}
	if err := p.OnKeydown(".in", func(_ context.Context, ev KeyEvent) bool {
		lastKey = ev
		return ev.Key == "Enter"
	}); err != nil {
		t.Fatalf("OnKeydown() error: %v", err)
	}
	p.OnScroll(func(context.Context) { scrolls++ })

	vp := Viewport{ScrollTop: 10, DocScrollHeight: 500, DocClientHeight: 100}
	events := []struct {
		ev            Event
		wantPrevented bool
	}{
		{ev: Event{Type: EventClick, Target: ".btn"}},
		{ev: Event{Type: EventInput, Target: ".in", Value: strPtr("hi")}},
		{ev: Event{Type: EventKeydown, Target: ".in", Key: "Enter", Shift: true}, wantPrevented: true},
		{ev: Event{Type: EventKeydown, Target: ".in", Key: "a"}},
		{ev: Event{Type: EventScroll, Viewport: &vp}},
	}
	for _, e := range events {
		prevented, err := p.Dispatch(ctx, e.ev)
		if err != nil {
			t.Fatalf("Dispatch(%s) unexpected error: %v", e.ev.Type, err)
		}
		if prevented != e.wantPrevented {
			t.Errorf("Dispatch(%s %q) prevented = %v, want %v", e.ev.Type, e.ev.Key, prevented, e.wantPrevented)
		}
	}

	if clicks != 1 || inputs != 1 || scrolls != 1 {
		t.Errorf("handler calls = (click %d, input %d, scroll %d), want 1 each", clicks, inputs, scrolls)
	}
	if lastKey != (KeyEvent{Key: "a"}) {
		t.Errorf("last KeyEvent = %+v", lastKey)
	}
	if p.Viewport() != vp {
		t.Errorf("Viewport() = %+v, want %+v", p.Viewport(), vp)
	}
	if got := p.Query(".in").Value(); got != "hi" {
		t.Errorf("input Value() = %q, want hi", got)
	}
	if patches := p.Drain(); len(patches) != 0 {
		t.Errorf("client-reported state echoed back as patches: %+v", patches)
	}
}

func TestPage_DispatchErrors(t *testing.T) {
	ctx := context.Background()
	p := NewPage()
	p.Add(".btn")

	if _, err := p.Dispatch(ctx, Event{Type: EventClick, Target: ".nope"}); !errors.Is(err, ErrMissingElement) {
		t.Errorf("unknown target error = %v, want ErrMissingElement", err)
	}
	if _, err := p.Dispatch(ctx, Event{Type: "hover", Target: ".btn"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("unknown type error = %v, want ErrUnknownEvent", err)
	}
}

func TestPage_DisabledTargetIgnoresEvents(t *testing.T) {
	ctx := context.Background()
	p := NewPage()
	btn := p.Add(".btn")

	clicks := 0
	if err := p.OnClick(".btn", func(context.Context) { clicks++ }); err != nil {
		t.Fatalf("OnClick() error: %v", err)
	}

	btn.SetDisabled(true)
	if _, err := p.Dispatch(ctx, Event{Type: EventClick, Target: ".btn"}); err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}
	if clicks != 0 {
		t.Errorf("disabled button received %d clicks", clicks)
	}

	btn.SetDisabled(false)
	if _, err := p.Dispatch(ctx, Event{Type: EventClick, Target: ".btn"}); err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}
}

func TestPage_MetaAndHandlersMayMutate(t *testing.T) {
	ctx := context.Background()
	p := NewPage()
	p.SetMeta("chat-config", `{"model":"m"}`)
	p.Add(".btn")
	out := p.Add(".out")

	if v, ok := p.Meta("chat-config"); !ok || v != `{"model":"m"}` {
		t.Errorf("Meta(chat-config) = (%q, %v)", v, ok)
	}
	if _, ok := p.Meta("other"); ok {
		t.Error("Meta(other) should be absent")
	}

	// Handlers run without the page lock held.
	if err := p.OnClick(".btn", func(context.Context) { out.SetInnerHTML("done") }); err != nil {
		t.Fatalf("OnClick() error: %v", err)
	}
	if _, err := p.Dispatch(ctx, Event{Type: EventClick, Target: ".btn"}); err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}
	if out.InnerHTML() != "done" {
		t.Errorf("InnerHTML() = %q, want done", out.InnerHTML())
	}
}

func TestPage_NotifyWithoutPatches(t *testing.T) {
	p := NewPage()
	p.Add(".box").AddClass("open")
	<-p.Changed()

	p.Notify()
	p.Notify()
	select {
	case <-p.Changed():
	default:
		t.Fatal("Notify() did not signal Changed()")
	}
	select {
	case <-p.Changed():
		t.Fatal("repeated Notify() queued more than one signal")
	default:
	}
	if got := p.Drain(); len(got) != 1 {
		t.Errorf("Drain() = %+v, want the one queued patch", got)
	}
}
