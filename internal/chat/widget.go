// Package chat implements the blog chat widget: a transcript of turns relayed
// to a chat completions API and rendered into a ui.Document.
package chat

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completer.go -package=mocks blogchat/internal/chat Completer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"blogchat/internal/llm"
	"blogchat/internal/ui"
)

// Selectors of the elements the widget expects on the page.
const (
	SelContainer = "#chat-container"
	SelToggle    = ".chat-button"
	SelClose     = ".chat-close"
	SelSend      = ".chat-send"
	SelInput     = ".chat-input"
	SelMessages  = ".chat-messages"
	SelLoading   = ".loading-indicator"
)

const (
	// OpenClass marks the container as visible.
	OpenClass = "chat-open"
	// MaxInputHeight caps the auto-grown input, in pixels.
	MaxInputHeight = 120
)

const (
	DefaultGreeting = "Hi! I'm your assistant. What can I help you with?"
	DefaultApology  = "Sorry, I can't answer your question right now. Please try again later."
)

// Role tags a turn with its author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completer sends a conversation to a completion endpoint.
// This interface is defined from the widget's perspective (consumer-first).
type Completer interface {
	Chat(ctx context.Context, ep llm.Endpoint, messages []llm.Message) (string, error)
}

// Options customise a Widget. Zero values select the defaults.
type Options struct {
	Greeting string
	Apology  string
	// Base is overlaid by the page's chat-config meta tag.
	Base   *Config
	Logger *slog.Logger
}

// Widget is the chat widget bound to one document.
// Init must be called before any other method.
type Widget struct {
	doc     ui.Document
	client  Completer
	logger  *slog.Logger
	apology string
	base    Config

	container ui.Element
	input     ui.Element
	send      ui.Element
	messages  ui.Element
	indicator ui.Element

	mu      sync.Mutex
	cfg     Config
	turns   []Turn
	loading bool

	inflight sync.WaitGroup
}

// New creates a widget whose transcript is seeded with the greeting.
func New(doc ui.Document, client Completer, opts Options) *Widget {
	greeting := opts.Greeting
	if greeting == "" {
		greeting = DefaultGreeting
	}
	apology := opts.Apology
	if apology == "" {
		apology = DefaultApology
	}
	base := DefaultConfig()
	if opts.Base != nil {
		base = *opts.Base
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Widget{
		doc:     doc,
		client:  client,
		logger:  logger,
		apology: apology,
		base:    base,
		cfg:     base,
		turns:   []Turn{{Role: RoleAssistant, Content: greeting}},
	}
}

// Init binds the widget's event handlers, loads the page configuration and
// renders the greeting. A missing element fails with ui.ErrMissingElement.
func (w *Widget) Init(ctx context.Context) error {
	if err := w.bind(); err != nil {
		return fmt.Errorf("bind chat widget: %w", err)
	}

	w.mu.Lock()
	w.cfg = LoadConfig(w.doc, w.base, w.logger)
	cfg := w.cfg
	greeting := w.turns[0]
	w.mu.Unlock()

	w.Render(greeting)
	w.logger.DebugContext(ctx, "chat widget initialized", "model", cfg.Model, "endpoint", cfg.Endpoint)
	return nil
}

func (w *Widget) bind() error {
	lookups := []struct {
		sel string
		dst *ui.Element
	}{
		{SelContainer, &w.container},
		{SelInput, &w.input},
		{SelSend, &w.send},
		{SelMessages, &w.messages},
		{SelLoading, &w.indicator},
	}
	for _, l := range lookups {
		el := w.doc.Query(l.sel)
		if el == nil {
			return fmt.Errorf("%w: %s", ui.ErrMissingElement, l.sel)
		}
		*l.dst = el
	}

	if err := w.doc.OnClick(SelToggle, func(context.Context) { w.Toggle() }); err != nil {
		return err
	}
	if err := w.doc.OnClick(SelClose, func(context.Context) { w.Close() }); err != nil {
		return err
	}
	if err := w.doc.OnClick(SelSend, w.SendCurrentInput); err != nil {
		return err
	}
	// Enter sends, Shift+Enter inserts a newline.
	if err := w.doc.OnKeydown(SelInput, func(ctx context.Context, ev ui.KeyEvent) bool {
		if ev.Key == "Enter" && !ev.Shift {
			w.SendCurrentInput(ctx)
			return true
		}
		return false
	}); err != nil {
		return err
	}
	return w.doc.OnInput(SelInput, func(context.Context) { w.AdjustInputHeight() })
}

// Config returns the settings in effect for this session.
func (w *Widget) Config() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// Open shows the chat window.
func (w *Widget) Open() { w.container.AddClass(OpenClass) }

// Close hides the chat window.
func (w *Widget) Close() { w.container.RemoveClass(OpenClass) }

// Toggle flips the chat window's visibility.
func (w *Widget) Toggle() { w.container.ToggleClass(OpenClass) }

// SendCurrentInput sends the trimmed input as a user turn. It is a no-op
// when the input is blank or a request is already in flight; suppressed
// sends are dropped, not queued.
//
// The user turn is rendered synchronously and the completion request runs in
// the background on a context detached from ctx's cancellation. Wait blocks
// until it finishes.
func (w *Widget) SendCurrentInput(ctx context.Context) {
	w.mu.Lock()
	message := strings.TrimSpace(w.input.Value())
	if message == "" || w.loading {
		w.mu.Unlock()
		return
	}

	turn := Turn{Role: RoleUser, Content: message}
	w.turns = append(w.turns, turn)
	w.Render(turn)
	w.input.SetValue("")
	w.AdjustInputHeight()
	w.setLoading(true)

	messages := toMessages(w.turns)
	target := w.cfg.Target()
	w.mu.Unlock()

	callCtx := context.WithoutCancel(ctx)
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		reply, err := w.client.Chat(callCtx, target, messages)

		w.mu.Lock()
		defer w.mu.Unlock()
		defer w.setLoading(false)

		if err != nil {
			w.logger.ErrorContext(callCtx, "chat completion failed", "error", err)
			// The apology is shown but never becomes part of the transcript.
			w.Render(Turn{Role: RoleAssistant, Content: w.apology})
			return
		}

		answer := Turn{Role: RoleAssistant, Content: reply}
		w.turns = append(w.turns, answer)
		w.Render(answer)
	}()
}

// Render appends the turn to the message list and scrolls it to the bottom.
func (w *Widget) Render(t Turn) {
	html, err := renderHTML(t)
	if err != nil {
		w.logger.Error("failed to render chat message", "role", t.Role, "error", err)
		return
	}
	w.messages.AppendHTML(html)
	w.messages.ScrollToBottom()
}

// AdjustInputHeight grows the input to its content, up to MaxInputHeight.
func (w *Widget) AdjustInputHeight() {
	w.input.SetStyle("height", "auto")
	if h := w.input.ScrollHeight(); h > 0 {
		w.input.SetStyle("height", fmt.Sprintf("%dpx", min(h, MaxInputHeight)))
	}
}

// setLoading must be called with w.mu held.
func (w *Widget) setLoading(loading bool) {
	w.loading = loading
	if loading {
		w.indicator.SetStyle("display", "flex")
		w.send.SetDisabled(true)
		w.input.SetDisabled(true)
		return
	}
	w.indicator.SetStyle("display", "none")
	w.send.SetDisabled(false)
	w.input.SetDisabled(false)
	w.input.Focus()
}

// Loading reports whether a request is in flight.
func (w *Widget) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// Transcript returns a copy of the turns sent with the next request.
func (w *Widget) Transcript() []Turn {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Wait blocks until any in-flight request has completed.
func (w *Widget) Wait() {
	w.inflight.Wait()
}

func toMessages(turns []Turn) []llm.Message {
	out := make([]llm.Message, len(turns))
	for i, t := range turns {
		out[i] = llm.Message{Role: string(t.Role), Content: t.Content}
	}
	return out
}
