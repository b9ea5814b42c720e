package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_session_service.go -package=mocks -mock_names=SessionService=MockSessionService blogchat/internal/service SessionService

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"blogchat/internal/chat"
	"blogchat/internal/contextutil"
	"blogchat/internal/scroll"
	"blogchat/internal/ui"
)

// OpenRequest describes the page a browser tab is showing.
type OpenRequest struct {
	// Article is true when the page carries the article marker.
	Article bool
}

// Session is one browser tab: a headless page with both widgets bound to it.
type Session struct {
	ID        string
	Page      *ui.Page
	Chat      *chat.Widget
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	reader   uint64
}

// Dispatch forwards a browser event to the session's page.
func (s *Session) Dispatch(ctx context.Context, ev ui.Event) (bool, error) {
	s.touch(time.Now())
	return s.Page.Dispatch(ctx, ev)
}

// LastSeen returns the time of the session's latest activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Claim makes the caller the session's patch reader, replacing any earlier
// connection, and returns the caller's token.
func (s *Session) Claim() uint64 {
	s.mu.Lock()
	s.reader++
	token := s.reader
	s.mu.Unlock()
	s.Page.Notify()
	return token
}

// Owns reports whether token belongs to the current patch reader.
func (s *Session) Owns(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader == token
}

// Drain returns the page's queued patches, or false once token has been
// replaced by a later Claim.
func (s *Session) Drain(token uint64) ([]ui.Patch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader != token {
		return nil, false
	}
	return s.Page.Drain(), true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// SessionService manages widget sessions.
type SessionService interface {
	// Open creates a session and initialises its widgets.
	Open(ctx context.Context, req OpenRequest) (*Session, error)
	// Get returns a live session so a reconnecting tab can resume it.
	Get(ctx context.Context, id string) (*Session, error)
	// Close discards a session. A pending chat request is not cancelled.
	Close(ctx context.Context, id string) error
	// Count returns the number of live sessions.
	Count() int
}

// Settings configures every session opened by Sessions.
type Settings struct {
	// Chat holds the values injected into the page's chat-config meta tag.
	// Empty fields are omitted so the widget keeps its defaults.
	Chat     chat.Config
	Greeting string
	Apology  string
	// TTL is how long a session may stay idle before Expire drops it.
	TTL time.Duration
}

// Sessions is the in-memory SessionService.
type Sessions struct {
	completer chat.Completer
	settings  Settings
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessions creates an empty session registry.
func NewSessions(completer chat.Completer, settings Settings) *Sessions {
	return &Sessions{
		completer: completer,
		settings:  settings,
		logger:    slog.Default(),
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Open implements SessionService.
func (s *Sessions) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	id := uuid.New().String()
	logger := contextutil.LoggerFromContext(ctx).With("session_id", id)

	page := newWidgetPage(req.Article)
	if meta := s.chatMeta(); meta != "" {
		page.SetMeta(chat.MetaName, meta)
	}

	widget := chat.New(page, s.completer, chat.Options{
		Greeting: s.settings.Greeting,
		Apology:  s.settings.Apology,
		Logger:   logger,
	})
	if err := widget.Init(ctx); err != nil {
		return nil, WrapError(err, "failed to initialize chat widget")
	}
	if err := scroll.Bind(page, logger); err != nil {
		return nil, WrapError(err, "failed to bind scroll progress")
	}

	now := s.now()
	sess := &Session{
		ID:        id,
		Page:      page,
		Chat:      widget,
		CreatedAt: now,
		lastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	logger.InfoContext(ctx, "session opened", "article", req.Article)
	return sess, nil
}

// Get implements SessionService.
func (s *Sessions) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &ValidationError{Field: "session_id", Message: "must be a UUID"}
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, WrapError(ErrNotFound, "session "+id)
	}
	sess.touch(s.now())
	return sess, nil
}

// Close implements SessionService.
func (s *Sessions) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return WrapError(ErrNotFound, "session "+id)
	}
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "session closed", "session_id", id)
	return nil
}

// Count implements SessionService.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Expire drops sessions idle for longer than the configured TTL and returns
// how many were removed.
func (s *Sessions) Expire(ctx context.Context) int {
	cutoff := s.now().Add(-s.settings.TTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "expired idle sessions", "count", removed, "remaining", len(s.sessions))
	}
	return removed
}

// minSweepInterval bounds how often Run calls Expire.
const minSweepInterval = 10 * time.Millisecond

// Run calls Expire every half TTL until ctx is done.
func (s *Sessions) Run(ctx context.Context) {
	ticker := time.NewTicker(max(s.settings.TTL/2, minSweepInterval))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Expire(ctx)
		}
	}
}

// chatMeta encodes the non-empty chat settings as the page's meta content.
func (s *Sessions) chatMeta() string {
	fields := make(map[string]string, 3)
	if s.settings.Chat.Endpoint != "" {
		fields["endpoint"] = s.settings.Chat.Endpoint
	}
	if s.settings.Chat.Model != "" {
		fields["model"] = s.settings.Chat.Model
	}
	if s.settings.Chat.APIKey != "" {
		fields["apiKey"] = s.settings.Chat.APIKey
	}
	if len(fields) == 0 {
		return ""
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(raw)
}

// newWidgetPage lays out the elements the blog template provides.
func newWidgetPage(article bool) *ui.Page {
	p := ui.NewPage()
	for _, sel := range []string{
		chat.SelContainer, chat.SelToggle, chat.SelClose, chat.SelSend,
		chat.SelInput, chat.SelMessages, chat.SelLoading,
	} {
		p.Add(sel)
	}

	p.Add(scroll.SelGoUp)
	_, _ = p.AddChild(scroll.SelGoUp) // icon
	_, _ = p.AddChild(scroll.SelGoUp) // percentage label
	p.Add(scroll.SelProgressBar)
	if article {
		p.Add(scroll.SelArticle)
	}
	return p
}
