package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"

	"blogchat/internal/contextutil"
	"blogchat/internal/service"
	"blogchat/internal/ui"
)

// Server-to-client message types.
const (
	MsgHello = "hello"
	MsgPatch = "patch"
	MsgError = "error"
)

// WidgetMessage is sent from the server to the browser.
type WidgetMessage struct {
	Type      string     `json:"type"`
	SessionID string     `json:"session_id,omitempty"`
	Patches   []ui.Patch `json:"patches,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// WidgetHandler upgrades a page's widget connection and runs its session.
//
// Browser events are dispatched in the order they arrive; patches are pushed
// whenever the page changes, including after a background chat reply lands.
// A connection carrying ?session=<id> resumes that session if it is still
// live, and receives the patches queued while it was away. A session is
// discarded when its connection closes cleanly; after an abnormal drop it is
// kept for resuming until the idle sweeper removes it.
type WidgetHandler struct {
	sessions service.SessionService
	upgrader websocket.Upgrader
}

// NewWidgetHandler creates a WidgetHandler. An empty origin list, or one
// containing "*", accepts any origin.
func NewWidgetHandler(sessions service.SessionService, allowedOrigins []string) *WidgetHandler {
	return &WidgetHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeHTTP handles GET /api/widget/ws.
func (h *WidgetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	sess, resumed, err := h.session(ctx, r)
	if err != nil {
		msg := "failed to open session"
		if errors.Is(err, service.ErrInvalidInput) {
			logger.WarnContext(ctx, "invalid widget session", "error", err)
			msg = err.Error()
		} else {
			logger.ErrorContext(ctx, "failed to open widget session", "error", err)
		}
		_ = conn.WriteJSON(WidgetMessage{Type: MsgError, Error: msg})
		return
	}
	logger = logger.With("session_id", sess.ID)
	ctx = contextutil.WithLogger(ctx, logger)
	if resumed {
		logger.InfoContext(ctx, "widget session resumed")
	}

	token := sess.Claim()
	closed := false
	defer func() {
		if !closed || !sess.Owns(token) {
			return
		}
		if err := h.sessions.Close(context.WithoutCancel(ctx), sess.ID); err != nil {
			logger.DebugContext(ctx, "session already gone", "error", err)
		}
	}()

	var writeMu sync.Mutex
	write := func(msg WidgetMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	if err := write(WidgetMessage{Type: MsgHello, SessionID: sess.ID}); err != nil {
		logger.WarnContext(ctx, "failed to send hello", "error", err)
		return
	}

	pumpCtx, stop := context.WithCancel(ctx)
	defer stop()
	go h.pump(pumpCtx, sess, token, write)

	for {
		var ev ui.Event
		if err := conn.ReadJSON(&ev); err != nil {
			closed = websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
			if !closed {
				logger.WarnContext(ctx, "widget connection dropped", "error", err)
			}
			return
		}
		if _, err := sess.Dispatch(ctx, ev); err != nil {
			logger.WarnContext(ctx, "failed to dispatch widget event", "type", ev.Type, "target", ev.Target, "error", err)
			if err := write(WidgetMessage{Type: MsgError, Error: err.Error()}); err != nil {
				return
			}
		}
	}
}

// session resumes the session named by the session query parameter, or
// opens a new one when none is named or the named one has expired.
func (h *WidgetHandler) session(ctx context.Context, r *http.Request) (*service.Session, bool, error) {
	query := r.URL.Query()
	if id := query.Get("session"); id != "" {
		sess, err := h.sessions.Get(ctx, id)
		if err == nil {
			return sess, true, nil
		}
		if !errors.Is(err, service.ErrNotFound) {
			return nil, false, err
		}
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "widget session expired, opening a new one", "session_id", id)
	}

	sess, err := h.sessions.Open(ctx, service.OpenRequest{Article: query.Get("article") == "1"})
	return sess, false, err
}

// pump writes the session's patches until ctx is done or a newer connection
// claims the session.
func (h *WidgetHandler) pump(ctx context.Context, sess *service.Session, token uint64, write func(WidgetMessage) error) {
	logger := contextutil.LoggerFromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Page.Changed():
			patches, ok := sess.Drain(token)
			if !ok {
				// Pass the signal on to the connection that replaced this one.
				sess.Page.Notify()
				return
			}
			if len(patches) == 0 {
				continue
			}
			if err := write(WidgetMessage{Type: MsgPatch, Patches: patches}); err != nil {
				logger.DebugContext(ctx, "patch write failed", "error", err)
				return
			}
		}
	}
}

// StaticHandler serves a fixed asset.
type StaticHandler struct {
	contentType string
	body        []byte
}

// NewStaticHandler creates a StaticHandler.
func NewStaticHandler(contentType string, body []byte) *StaticHandler {
	return &StaticHandler{contentType: contentType, body: body}
}

// ServeHTTP writes the asset.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", h.contentType)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(h.body)
}
